// Package scheduling holds the pure department scheduling engine: the time
// and day model, room conflict detection, schedule ordering, CSV ingestion,
// the preference matcher and room utilisation.
package scheduling

import (
	"strconv"
	"strings"
)

// InvalidTime is returned for any time string that cannot be parsed. It sorts
// after every valid minute offset.
const InvalidTime = 9999

// DayOrder is the canonical weekday alphabet.
const DayOrder = "MTWRFSU"

var weekdays = []struct {
	code string
	name string
}{
	{"M", "Monday"},
	{"T", "Tuesday"},
	{"W", "Wednesday"},
	{"R", "Thursday"},
	{"F", "Friday"},
	{"S", "Saturday"},
	{"U", "Sunday"},
}

// ParseTimeMinutes converts "H:MM AM|PM" into minutes since midnight.
func ParseTimeMinutes(text string) int {
	s := strings.ToUpper(strings.TrimSpace(text))
	var meridiem string
	switch {
	case strings.HasSuffix(s, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(s, "PM"):
		meridiem = "PM"
	default:
		return InvalidTime
	}

	clock := strings.TrimSuffix(s, meridiem)
	clock = strings.TrimSuffix(clock, " ")
	hourPart, minutePart, ok := strings.Cut(clock, ":")
	if !ok || len(hourPart) < 1 || len(hourPart) > 2 || len(minutePart) != 2 {
		return InvalidTime
	}
	if !isDigits(hourPart) || !isDigits(minutePart) {
		return InvalidTime
	}

	hour, _ := strconv.Atoi(hourPart)
	minute, _ := strconv.Atoi(minutePart)
	if hour < 1 || hour > 12 || minute > 59 {
		return InvalidTime
	}

	hour %= 12
	if meridiem == "PM" {
		hour += 12
	}
	return hour*60 + minute
}

// FormatMinutes renders a minute offset back into "H:MM AM|PM".
func FormatMinutes(minutes int) string {
	if minutes < 0 || minutes >= 24*60 {
		return ""
	}
	hour := minutes / 60
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return strconv.Itoa(hour) + ":" + twoDigits(minutes%60) + " " + meridiem
}

// DayCode maps a weekday name to its single-letter code. Full names,
// prefixes of at least three letters and the codes themselves are accepted.
func DayCode(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) == 1 {
		code := strings.ToUpper(n)
		if strings.Contains(DayOrder, code) {
			return code
		}
		return ""
	}
	if len(n) < 3 {
		return ""
	}
	for _, day := range weekdays {
		if strings.HasPrefix(strings.ToLower(day.name), n) {
			return day.code
		}
	}
	return ""
}

// DayName maps a single-letter code back to the weekday name.
func DayName(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, day := range weekdays {
		if day.code == c {
			return day.name
		}
	}
	return ""
}

// DayCodes converts weekday names into a code string in canonical order.
func DayCodes(names []string) string {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		if code := DayCode(name); code != "" {
			present[code] = true
		}
	}
	var b strings.Builder
	for _, day := range weekdays {
		if present[day.code] {
			b.WriteString(day.code)
		}
	}
	return b.String()
}

// DaysOverlap reports whether two day strings share a day.
func DaysOverlap(a, b string) bool {
	ua := strings.ToUpper(a)
	ub := strings.ToUpper(b)
	for _, r := range ua {
		if r == ' ' || r == '\t' {
			continue
		}
		if strings.ContainsRune(ub, r) {
			return true
		}
	}
	return false
}

// TimesOverlap applies the half-open interval test. Degenerate or
// unparseable intervals never overlap anything.
func TimesOverlap(start1, end1, start2, end2 int) bool {
	if !validInterval(start1, end1) || !validInterval(start2, end2) {
		return false
	}
	return max(start1, start2) < min(end1, end2)
}

// FirstDayIndex is the position in DayOrder of the earliest day present, or
// len(DayOrder) when no known day is present.
func FirstDayIndex(days string) int {
	upper := strings.ToUpper(days)
	for i, r := range DayOrder {
		if strings.ContainsRune(upper, r) {
			return i
		}
	}
	return len(DayOrder)
}

// CountDays counts distinct known weekdays in a day string.
func CountDays(days string) int {
	upper := strings.ToUpper(days)
	count := 0
	for _, r := range DayOrder {
		if strings.ContainsRune(upper, r) {
			count++
		}
	}
	return count
}

func validInterval(start, end int) bool {
	if start == InvalidTime || end == InvalidTime {
		return false
	}
	return end > start
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
