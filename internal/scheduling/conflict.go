package scheduling

import (
	"fmt"
	"strings"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// Conflict describes a room double-booking against another section.
type Conflict struct {
	SectionID string `json:"section_id"`
	OtherID   string `json:"other_id"`
	Room      string `json:"room"`
	Message   string `json:"message"`
}

// IsVirtualRoom reports rooms that never hold a physical booking.
func IsVirtualRoom(room string) bool {
	r := strings.ToUpper(strings.TrimSpace(room))
	return r == "" || r == models.RoomOnline || r == models.RoomTBA
}

func sameRoom(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func hasMeetingPattern(s models.ClassSection) bool {
	return strings.TrimSpace(s.MeetingDays) != "" &&
		strings.TrimSpace(s.BeginTime) != "" &&
		strings.TrimSpace(s.EndTime) != ""
}

// occupies reports whether s takes up a physical room at a known time.
func occupies(s models.ClassSection) bool {
	return s.IsActive() && !IsVirtualRoom(s.Room) && hasMeetingPattern(s)
}

func clash(a, b models.ClassSection) bool {
	if !DaysOverlap(a.MeetingDays, b.MeetingDays) {
		return false
	}
	return TimesOverlap(
		ParseTimeMinutes(a.BeginTime), ParseTimeMinutes(a.EndTime),
		ParseTimeMinutes(b.BeginTime), ParseTimeMinutes(b.EndTime),
	)
}

// DetectConflicts lists every other section of the same department booked
// into the same room on an overlapping day and time. Sections in virtual
// rooms, without a full meeting pattern, or marked Delete are exempt.
func DetectConflicts(section models.ClassSection, all []models.ClassSection) []Conflict {
	if !occupies(section) {
		return nil
	}
	var conflicts []Conflict
	for _, other := range all {
		if other.ID == section.ID || other.DepartmentID != section.DepartmentID {
			continue
		}
		if !occupies(other) || !sameRoom(section.Room, other.Room) {
			continue
		}
		if !clash(section, other) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			SectionID: section.ID,
			OtherID:   other.ID,
			Room:      strings.TrimSpace(other.Room),
			Message: fmt.Sprintf("Conflicts with %s (%s %s-%s) in %s",
				other.Label(), other.MeetingDays, other.BeginTime, other.EndTime, strings.TrimSpace(other.Room)),
		})
	}
	return conflicts
}

// Sweep runs DetectConflicts for every section and keeps the non-empty results.
func Sweep(all []models.ClassSection) map[string][]Conflict {
	result := make(map[string][]Conflict)
	for _, section := range all {
		if conflicts := DetectConflicts(section, all); len(conflicts) > 0 {
			result[section.ID] = conflicts
		}
	}
	return result
}

// FreeRooms returns, in input order, the rooms no other active section of the
// department occupies while section meets. A section without a meeting
// pattern gets no suggestions.
func FreeRooms(section models.ClassSection, rooms []string, all []models.ClassSection) []string {
	free := make([]string, 0, len(rooms))
	if !hasMeetingPattern(section) {
		return free
	}
	begin := ParseTimeMinutes(section.BeginTime)
	end := ParseTimeMinutes(section.EndTime)
	if !validInterval(begin, end) {
		return free
	}

	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		name := strings.TrimSpace(room)
		key := strings.ToUpper(name)
		if IsVirtualRoom(name) || seen[key] {
			continue
		}
		seen[key] = true

		busy := false
		for _, other := range all {
			if other.ID == section.ID || other.DepartmentID != section.DepartmentID {
				continue
			}
			if !occupies(other) || !sameRoom(other.Room, name) {
				continue
			}
			if clash(section, other) {
				busy = true
				break
			}
		}
		if !busy {
			free = append(free, name)
		}
	}
	return free
}
