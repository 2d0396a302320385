package scheduling

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// SortCriterion selects one of the schedule orderings.
type SortCriterion string

const (
	SortByCourse  SortCriterion = "course"
	SortByTime    SortCriterion = "time"
	SortByRoom    SortCriterion = "room"
	SortByFaculty SortCriterion = "faculty"
	SortByStatus  SortCriterion = "status"
)

// SortCriteria lists every supported criterion.
var SortCriteria = []SortCriterion{SortByCourse, SortByTime, SortByRoom, SortByFaculty, SortByStatus}

// ParseSortCriterion resolves a criterion name. Blank input means course;
// unknown names fall back to course and report false.
func ParseSortCriterion(raw string) (SortCriterion, bool) {
	name := SortCriterion(strings.ToLower(strings.TrimSpace(raw)))
	if name == "" {
		return SortByCourse, true
	}
	for _, c := range SortCriteria {
		if c == name {
			return c, true
		}
	}
	return SortByCourse, false
}

// collates after any real faculty name
const unnamedFaculty = "\uffff"

var statusRank = map[models.SectionStatus]int{
	models.SectionStatusNew:      0,
	models.SectionStatusChange:   1,
	models.SectionStatusDelete:   2,
	models.SectionStatusImported: 3,
	models.SectionStatusKeep:     4,
}

// Sort returns a stably ordered copy of sections.
func Sort(sections []models.ClassSection, criterion SortCriterion) []models.ClassSection {
	out := make([]models.ClassSection, len(sections))
	copy(out, sections)
	cmp := comparator(criterion)
	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(criterion SortCriterion) func(a, b models.ClassSection) int {
	switch criterion {
	case SortByTime:
		return func(a, b models.ClassSection) int {
			return chain(compareDayTime(a, b), compareStrings(a.Room, b.Room))
		}
	case SortByRoom:
		return func(a, b models.ClassSection) int {
			return chain(compareStrings(a.Room, b.Room), compareDayTime(a, b))
		}
	case SortByFaculty:
		return func(a, b models.ClassSection) int {
			return chain(compareStrings(facultyKey(a.Faculty), facultyKey(b.Faculty)), compareDayTime(a, b))
		}
	case SortByStatus:
		return func(a, b models.ClassSection) int {
			return chain(
				compareInts(rankOfStatus(a.Status), rankOfStatus(b.Status)),
				compareStrings(a.Subject, b.Subject),
				compareInts(CourseNumberValue(a.CourseNumber), CourseNumberValue(b.CourseNumber)),
			)
		}
	default:
		return compareCourse
	}
}

func compareCourse(a, b models.ClassSection) int {
	return chain(
		compareStrings(a.Subject, b.Subject),
		compareInts(CourseNumberValue(a.CourseNumber), CourseNumberValue(b.CourseNumber)),
		compareStrings(a.CourseNumber, b.CourseNumber),
		compareStrings(a.Section, b.Section),
	)
}

func compareDayTime(a, b models.ClassSection) int {
	return chain(
		compareInts(FirstDayIndex(a.MeetingDays), FirstDayIndex(b.MeetingDays)),
		compareInts(ParseTimeMinutes(a.BeginTime), ParseTimeMinutes(b.BeginTime)),
	)
}

// CourseNumberValue parses the digits of a course number; none yields 0.
func CourseNumberValue(raw string) int {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

func rankOfStatus(s models.SectionStatus) int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return len(statusRank)
}

func facultyKey(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return unnamedFaculty
	}
	return trimmed
}

func chain(results ...int) int {
	for _, r := range results {
		if r != 0 {
			return r
		}
	}
	return 0
}

func compareStrings(a, b string) int {
	return strings.Compare(a, b)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
