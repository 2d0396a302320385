package scheduling

import (
	"sort"
	"strings"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// MissingSeniority orders requests whose instructor is unknown or unranked last.
const MissingSeniority = 999

// Assignment binds one placeholder section to a faculty member.
type Assignment struct {
	SectionID      string               `json:"section_id"`
	Faculty        string               `json:"faculty"`
	RequestID      string               `json:"request_id"`
	Rank           int                  `json:"rank"`
	PreviousStatus models.SectionStatus `json:"previous_status"`
}

// MatchResult is the outcome of one matcher pass.
type MatchResult struct {
	Assignments []Assignment `json:"assignments"`
	// Satisfied holds requests skipped because their load was already met.
	Satisfied []string `json:"satisfied"`
	// Short holds requests still under load after the pass.
	Short []string `json:"short"`
}

// Match runs the seniority-ordered greedy pass binding unassigned sections to
// faculty preferences. Inputs are not modified; the caller applies the
// returned assignments (faculty set, status Change).
func Match(requests []models.FacultyRequest, instructors []models.Instructor, sections []models.ClassSection) MatchResult {
	working := make([]models.ClassSection, len(sections))
	copy(working, sections)

	order := make([]int, len(working))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareCourse(working[order[a]], working[order[b]]) < 0
	})

	result := MatchResult{}
	claimed := make(map[int]bool)

	for _, req := range orderBySeniority(requests, instructors) {
		name := strings.TrimSpace(req.FacultyName)
		if name == "" {
			continue
		}
		assigned := assignedCount(working, req.DepartmentID, name)
		if assigned >= req.LoadDesired {
			result.Satisfied = append(result.Satisfied, req.ID)
			continue
		}

		// undecodable preferences leave the request without wishes
		prefs, _ := req.PreferenceRows()
		for _, pref := range prefs {
			if assigned >= req.LoadDesired {
				break
			}
			for _, idx := range order {
				candidate := &working[idx]
				if claimed[idx] || !isCandidate(*candidate, req.DepartmentID) {
					continue
				}
				if !TitlesMatch(candidate.Title, pref.ClassTitle) || !daysCompatible(*candidate, pref.Days) {
					continue
				}
				result.Assignments = append(result.Assignments, Assignment{
					SectionID:      candidate.ID,
					Faculty:        name,
					RequestID:      req.ID,
					Rank:           pref.Rank,
					PreviousStatus: candidate.Status,
				})
				candidate.Faculty = name
				candidate.Status = models.SectionStatusChange
				claimed[idx] = true
				assigned++
				break
			}
		}
		if assigned < req.LoadDesired {
			result.Short = append(result.Short, req.ID)
		}
	}
	return result
}

// AssignedCount counts the active sections already carrying faculty's name.
func AssignedCount(sections []models.ClassSection, departmentID, faculty string) int {
	return assignedCount(sections, departmentID, strings.TrimSpace(faculty))
}

func assignedCount(sections []models.ClassSection, departmentID, faculty string) int {
	count := 0
	for _, s := range sections {
		if s.DepartmentID != departmentID || !s.CountsTowardLoad() {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Faculty), faculty) {
			count++
		}
	}
	return count
}

func orderBySeniority(requests []models.FacultyRequest, instructors []models.Instructor) []models.FacultyRequest {
	seniority := make(map[string]int, len(instructors))
	for _, inst := range instructors {
		if inst.Seniority == nil {
			continue
		}
		seniority[instructorKey(inst.DepartmentID, inst.Name)] = *inst.Seniority
	}
	rankOf := func(req models.FacultyRequest) int {
		if rank, ok := seniority[instructorKey(req.DepartmentID, req.FacultyName)]; ok {
			return rank
		}
		return MissingSeniority
	}

	ordered := make([]models.FacultyRequest, len(requests))
	copy(ordered, requests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rankOf(ordered[i]) < rankOf(ordered[j])
	})
	return ordered
}

func instructorKey(departmentID, name string) string {
	return departmentID + "|" + strings.ToLower(strings.TrimSpace(name))
}

func isCandidate(s models.ClassSection, departmentID string) bool {
	return s.DepartmentID == departmentID && s.IsActive() && s.IsUnassigned()
}

// TitlesMatch is a case-insensitive containment test in either direction.
// Blank titles never match.
func TitlesMatch(sectionTitle, wanted string) bool {
	a := strings.ToLower(strings.TrimSpace(sectionTitle))
	b := strings.ToLower(strings.TrimSpace(wanted))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// daysCompatible only constrains sections with a begin time and meeting days
// against preferences naming at least one day.
func daysCompatible(s models.ClassSection, preferredDays []string) bool {
	days := strings.ToUpper(strings.TrimSpace(s.MeetingDays))
	if strings.TrimSpace(s.BeginTime) == "" || days == "" || len(preferredDays) == 0 {
		return true
	}
	wanted := DayCodes(preferredDays)
	return strings.Contains(wanted, days) || strings.Contains(days, wanted)
}
