package models

import (
	"strings"
	"time"
)

// SectionStatus is the lifecycle marker carried by every class section.
type SectionStatus string

const (
	SectionStatusNew      SectionStatus = "New"
	SectionStatusChange   SectionStatus = "Change"
	SectionStatusDelete   SectionStatus = "Delete"
	SectionStatusKeep     SectionStatus = "Keep"
	SectionStatusImported SectionStatus = "Imported"
)

// Sentinel values stored in the faculty and room columns.
const (
	FacultyStaff = "Staff"
	RoomOnline   = "ONLINE"
	RoomTBA      = "TBA"
)

// Valid reports whether the status is one of the five known values.
func (s SectionStatus) Valid() bool {
	switch s {
	case SectionStatusNew, SectionStatusChange, SectionStatusDelete, SectionStatusKeep, SectionStatusImported:
		return true
	default:
		return false
	}
}

// ClassSection is one scheduled (or placeholder) teaching assignment.
type ClassSection struct {
	ID           string        `db:"id" json:"id"`
	DepartmentID string        `db:"department_id" json:"department_id"`
	Term         string        `db:"term" json:"term"`
	Subject      string        `db:"subject" json:"subject"`
	CourseNumber string        `db:"course_number" json:"course_number"`
	Section      string        `db:"section" json:"section"`
	Title        string        `db:"title" json:"title"`
	Notes        string        `db:"notes" json:"notes"`
	EndDate      string        `db:"end_date" json:"end_date"`
	Method       string        `db:"method" json:"method"`
	MeetingDays  string        `db:"meeting_days" json:"meeting_days"`
	BeginTime    string        `db:"begin_time" json:"begin_time"`
	EndTime      string        `db:"end_time" json:"end_time"`
	Room         string        `db:"room" json:"room"`
	Faculty      string        `db:"faculty" json:"faculty"`
	Status       SectionStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// IsActive is false for logically removed sections.
func (s ClassSection) IsActive() bool {
	return s.Status != SectionStatusDelete
}

// IsUnassigned reports whether the section still carries the Staff placeholder.
func (s ClassSection) IsUnassigned() bool {
	faculty := strings.TrimSpace(s.Faculty)
	return faculty == "" || strings.EqualFold(faculty, FacultyStaff)
}

// IsPlaceholder reports an imported template row nobody has committed to yet.
func (s ClassSection) IsPlaceholder() bool {
	return s.Status == SectionStatusImported && s.IsUnassigned()
}

// CountsTowardLoad reports whether the section counts against its faculty's load.
func (s ClassSection) CountsTowardLoad() bool {
	return s.Status != SectionStatusDelete && s.Status != SectionStatusImported
}

// Label renders SUBJ NUM-SEC.
func (s ClassSection) Label() string {
	return s.Subject + " " + s.CourseNumber + "-" + s.Section
}

// SchedulingChanged reports whether next differs from s in any field that
// changes when, where, what or by whom the section is taught.
func (s ClassSection) SchedulingChanged(next ClassSection) bool {
	return s.MeetingDays != next.MeetingDays ||
		s.BeginTime != next.BeginTime ||
		s.EndTime != next.EndTime ||
		s.Room != next.Room ||
		s.Faculty != next.Faculty ||
		s.Title != next.Title ||
		s.Method != next.Method ||
		s.Section != next.Section
}

// NextStatusOnEdit resolves the status a section takes after an edit.
// An explicit status always wins. Imported and Keep sections whose
// scheduling fields changed become Change; an Imported section edited
// without such a change is confirmed as Keep. New and Change are sticky.
func NextStatusOnEdit(current, explicit SectionStatus, schedulingChanged bool) SectionStatus {
	if explicit != "" {
		return explicit
	}
	switch current {
	case SectionStatusImported:
		if schedulingChanged {
			return SectionStatusChange
		}
		return SectionStatusKeep
	case SectionStatusKeep:
		if schedulingChanged {
			return SectionStatusChange
		}
		return SectionStatusKeep
	case "":
		return SectionStatusNew
	default:
		return current
	}
}

// SectionFilter narrows section listings.
type SectionFilter struct {
	DepartmentID string
	Term         string
	Status       *SectionStatus
	Faculty      string
}
