package dto

import (
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
)

// SectionListQuery filters GET /sections.
type SectionListQuery struct {
	DepartmentID string `form:"department_id" json:"department_id"`
	Term         string `form:"term" json:"term"`
	Sort         string `form:"sort" json:"sort"`
	Status       string `form:"status" json:"status"`
	Faculty      string `form:"faculty" json:"faculty"`
}

// SectionItem pairs a section with its advisory room conflicts.
type SectionItem struct {
	Section   models.ClassSection   `json:"section"`
	Conflicts []scheduling.Conflict `json:"conflicts"`
}

// SectionListResponse is the sorted, annotated listing of one department term.
type SectionListResponse struct {
	DepartmentID  string        `json:"department_id"`
	Term          string        `json:"term,omitempty"`
	Sort          string        `json:"sort"`
	Revision      int64         `json:"revision"`
	Items         []SectionItem `json:"items"`
	ConflictCount int           `json:"conflict_count"`
	CacheHit      bool          `json:"-"`
}

// CreateSectionRequest adds a section by hand.
type CreateSectionRequest struct {
	DepartmentID string               `json:"department_id"`
	Term         string               `json:"term" validate:"required,max=32"`
	Subject      string               `json:"subject" validate:"required,max=16"`
	CourseNumber string               `json:"course_number" validate:"required,max=16"`
	Section      string               `json:"section" validate:"required,max=16"`
	Title        string               `json:"title" validate:"max=255"`
	Notes        string               `json:"notes"`
	EndDate      string               `json:"end_date"`
	Method       string               `json:"method" validate:"max=32"`
	MeetingDays  string               `json:"meeting_days" validate:"omitempty,meeting_days"`
	BeginTime    string               `json:"begin_time" validate:"omitempty,clock_time"`
	EndTime      string               `json:"end_time" validate:"omitempty,clock_time"`
	Room         string               `json:"room" validate:"max=64"`
	Faculty      string               `json:"faculty" validate:"max=128"`
	Status       models.SectionStatus `json:"status" validate:"omitempty,section_status"`
}

// UpdateSectionRequest carries a partial edit; nil fields are left untouched.
type UpdateSectionRequest struct {
	Term         *string               `json:"term" validate:"omitempty,max=32"`
	Subject      *string               `json:"subject" validate:"omitempty,max=16"`
	CourseNumber *string               `json:"course_number" validate:"omitempty,max=16"`
	Section      *string               `json:"section" validate:"omitempty,max=16"`
	Title        *string               `json:"title" validate:"omitempty,max=255"`
	Notes        *string               `json:"notes"`
	EndDate      *string               `json:"end_date"`
	Method       *string               `json:"method" validate:"omitempty,max=32"`
	MeetingDays  *string               `json:"meeting_days" validate:"omitempty,meeting_days"`
	BeginTime    *string               `json:"begin_time" validate:"omitempty,clock_time"`
	EndTime      *string               `json:"end_time" validate:"omitempty,clock_time"`
	Room         *string               `json:"room" validate:"omitempty,max=64"`
	Faculty      *string               `json:"faculty" validate:"omitempty,max=128"`
	Status       *models.SectionStatus `json:"status" validate:"omitempty,section_status"`
}

// SectionWriteResponse is returned by every section write. Warnings never
// block the save.
type SectionWriteResponse struct {
	Section  models.ClassSection   `json:"section"`
	Warnings []scheduling.Conflict `json:"warnings"`
}

// FreeRoomsResponse lists rooms free during a section's meeting pattern.
type FreeRoomsResponse struct {
	SectionID string   `json:"section_id"`
	Rooms     []string `json:"rooms"`
}

// ImportSectionsRequest describes one CSV upload.
type ImportSectionsRequest struct {
	DepartmentID string
	TermOverride string
	Content      string
}

// ImportSectionsResponse summarises a CSV import.
type ImportSectionsResponse struct {
	Imported   int    `json:"imported"`
	Dropped    int    `json:"dropped"`
	HeaderLine int    `json:"header_line"`
	Term       string `json:"term,omitempty"`
}

// ReplayArchiveRequest copies a previous term's sections into a new term.
type ReplayArchiveRequest struct {
	DepartmentID string `json:"department_id"`
	FromTerm     string `json:"from_term" validate:"required"`
	ToTerm       string `json:"to_term" validate:"required,nefield=FromTerm"`
}

// ReplayArchiveResponse reports how many sections were copied.
type ReplayArchiveResponse struct {
	FromTerm string `json:"from_term"`
	ToTerm   string `json:"to_term"`
	Copied   int    `json:"copied"`
}

// TimeOption is one selectable meeting pattern.
type TimeOption struct {
	Label     string `json:"label"`
	Days      string `json:"days"`
	BeginTime string `json:"begin_time"`
	EndTime   string `json:"end_time"`
	Canonical bool   `json:"canonical"`
}

// SectionOptionsResponse feeds the editor's room and time pickers.
type SectionOptionsResponse struct {
	Rooms      []string     `json:"rooms"`
	TimeBlocks []TimeOption `json:"time_blocks"`
	Faculty    []string     `json:"faculty"`
}
