package dto

import "github.com/noah-isme/dept-scheduler-api/internal/models"

// SubmitRequestPayload creates or replaces a faculty member's term request.
type SubmitRequestPayload struct {
	ID              string                 `json:"id"`
	DepartmentID    string                 `json:"department_id"`
	FacultyName     string                 `json:"faculty_name" validate:"required,max=128"`
	Term            string                 `json:"term" validate:"max=32"`
	LoadDesired     int                    `json:"load_desired" validate:"min=0,max=20"`
	Preferences     []models.PreferenceRow `json:"preferences" validate:"omitempty,dive"`
	WillingLive     bool                   `json:"willing_live"`
	WillingOnline   bool                   `json:"willing_online"`
	WillingHybrid   bool                   `json:"willing_hybrid"`
	OnlineCertified bool                   `json:"online_certified"`
	Email           string                 `json:"email" validate:"omitempty,email"`
	Phone           string                 `json:"phone" validate:"max=32"`
	Notes           string                 `json:"notes"`
}

// FacultyRequestItem decorates a stored request with its current standing.
type FacultyRequestItem struct {
	Request       models.FacultyRequest  `json:"request"`
	Preferences   []models.PreferenceRow `json:"preferences"`
	AssignedCount int                    `json:"assigned_count"`
	Satisfied     bool                   `json:"satisfied"`
}

// InstructorPayload creates or updates a roster entry.
type InstructorPayload struct {
	DepartmentID   string                `json:"department_id"`
	Name           string                `json:"name" validate:"required,max=128"`
	Email          string                `json:"email" validate:"omitempty,email"`
	EmploymentType models.EmploymentType `json:"employment_type" validate:"omitempty,oneof=Full-Time Part-Time"`
	Seniority      *int                  `json:"seniority" validate:"omitempty,min=0"`
	IsScheduler    bool                  `json:"is_scheduler"`
}

// ApprovalPayload carries an optional comment for approve/reject.
type ApprovalPayload struct {
	Comment string `json:"comment" validate:"max=1000"`
}
