package dto

import (
	"time"

	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
)

// AutoAssignToggleRequest flips the department's auto-assign switch.
type AutoAssignToggleRequest struct {
	DepartmentID string `json:"department_id"`
	Enabled      *bool  `json:"enabled" validate:"required"`
}

// AutoAssignRun summarises one matcher pass.
type AutoAssignRun struct {
	RunNumber    int64                   `json:"run_number"`
	DepartmentID string                  `json:"department_id"`
	Trigger      string                  `json:"trigger"`
	Assignments  []scheduling.Assignment `json:"assignments"`
	// Skipped holds matches whose section was claimed before the batch landed.
	Skipped      []scheduling.Assignment `json:"skipped"`
	Satisfied    []string                `json:"satisfied"`
	Short        []string                `json:"short"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Error        string                  `json:"error,omitempty"`
}

// AutoAssignStatus reports the toggle plus the most recent run.
type AutoAssignStatus struct {
	DepartmentID string         `json:"department_id"`
	Enabled      bool           `json:"enabled"`
	Pending      bool           `json:"pending"`
	LastRun      *AutoAssignRun `json:"last_run,omitempty"`
}

// AssistantAskRequest is a free-form question about the current schedule.
type AssistantAskRequest struct {
	DepartmentID string `json:"department_id"`
	Term         string `json:"term"`
	Question     string `json:"question" validate:"required,max=4000"`
}

// AssistantAskResponse returns the collaborator's answer verbatim.
type AssistantAskResponse struct {
	Answer string `json:"answer"`
}
