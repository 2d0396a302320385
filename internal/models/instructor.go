package models

import (
	"errors"
	"time"
)

// EmploymentType distinguishes full- and part-time faculty.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "Full-Time"
	EmploymentPartTime EmploymentType = "Part-Time"
)

// ApprovalState tracks faculty sign-off on their schedule.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "Pending"
	ApprovalSent     ApprovalState = "Sent"
	ApprovalApproved ApprovalState = "Approved"
	ApprovalRejected ApprovalState = "Rejected"
)

// ApprovalAction drives the sign-off workflow.
type ApprovalAction string

const (
	ApprovalActionSend    ApprovalAction = "send"
	ApprovalActionApprove ApprovalAction = "approve"
	ApprovalActionReject  ApprovalAction = "reject"
	ApprovalActionReset   ApprovalAction = "reset"
)

// RosterUnsetSeniority is the roster rank used when seniority is not set.
const RosterUnsetSeniority = 99

// ErrApprovalTransition is returned for a workflow move the current state forbids.
var ErrApprovalTransition = errors.New("approval transition not allowed")

// Instructor is a faculty roster entry.
type Instructor struct {
	ID                string         `db:"id" json:"id"`
	DepartmentID      string         `db:"department_id" json:"department_id"`
	Name              string         `db:"name" json:"name"`
	Email             string         `db:"email" json:"email"`
	EmploymentType    EmploymentType `db:"employment_type" json:"employment_type"`
	Seniority         *int           `db:"seniority" json:"seniority,omitempty"`
	ReminderCount     int            `db:"reminder_count" json:"reminder_count"`
	ApprovalState     ApprovalState  `db:"approval_state" json:"approval_state"`
	ApprovalComment   *string        `db:"approval_comment" json:"approval_comment,omitempty"`
	ApprovalUpdatedAt *time.Time     `db:"approval_updated_at" json:"approval_updated_at,omitempty"`
	IsScheduler       bool           `db:"is_scheduler" json:"is_scheduler"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// RosterSeniority returns the seniority used to order the roster.
func (i Instructor) RosterSeniority() int {
	if i.Seniority == nil {
		return RosterUnsetSeniority
	}
	return *i.Seniority
}

// ApplyApproval returns the instructor after performing action at now.
func (i Instructor) ApplyApproval(action ApprovalAction, comment string, now time.Time) (Instructor, error) {
	state := i.ApprovalState
	if state == "" {
		state = ApprovalPending
	}
	next := i
	switch action {
	case ApprovalActionSend:
		switch state {
		case ApprovalPending, ApprovalRejected:
			next.ApprovalState = ApprovalSent
		case ApprovalSent:
			next.ReminderCount++
		default:
			return i, ErrApprovalTransition
		}
	case ApprovalActionApprove, ApprovalActionReject:
		if state != ApprovalSent {
			return i, ErrApprovalTransition
		}
		next.ApprovalState = ApprovalApproved
		if action == ApprovalActionReject {
			next.ApprovalState = ApprovalRejected
		}
		if comment != "" {
			c := comment
			next.ApprovalComment = &c
		}
	case ApprovalActionReset:
		next.ApprovalState = ApprovalPending
		next.ApprovalComment = nil
	default:
		return i, ErrApprovalTransition
	}
	ts := now.UTC()
	next.ApprovalUpdatedAt = &ts
	return next, nil
}
