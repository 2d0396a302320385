package models

import "time"

// Department is the partition every scheduling record belongs to.
type Department struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	ActiveTerm        string    `db:"active_term" json:"active_term"`
	AutoAssignEnabled bool      `db:"auto_assign_enabled" json:"auto_assign_enabled"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Room is a canonical bookable room.
type Room struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TimeBlock is a canonical meeting pattern offered in the editor.
type TimeBlock struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Label        string    `db:"label" json:"label"`
	Days         string    `db:"days" json:"days"`
	BeginTime    string    `db:"begin_time" json:"begin_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Change feed collections.
const (
	CollectionSections    = "sections"
	CollectionRequests    = "faculty_requests"
	CollectionInstructors = "instructors"
	CollectionDepartments = "departments"
)

// Change feed operations.
const (
	ChangeOpAdd    = "add"
	ChangeOpUpdate = "update"
	ChangeOpDelete = "delete"
	ChangeOpBatch  = "batch"
)

// ChangeEvent announces a write inside a department partition.
type ChangeEvent struct {
	Collection   string    `json:"collection"`
	DepartmentID string    `json:"department_id"`
	RecordID     string    `json:"record_id,omitempty"`
	Op           string    `json:"op"`
	Revision     int64     `json:"revision"`
	Origin       string    `json:"origin,omitempty"`
	At           time.Time `json:"at"`
}
