package models

import "time"

// Audit actions recorded for schedule writes.
const (
	AuditActionSectionWrite    = "SECTION_WRITE"
	AuditActionSectionImport   = "SECTION_IMPORT"
	AuditActionSectionDelete   = "SECTION_DELETE"
	AuditActionInstructorWrite = "INSTRUCTOR_WRITE"
	AuditActionApproval        = "REQUEST_APPROVAL"
	AuditActionAutoAssign      = "AUTO_ASSIGN"
)

// AuditLog is one row of the write audit trail.
type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Action       string    `db:"action" json:"action"`
	Resource     string    `db:"resource" json:"resource"`
	ResourceID   *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues    []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	UserAgent    string    `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
