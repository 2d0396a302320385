package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

const instructorColumns = `id, department_id, name, email, employment_type, seniority, reminder_count, approval_state, approval_comment, approval_updated_at, is_scheduler, created_at, updated_at`

// InstructorRepository persists the faculty roster.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// ListByDepartment returns the roster ordered by seniority (unset last) then name.
func (r *InstructorRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE department_id = $1 ORDER BY COALESCE(seniority, %d) ASC, name ASC", instructorColumns, models.RosterUnsetSeniority)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, departmentID); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// FindByID returns an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Create inserts a roster entry in the Pending approval state.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	now := time.Now().UTC()
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	if instructor.ApprovalState == "" {
		instructor.ApprovalState = models.ApprovalPending
	}
	if instructor.EmploymentType == "" {
		instructor.EmploymentType = models.EmploymentFullTime
	}
	instructor.CreatedAt = now
	instructor.UpdatedAt = now
	const query = `INSERT INTO instructors (` + instructorColumns + `)
VALUES (:id, :department_id, :name, :email, :employment_type, :seniority, :reminder_count, :approval_state, :approval_comment, :approval_updated_at, :is_scheduler, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update persists profile and approval columns.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET name = :name, email = :email, employment_type = :employment_type, seniority = :seniority,
reminder_count = :reminder_count, approval_state = :approval_state, approval_comment = :approval_comment,
approval_updated_at = :approval_updated_at, is_scheduler = :is_scheduler, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, instructor)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a roster entry.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return requireAffected(res)
}
