package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

const facultyRequestColumns = `id, department_id, faculty_name, term, load_desired, preferences, willing_live, willing_online, willing_hybrid, online_certified, email, phone, notes, submitted_at, updated_at`

// FacultyRequestRepository persists faculty preference submissions.
type FacultyRequestRepository struct {
	db *sqlx.DB
}

// NewFacultyRequestRepository constructs the repository.
func NewFacultyRequestRepository(db *sqlx.DB) *FacultyRequestRepository {
	return &FacultyRequestRepository{db: db}
}

// ListByDepartment returns requests in submission order.
func (r *FacultyRequestRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultyRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty_requests WHERE department_id = $1 ORDER BY submitted_at ASC, id ASC", facultyRequestColumns)
	var requests []models.FacultyRequest
	if err := r.db.SelectContext(ctx, &requests, query, departmentID); err != nil {
		return nil, fmt.Errorf("list faculty requests: %w", err)
	}
	return requests, nil
}

// FindByID returns a request by id.
func (r *FacultyRequestRepository) FindByID(ctx context.Context, id string) (*models.FacultyRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty_requests WHERE id = $1", facultyRequestColumns)
	var request models.FacultyRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByName matches a department's request by trimmed, case-insensitive faculty name.
func (r *FacultyRequestRepository) FindByName(ctx context.Context, departmentID, facultyName string) (*models.FacultyRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty_requests WHERE department_id = $1 AND LOWER(TRIM(faculty_name)) = LOWER($2) ORDER BY submitted_at ASC LIMIT 1", facultyRequestColumns)
	var request models.FacultyRequest
	if err := r.db.GetContext(ctx, &request, query, departmentID, strings.TrimSpace(facultyName)); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a new request.
func (r *FacultyRequestRepository) Create(ctx context.Context, request *models.FacultyRequest) error {
	now := time.Now().UTC()
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = now
	}
	request.UpdatedAt = now
	if len(request.Preferences) == 0 {
		request.Preferences = []byte("[]")
	}
	const query = `INSERT INTO faculty_requests (` + facultyRequestColumns + `)
VALUES (:id, :department_id, :faculty_name, :term, :load_desired, :preferences, :willing_live, :willing_online, :willing_hybrid, :online_certified, :email, :phone, :notes, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create faculty request: %w", err)
	}
	return nil
}

// Update replaces the stored request in place; submitted_at is preserved.
func (r *FacultyRequestRepository) Update(ctx context.Context, request *models.FacultyRequest) error {
	request.UpdatedAt = time.Now().UTC()
	if len(request.Preferences) == 0 {
		request.Preferences = []byte("[]")
	}
	const query = `UPDATE faculty_requests SET faculty_name = :faculty_name, term = :term, load_desired = :load_desired,
preferences = :preferences, willing_live = :willing_live, willing_online = :willing_online, willing_hybrid = :willing_hybrid,
online_certified = :online_certified, email = :email, phone = :phone, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update faculty request: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a request.
func (r *FacultyRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faculty_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faculty request: %w", err)
	}
	return requireAffected(res)
}
