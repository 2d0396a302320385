package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
)

const sectionColumns = `id, department_id, term, subject, course_number, section, title, notes, end_date, method, meeting_days, begin_time, end_time, room, faculty, status, created_at, updated_at`

const insertSectionQuery = `INSERT INTO class_sections (` + sectionColumns + `)
VALUES (:id, :department_id, :term, :subject, :course_number, :section, :title, :notes, :end_date, :method, :meeting_days, :begin_time, :end_time, :room, :faculty, :status, :created_at, :updated_at)`

// SectionRepository persists class sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns the sections of a department in insertion order.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.ClassSection, error) {
	conditions := []string{"department_id = $1"}
	args := []interface{}{filter.DepartmentID}
	if filter.Term != "" {
		args = append(args, filter.Term)
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Faculty != "" {
		args = append(args, strings.TrimSpace(filter.Faculty))
		conditions = append(conditions, fmt.Sprintf("LOWER(TRIM(faculty)) = LOWER($%d)", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM class_sections WHERE %s ORDER BY created_at ASC, id ASC", sectionColumns, strings.Join(conditions, " AND "))

	var sections []models.ClassSection
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a single section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sections WHERE id = $1", sectionColumns)
	var section models.ClassSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a section, generating id and timestamps when missing.
func (r *SectionRepository) Create(ctx context.Context, section *models.ClassSection) error {
	stampSection(section, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertSectionQuery, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// BulkCreate inserts all sections in one transaction.
func (r *SectionRepository) BulkCreate(ctx context.Context, sections []models.ClassSection) (err error) {
	if len(sections) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range sections {
		stampSection(&sections[i], now)
		if _, err = tx.NamedExecContext(ctx, insertSectionQuery, &sections[i]); err != nil {
			return fmt.Errorf("insert section %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit section import: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of the section.
func (r *SectionRepository) Update(ctx context.Context, section *models.ClassSection) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sections SET term = :term, subject = :subject, course_number = :course_number, section = :section,
title = :title, notes = :notes, end_date = :end_date, method = :method, meeting_days = :meeting_days, begin_time = :begin_time,
end_time = :end_time, room = :room, faculty = :faculty, status = :status, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, section)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return requireAffected(res)
}

// UpdateStatus changes only the status column.
func (r *SectionRepository) UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error {
	const query = `UPDATE class_sections SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update section status: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the record permanently.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return requireAffected(res)
}

// ApplyAssignments writes a matcher run in one transaction. A section that was
// given a real faculty member since the run loaded its state is left alone;
// only the assignments that actually updated a row are returned.
func (r *SectionRepository) ApplyAssignments(ctx context.Context, assignments []scheduling.Assignment) (applied []scheduling.Assignment, err error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE class_sections SET faculty = $1, status = $2, updated_at = $3
WHERE id = $4 AND status <> 'Delete' AND (TRIM(faculty) = '' OR LOWER(TRIM(faculty)) = 'staff')`
	now := time.Now().UTC()
	applied = make([]scheduling.Assignment, 0, len(assignments))
	for _, a := range assignments {
		res, execErr := tx.ExecContext(ctx, query, a.Faculty, models.SectionStatusChange, now, a.SectionID)
		if execErr != nil {
			err = fmt.Errorf("apply assignment %s: %w", a.SectionID, execErr)
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			applied = append(applied, a)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment batch: %w", err)
	}
	return applied, nil
}

func stampSection(section *models.ClassSection, now time.Time) {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.Status == "" {
		section.Status = models.SectionStatusNew
	}
	if strings.TrimSpace(section.Faculty) == "" {
		section.Faculty = models.FacultyStaff
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	if section.UpdatedAt.IsZero() {
		section.UpdatedAt = now
	}
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
