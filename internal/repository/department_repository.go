package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// DepartmentRepository reads departments and their reference data.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindByID returns a department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, active_term, auto_assign_enabled, created_at, updated_at FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// SetAutoAssign flips the auto-assign toggle.
func (r *DepartmentRepository) SetAutoAssign(ctx context.Context, id string, enabled bool) error {
	const query = `UPDATE departments SET auto_assign_enabled = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set auto assign: %w", err)
	}
	return requireAffected(res)
}

// ListRooms returns the canonical rooms of a department.
func (r *DepartmentRepository) ListRooms(ctx context.Context, departmentID string) ([]models.Room, error) {
	const query = `SELECT id, department_id, name, capacity, created_at FROM rooms WHERE department_id = $1 ORDER BY name ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, departmentID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListTimeBlocks returns the canonical meeting patterns of a department.
func (r *DepartmentRepository) ListTimeBlocks(ctx context.Context, departmentID string) ([]models.TimeBlock, error) {
	const query = `SELECT id, department_id, label, days, begin_time, end_time, created_at FROM time_blocks WHERE department_id = $1 ORDER BY label ASC`
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, departmentID); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}
