package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type instructorStore interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Instructor, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id string) error
}

// InstructorService manages the faculty roster and sign-off workflow.
type InstructorService struct {
	repo      instructorStore
	feed      changePublisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInstructorService constructs the roster service.
func NewInstructorService(repo instructorStore, feed changePublisher, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, feed: feed, validator: validate, logger: logger, now: time.Now}
}

// List returns the roster by seniority (unset last) then name.
func (s *InstructorService) List(ctx context.Context, actor *models.JWTClaims, departmentID string) ([]models.Instructor, error) {
	dept, err := ResolveDepartment(actor, departmentID)
	if err != nil {
		return nil, err
	}
	roster, err := s.repo.ListByDepartment(ctx, dept)
	if err != nil {
		return nil, internalError(err, "failed to list instructors")
	}
	sort.SliceStable(roster, func(i, j int) bool {
		si, sj := roster[i].RosterSeniority(), roster[j].RosterSeniority()
		if si != sj {
			return si < sj
		}
		return strings.ToLower(roster[i].Name) < strings.ToLower(roster[j].Name)
	})
	return roster, nil
}

// Create adds a roster entry in the Pending state.
func (s *InstructorService) Create(ctx context.Context, actor *models.JWTClaims, payload dto.InstructorPayload) (*models.Instructor, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid instructor payload")
	}
	dept, err := ResolveDepartment(actor, payload.DepartmentID)
	if err != nil {
		return nil, err
	}
	instructor := &models.Instructor{
		DepartmentID:   dept,
		Name:           strings.TrimSpace(payload.Name),
		Email:          strings.TrimSpace(payload.Email),
		EmploymentType: payload.EmploymentType,
		Seniority:      payload.Seniority,
		ApprovalState:  models.ApprovalPending,
		IsScheduler:    payload.IsScheduler,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, internalError(err, "failed to create instructor")
	}
	publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionInstructors, DepartmentID: dept, RecordID: instructor.ID, Op: models.ChangeOpAdd})
	return instructor, nil
}

// Update replaces the profile fields; approval state is untouched.
func (s *InstructorService) Update(ctx context.Context, actor *models.JWTClaims, id string, payload dto.InstructorPayload) (*models.Instructor, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid instructor payload")
	}
	instructor, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	instructor.Name = strings.TrimSpace(payload.Name)
	instructor.Email = strings.TrimSpace(payload.Email)
	if payload.EmploymentType != "" {
		instructor.EmploymentType = payload.EmploymentType
	}
	instructor.Seniority = payload.Seniority
	instructor.IsScheduler = payload.IsScheduler
	if err := s.save(ctx, instructor); err != nil {
		return nil, err
	}
	return instructor, nil
}

// Delete removes a roster entry.
func (s *InstructorService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	instructor, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return internalError(err, "failed to delete instructor")
	}
	publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionInstructors, DepartmentID: instructor.DepartmentID, RecordID: id, Op: models.ChangeOpDelete})
	return nil
}

// Approval moves the instructor through the sign-off workflow. Faculty
// callers may only approve or reject their own schedule.
func (s *InstructorService) Approval(ctx context.Context, actor *models.JWTClaims, id, action string, payload dto.ApprovalPayload) (*models.Instructor, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, validationError(err, "invalid approval payload")
	}
	act := models.ApprovalAction(strings.ToLower(strings.TrimSpace(action)))
	switch act {
	case models.ApprovalActionSend, models.ApprovalActionApprove, models.ApprovalActionReject, models.ApprovalActionReset:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported approval action")
	}

	instructor, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role == models.RoleFaculty {
		own := strings.EqualFold(strings.TrimSpace(actor.FullName), strings.TrimSpace(instructor.Name))
		if !own || (act != models.ApprovalActionApprove && act != models.ApprovalActionReject) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "faculty may only sign off their own schedule")
		}
	}

	next, err := instructor.ApplyApproval(act, strings.TrimSpace(payload.Comment), s.now())
	if err != nil {
		if errors.Is(err, models.ErrApprovalTransition) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("cannot %s while %s", act, instructor.ApprovalState))
		}
		return nil, internalError(err, "failed to apply approval")
	}
	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	s.logger.Info("instructor approval updated",
		zap.String("instructor_id", next.ID),
		zap.String("action", string(act)),
		zap.String("state", string(next.ApprovalState)))
	return &next, nil
}

func (s *InstructorService) save(ctx context.Context, instructor *models.Instructor) error {
	if err := s.repo.Update(ctx, instructor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return internalError(err, "failed to update instructor")
	}
	publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionInstructors, DepartmentID: instructor.DepartmentID, RecordID: instructor.ID, Op: models.ChangeOpUpdate})
	return nil
}

func (s *InstructorService) load(ctx context.Context, actor *models.JWTClaims, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, internalError(err, "failed to load instructor")
	}
	if err := authorizeDepartment(actor, instructor.DepartmentID); err != nil {
		return nil, err
	}
	return instructor, nil
}
