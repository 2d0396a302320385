package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type facultyRequestStore interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultyRequest, error)
	FindByID(ctx context.Context, id string) (*models.FacultyRequest, error)
	FindByName(ctx context.Context, departmentID, facultyName string) (*models.FacultyRequest, error)
	Create(ctx context.Context, request *models.FacultyRequest) error
	Update(ctx context.Context, request *models.FacultyRequest) error
	Delete(ctx context.Context, id string) error
}

type sectionLister interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.ClassSection, error)
}

// FacultyRequestService stores faculty preference submissions.
type FacultyRequestService struct {
	requests  facultyRequestStore
	sections  sectionLister
	feed      changePublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyRequestService constructs the service.
func NewFacultyRequestService(requests facultyRequestStore, sections sectionLister, feed changePublisher, validate *validator.Validate, logger *zap.Logger) *FacultyRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyRequestService{
		requests:  requests,
		sections:  sections,
		feed:      feed,
		validator: validate,
		logger:    logger,
	}
}

// Submit creates a request or replaces the prior one of the same faculty
// member. The boolean result is true when a new record was created.
func (s *FacultyRequestService) Submit(ctx context.Context, actor *models.JWTClaims, payload dto.SubmitRequestPayload) (*dto.FacultyRequestItem, bool, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, false, validationError(err, "invalid faculty request payload")
	}
	dept, err := ResolveDepartment(actor, payload.DepartmentID)
	if err != nil {
		return nil, false, err
	}
	name := strings.TrimSpace(payload.FacultyName)
	if actor != nil && actor.Role == models.RoleFaculty && !sameFaculty(actor.FullName, name) {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "faculty may only submit their own request")
	}

	existing, err := s.findExisting(ctx, actor, dept, payload.ID, name)
	if err != nil {
		return nil, false, err
	}

	prefs, err := models.EncodePreferences(payload.Preferences)
	if err != nil {
		return nil, false, validationError(err, "invalid preferences")
	}
	record := &models.FacultyRequest{
		DepartmentID:    dept,
		FacultyName:     name,
		Term:            strings.TrimSpace(payload.Term),
		LoadDesired:     payload.LoadDesired,
		Preferences:     prefs,
		WillingLive:     payload.WillingLive,
		WillingOnline:   payload.WillingOnline,
		WillingHybrid:   payload.WillingHybrid,
		OnlineCertified: payload.OnlineCertified,
		Email:           strings.TrimSpace(payload.Email),
		Phone:           strings.TrimSpace(payload.Phone),
		Notes:           payload.Notes,
	}

	created := existing == nil
	if created {
		if err := s.requests.Create(ctx, record); err != nil {
			return nil, false, internalError(err, "failed to create faculty request")
		}
		publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionRequests, DepartmentID: dept, RecordID: record.ID, Op: models.ChangeOpAdd})
	} else {
		record.ID = existing.ID
		record.SubmittedAt = existing.SubmittedAt
		if err := s.requests.Update(ctx, record); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, false, appErrors.Clone(appErrors.ErrNotFound, "faculty request not found")
			}
			return nil, false, internalError(err, "failed to update faculty request")
		}
		publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionRequests, DepartmentID: dept, RecordID: record.ID, Op: models.ChangeOpUpdate})
	}

	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept})
	if err != nil {
		return nil, false, internalError(err, "failed to load sections")
	}
	item := s.decorate(*record, sections)
	return &item, created, nil
}

// List returns the department's requests with their current assigned load.
// An empty term returns every request; otherwise requests filed without a
// term are included alongside the matching ones.
func (s *FacultyRequestService) List(ctx context.Context, actor *models.JWTClaims, departmentID, term string) ([]dto.FacultyRequestItem, error) {
	dept, err := ResolveDepartment(actor, departmentID)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListByDepartment(ctx, dept)
	if err != nil {
		return nil, internalError(err, "failed to list faculty requests")
	}
	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}

	items := make([]dto.FacultyRequestItem, 0, len(requests))
	for _, req := range requests {
		if term != "" && req.Term != "" && req.Term != term {
			continue
		}
		items = append(items, s.decorate(req, sections))
	}
	return items, nil
}

// Get returns one request.
func (s *FacultyRequestService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FacultyRequestItem, error) {
	req, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: req.DepartmentID})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}
	item := s.decorate(*req, sections)
	return &item, nil
}

// Delete removes a request.
func (s *FacultyRequestService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	req, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !ownsRequest(actor, req) {
		return appErrors.Clone(appErrors.ErrForbidden, "faculty may only delete their own request")
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty request not found")
		}
		return internalError(err, "failed to delete faculty request")
	}
	publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionRequests, DepartmentID: req.DepartmentID, RecordID: id, Op: models.ChangeOpDelete})
	return nil
}

// findExisting resolves the upsert target: by id first, then by name. An id
// may only be reused by its owner, and never to take over another faculty
// member's name.
func (s *FacultyRequestService) findExisting(ctx context.Context, actor *models.JWTClaims, dept, id, name string) (*models.FacultyRequest, error) {
	if id != "" {
		existing, err := s.requests.FindByID(ctx, id)
		switch {
		case err == nil:
			if existing.DepartmentID != dept {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "department access denied")
			}
			if !ownsRequest(actor, existing) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "faculty may only update their own request")
			}
			if sameFaculty(existing.FacultyName, name) {
				return existing, nil
			}
			holder, err := s.requests.FindByName(ctx, dept, name)
			switch {
			case err == nil && holder.ID != existing.ID:
				return nil, appErrors.Clone(appErrors.ErrConflict, "a request for this faculty member already exists")
			case err != nil && !errors.Is(err, sql.ErrNoRows):
				return nil, internalError(err, "failed to load faculty request")
			}
			return existing, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, internalError(err, "failed to load faculty request")
		}
	}
	existing, err := s.requests.FindByName(ctx, dept, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load faculty request")
	}
	return existing, nil
}

// ownsRequest is false only for a faculty caller touching someone else's request.
func ownsRequest(actor *models.JWTClaims, req *models.FacultyRequest) bool {
	if actor == nil || actor.Role != models.RoleFaculty {
		return true
	}
	return sameFaculty(actor.FullName, req.FacultyName)
}

func sameFaculty(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *FacultyRequestService) load(ctx context.Context, actor *models.JWTClaims, id string) (*models.FacultyRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty request not found")
		}
		return nil, internalError(err, "failed to load faculty request")
	}
	if err := authorizeDepartment(actor, req.DepartmentID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *FacultyRequestService) decorate(req models.FacultyRequest, sections []models.ClassSection) dto.FacultyRequestItem {
	prefs, err := req.PreferenceRows()
	if err != nil {
		s.logger.Sugar().Warnw("undecodable preferences", "request_id", req.ID, "error", err)
	}
	if prefs == nil {
		prefs = []models.PreferenceRow{}
	}
	inTerm := sections
	if req.Term != "" {
		inTerm = make([]models.ClassSection, 0, len(sections))
		for _, section := range sections {
			if section.Term == req.Term {
				inTerm = append(inTerm, section)
			}
		}
	}
	assigned := scheduling.AssignedCount(inTerm, req.DepartmentID, req.FacultyName)
	return dto.FacultyRequestItem{
		Request:       req,
		Preferences:   prefs,
		AssignedCount: assigned,
		Satisfied:     assigned >= req.LoadDesired,
	}
}
