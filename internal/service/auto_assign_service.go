package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
	"github.com/noah-isme/dept-scheduler-api/pkg/jobs"
)

const (
	autoAssignJobType  = "auto_assign"
	autoAssignOrigin   = "auto-assign"
	triggerManual      = "manual"
	triggerToggle      = "toggle"
	triggerChangeFeed  = "change_feed"
	defaultAssignQueue = 32
)

type departmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	SetAutoAssign(ctx context.Context, id string, enabled bool) error
}

type assignmentStore interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.ClassSection, error)
	ApplyAssignments(ctx context.Context, assignments []scheduling.Assignment) ([]scheduling.Assignment, error)
}

type requestLister interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.FacultyRequest, error)
}

type rosterLister interface {
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Instructor, error)
}

type changeFeed interface {
	changePublisher
	Subscribe(ctx context.Context) <-chan models.ChangeEvent
}

// AutoAssignConfig gates the matcher loop.
type AutoAssignConfig struct {
	Enabled   bool
	QueueSize int
}

// AutoAssignService re-runs the preference matcher whenever a department with
// the toggle on changes. Runs are serialised; triggers arriving while a run
// for the same department is queued are coalesced.
type AutoAssignService struct {
	departments departmentStore
	sections    assignmentStore
	requests    requestLister
	instructors rosterLister
	feed        changeFeed
	listings    listingInvalidator
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         AutoAssignConfig

	queue   *jobs.Queue
	runMu   sync.Mutex
	runs    atomic.Int64
	mu      sync.Mutex
	pending map[string]bool
	lastRun map[string]dto.AutoAssignRun
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewAutoAssignService constructs the service. Call Start to begin listening.
func NewAutoAssignService(departments departmentStore, sections assignmentStore, requests requestLister, instructors rosterLister, feed changeFeed, listings listingInvalidator, metrics *MetricsService, logger *zap.Logger, cfg AutoAssignConfig) *AutoAssignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultAssignQueue
	}
	svc := &AutoAssignService{
		departments: departments,
		sections:    sections,
		requests:    requests,
		instructors: instructors,
		feed:        feed,
		listings:    listings,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		pending:     map[string]bool{},
		lastRun:     map[string]dto.AutoAssignRun{},
	}
	svc.queue = jobs.NewQueue("auto-assign", svc.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.QueueSize,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return svc
}

// Start boots the worker and the change feed listener.
func (s *AutoAssignService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue.Start(ctx)
	if s.feed == nil {
		return
	}
	events := s.feed.Subscribe(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for event := range events {
			s.observe(ctx, event)
		}
	}()
}

// Stop cancels the listener and drains the worker.
func (s *AutoAssignService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
	s.wg.Wait()
}

// Toggle flips the department switch. Turning it on schedules a run.
func (s *AutoAssignService) Toggle(ctx context.Context, actor *models.JWTClaims, req dto.AutoAssignToggleRequest) (*dto.AutoAssignStatus, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "auto-assign is disabled")
	}
	if req.Enabled == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enabled is required")
	}
	dept, err := ResolveDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if err := s.departments.SetAutoAssign(ctx, dept, *req.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to update auto-assign toggle")
	}
	publishChange(ctx, s.feed, s.logger, models.ChangeEvent{Collection: models.CollectionDepartments, DepartmentID: dept, RecordID: dept, Op: models.ChangeOpUpdate, Origin: autoAssignOrigin})
	if *req.Enabled {
		s.trigger(dept, triggerToggle)
	}
	return s.status(ctx, dept)
}

// Status reports the toggle and the last completed run.
func (s *AutoAssignService) Status(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.AutoAssignStatus, error) {
	dept, err := ResolveDepartment(actor, departmentID)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, dept)
}

// Run executes a matcher pass immediately and returns its summary.
func (s *AutoAssignService) Run(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.AutoAssignRun, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "auto-assign is disabled")
	}
	dept, err := ResolveDepartment(actor, departmentID)
	if err != nil {
		return nil, err
	}
	run, err := s.runOnce(ctx, dept, triggerManual)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "auto-assign run failed")
	}
	return &run, nil
}

// Runs returns how many matcher passes have executed since start.
func (s *AutoAssignService) Runs() int64 {
	return s.runs.Load()
}

func (s *AutoAssignService) observe(ctx context.Context, event models.ChangeEvent) {
	if event.Origin == autoAssignOrigin {
		return
	}
	switch event.Collection {
	case models.CollectionSections, models.CollectionRequests, models.CollectionInstructors:
	default:
		return
	}
	dept, err := s.departments.FindByID(ctx, event.DepartmentID)
	if err != nil {
		s.logger.Sugar().Warnw("auto-assign could not load department", "department_id", event.DepartmentID, "error", err)
		return
	}
	if dept.AutoAssignEnabled {
		s.trigger(dept.ID, triggerChangeFeed)
	}
}

// trigger enqueues a run unless one is already waiting for the department.
func (s *AutoAssignService) trigger(departmentID, reason string) {
	s.mu.Lock()
	if s.pending[departmentID] {
		s.mu.Unlock()
		return
	}
	s.pending[departmentID] = true
	s.mu.Unlock()

	if err := s.queue.TryEnqueue(jobs.Job{ID: departmentID, Type: autoAssignJobType, Payload: reason}); err != nil {
		s.mu.Lock()
		delete(s.pending, departmentID)
		s.mu.Unlock()
		s.logger.Sugar().Warnw("auto-assign trigger dropped", "department_id", departmentID, "trigger", reason, "error", err)
	}
}

func (s *AutoAssignService) handle(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	delete(s.pending, job.ID)
	s.mu.Unlock()

	reason, _ := job.Payload.(string)
	if reason == "" {
		reason = triggerChangeFeed
	}
	_, err := s.runOnce(ctx, job.ID, reason)
	return err
}

func (s *AutoAssignService) runOnce(ctx context.Context, departmentID, reason string) (dto.AutoAssignRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := dto.AutoAssignRun{
		RunNumber:    s.runs.Add(1),
		DepartmentID: departmentID,
		Trigger:      reason,
		Assignments:  []scheduling.Assignment{},
		Skipped:      []scheduling.Assignment{},
		Satisfied:    []string{},
		Short:        []string{},
		StartedAt:    time.Now().UTC(),
	}
	applied, err := s.match(ctx, &run)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Error = err.Error()
	}
	s.metrics.RecordMatcherRun(applied, run.FinishedAt.Sub(run.StartedAt), err)

	s.mu.Lock()
	s.lastRun[departmentID] = run
	s.mu.Unlock()

	if err != nil {
		s.logger.Sugar().Warnw("auto-assign run failed", "department_id", departmentID, "run", run.RunNumber, "error", err)
		return run, err
	}
	s.logger.Sugar().Infow("auto-assign run finished",
		"department_id", departmentID,
		"run", run.RunNumber,
		"trigger", reason,
		"applied", applied,
		"short", len(run.Short))
	return run, nil
}

func (s *AutoAssignService) match(ctx context.Context, run *dto.AutoAssignRun) (int, error) {
	dept, err := s.departments.FindByID(ctx, run.DepartmentID)
	if err != nil {
		return 0, fmt.Errorf("load department: %w", err)
	}
	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept.ID, Term: dept.ActiveTerm})
	if err != nil {
		return 0, fmt.Errorf("load sections: %w", err)
	}
	allRequests, err := s.requests.ListByDepartment(ctx, dept.ID)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}
	requests := make([]models.FacultyRequest, 0, len(allRequests))
	for _, req := range allRequests {
		if dept.ActiveTerm == "" || req.Term == "" || req.Term == dept.ActiveTerm {
			requests = append(requests, req)
		}
	}
	roster, err := s.instructors.ListByDepartment(ctx, dept.ID)
	if err != nil {
		return 0, fmt.Errorf("load instructors: %w", err)
	}

	result := scheduling.Match(requests, roster, sections)
	if result.Satisfied != nil {
		run.Satisfied = result.Satisfied
	}
	if result.Short != nil {
		run.Short = result.Short
	}
	if len(result.Assignments) == 0 {
		return 0, nil
	}
	applyStart := time.Now()
	applied, err := s.sections.ApplyAssignments(ctx, result.Assignments)
	s.metrics.ObserveDBQuery("sections.apply_assignments", time.Since(applyStart))
	if err != nil {
		return 0, fmt.Errorf("apply assignments: %w", err)
	}
	run.Assignments = applied
	run.Skipped = skippedAssignments(result.Assignments, applied)
	if len(applied) > 0 {
		publishSectionChange(ctx, s.feed, s.listings, s.logger, models.ChangeEvent{
			Collection:   models.CollectionSections,
			DepartmentID: dept.ID,
			Op:           models.ChangeOpBatch,
			Origin:       autoAssignOrigin,
		})
	}
	return len(applied), nil
}

func skippedAssignments(planned, applied []scheduling.Assignment) []scheduling.Assignment {
	written := make(map[string]bool, len(applied))
	for _, a := range applied {
		written[a.SectionID] = true
	}
	skipped := []scheduling.Assignment{}
	for _, a := range planned {
		if !written[a.SectionID] {
			skipped = append(skipped, a)
		}
	}
	return skipped
}

func (s *AutoAssignService) status(ctx context.Context, departmentID string) (*dto.AutoAssignStatus, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to load department")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := &dto.AutoAssignStatus{
		DepartmentID: dept.ID,
		Enabled:      dept.AutoAssignEnabled,
		Pending:      s.pending[dept.ID],
	}
	if run, ok := s.lastRun[dept.ID]; ok {
		copied := run
		resp.LastRun = &copied
	}
	return resp, nil
}
