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
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type sectionStore interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.ClassSection, error)
	FindByID(ctx context.Context, id string) (*models.ClassSection, error)
	Create(ctx context.Context, section *models.ClassSection) error
	BulkCreate(ctx context.Context, sections []models.ClassSection) error
	Update(ctx context.Context, section *models.ClassSection) error
	UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error
	Delete(ctx context.Context, id string) error
}

type referenceStore interface {
	ListRooms(ctx context.Context, departmentID string) ([]models.Room, error)
	ListTimeBlocks(ctx context.Context, departmentID string) ([]models.TimeBlock, error)
}

type scheduleCache interface {
	listingInvalidator
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SectionService manages the section set of a department and annotates it
// with advisory room conflicts.
type SectionService struct {
	sections  sectionStore
	refs      referenceStore
	feed      changePublisher
	cache     scheduleCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs the section service.
func NewSectionService(sections sectionStore, refs referenceStore, feed changePublisher, cache scheduleCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SectionService{
		sections:  sections,
		refs:      refs,
		feed:      feed,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	if err := registerSectionValidations(svc.validator); err != nil {
		logger.Error("section validators not registered", zap.Error(err))
	}
	return svc
}

func registerSectionValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"meeting_days": func(fl validator.FieldLevel) bool {
			for _, r := range strings.ToUpper(fl.Field().String()) {
				if r != ' ' && !strings.ContainsRune(scheduling.DayOrder, r) {
					return false
				}
			}
			return true
		},
		"clock_time": func(fl validator.FieldLevel) bool {
			return scheduling.ParseTimeMinutes(fl.Field().String()) != scheduling.InvalidTime
		},
		"section_status": func(fl validator.FieldLevel) bool {
			return models.SectionStatus(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

// List returns the sorted section set of a department term, each section
// carrying its conflicts against the whole set.
func (s *SectionService) List(ctx context.Context, actor *models.JWTClaims, query dto.SectionListQuery) (*dto.SectionListResponse, error) {
	dept, err := ResolveDepartment(actor, query.DepartmentID)
	if err != nil {
		return nil, err
	}
	criterion := scheduling.SortByCourse
	if query.Sort != "" {
		parsed, ok := scheduling.ParseSortCriterion(query.Sort)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported sort criterion")
		}
		criterion = parsed
	}
	if query.Status != "" && !models.SectionStatus(query.Status).Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported section status")
	}

	revision, cacheable := s.revision(ctx, dept)
	cacheKey := sectionListingPrefix(dept) + fmt.Sprintf("%d:%s:%s:%s:%s", revision, query.Term, criterion, query.Status, strings.ToLower(strings.TrimSpace(query.Faculty)))
	if cacheable && s.cache != nil {
		var cached dto.SectionListResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			cached.CacheHit = true
			return &cached, nil
		}
	}

	listStart := time.Now()
	all, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept, Term: query.Term})
	s.metrics.ObserveDBQuery("sections.list", time.Since(listStart))
	if err != nil {
		return nil, internalError(err, "failed to list sections")
	}
	conflicts := scheduling.Sweep(all)

	resp := &dto.SectionListResponse{
		DepartmentID: dept,
		Term:         query.Term,
		Sort:         string(criterion),
		Revision:     revision,
		Items:        make([]dto.SectionItem, 0, len(all)),
	}
	for _, section := range scheduling.Sort(all, criterion) {
		if query.Status != "" && section.Status != models.SectionStatus(query.Status) {
			continue
		}
		if query.Faculty != "" && !strings.EqualFold(strings.TrimSpace(section.Faculty), strings.TrimSpace(query.Faculty)) {
			continue
		}
		found := conflicts[section.ID]
		if found == nil {
			found = []scheduling.Conflict{}
		}
		resp.ConflictCount += len(found)
		resp.Items = append(resp.Items, dto.SectionItem{Section: section, Conflicts: found})
	}

	if cacheable && s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, 0); err != nil {
			s.logger.Sugar().Warnw("failed to cache section listing", "department_id", dept, "error", err)
		}
	}
	return resp, nil
}

// Get returns a single section.
func (s *SectionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error) {
	return s.load(ctx, actor, id)
}

// Create adds a section by hand. Conflicts come back as warnings.
func (s *SectionService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSectionRequest) (*dto.SectionWriteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid section payload")
	}
	dept, err := ResolveDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.SectionStatusNew
	}
	section := &models.ClassSection{
		DepartmentID: dept,
		Term:         strings.TrimSpace(req.Term),
		Subject:      strings.TrimSpace(req.Subject),
		CourseNumber: strings.TrimSpace(req.CourseNumber),
		Section:      strings.TrimSpace(req.Section),
		Title:        strings.TrimSpace(req.Title),
		Notes:        req.Notes,
		EndDate:      strings.TrimSpace(req.EndDate),
		Method:       strings.TrimSpace(req.Method),
		MeetingDays:  normalizeDays(req.MeetingDays),
		BeginTime:    strings.TrimSpace(req.BeginTime),
		EndTime:      strings.TrimSpace(req.EndTime),
		Room:         strings.TrimSpace(req.Room),
		Faculty:      strings.TrimSpace(req.Faculty),
		Status:       status,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, internalError(err, "failed to create section")
	}
	s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: dept, RecordID: section.ID, Op: models.ChangeOpAdd})

	return &dto.SectionWriteResponse{Section: *section, Warnings: s.warnings(ctx, *section)}, nil
}

// Update applies a partial edit and resolves the resulting status.
func (s *SectionService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSectionRequest) (*dto.SectionWriteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid section payload")
	}
	existing, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := *existing
	patchString(&next.Term, req.Term)
	patchString(&next.Subject, req.Subject)
	patchString(&next.CourseNumber, req.CourseNumber)
	patchString(&next.Section, req.Section)
	patchString(&next.Title, req.Title)
	patchString(&next.EndDate, req.EndDate)
	patchString(&next.Method, req.Method)
	patchString(&next.BeginTime, req.BeginTime)
	patchString(&next.EndTime, req.EndTime)
	patchString(&next.Room, req.Room)
	patchString(&next.Faculty, req.Faculty)
	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.MeetingDays != nil {
		next.MeetingDays = normalizeDays(*req.MeetingDays)
	}
	if strings.TrimSpace(next.Faculty) == "" {
		next.Faculty = models.FacultyStaff
	}

	var explicit models.SectionStatus
	if req.Status != nil {
		explicit = *req.Status
	}
	next.Status = models.NextStatusOnEdit(existing.Status, explicit, existing.SchedulingChanged(next))

	if err := s.sections.Update(ctx, &next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, internalError(err, "failed to update section")
	}
	s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: next.DepartmentID, RecordID: next.ID, Op: models.ChangeOpUpdate})

	return &dto.SectionWriteResponse{Section: next, Warnings: s.warnings(ctx, next)}, nil
}

// MarkDeleted flags the section Delete; it stays visible but stops counting.
func (s *SectionService) MarkDeleted(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error) {
	section, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.sections.UpdateStatus(ctx, id, models.SectionStatusDelete); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, internalError(err, "failed to mark section deleted")
	}
	section.Status = models.SectionStatusDelete
	s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: section.DepartmentID, RecordID: id, Op: models.ChangeOpUpdate})
	return section, nil
}

// Delete removes the record entirely.
func (s *SectionService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	section, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.sections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return internalError(err, "failed to delete section")
	}
	s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: section.DepartmentID, RecordID: id, Op: models.ChangeOpDelete})
	return nil
}

// Conflicts lists the room conflicts of one section within its term.
func (s *SectionService) Conflicts(ctx context.Context, actor *models.JWTClaims, id string) ([]scheduling.Conflict, error) {
	section, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	all, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: section.DepartmentID, Term: section.Term})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}
	found := scheduling.DetectConflicts(*section, all)
	if found == nil {
		found = []scheduling.Conflict{}
	}
	return found, nil
}

// FreeRooms lists the physical rooms not booked during the section's meeting pattern.
func (s *SectionService) FreeRooms(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FreeRoomsResponse, error) {
	section, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	all, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: section.DepartmentID, Term: section.Term})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}
	rooms := scheduling.FreeRooms(*section, s.roomOptions(ctx, section.DepartmentID, all), all)
	return &dto.FreeRoomsResponse{SectionID: id, Rooms: rooms}, nil
}

// Import parses a schedule CSV and stores every row in one batch.
func (s *SectionService) Import(ctx context.Context, actor *models.JWTClaims, req dto.ImportSectionsRequest) (*dto.ImportSectionsResponse, error) {
	dept, err := ResolveDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv content is empty")
	}

	result := scheduling.ParseScheduleCSV(req.Content, dept)
	term := strings.TrimSpace(req.TermOverride)
	for i := range result.Sections {
		if term != "" {
			result.Sections[i].Term = term
		}
	}
	if term == "" && len(result.Sections) > 0 {
		term = result.Sections[0].Term
	}

	bulkStart := time.Now()
	err = s.sections.BulkCreate(ctx, result.Sections)
	s.metrics.ObserveDBQuery("sections.bulk_create", time.Since(bulkStart))
	if err != nil {
		return nil, internalError(err, "failed to import sections")
	}
	if len(result.Sections) > 0 {
		s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: dept, Op: models.ChangeOpBatch, Origin: "import"})
	}
	s.metrics.RecordImport(len(result.Sections), result.Dropped)
	s.logger.Info("schedule csv imported",
		zap.String("department_id", dept),
		zap.Int("imported", len(result.Sections)),
		zap.Int("dropped", result.Dropped),
		zap.Int("header_line", result.HeaderLine))

	return &dto.ImportSectionsResponse{
		Imported:   len(result.Sections),
		Dropped:    result.Dropped,
		HeaderLine: result.HeaderLine,
		Term:       term,
	}, nil
}

// ReplayArchive copies an earlier term's live sections into a new term as
// Imported templates.
func (s *SectionService) ReplayArchive(ctx context.Context, actor *models.JWTClaims, req dto.ReplayArchiveRequest) (*dto.ReplayArchiveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid replay payload")
	}
	dept, err := ResolveDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	previous, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept, Term: req.FromTerm})
	if err != nil {
		return nil, internalError(err, "failed to load archived sections")
	}

	copies := make([]models.ClassSection, 0, len(previous))
	for _, section := range previous {
		if !section.IsActive() {
			continue
		}
		c := section
		c.ID = uuid.NewString()
		c.Term = req.ToTerm
		c.Status = models.SectionStatusImported
		c.CreatedAt = time.Time{}
		c.UpdatedAt = time.Time{}
		copies = append(copies, c)
	}
	if err := s.sections.BulkCreate(ctx, copies); err != nil {
		return nil, internalError(err, "failed to replay archived sections")
	}
	if len(copies) > 0 {
		s.announce(ctx, models.ChangeEvent{Collection: models.CollectionSections, DepartmentID: dept, Op: models.ChangeOpBatch, Origin: "replay"})
	}
	return &dto.ReplayArchiveResponse{FromTerm: req.FromTerm, ToTerm: req.ToTerm, Copied: len(copies)}, nil
}

// Options returns the editor pick lists: canonical reference data merged with
// literal values already used on sections.
func (s *SectionService) Options(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.SectionOptionsResponse, error) {
	dept, err := ResolveDepartment(actor, departmentID)
	if err != nil {
		return nil, err
	}
	all, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}
	return &dto.SectionOptionsResponse{
		Rooms:      s.roomOptions(ctx, dept, all),
		TimeBlocks: s.timeOptions(ctx, dept, all),
		Faculty:    facultyOptions(all),
	}, nil
}

func (s *SectionService) load(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, internalError(err, "failed to load section")
	}
	if err := authorizeDepartment(actor, section.DepartmentID); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *SectionService) announce(ctx context.Context, event models.ChangeEvent) {
	publishSectionChange(ctx, s.feed, s.cache, s.logger, event)
}

func (s *SectionService) revision(ctx context.Context, dept string) (int64, bool) {
	if s.feed == nil {
		return 0, false
	}
	rev, err := s.feed.Revision(ctx, dept)
	if err != nil {
		s.logger.Sugar().Warnw("failed to read department revision", "department_id", dept, "error", err)
		return 0, false
	}
	return rev, true
}

// warnings never fail the write that asked for them.
func (s *SectionService) warnings(ctx context.Context, section models.ClassSection) []scheduling.Conflict {
	all, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: section.DepartmentID, Term: section.Term})
	if err != nil {
		s.logger.Sugar().Warnw("conflict check skipped", "section_id", section.ID, "error", err)
		return []scheduling.Conflict{}
	}
	found := scheduling.DetectConflicts(section, all)
	s.metrics.RecordConflicts(len(found))
	if found == nil {
		found = []scheduling.Conflict{}
	}
	return found
}

func (s *SectionService) roomOptions(ctx context.Context, dept string, sections []models.ClassSection) []string {
	seen := make(map[string]bool)
	rooms := make([]string, 0)
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		rooms = append(rooms, name)
	}

	if s.refs != nil {
		canonical, err := s.refs.ListRooms(ctx, dept)
		if err != nil {
			s.logger.Sugar().Warnw("room reference data unavailable", "department_id", dept, "error", err)
		}
		for _, room := range canonical {
			add(room.Name)
		}
	}
	literal := make([]string, 0)
	for _, section := range sections {
		literal = append(literal, section.Room)
	}
	sort.Strings(literal)
	for _, room := range literal {
		add(room)
	}
	return rooms
}

func (s *SectionService) timeOptions(ctx context.Context, dept string, sections []models.ClassSection) []dto.TimeOption {
	seen := make(map[string]bool)
	options := make([]dto.TimeOption, 0)

	if s.refs != nil {
		blocks, err := s.refs.ListTimeBlocks(ctx, dept)
		if err != nil {
			s.logger.Sugar().Warnw("time block reference data unavailable", "department_id", dept, "error", err)
		}
		for _, block := range blocks {
			key := timeKey(block.Days, block.BeginTime, block.EndTime)
			if seen[key] {
				continue
			}
			seen[key] = true
			options = append(options, dto.TimeOption{Label: block.Label, Days: block.Days, BeginTime: block.BeginTime, EndTime: block.EndTime, Canonical: true})
		}
	}

	literal := make([]dto.TimeOption, 0)
	for _, section := range sections {
		if strings.TrimSpace(section.MeetingDays) == "" ||
			scheduling.ParseTimeMinutes(section.BeginTime) == scheduling.InvalidTime ||
			scheduling.ParseTimeMinutes(section.EndTime) == scheduling.InvalidTime {
			continue
		}
		key := timeKey(section.MeetingDays, section.BeginTime, section.EndTime)
		if seen[key] {
			continue
		}
		seen[key] = true
		literal = append(literal, dto.TimeOption{
			Label:     fmt.Sprintf("%s %s-%s", section.MeetingDays, section.BeginTime, section.EndTime),
			Days:      section.MeetingDays,
			BeginTime: section.BeginTime,
			EndTime:   section.EndTime,
		})
	}
	sort.SliceStable(literal, func(i, j int) bool {
		di, dj := scheduling.FirstDayIndex(literal[i].Days), scheduling.FirstDayIndex(literal[j].Days)
		if di != dj {
			return di < dj
		}
		return scheduling.ParseTimeMinutes(literal[i].BeginTime) < scheduling.ParseTimeMinutes(literal[j].BeginTime)
	})
	return append(options, literal...)
}

func facultyOptions(sections []models.ClassSection) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, section := range sections {
		if section.IsUnassigned() {
			continue
		}
		name := strings.TrimSpace(section.Faculty)
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func timeKey(days, begin, end string) string {
	return fmt.Sprintf("%s|%d|%d", normalizeDays(days), scheduling.ParseTimeMinutes(begin), scheduling.ParseTimeMinutes(end))
}

func normalizeDays(days string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(days), " ", ""))
}

func patchString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
