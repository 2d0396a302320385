package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/repository"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type sectionStoreStub struct {
	order   []string
	byID    map[string]*models.ClassSection
	listErr error
	lists   int
	nextID  int
}

func newSectionStoreStub(sections ...models.ClassSection) *sectionStoreStub {
	stub := &sectionStoreStub{byID: map[string]*models.ClassSection{}}
	for i := range sections {
		s := sections[i]
		stub.order = append(stub.order, s.ID)
		stub.byID[s.ID] = &s
	}
	return stub
}

func (s *sectionStoreStub) List(ctx context.Context, filter models.SectionFilter) ([]models.ClassSection, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var result []models.ClassSection
	for _, id := range s.order {
		section, ok := s.byID[id]
		if !ok || section.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Term != "" && section.Term != filter.Term {
			continue
		}
		result = append(result, *section)
	}
	return result, nil
}

func (s *sectionStoreStub) FindByID(ctx context.Context, id string) (*models.ClassSection, error) {
	section, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *section
	return &copied, nil
}

func (s *sectionStoreStub) Create(ctx context.Context, section *models.ClassSection) error {
	if section.ID == "" {
		s.nextID++
		section.ID = fmt.Sprintf("new-%d", s.nextID)
	}
	if section.Faculty == "" {
		section.Faculty = models.FacultyStaff
	}
	copied := *section
	s.order = append(s.order, section.ID)
	s.byID[section.ID] = &copied
	return nil
}

func (s *sectionStoreStub) BulkCreate(ctx context.Context, sections []models.ClassSection) error {
	for i := range sections {
		if err := s.Create(ctx, &sections[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionStoreStub) Update(ctx context.Context, section *models.ClassSection) error {
	if _, ok := s.byID[section.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *section
	s.byID[section.ID] = &copied
	return nil
}

func (s *sectionStoreStub) UpdateStatus(ctx context.Context, id string, status models.SectionStatus) error {
	section, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	section.Status = status
	return nil
}

func (s *sectionStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

type referenceStoreStub struct {
	rooms  []models.Room
	blocks []models.TimeBlock
	err    error
}

func (r referenceStoreStub) ListRooms(ctx context.Context, departmentID string) ([]models.Room, error) {
	return r.rooms, r.err
}

func (r referenceStoreStub) ListTimeBlocks(ctx context.Context, departmentID string) ([]models.TimeBlock, error) {
	return r.blocks, r.err
}

type memoryCache struct {
	entries       map[string]dto.SectionListResponse
	invalidations []string
}

func (c *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	c.invalidations = append(c.invalidations, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// stalledFeed never moves the revision.
type stalledFeed struct {
	revision int64
}

func (f stalledFeed) Publish(ctx context.Context, event models.ChangeEvent) (models.ChangeEvent, error) {
	return event, errors.New("redis: i/o timeout")
}

func (f stalledFeed) Revision(ctx context.Context, departmentID string) (int64, error) {
	return f.revision, nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	value, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*dto.SectionListResponse)) = value
	return true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.entries[key] = *(value.(*dto.SectionListResponse))
	return nil
}

func schedulerClaims(dept string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-" + dept, Role: models.RoleScheduler, DepartmentID: dept}
}

func sampleSection(id, room, days, begin, end string) models.ClassSection {
	return models.ClassSection{
		ID: id, DepartmentID: "dept-1", Term: "2026MFA", Subject: "MCSI", CourseNumber: "200", Section: id,
		Title: "Programming", MeetingDays: days, BeginTime: begin, EndTime: end, Room: room,
		Faculty: models.FacultyStaff, Status: models.SectionStatusImported,
	}
}

func newSectionServiceForTest(store *sectionStoreStub, refs referenceStore) (*SectionService, *repository.ChangeFeed, *memoryCache) {
	feed := repository.NewChangeFeed(nil, zap.NewNop())
	cache := &memoryCache{entries: map[string]dto.SectionListResponse{}}
	svc := NewSectionService(store, refs, feed, cache, nil, validator.New(), zap.NewNop())
	return svc, feed, cache
}

func TestSectionServiceListSortsAndAnnotatesConflicts(t *testing.T) {
	store := newSectionStoreStub(
		sampleSection("b", "CAT 201", "MW", "9:00 AM", "10:15 AM"),
		sampleSection("a", "CAT 201", "W", "10:00 AM", "11:00 AM"),
		sampleSection("c", "ONLINE", "M", "8:00 AM", "9:00 AM"),
	)
	svc, _, _ := newSectionServiceForTest(store, nil)

	resp, err := svc.List(context.Background(), schedulerClaims("dept-1"), dto.SectionListQuery{Term: "2026MFA", Sort: "time"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "dept-1", resp.DepartmentID)
	assert.Equal(t, "c", resp.Items[0].Section.ID)
	assert.Equal(t, "b", resp.Items[1].Section.ID)
	assert.Equal(t, "a", resp.Items[2].Section.ID)
	assert.Empty(t, resp.Items[0].Conflicts)
	require.Len(t, resp.Items[1].Conflicts, 1)
	assert.Equal(t, "a", resp.Items[1].Conflicts[0].OtherID)
	assert.Equal(t, 2, resp.ConflictCount)
}

func TestSectionServiceListFiltersInMemory(t *testing.T) {
	assigned := sampleSection("x", "CAT 201", "MW", "9:00 AM", "10:15 AM")
	assigned.Faculty = "Smith, Jane"
	assigned.Status = models.SectionStatusKeep
	store := newSectionStoreStub(assigned, sampleSection("y", "CAT 201", "W", "10:00 AM", "11:00 AM"))
	svc, _, _ := newSectionServiceForTest(store, nil)

	resp, err := svc.List(context.Background(), schedulerClaims("dept-1"), dto.SectionListQuery{Faculty: " smith, jane ", Status: "Keep"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "x", resp.Items[0].Section.ID)
	assert.Len(t, resp.Items[0].Conflicts, 1, "conflicts are computed against the whole term")
}

func TestSectionServiceListRejectsUnknownSort(t *testing.T) {
	svc, _, _ := newSectionServiceForTest(newSectionStoreStub(), nil)

	_, err := svc.List(context.Background(), schedulerClaims("dept-1"), dto.SectionListQuery{Sort: "alphabetical"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceListRequiresDepartment(t *testing.T) {
	svc, _, _ := newSectionServiceForTest(newSectionStoreStub(), nil)

	_, err := svc.List(context.Background(), &models.JWTClaims{Role: models.RoleSuperAdmin}, dto.SectionListQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceListCacheFollowsRevision(t *testing.T) {
	store := newSectionStoreStub(sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	svc, _, _ := newSectionServiceForTest(store, nil)
	ctx := context.Background()
	actor := schedulerClaims("dept-1")

	first, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, store.lists)

	cached, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists, "second read served from cache")
	assert.True(t, cached.CacheHit)
	assert.False(t, first.CacheHit)

	_, err = svc.Create(ctx, actor, dto.CreateSectionRequest{Term: "2026MFA", Subject: "MCSI", CourseNumber: "101", Section: "01"})
	require.NoError(t, err)
	listsAfterCreate := store.lists

	second, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	assert.Equal(t, listsAfterCreate+1, store.lists, "a write bumps the revision and misses the cache")
	assert.Greater(t, second.Revision, first.Revision)
	assert.Len(t, second.Items, 2)
}

func TestSectionServiceListRebuildsWhenRevisionCannotMove(t *testing.T) {
	store := newSectionStoreStub(sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	cache := &memoryCache{entries: map[string]dto.SectionListResponse{
		"sections:dept-2:7::course::": {DepartmentID: "dept-2"},
	}}
	svc := NewSectionService(store, nil, stalledFeed{revision: 7}, cache, nil, validator.New(), zap.NewNop())
	ctx := context.Background()
	actor := schedulerClaims("dept-1")

	_, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	cached, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	_, err = svc.Create(ctx, actor, dto.CreateSectionRequest{
		Term: "2026MFA", Subject: "MCSI", CourseNumber: "300", Section: "01",
		MeetingDays: "M", BeginTime: "9:30 AM", EndTime: "10:30 AM", Room: "CAT 201",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sections:dept-1:*"}, cache.invalidations)
	assert.Contains(t, cache.entries, "sections:dept-2:7::course::", "other departments keep their listings")

	fresh, err := svc.List(ctx, actor, dto.SectionListQuery{})
	require.NoError(t, err)
	assert.False(t, fresh.CacheHit)
	assert.Len(t, fresh.Items, 2)
	assert.Equal(t, 2, fresh.ConflictCount)
	assert.Equal(t, int64(7), fresh.Revision)
}

func TestSectionServiceListRecordsStoreTiming(t *testing.T) {
	store := newSectionStoreStub(sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	metrics := NewMetricsService()
	svc := NewSectionService(store, nil, nil, nil, metrics, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), schedulerClaims("dept-1"), dto.SectionListQuery{})
	require.NoError(t, err)
	_, err = svc.Import(context.Background(), schedulerClaims("dept-1"), dto.ImportSectionsRequest{
		Content: "2026MFA,MCSI,200,01,Programming 1,,,LEC,MW,9:30 AM,10:45 AM,CAT 105,Smith",
	})
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.DBQueries)
	assert.Equal(t, uint64(1), snapshot.RowsImported)
}

func TestSectionServiceCreateDefaultsAndWarns(t *testing.T) {
	store := newSectionStoreStub(sampleSection("existing", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	svc, feed, _ := newSectionServiceForTest(store, nil)
	ctx := context.Background()

	resp, err := svc.Create(ctx, schedulerClaims("dept-1"), dto.CreateSectionRequest{
		Term: "2026MFA", Subject: "MCSI", CourseNumber: "300", Section: "01",
		MeetingDays: "m w", BeginTime: "10:00 am", EndTime: "11:00 AM", Room: "cat 201",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SectionStatusNew, resp.Section.Status)
	assert.Equal(t, "MW", resp.Section.MeetingDays)
	assert.Equal(t, models.FacultyStaff, resp.Section.Faculty)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0].Message, "MCSI 200-existing")

	rev, err := feed.Revision(ctx, "dept-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}

func TestSectionServiceCreateValidation(t *testing.T) {
	svc, _, _ := newSectionServiceForTest(newSectionStoreStub(), nil)

	cases := []dto.CreateSectionRequest{
		{Term: "2026MFA", Subject: "MCSI", CourseNumber: "300", Section: "01", BeginTime: "25:00"},
		{Term: "2026MFA", Subject: "MCSI", CourseNumber: "300", Section: "01", MeetingDays: "MXZ"},
		{Term: "2026MFA", Subject: "MCSI", CourseNumber: "300", Section: "01", Status: "Archived"},
		{Subject: "MCSI", CourseNumber: "300", Section: "01"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), schedulerClaims("dept-1"), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestSectionServiceUpdateStatusTransitions(t *testing.T) {
	ptr := func(s string) *string { return &s }
	keep := models.SectionStatusKeep

	cases := []struct {
		name     string
		current  models.SectionStatus
		req      dto.UpdateSectionRequest
		expected models.SectionStatus
	}{
		{"imported room change", models.SectionStatusImported, dto.UpdateSectionRequest{Room: ptr("CAT 105")}, models.SectionStatusChange},
		{"imported notes only", models.SectionStatusImported, dto.UpdateSectionRequest{Notes: ptr("bring laptops")}, models.SectionStatusKeep},
		{"keep faculty change", models.SectionStatusKeep, dto.UpdateSectionRequest{Faculty: ptr("Kim")}, models.SectionStatusChange},
		{"new stays new", models.SectionStatusNew, dto.UpdateSectionRequest{Room: ptr("CAT 105")}, models.SectionStatusNew},
		{"explicit wins", models.SectionStatusImported, dto.UpdateSectionRequest{Room: ptr("CAT 105"), Status: &keep}, models.SectionStatusKeep},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			existing := sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM")
			existing.Status = tc.current
			store := newSectionStoreStub(existing)
			svc, _, _ := newSectionServiceForTest(store, nil)

			resp, err := svc.Update(context.Background(), schedulerClaims("dept-1"), "s1", tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resp.Section.Status)
			assert.Equal(t, tc.expected, store.byID["s1"].Status)
		})
	}
}

func TestSectionServiceUpdateClearedFacultyBecomesStaff(t *testing.T) {
	existing := sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM")
	existing.Faculty = "Kim"
	svc, _, _ := newSectionServiceForTest(newSectionStoreStub(existing), nil)
	blank := "  "

	resp, err := svc.Update(context.Background(), schedulerClaims("dept-1"), "s1", dto.UpdateSectionRequest{Faculty: &blank})
	require.NoError(t, err)
	assert.Equal(t, models.FacultyStaff, resp.Section.Faculty)
}

func TestSectionServiceMarkDeletedAndDelete(t *testing.T) {
	store := newSectionStoreStub(sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	svc, feed, _ := newSectionServiceForTest(store, nil)
	ctx := context.Background()

	marked, err := svc.MarkDeleted(ctx, schedulerClaims("dept-1"), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.SectionStatusDelete, marked.Status)
	assert.Equal(t, models.SectionStatusDelete, store.byID["s1"].Status)

	require.NoError(t, svc.Delete(ctx, schedulerClaims("dept-1"), "s1"))
	assert.NotContains(t, store.byID, "s1")

	err = svc.Delete(ctx, schedulerClaims("dept-1"), "s1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	rev, _ := feed.Revision(ctx, "dept-1")
	assert.Equal(t, int64(2), rev)
}

func TestSectionServiceRejectsOtherDepartment(t *testing.T) {
	store := newSectionStoreStub(sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	svc, _, _ := newSectionServiceForTest(store, nil)

	_, err := svc.Get(context.Background(), schedulerClaims("dept-2"), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	superadmin := &models.JWTClaims{Role: models.RoleSuperAdmin}
	got, err := svc.Get(context.Background(), superadmin, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

func TestSectionServiceConflicts(t *testing.T) {
	store := newSectionStoreStub(
		sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"),
		sampleSection("b", "CAT 201", "W", "10:15 AM", "11:00 AM"),
	)
	svc, _, _ := newSectionServiceForTest(store, nil)

	conflicts, err := svc.Conflicts(context.Background(), schedulerClaims("dept-1"), "a")
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts, "touching intervals do not overlap")
}

func TestSectionServiceFreeRooms(t *testing.T) {
	store := newSectionStoreStub(
		sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"),
		sampleSection("b", "CAT 202", "M", "9:30 AM", "10:00 AM"),
		sampleSection("c", "CAT 305", "TR", "9:00 AM", "10:15 AM"),
	)
	refs := referenceStoreStub{rooms: []models.Room{{Name: "CAT 201"}, {Name: "CAT 202"}, {Name: "CAT 110"}}}
	svc, _, _ := newSectionServiceForTest(store, refs)

	resp, err := svc.FreeRooms(context.Background(), schedulerClaims("dept-1"), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAT 201", "CAT 110", "CAT 305"}, resp.Rooms)
}

func TestSectionServiceImport(t *testing.T) {
	store := newSectionStoreStub()
	svc, feed, _ := newSectionServiceForTest(store, nil)
	ctx := context.Background()
	csv := strings.Join([]string{
		"Fall schedule export",
		"Term,Subject,Course,Section,Title,Notes,End Date,Method,Days,Begin,End,Room,Faculty",
		"2026MFA,MCSI,200,01,Programming 1,,12/15/2026,LEC,MW,9:30 AM,10:45 AM,CAT 201,Smith, Jane",
		",,,,",
		"2026MFA,MCSI,300",
		"2026MFA,MCSI,310,01,Data Structures,,,LEC,TR,1:00 PM,2:15 PM,ONLINE,",
	}, "\r\n")

	resp, err := svc.Import(ctx, schedulerClaims("dept-1"), dto.ImportSectionsRequest{Content: csv, TermOverride: "2027MSP"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Dropped)
	assert.Equal(t, 1, resp.HeaderLine)
	assert.Equal(t, "2027MSP", resp.Term)

	stored, err := store.List(ctx, models.SectionFilter{DepartmentID: "dept-1", Term: "2027MSP"})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Smith, Jane", stored[0].Faculty)
	assert.Equal(t, models.FacultyStaff, stored[1].Faculty)
	assert.Equal(t, models.SectionStatusImported, stored[0].Status)

	rev, _ := feed.Revision(ctx, "dept-1")
	assert.Equal(t, int64(1), rev, "one batch event per import")
}

func TestSectionServiceImportEmpty(t *testing.T) {
	svc, _, _ := newSectionServiceForTest(newSectionStoreStub(), nil)

	_, err := svc.Import(context.Background(), schedulerClaims("dept-1"), dto.ImportSectionsRequest{Content: "  \n"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceReplayArchive(t *testing.T) {
	kept := sampleSection("old-1", "CAT 201", "MW", "9:00 AM", "10:15 AM")
	kept.Term = "2025MFA"
	kept.Status = models.SectionStatusKeep
	kept.Faculty = "Kim"
	dropped := sampleSection("old-2", "CAT 202", "TR", "9:00 AM", "10:15 AM")
	dropped.Term = "2025MFA"
	dropped.Status = models.SectionStatusDelete
	store := newSectionStoreStub(kept, dropped)
	svc, _, _ := newSectionServiceForTest(store, nil)
	ctx := context.Background()

	resp, err := svc.ReplayArchive(ctx, schedulerClaims("dept-1"), dto.ReplayArchiveRequest{FromTerm: "2025MFA", ToTerm: "2026MFA"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Copied)

	copied, err := store.List(ctx, models.SectionFilter{DepartmentID: "dept-1", Term: "2026MFA"})
	require.NoError(t, err)
	require.Len(t, copied, 1)
	assert.NotEqual(t, "old-1", copied[0].ID)
	assert.Equal(t, models.SectionStatusImported, copied[0].Status)
	assert.Equal(t, "Kim", copied[0].Faculty)

	_, err = svc.ReplayArchive(ctx, schedulerClaims("dept-1"), dto.ReplayArchiveRequest{FromTerm: "2026MFA", ToTerm: "2026MFA"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSectionServiceOptionsMergesReferenceData(t *testing.T) {
	a := sampleSection("a", "cat 201", "MW", "9:00 AM", "10:15 AM")
	a.Faculty = "Kim"
	b := sampleSection("b", "BUS 110", "TR", "1:00 PM", "2:15 PM")
	c := sampleSection("c", "ONLINE", "", "", "")
	c.Faculty = "lee"
	store := newSectionStoreStub(a, b, c)
	refs := referenceStoreStub{
		rooms:  []models.Room{{Name: "CAT 201"}, {Name: "CAT 202"}},
		blocks: []models.TimeBlock{{Label: "MW morning", Days: "MW", BeginTime: "9:00 AM", EndTime: "10:15 AM"}},
	}
	svc, _, _ := newSectionServiceForTest(store, refs)

	resp, err := svc.Options(context.Background(), schedulerClaims("dept-1"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAT 201", "CAT 202", "BUS 110", "ONLINE"}, resp.Rooms)
	require.Len(t, resp.TimeBlocks, 2)
	assert.True(t, resp.TimeBlocks[0].Canonical)
	assert.Equal(t, "TR 1:00 PM-2:15 PM", resp.TimeBlocks[1].Label)
	assert.False(t, resp.TimeBlocks[1].Canonical)
	assert.Equal(t, []string{"Kim", "lee"}, resp.Faculty)
}

func TestSectionServiceOptionsToleratesMissingReferenceData(t *testing.T) {
	store := newSectionStoreStub(sampleSection("a", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	svc, _, _ := newSectionServiceForTest(store, referenceStoreStub{err: errors.New("relation rooms does not exist")})

	resp, err := svc.Options(context.Background(), schedulerClaims("dept-1"), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAT 201"}, resp.Rooms)
	require.Len(t, resp.TimeBlocks, 1)
	assert.Equal(t, "MW", resp.TimeBlocks[0].Days)
}

func TestRegisterSectionValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerSectionValidations(v))

	valid := dto.CreateSectionRequest{Term: "2026MFA", Subject: "MCSI", CourseNumber: "200", Section: "01", MeetingDays: "mw", BeginTime: "9:30 AM", Status: models.SectionStatusKeep}
	assert.NoError(t, v.Struct(valid))

	for name, mutate := range map[string]func(*dto.CreateSectionRequest){
		"days":   func(r *dto.CreateSectionRequest) { r.MeetingDays = "MX" },
		"time":   func(r *dto.CreateSectionRequest) { r.BeginTime = "25:00" },
		"status": func(r *dto.CreateSectionRequest) { r.Status = "Draft" },
	} {
		req := valid
		mutate(&req)
		assert.Error(t, v.Struct(req), name)
	}
}
