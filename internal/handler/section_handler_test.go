package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type sectionServiceStub struct {
	listQuery dto.SectionListQuery
	listResp  *dto.SectionListResponse
	createReq dto.CreateSectionRequest
	importReq dto.ImportSectionsRequest
	deletedID string
	getErr    error
	conflicts []scheduling.Conflict
}

func (s *sectionServiceStub) List(ctx context.Context, actor *models.JWTClaims, query dto.SectionListQuery) (*dto.SectionListResponse, error) {
	s.listQuery = query
	return s.listResp, nil
}

func (s *sectionServiceStub) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.ClassSection{ID: id}, nil
}

func (s *sectionServiceStub) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSectionRequest) (*dto.SectionWriteResponse, error) {
	s.createReq = req
	return &dto.SectionWriteResponse{Section: models.ClassSection{ID: "s-new"}, Warnings: s.conflicts}, nil
}

func (s *sectionServiceStub) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSectionRequest) (*dto.SectionWriteResponse, error) {
	return &dto.SectionWriteResponse{Section: models.ClassSection{ID: id}}, nil
}

func (s *sectionServiceStub) MarkDeleted(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error) {
	return &models.ClassSection{ID: id, Status: models.SectionStatusDelete}, nil
}

func (s *sectionServiceStub) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	s.deletedID = id
	return nil
}

func (s *sectionServiceStub) Conflicts(ctx context.Context, actor *models.JWTClaims, id string) ([]scheduling.Conflict, error) {
	return s.conflicts, nil
}

func (s *sectionServiceStub) FreeRooms(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FreeRoomsResponse, error) {
	return &dto.FreeRoomsResponse{SectionID: id, Rooms: []string{"CAT 105"}}, nil
}

func (s *sectionServiceStub) Import(ctx context.Context, actor *models.JWTClaims, req dto.ImportSectionsRequest) (*dto.ImportSectionsResponse, error) {
	s.importReq = req
	return &dto.ImportSectionsResponse{Imported: 1}, nil
}

func (s *sectionServiceStub) ReplayArchive(ctx context.Context, actor *models.JWTClaims, req dto.ReplayArchiveRequest) (*dto.ReplayArchiveResponse, error) {
	return &dto.ReplayArchiveResponse{}, nil
}

func (s *sectionServiceStub) Options(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.SectionOptionsResponse, error) {
	return &dto.SectionOptionsResponse{}, nil
}

func TestSectionHandlerListReportsCacheHit(t *testing.T) {
	stub := &sectionServiceStub{listResp: &dto.SectionListResponse{DepartmentID: "dept-1", Sort: "course", Revision: 12, CacheHit: true}}
	handler := NewSectionHandler(stub)

	c, w := newGinContext(http.MethodGet, "/sections?term=2026MFA&sort=room", nil)
	c.Set(middleware.ContextUserKey, schedulerClaims())
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026MFA", stub.listQuery.Term)
	assert.Equal(t, "room", stub.listQuery.Sort)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, float64(12), env.Meta["revision"])
	assert.Equal(t, "12", w.Header().Get(middleware.RevisionHeader))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.NotContains(t, string(env.Data), "CacheHit")
}

func TestSectionHandlerCreateReturnsWarnings(t *testing.T) {
	stub := &sectionServiceStub{conflicts: []scheduling.Conflict{{SectionID: "s-new", OtherID: "s1", Room: "CAT 201"}}}
	handler := NewSectionHandler(stub)

	body, _ := json.Marshal(map[string]interface{}{"term": "2026MFA", "subject": "MCSI", "course_number": "300", "section": "01", "room": "CAT 201"})
	c, w := newGinContext(http.MethodPost, "/sections", body)
	c.Set(middleware.ContextUserKey, schedulerClaims())
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "300", stub.createReq.CourseNumber)
	var data dto.SectionWriteResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, "s-new", data.Section.ID)
	require.Len(t, data.Warnings, 1)
	assert.Equal(t, "CAT 201", data.Warnings[0].Room)
}

func TestSectionHandlerCreateRejectsBadJSON(t *testing.T) {
	handler := NewSectionHandler(&sectionServiceStub{})
	c, w := newGinContext(http.MethodPost, "/sections", []byte("[1,2"))
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSectionHandlerGetMapsNotFound(t *testing.T) {
	handler := NewSectionHandler(&sectionServiceStub{getErr: appErrors.Clone(appErrors.ErrNotFound, "section not found")})
	c, w := newGinContext(http.MethodGet, "/sections/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, w).Error.Code)
}

func TestSectionHandlerDeleteAndMark(t *testing.T) {
	stub := &sectionServiceStub{}
	handler := NewSectionHandler(stub)

	c, w := newGinContext(http.MethodDelete, "/sections/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s1", stub.deletedID)

	c, w = newGinContext(http.MethodPost, "/sections/s2/delete-mark", nil)
	c.Params = gin.Params{{Key: "id", Value: "s2"}}
	handler.MarkDeleted(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), string(models.SectionStatusDelete))
}

func TestSectionHandlerImportRawCSV(t *testing.T) {
	stub := &sectionServiceStub{}
	handler := NewSectionHandler(stub)

	csv := "Term,Course,Section\n2026MFA,MCSI 300,01\n"
	c, w := newGinContext(http.MethodPost, "/sections/import?term=2026MSP&department_id=dept-1", []byte(csv))
	c.Request.Header.Set("Content-Type", "text/csv")
	handler.Import(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, csv, stub.importReq.Content)
	assert.Equal(t, "2026MSP", stub.importReq.TermOverride)
	assert.Equal(t, "dept-1", stub.importReq.DepartmentID)
}

func TestSectionHandlerImportMultipart(t *testing.T) {
	stub := &sectionServiceStub{}
	handler := NewSectionHandler(stub)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "fall.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Course,Section\nMCSI 100,02\n"))
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/sections/import", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	handler.Import(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Course,Section\nMCSI 100,02\n", stub.importReq.Content)
}

func TestSectionHandlerImportMultipartWithoutFile(t *testing.T) {
	handler := NewSectionHandler(&sectionServiceStub{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "nothing"))
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/sections/import", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	handler.Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSectionHandlerFreeRooms(t *testing.T) {
	handler := NewSectionHandler(&sectionServiceStub{})
	c, w := newGinContext(http.MethodGet, "/sections/s1/free-rooms", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.FreeRooms(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), "CAT 105")
}
