package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	"github.com/noah-isme/dept-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type reportServiceMock struct {
	createReq   dto.ReportRequest
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	utilQuery   dto.UtilizationQuery
	utilization *scheduling.UtilizationReport
	download    *service.ReportDownload
	downloadErr error
}

func (m *reportServiceMock) CreateJob(ctx context.Context, actor *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	m.createReq = req
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, actor *models.JWTClaims, id string) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) Utilization(ctx context.Context, actor *models.JWTClaims, query dto.UtilizationQuery) (*scheduling.UtilizationReport, error) {
	m.utilQuery = query
	return m.utilization, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func schedulerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "u-1", Role: models.RoleScheduler, DepartmentID: "dept-1"}
}

func TestReportHandlerCreate(t *testing.T) {
	mockSvc := &reportServiceMock{
		createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued, Progress: 0},
	}
	handler := NewReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.ReportRequest{Type: models.ReportTypeSchedule, Term: "2026MFA", Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, schedulerClaims())

	handler.Create(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "2026MFA", mockSvc.createReq.Term)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"job-1"`)
}

func TestReportHandlerCreateRejectsBadJSON(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports", []byte("{"))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerStatus(t *testing.T) {
	mockSvc := &reportServiceMock{
		statusResp: &dto.ReportStatusResponse{ID: "job-1", Status: models.ReportStatusFinished, Progress: 100},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, schedulerClaims())

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)

	mockSvc.statusErr = appErrors.Clone(appErrors.ErrForbidden, "not yours")
	c, w = newGinContext(http.MethodGet, "/reports/job-1", nil)
	handler.Status(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerUtilizationBindsQuery(t *testing.T) {
	mockSvc := &reportServiceMock{utilization: &scheduling.UtilizationReport{}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/utilization?term=2026MFA&department_id=dept-1", nil)
	handler.Utilization(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.UtilizationQuery{DepartmentID: "dept-1", Term: "2026MFA"}, mockSvc.utilQuery)
}

func TestReportHandlerDownload(t *testing.T) {
	file, err := os.CreateTemp("", "schedule*.csv")
	require.NoError(t, err)
	defer os.Remove(file.Name())
	_, _ = file.WriteString("course,section\n")
	_, _ = file.Seek(0, 0)

	mockSvc := &reportServiceMock{
		download: &service.ReportDownload{
			File:      file,
			Filename:  "schedule_dept-1_2026MFA.csv",
			Format:    models.ReportFormatCSV,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule_dept-1_2026MFA.csv")
	assert.Equal(t, "course,section\n", w.Body.String())
}

func TestReportHandlerDownloadRejectsBadToken(t *testing.T) {
	mockSvc := &reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid download token")}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newGinContext(http.MethodGet, "/export/", nil)
	handler.Download(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
