package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	"github.com/noah-isme/dept-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
	"github.com/noah-isme/dept-scheduler-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, actor *models.JWTClaims, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, actor *models.JWTClaims, id string) (*dto.ReportStatusResponse, error)
	Utilization(ctx context.Context, actor *models.JWTClaims, query dto.UtilizationQuery) (*scheduling.UtilizationReport, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

var reportMimeTypes = map[models.ReportFormat]string{
	models.ReportFormatCSV:  "text/csv",
	models.ReportFormatPDF:  "application/pdf",
	models.ReportFormatHTML: "text/html; charset=utf-8",
	models.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Utilization godoc
// @Summary Room utilisation for a term
// @Tags Reports
// @Produce json
// @Param department_id query string false "Department ID"
// @Param term query string false "Term code"
// @Success 200 {object} response.Envelope
// @Router /reports/utilization [get]
func (h *ReportHandler) Utilization(c *gin.Context) {
	var query dto.UtilizationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	report, err := h.service.Utilization(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Queue an export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description The signed token is the only credential
// @Tags Reports
// @Param token path string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	var size int64 = -1
	if info, statErr := result.File.Stat(); statErr == nil {
		size = info.Size()
	}
	response.Attachment(c, result.Filename, reportMimeTypes[result.Format], result.File, size)
}
