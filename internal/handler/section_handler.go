package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
	"github.com/noah-isme/dept-scheduler-api/pkg/response"
)

// maxUploadBytes caps a CSV import body.
const maxUploadBytes = 8 << 20

type sectionService interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.SectionListQuery) (*dto.SectionListResponse, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateSectionRequest) (*dto.SectionWriteResponse, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateSectionRequest) (*dto.SectionWriteResponse, error)
	MarkDeleted(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassSection, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Conflicts(ctx context.Context, actor *models.JWTClaims, id string) ([]scheduling.Conflict, error)
	FreeRooms(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FreeRoomsResponse, error)
	Import(ctx context.Context, actor *models.JWTClaims, req dto.ImportSectionsRequest) (*dto.ImportSectionsResponse, error)
	ReplayArchive(ctx context.Context, actor *models.JWTClaims, req dto.ReplayArchiveRequest) (*dto.ReplayArchiveResponse, error)
	Options(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.SectionOptionsResponse, error)
}

// SectionHandler exposes the department schedule.
type SectionHandler struct {
	service sectionService
}

// NewSectionHandler constructs the handler.
func NewSectionHandler(svc sectionService) *SectionHandler {
	return &SectionHandler{service: svc}
}

// List godoc
// @Summary List sections
// @Description Sorted listing of one department term with room conflicts
// @Tags Sections
// @Produce json
// @Param department_id query string false "Department ID"
// @Param term query string false "Term code"
// @Param sort query string false "course|time|room|faculty|status"
// @Param status query string false "Status filter"
// @Param faculty query string false "Faculty filter"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	var query dto.SectionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	result, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.CacheHit)
	middleware.SetRevision(c, result.Revision)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Create section
// @Description Conflicts are returned as warnings and never block the save
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update section
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.UpdateSectionRequest true "Partial section"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [patch]
func (h *SectionHandler) Update(c *gin.Context) {
	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}
	result, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkDeleted godoc
// @Summary Mark section for deletion
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/delete-mark [post]
func (h *SectionHandler) MarkDeleted(c *gin.Context) {
	section, err := h.service.MarkDeleted(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Delete godoc
// @Summary Remove section permanently
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Conflicts godoc
// @Summary Room conflicts of a section
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/conflicts [get]
func (h *SectionHandler) Conflicts(c *gin.Context) {
	conflicts, err := h.service.Conflicts(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// FreeRooms godoc
// @Summary Rooms free during the section's meeting time
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/free-rooms [get]
func (h *SectionHandler) FreeRooms(c *gin.Context) {
	result, err := h.service.FreeRooms(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Import godoc
// @Summary Import a schedule CSV
// @Description Accepts a text/csv body or a multipart form with a "file" field
// @Tags Sections
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Param department_id query string false "Department ID"
// @Param term query string false "Term override"
// @Success 201 {object} response.Envelope
// @Router /sections/import [post]
func (h *SectionHandler) Import(c *gin.Context) {
	content, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Import(c.Request.Context(), claimsFromContext(c), dto.ImportSectionsRequest{
		DepartmentID: departmentQuery(c),
		TermOverride: c.Query("term"),
		Content:      content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Replay godoc
// @Summary Copy a previous term into a new one
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body dto.ReplayArchiveRequest true "Terms"
// @Success 201 {object} response.Envelope
// @Router /sections/replay [post]
func (h *SectionHandler) Replay(c *gin.Context) {
	var req dto.ReplayArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid replay payload"))
		return
	}
	result, err := h.service.ReplayArchive(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Options godoc
// @Summary Room, time and faculty pickers
// @Tags Sections
// @Produce json
// @Param department_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /sections/options [get]
func (h *SectionHandler) Options(c *gin.Context) {
	result, err := h.service.Options(c.Request.Context(), claimsFromContext(c), departmentQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func readUpload(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required")
		}
		if fileHeader.Size > maxUploadBytes {
			return "", appErrors.Clone(appErrors.ErrValidation, "upload too large")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
		}
		return string(data), nil
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	if len(data) > maxUploadBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, "upload too large")
	}
	return string(data), nil
}
