package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
	"github.com/noah-isme/dept-scheduler-api/pkg/response"
)

type facultyRequestService interface {
	Submit(ctx context.Context, actor *models.JWTClaims, payload dto.SubmitRequestPayload) (*dto.FacultyRequestItem, bool, error)
	List(ctx context.Context, actor *models.JWTClaims, departmentID, term string) ([]dto.FacultyRequestItem, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FacultyRequestItem, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

type instructorService interface {
	List(ctx context.Context, actor *models.JWTClaims, departmentID string) ([]models.Instructor, error)
	Create(ctx context.Context, actor *models.JWTClaims, payload dto.InstructorPayload) (*models.Instructor, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, payload dto.InstructorPayload) (*models.Instructor, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Approval(ctx context.Context, actor *models.JWTClaims, id, action string, payload dto.ApprovalPayload) (*models.Instructor, error)
}

// FacultyHandler serves preference requests and the instructor roster.
type FacultyHandler struct {
	requests    facultyRequestService
	instructors instructorService
}

// NewFacultyHandler constructs the handler.
func NewFacultyHandler(requests facultyRequestService, instructors instructorService) *FacultyHandler {
	return &FacultyHandler{requests: requests, instructors: instructors}
}

// ListRequests godoc
// @Summary List faculty requests
// @Tags Faculty
// @Produce json
// @Param department_id query string false "Department ID"
// @Param term query string false "Term code"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *FacultyHandler) ListRequests(c *gin.Context) {
	items, err := h.requests.List(c.Request.Context(), claimsFromContext(c), departmentQuery(c), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// SubmitRequest godoc
// @Summary Submit or replace a faculty request
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequestPayload true "Request"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *FacultyHandler) SubmitRequest(c *gin.Context) {
	var payload dto.SubmitRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	item, created, err := h.requests.Submit(c.Request.Context(), claimsFromContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, item)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// GetRequest godoc
// @Summary Get faculty request
// @Tags Faculty
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *FacultyHandler) GetRequest(c *gin.Context) {
	item, err := h.requests.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteRequest godoc
// @Summary Delete faculty request
// @Tags Faculty
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *FacultyHandler) DeleteRequest(c *gin.Context) {
	if err := h.requests.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListInstructors godoc
// @Summary Instructor roster
// @Tags Faculty
// @Produce json
// @Param department_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *FacultyHandler) ListInstructors(c *gin.Context) {
	roster, err := h.instructors.List(c.Request.Context(), claimsFromContext(c), departmentQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// CreateInstructor godoc
// @Summary Add instructor
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body dto.InstructorPayload true "Instructor"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *FacultyHandler) CreateInstructor(c *gin.Context) {
	var payload dto.InstructorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instructor payload"))
		return
	}
	instructor, err := h.instructors.Create(c.Request.Context(), claimsFromContext(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// UpdateInstructor godoc
// @Summary Update instructor profile
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body dto.InstructorPayload true "Instructor"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [put]
func (h *FacultyHandler) UpdateInstructor(c *gin.Context) {
	var payload dto.InstructorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instructor payload"))
		return
	}
	instructor, err := h.instructors.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}

// DeleteInstructor godoc
// @Summary Remove instructor
// @Tags Faculty
// @Param id path string true "Instructor ID"
// @Success 204
// @Router /instructors/{id} [delete]
func (h *FacultyHandler) DeleteInstructor(c *gin.Context) {
	if err := h.instructors.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approval godoc
// @Summary Move an instructor through schedule sign-off
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param action path string true "send|approve|reject|reset"
// @Param payload body dto.ApprovalPayload false "Comment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructors/{id}/approval/{action} [post]
func (h *FacultyHandler) Approval(c *gin.Context) {
	var payload dto.ApprovalPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
			return
		}
	}
	instructor, err := h.instructors.Approval(c.Request.Context(), claimsFromContext(c), c.Param("id"), c.Param("action"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructor, nil)
}
