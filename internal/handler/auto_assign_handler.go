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

type autoAssignService interface {
	Toggle(ctx context.Context, actor *models.JWTClaims, req dto.AutoAssignToggleRequest) (*dto.AutoAssignStatus, error)
	Status(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.AutoAssignStatus, error)
	Run(ctx context.Context, actor *models.JWTClaims, departmentID string) (*dto.AutoAssignRun, error)
}

type assistantService interface {
	Ask(ctx context.Context, actor *models.JWTClaims, req dto.AssistantAskRequest) (*dto.AssistantAskResponse, error)
}

// AutoAssignHandler drives the background matcher and the assistant bridge.
type AutoAssignHandler struct {
	autoAssign autoAssignService
	assistant  assistantService
}

// NewAutoAssignHandler constructs the handler. assistant may be nil.
func NewAutoAssignHandler(autoAssign autoAssignService, assistant assistantService) *AutoAssignHandler {
	return &AutoAssignHandler{autoAssign: autoAssign, assistant: assistant}
}

// Status godoc
// @Summary Auto-assign status
// @Tags AutoAssign
// @Produce json
// @Param department_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /auto-assign [get]
func (h *AutoAssignHandler) Status(c *gin.Context) {
	status, err := h.autoAssign.Status(c.Request.Context(), claimsFromContext(c), departmentQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Toggle godoc
// @Summary Enable or disable auto-assign
// @Tags AutoAssign
// @Accept json
// @Produce json
// @Param payload body dto.AutoAssignToggleRequest true "Toggle"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /auto-assign [put]
func (h *AutoAssignHandler) Toggle(c *gin.Context) {
	var req dto.AutoAssignToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	status, err := h.autoAssign.Toggle(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Run godoc
// @Summary Run the matcher now
// @Tags AutoAssign
// @Produce json
// @Param department_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /auto-assign/run [post]
func (h *AutoAssignHandler) Run(c *gin.Context) {
	run, err := h.autoAssign.Run(c.Request.Context(), claimsFromContext(c), departmentQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Ask godoc
// @Summary Ask the schedule assistant
// @Tags AutoAssign
// @Accept json
// @Produce json
// @Param payload body dto.AssistantAskRequest true "Question"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assistant/ask [post]
func (h *AutoAssignHandler) Ask(c *gin.Context) {
	if h.assistant == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "assistant is not configured"))
		return
	}
	var req dto.AssistantAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid question payload"))
		return
	}
	answer, err := h.assistant.Ask(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answer, nil)
}
