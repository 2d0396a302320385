package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/middleware"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

type facultyRequestStub struct {
	created   bool
	submitted dto.SubmitRequestPayload
	listDept  string
	listTerm  string
}

func (s *facultyRequestStub) Submit(ctx context.Context, actor *models.JWTClaims, payload dto.SubmitRequestPayload) (*dto.FacultyRequestItem, bool, error) {
	s.submitted = payload
	return &dto.FacultyRequestItem{Request: models.FacultyRequest{ID: "r1", FacultyName: payload.FacultyName}}, s.created, nil
}

func (s *facultyRequestStub) List(ctx context.Context, actor *models.JWTClaims, departmentID, term string) ([]dto.FacultyRequestItem, error) {
	s.listDept, s.listTerm = departmentID, term
	return []dto.FacultyRequestItem{}, nil
}

func (s *facultyRequestStub) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.FacultyRequestItem, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty request not found")
}

func (s *facultyRequestStub) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

type instructorStub struct {
	action  string
	comment string
	err     error
}

func (s *instructorStub) List(ctx context.Context, actor *models.JWTClaims, departmentID string) ([]models.Instructor, error) {
	return []models.Instructor{{ID: "i1", Name: "Kim"}}, nil
}

func (s *instructorStub) Create(ctx context.Context, actor *models.JWTClaims, payload dto.InstructorPayload) (*models.Instructor, error) {
	return &models.Instructor{ID: "i2", Name: payload.Name}, nil
}

func (s *instructorStub) Update(ctx context.Context, actor *models.JWTClaims, id string, payload dto.InstructorPayload) (*models.Instructor, error) {
	return &models.Instructor{ID: id, Name: payload.Name}, nil
}

func (s *instructorStub) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func (s *instructorStub) Approval(ctx context.Context, actor *models.JWTClaims, id, action string, payload dto.ApprovalPayload) (*models.Instructor, error) {
	s.action, s.comment = action, payload.Comment
	if s.err != nil {
		return nil, s.err
	}
	return &models.Instructor{ID: id}, nil
}

func TestFacultyHandlerSubmitStatusFollowsUpsert(t *testing.T) {
	requests := &facultyRequestStub{created: true}
	handler := NewFacultyHandler(requests, &instructorStub{})

	body, _ := json.Marshal(dto.SubmitRequestPayload{FacultyName: "Kim", Term: "2026MFA", LoadDesired: 2})
	c, w := newGinContext(http.MethodPost, "/requests", body)
	c.Set(middleware.ContextUserKey, schedulerClaims())
	handler.SubmitRequest(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, requests.submitted.LoadDesired)

	requests.created = false
	c, w = newGinContext(http.MethodPost, "/requests", body)
	handler.SubmitRequest(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFacultyHandlerListRequestsPassesFilters(t *testing.T) {
	requests := &facultyRequestStub{}
	handler := NewFacultyHandler(requests, &instructorStub{})

	c, w := newGinContext(http.MethodGet, "/requests?department_id=dept-2&term=2026MSP", nil)
	handler.ListRequests(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dept-2", requests.listDept)
	assert.Equal(t, "2026MSP", requests.listTerm)
}

func TestFacultyHandlerGetRequestNotFound(t *testing.T) {
	handler := NewFacultyHandler(&facultyRequestStub{}, &instructorStub{})
	c, w := newGinContext(http.MethodGet, "/requests/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.GetRequest(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFacultyHandlerApprovalWithoutBody(t *testing.T) {
	instructors := &instructorStub{}
	handler := NewFacultyHandler(&facultyRequestStub{}, instructors)

	c, w := newGinContext(http.MethodPost, "/instructors/i1/approval/send", nil)
	c.Params = gin.Params{{Key: "id", Value: "i1"}, {Key: "action", Value: "send"}}
	handler.Approval(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "send", instructors.action)
	assert.Empty(t, instructors.comment)
}

func TestFacultyHandlerApprovalCommentAndConflict(t *testing.T) {
	instructors := &instructorStub{err: appErrors.Clone(appErrors.ErrConflict, "cannot approve from Pending")}
	handler := NewFacultyHandler(&facultyRequestStub{}, instructors)

	body, _ := json.Marshal(dto.ApprovalPayload{Comment: "looks good"})
	c, w := newGinContext(http.MethodPost, "/instructors/i1/approval/approve", body)
	c.Params = gin.Params{{Key: "id", Value: "i1"}, {Key: "action", Value: "approve"}}
	handler.Approval(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "looks good", instructors.comment)
}

func TestFacultyHandlerInstructorCRUD(t *testing.T) {
	handler := NewFacultyHandler(&facultyRequestStub{}, &instructorStub{})

	body, _ := json.Marshal(dto.InstructorPayload{Name: "Adams"})
	c, w := newGinContext(http.MethodPost, "/instructors", body)
	handler.CreateInstructor(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPut, "/instructors/i2", body)
	c.Params = gin.Params{{Key: "id", Value: "i2"}}
	handler.UpdateInstructor(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodPut, "/instructors/i2", []byte("nope"))
	handler.UpdateInstructor(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/instructors", nil)
	handler.ListInstructors(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), "Kim")
}
