package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

func newAssistantServiceForTest(url string, enabled bool) *AssistantService {
	sections := newSectionStoreStub(sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM"))
	requests := newRequestStoreStub(models.FacultyRequest{ID: "r1", DepartmentID: "dept-1", FacultyName: "Kim"})
	return NewAssistantService(sections, requests, nil, validator.New(), zap.NewNop(), AssistantConfig{
		Enabled: enabled,
		URL:     url,
		APIKey:  "key-123",
		Model:   "sched-small",
		Timeout: 2 * time.Second,
	})
}

func TestAssistantServiceAskForwardsScheduleAndQuestion(t *testing.T) {
	var received map[string]json.RawMessage
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte("Room CAT 201 is busy Monday morning."))
	}))
	defer server.Close()

	svc := newAssistantServiceForTest(server.URL, true)
	resp, err := svc.Ask(context.Background(), schedulerClaims("dept-1"), dto.AssistantAskRequest{Question: " Which rooms are busy? "})
	require.NoError(t, err)
	assert.Equal(t, "Room CAT 201 is busy Monday morning.", resp.Answer)
	assert.Equal(t, "Bearer key-123", auth)
	assert.JSONEq(t, `"Which rooms are busy?"`, string(received["question"]))
	assert.JSONEq(t, `"sched-small"`, string(received["model"]))

	var sections []models.ClassSection
	require.NoError(t, json.Unmarshal(received["sections"], &sections))
	require.Len(t, sections, 1)
	assert.Equal(t, "s1", sections[0].ID)
	assert.Contains(t, string(received["requests"]), "Kim")
}

func TestAssistantServiceUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newAssistantServiceForTest(server.URL, true)
	_, err := svc.Ask(context.Background(), schedulerClaims("dept-1"), dto.AssistantAskRequest{Question: "hi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestAssistantServiceDisabledAndValidation(t *testing.T) {
	disabled := newAssistantServiceForTest("http://127.0.0.1:1", false)
	_, err := disabled.Ask(context.Background(), schedulerClaims("dept-1"), dto.AssistantAskRequest{Question: "hi"})
	assert.Equal(t, appErrors.ErrFeatureDisabled.Code, appErrors.FromError(err).Code)

	enabled := newAssistantServiceForTest("http://127.0.0.1:1", true)
	_, err = enabled.Ask(context.Background(), schedulerClaims("dept-1"), dto.AssistantAskRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
