package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/dto"
	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

const maxAssistantResponse = 1 << 20

// AssistantConfig points at the external completion endpoint.
type AssistantConfig struct {
	Enabled bool
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type assistantPrompt struct {
	Model    string                  `json:"model,omitempty"`
	Sections []models.ClassSection   `json:"sections"`
	Requests []models.FacultyRequest `json:"requests"`
	Question string                  `json:"question"`
}

// AssistantService forwards a question plus the current schedule to an
// external text-completion service and returns its answer verbatim.
type AssistantService struct {
	sections  sectionLister
	requests  requestLister
	client    *http.Client
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AssistantConfig
}

// NewAssistantService constructs the bridge. client may be nil.
func NewAssistantService(sections sectionLister, requests requestLister, client *http.Client, validate *validator.Validate, logger *zap.Logger, cfg AssistantConfig) *AssistantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &AssistantService{
		sections:  sections,
		requests:  requests,
		client:    client,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Ask sends the department's schedule and requests with the question.
func (s *AssistantService) Ask(ctx context.Context, actor *models.JWTClaims, req dto.AssistantAskRequest) (*dto.AssistantAskResponse, error) {
	if !s.cfg.Enabled || strings.TrimSpace(s.cfg.URL) == "" {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "assistant is not configured")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assistant question")
	}
	dept, err := ResolveDepartment(actor, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: dept, Term: strings.TrimSpace(req.Term)})
	if err != nil {
		return nil, internalError(err, "failed to load sections")
	}
	requests, err := s.requests.ListByDepartment(ctx, dept)
	if err != nil {
		return nil, internalError(err, "failed to load faculty requests")
	}
	if sections == nil {
		sections = []models.ClassSection{}
	}
	if requests == nil {
		requests = []models.FacultyRequest{}
	}

	body, err := json.Marshal(assistantPrompt{
		Model:    s.cfg.Model,
		Sections: sections,
		Requests: requests,
		Question: strings.TrimSpace(req.Question),
	})
	if err != nil {
		return nil, internalError(err, "failed to encode assistant prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	answer, err := s.post(ctx, body)
	if err != nil {
		s.logger.Sugar().Warnw("assistant call failed", "department_id", dept, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "assistant request failed")
	}
	return &dto.AssistantAskResponse{Answer: answer}, nil
}

func (s *AssistantService) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssistantResponse))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}
	return string(data), nil
}
