package dto

import "github.com/noah-isme/dept-scheduler-api/internal/models"

// ReportRequest captures the POST /reports payload.
type ReportRequest struct {
	DepartmentID string              `json:"department_id"`
	Type         models.ReportType   `json:"type" validate:"required"`
	Term         string              `json:"term" validate:"required"`
	Format       models.ReportFormat `json:"format" validate:"required"`
	Sort         string              `json:"sort"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

// UtilizationQuery selects the synchronous utilisation report.
type UtilizationQuery struct {
	DepartmentID string `form:"department_id"`
	Term         string `form:"term"`
}
