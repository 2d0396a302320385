package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
	"github.com/noah-isme/dept-scheduler-api/pkg/export"
	"github.com/noah-isme/dept-scheduler-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix   string
	ResultTTL   time.Duration
	WeekMinutes int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type documentRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService builds report datasets from the department schedule and
// persists rendered files behind signed download tokens.
type ExportService struct {
	sections  sectionLister
	requests  requestLister
	storage   fileStorage
	csv       csvRenderer
	documents map[models.ReportFormat]documentRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with the csv, pdf, html and
// xlsx renderers.
func NewExportService(sections sectionLister, requests requestLister, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.WeekMinutes <= 0 {
		cfg.WeekMinutes = scheduling.DefaultWeekMinutes
	}
	return &ExportService{
		sections: sections,
		requests: requests,
		storage:  storage,
		csv:      export.NewCSVExporter(),
		documents: map[models.ReportFormat]documentRenderer{
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatHTML: export.NewHTMLExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
	}
}

// Generate builds the dataset the job asks for and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.BuildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := s.render(job.Params.Format, dataset, title)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Sugar().Debugw("export generated", "job_id", job.ID, "path", relPath, "rows", len(dataset.Rows))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// BuildDataset assembles the rows of a report without rendering them.
func (s *ExportService) BuildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	sections, err := s.sections.List(ctx, models.SectionFilter{DepartmentID: job.DepartmentID, Term: job.Params.Term})
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load sections: %w", err)
	}
	criterion, _ := scheduling.ParseSortCriterion(job.Params.Sort)
	switch job.Type {
	case models.ReportTypeSchedule:
		return scheduleDataset(sections, criterion), fmt.Sprintf("Schedule %s", job.Params.Term), nil
	case models.ReportTypeUtilization:
		report := scheduling.BuildUtilization(sections, s.cfg.WeekMinutes)
		return utilizationDataset(report), fmt.Sprintf("Room Utilization %s", job.Params.Term), nil
	case models.ReportTypeConflicts:
		return conflictsDataset(sections), fmt.Sprintf("Room Conflicts %s", job.Params.Term), nil
	case models.ReportTypeFacultyLoad:
		requests, err := s.requests.ListByDepartment(ctx, job.DepartmentID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load requests: %w", err)
		}
		return facultyLoadDataset(job.DepartmentID, job.Params.Term, requests, sections), fmt.Sprintf("Faculty Load %s", job.Params.Term), nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) render(format models.ReportFormat, dataset export.Dataset, title string) ([]byte, error) {
	if format == models.ReportFormatCSV {
		return s.csv.Render(dataset)
	}
	renderer, ok := s.documents[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	return renderer.Render(dataset, title)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ToLower(string(job.Type)),
		sanitizeFilename(job.DepartmentID),
		sanitizeFilename(job.Params.Term),
		timestamp,
		job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// SectionRowStyle maps a section's status onto the colour legend used by
// every styled export.
func SectionRowStyle(section models.ClassSection) export.RowStyle {
	switch section.Status {
	case models.SectionStatusImported:
		if section.IsUnassigned() {
			return export.RowStyle{Color: "#808080", Italic: true}
		}
		return export.RowStyle{Color: "#808080", Bold: true}
	case models.SectionStatusKeep:
		return export.RowStyle{Color: "#1F4E9C", Bold: true}
	case models.SectionStatusChange:
		return export.RowStyle{Color: "#2E7D32", Bold: true}
	case models.SectionStatusDelete:
		return export.RowStyle{Color: "#D2B48C"}
	case models.SectionStatusNew:
		return export.RowStyle{Color: "#E75480", Bold: true}
	default:
		return export.RowStyle{}
	}
}

var alertStyle = export.RowStyle{Color: "#C62828", Bold: true}

func scheduleDataset(sections []models.ClassSection, criterion scheduling.SortCriterion) export.Dataset {
	headers := []string{"Term", "Subject", "Number", "Section", "Title", "Days", "Begin", "End", "Room", "Faculty", "Method", "Status", "Notes"}
	sorted := scheduling.Sort(sections, criterion)
	rows := make([]map[string]string, 0, len(sorted))
	styles := make([]export.RowStyle, 0, len(sorted))
	for _, sec := range sorted {
		rows = append(rows, map[string]string{
			"Term":    sec.Term,
			"Subject": sec.Subject,
			"Number":  sec.CourseNumber,
			"Section": sec.Section,
			"Title":   sec.Title,
			"Days":    sec.MeetingDays,
			"Begin":   sec.BeginTime,
			"End":     sec.EndTime,
			"Room":    sec.Room,
			"Faculty": sec.Faculty,
			"Method":  sec.Method,
			"Status":  string(sec.Status),
			"Notes":   sec.Notes,
		})
		styles = append(styles, SectionRowStyle(sec))
	}
	return export.Dataset{Headers: headers, Rows: rows, Styles: styles}
}

func utilizationDataset(report scheduling.UtilizationReport) export.Dataset {
	headers := []string{"Room", "Sections", "Weekly Minutes", "Utilization (%)", "Anomalies"}
	rows := make([]map[string]string, 0, len(report.Rooms)+1)
	styles := make([]export.RowStyle, 0, len(report.Rooms)+1)
	for _, room := range report.Rooms {
		rows = append(rows, map[string]string{
			"Room":            room.Room,
			"Sections":        strconv.Itoa(room.SectionCount),
			"Weekly Minutes":  strconv.Itoa(room.WeeklyMinutes),
			"Utilization (%)": fmt.Sprintf("%.1f", room.UtilizationPct),
			"Anomalies":       strconv.Itoa(len(room.Anomalies)),
		})
		if len(room.Anomalies) > 0 {
			styles = append(styles, alertStyle)
		} else {
			styles = append(styles, export.RowStyle{})
		}
	}
	if report.UnroomedCount > 0 {
		rows = append(rows, map[string]string{
			"Room":     "(no room)",
			"Sections": strconv.Itoa(report.UnroomedCount),
		})
		styles = append(styles, export.RowStyle{Italic: true})
	}
	return export.Dataset{Headers: headers, Rows: rows, Styles: styles}
}

// conflictsDataset lists each double-booked pair once, in course order.
func conflictsDataset(sections []models.ClassSection) export.Dataset {
	headers := []string{"Section", "Other Section", "Room", "Days", "Time", "Message"}
	byID := make(map[string]models.ClassSection, len(sections))
	for _, sec := range sections {
		byID[sec.ID] = sec
	}
	sweep := scheduling.Sweep(sections)
	seen := make(map[string]bool)
	rows := make([]map[string]string, 0)
	for _, sec := range scheduling.Sort(sections, scheduling.SortByCourse) {
		for _, c := range sweep[sec.ID] {
			pair := pairKey(c.SectionID, c.OtherID)
			if seen[pair] {
				continue
			}
			seen[pair] = true
			other := byID[c.OtherID]
			rows = append(rows, map[string]string{
				"Section":       sec.Label(),
				"Other Section": other.Label(),
				"Room":          c.Room,
				"Days":          sec.MeetingDays,
				"Time":          sec.BeginTime + "-" + sec.EndTime,
				"Message":       c.Message,
			})
		}
	}
	styles := make([]export.RowStyle, len(rows))
	for i := range styles {
		styles[i] = alertStyle
	}
	return export.Dataset{Headers: headers, Rows: rows, Styles: styles}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func facultyLoadDataset(departmentID, term string, requests []models.FacultyRequest, sections []models.ClassSection) export.Dataset {
	headers := []string{"Faculty", "Term", "Requested", "Assigned", "Satisfied"}
	filtered := make([]models.FacultyRequest, 0, len(requests))
	for _, req := range requests {
		if term == "" || req.Term == "" || req.Term == term {
			filtered = append(filtered, req)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return strings.ToLower(filtered[i].FacultyName) < strings.ToLower(filtered[j].FacultyName)
	})
	rows := make([]map[string]string, 0, len(filtered))
	styles := make([]export.RowStyle, 0, len(filtered))
	for _, req := range filtered {
		assigned := scheduling.AssignedCount(sections, departmentID, req.FacultyName)
		satisfied := assigned >= req.LoadDesired
		rows = append(rows, map[string]string{
			"Faculty":   req.FacultyName,
			"Term":      req.Term,
			"Requested": strconv.Itoa(req.LoadDesired),
			"Assigned":  strconv.Itoa(assigned),
			"Satisfied": yesNo(satisfied),
		})
		if satisfied {
			styles = append(styles, export.RowStyle{})
		} else {
			styles = append(styles, alertStyle)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows, Styles: styles}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
