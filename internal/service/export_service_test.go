package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/pkg/export"
	"github.com/noah-isme/dept-scheduler-api/pkg/storage"
)

func exportFixtureSections() []models.ClassSection {
	a := sampleSection("s1", "CAT 201", "MW", "9:00 AM", "10:15 AM")
	a.CourseNumber = "300"
	a.Faculty = "Kim"
	a.Status = models.SectionStatusChange
	b := sampleSection("s2", "CAT 201", "M", "10:00 AM", "11:00 AM")
	b.CourseNumber = "100"
	c := sampleSection("s3", "ONLINE", "", "", "")
	c.Status = models.SectionStatusDelete
	return []models.ClassSection{a, b, c}
}

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	requests := newRequestStoreStub(
		models.FacultyRequest{ID: "r1", DepartmentID: "dept-1", FacultyName: "Kim", Term: "2026MFA", LoadDesired: 1},
		models.FacultyRequest{ID: "r2", DepartmentID: "dept-1", FacultyName: "Adams", LoadDesired: 2},
		models.FacultyRequest{ID: "r3", DepartmentID: "dept-1", FacultyName: "Old", Term: "2024MFA", LoadDesired: 1},
	)
	svc := NewExportService(newSectionStoreStub(exportFixtureSections()...), requests, store, signer, cfg, zap.NewNop())
	return svc, store
}

func reportJob(id string, typ models.ReportType, format models.ReportFormat) *models.ReportJob {
	return &models.ReportJob{
		ID:           id,
		DepartmentID: "dept-1",
		Type:         typ,
		Params:       models.ReportJobParams{Term: "2026MFA", Format: format},
		CreatedBy:    "u-dept-1",
	}
}

func TestExportServiceGenerateEveryFormat(t *testing.T) {
	svc, store := newExportServiceForTest(t)
	formats := []models.ReportFormat{models.ReportFormatCSV, models.ReportFormatPDF, models.ReportFormatHTML, models.ReportFormatXLSX}
	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			result, err := svc.Generate(context.Background(), reportJob("job-"+string(format), models.ReportTypeSchedule, format))
			require.NoError(t, err)
			require.Contains(t, result.URL, "/api/v1/export/")
			assert.Equal(t, format, result.Format)
			assert.True(t, strings.HasSuffix(result.RelativePath, "."+string(format)))
			assert.Contains(t, result.RelativePath, "schedule_dept-1_2026MFA_")

			file, err := store.Open(result.RelativePath)
			require.NoError(t, err)
			defer file.Close()
			info, err := file.Stat()
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestExportServiceRejectsUnknownFormatAndType(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.Generate(context.Background(), reportJob("job-x", models.ReportTypeSchedule, "docx"))
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), reportJob("job-y", "attendance", models.ReportFormatCSV))
	require.Error(t, err)
}

func TestExportServiceScheduleDatasetIsSortedAndStyled(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	dataset, title, err := svc.BuildDataset(context.Background(), reportJob("job-1", models.ReportTypeSchedule, models.ReportFormatCSV))
	require.NoError(t, err)
	assert.Equal(t, "Schedule 2026MFA", title)
	require.Len(t, dataset.Rows, 3)
	require.Len(t, dataset.Styles, 3)
	assert.Equal(t, "100", dataset.Rows[0]["Number"])
	assert.Equal(t, "300", dataset.Rows[2]["Number"])
	assert.Equal(t, export.RowStyle{Color: "#808080", Italic: true}, dataset.Styles[0])
	assert.Equal(t, export.RowStyle{Color: "#2E7D32", Bold: true}, dataset.Styles[2])
}

func TestExportServiceConflictsListEachPairOnce(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	dataset, _, err := svc.BuildDataset(context.Background(), reportJob("job-1", models.ReportTypeConflicts, models.ReportFormatCSV))
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "MCSI 100-s2", dataset.Rows[0]["Section"])
	assert.Equal(t, "MCSI 300-s1", dataset.Rows[0]["Other Section"])
	assert.Equal(t, "CAT 201", dataset.Rows[0]["Room"])
}

func TestExportServiceUtilizationAndFacultyLoad(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	util, _, err := svc.BuildDataset(context.Background(), reportJob("job-1", models.ReportTypeUtilization, models.ReportFormatCSV))
	require.NoError(t, err)
	require.NotEmpty(t, util.Rows)
	assert.Equal(t, "CAT 201", util.Rows[0]["Room"])
	assert.Equal(t, "2", util.Rows[0]["Sections"])
	assert.Equal(t, "1", util.Rows[0]["Anomalies"])

	load, _, err := svc.BuildDataset(context.Background(), reportJob("job-2", models.ReportTypeFacultyLoad, models.ReportFormatCSV))
	require.NoError(t, err)
	require.Len(t, load.Rows, 2)
	assert.Equal(t, "Adams", load.Rows[0]["Faculty"])
	assert.Equal(t, "no", load.Rows[0]["Satisfied"])
	assert.Equal(t, "Kim", load.Rows[1]["Faculty"])
	assert.Equal(t, "1", load.Rows[1]["Assigned"])
	assert.Equal(t, "yes", load.Rows[1]["Satisfied"])
}

func TestSectionRowStyleLegend(t *testing.T) {
	placeholder := models.ClassSection{Status: models.SectionStatusImported, Faculty: models.FacultyStaff}
	assigned := models.ClassSection{Status: models.SectionStatusImported, Faculty: "Kim"}

	assert.True(t, SectionRowStyle(placeholder).Italic)
	assert.True(t, SectionRowStyle(assigned).Bold)
	assert.Equal(t, "#1F4E9C", SectionRowStyle(models.ClassSection{Status: models.SectionStatusKeep}).Color)
	assert.Equal(t, "#D2B48C", SectionRowStyle(models.ClassSection{Status: models.SectionStatusDelete}).Color)
	assert.Equal(t, "#E75480", SectionRowStyle(models.ClassSection{Status: models.SectionStatusNew}).Color)
	assert.True(t, SectionRowStyle(models.ClassSection{}).IsZero())
}
