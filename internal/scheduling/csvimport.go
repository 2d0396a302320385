package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// Positional columns of a schedule export row.
const (
	colTerm = iota
	colSubject
	colCourseNumber
	colSection
	colTitle
	colNotes
	colEndDate
	colMethod
	colMeetingDays
	colBeginTime
	colEndTime
	colRoom
	colFaculty
)

const minImportColumns = 5

// ImportResult is the outcome of parsing one schedule export.
type ImportResult struct {
	Sections []models.ClassSection `json:"sections"`
	// Dropped counts non-blank rows with fewer than five columns.
	Dropped int `json:"dropped"`
	// HeaderLine is the zero-based header line index, -1 when none was found.
	HeaderLine int `json:"header_line"`
}

// ParseScheduleCSV turns a loosely structured schedule export into sections
// stamped with departmentID and status Imported. Malformed rows are skipped,
// never reported as errors.
func ParseScheduleCSV(text, departmentID string) ImportResult {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	result := ImportResult{HeaderLine: findHeader(lines)}

	start := 0
	if result.HeaderLine >= 0 {
		start = result.HeaderLine + 1
	}

	now := time.Now().UTC()
	for _, raw := range lines[start:] {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.Trim(line, ", \t") == "" {
			continue
		}
		fields := splitFields(line)
		if len(fields) < minImportColumns {
			result.Dropped++
			continue
		}
		section := rowToSection(fields)
		section.ID = uuid.NewString()
		section.DepartmentID = departmentID
		section.Status = models.SectionStatusImported
		section.CreatedAt = now
		section.UpdatedAt = now
		result.Sections = append(result.Sections, section)
	}
	return result
}

func findHeader(lines []string) int {
	for i, line := range lines {
		lowered := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(lowered, "term") || strings.Contains(lowered, "term,subject") {
			return i
		}
	}
	return -1
}

func rowToSection(fields []string) models.ClassSection {
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	// Unquoted "Last, First" names spill over into extra columns.
	faculty := get(colFaculty)
	if len(fields) > colFaculty+1 {
		faculty = strings.TrimSpace(strings.Join(fields[colFaculty:], ","))
	}
	if faculty == "" {
		faculty = models.FacultyStaff
	}

	return models.ClassSection{
		Term:         get(colTerm),
		Subject:      get(colSubject),
		CourseNumber: get(colCourseNumber),
		Section:      get(colSection),
		Title:        get(colTitle),
		Notes:        get(colNotes),
		EndDate:      get(colEndDate),
		Method:       get(colMethod),
		MeetingDays:  get(colMeetingDays),
		BeginTime:    get(colBeginTime),
		EndTime:      get(colEndTime),
		Room:         get(colRoom),
		Faculty:      faculty,
	}
}

// SplitCSVLine splits one line on commas outside double quotes and trims
// each field. A doubled quote inside a quoted field is a literal quote.
func SplitCSVLine(line string) []string {
	fields := splitFields(line)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// splitFields keeps surrounding whitespace so spilled-over columns can be
// re-joined exactly.
func splitFields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, current.String())
}
