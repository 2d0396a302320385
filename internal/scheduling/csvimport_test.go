package scheduling

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

func TestParseScheduleCSVRoundTripRow(t *testing.T) {
	text := "2026MFA,MCSI,200,01,Programming 1,,,LEC,MW,9:30 AM,10:45 AM,CAT 201,Smith, Jane"
	result := ParseScheduleCSV(text, "dept-1")

	require.Len(t, result.Sections, 1)
	s := result.Sections[0]
	assert.Equal(t, "2026MFA", s.Term)
	assert.Equal(t, "MCSI", s.Subject)
	assert.Equal(t, "200", s.CourseNumber)
	assert.Equal(t, "01", s.Section)
	assert.Equal(t, "Programming 1", s.Title)
	assert.Equal(t, "LEC", s.Method)
	assert.Equal(t, "MW", s.MeetingDays)
	assert.Equal(t, "9:30 AM", s.BeginTime)
	assert.Equal(t, "10:45 AM", s.EndTime)
	assert.Equal(t, "CAT 201", s.Room)
	assert.Equal(t, "Smith, Jane", s.Faculty)
	assert.Equal(t, models.SectionStatusImported, s.Status)
	assert.Equal(t, "dept-1", s.DepartmentID)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, -1, result.HeaderLine)
}

func TestParseScheduleCSVHeaderDrift(t *testing.T) {
	text := strings.Join([]string{
		"Department schedule export",
		"",
		"Term,Subject,Course,Section,Title,Notes,End Date,Method,Days,Begin,End,Room,Faculty",
		"2026MFA,MCSI,200,01,\"Programming 1, Lab\",\"said \"\"hi\"\"\",5/1/2026,LAB,TR,1:00 PM,2:15 PM,CAT 105,\"Adams, Lee\"",
		",,,,,",
		"   ",
		"2026MFA,ENGL,101,02,Composition",
		"garbage,row",
		"2026MFA,ENGL,102,01,Composition II,,,,,,,,",
	}, "\r\n")

	result := ParseScheduleCSV(text, "dept-1")
	assert.Equal(t, 2, result.HeaderLine)
	assert.Equal(t, 1, result.Dropped)
	require.Len(t, result.Sections, 3)

	first := result.Sections[0]
	assert.Equal(t, "Programming 1, Lab", first.Title)
	assert.Equal(t, `said "hi"`, first.Notes)
	assert.Equal(t, "5/1/2026", first.EndDate)
	assert.Equal(t, "Adams, Lee", first.Faculty)

	short := result.Sections[1]
	assert.Equal(t, "Composition", short.Title)
	assert.Equal(t, "", short.Room)
	assert.Equal(t, models.FacultyStaff, short.Faculty)

	assert.Equal(t, models.FacultyStaff, result.Sections[2].Faculty)
	assert.NotEqual(t, result.Sections[1].ID, result.Sections[2].ID)
}

func TestParseScheduleCSVHeaderByTermSubject(t *testing.T) {
	text := "code,term,subject,x\nA,2026MFA,MCSI,200,01,Title"
	result := ParseScheduleCSV(text, "dept-1")
	assert.Equal(t, 0, result.HeaderLine)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, "A", result.Sections[0].Term)
}

func TestParseScheduleCSVNeverFails(t *testing.T) {
	for _, input := range []string{"", "\n\n", "\"unterminated,quote", ",,,,", "a,b"} {
		result := ParseScheduleCSV(input, "dept-1")
		assert.Empty(t, result.Sections, "input %q", input)
	}
}

func TestSplitCSVLine(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, SplitCSVLine(`a,"b, c", d `))
	assert.Equal(t, []string{"", ""}, SplitCSVLine(","))
	assert.Equal(t, []string{`x"y`}, SplitCSVLine(`"x""y"`))
}
