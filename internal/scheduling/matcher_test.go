package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

func request(t *testing.T, id, name string, load int, prefs ...models.PreferenceRow) models.FacultyRequest {
	t.Helper()
	raw, err := models.EncodePreferences(prefs)
	require.NoError(t, err)
	return models.FacultyRequest{ID: id, DepartmentID: "dept-1", FacultyName: name, LoadDesired: load, Preferences: raw}
}

func placeholder(id, title, days, begin string) models.ClassSection {
	return models.ClassSection{
		ID:           id,
		DepartmentID: "dept-1",
		Subject:      "MCSI",
		CourseNumber: "100",
		Section:      id,
		Title:        title,
		MeetingDays:  days,
		BeginTime:    begin,
		EndTime:      "",
		Faculty:      models.FacultyStaff,
		Status:       models.SectionStatusImported,
	}
}

func seniority(n int) *int { return &n }

func TestMatchSkipsSatisfiedRequest(t *testing.T) {
	sections := []models.ClassSection{
		{ID: "x1", DepartmentID: "dept-1", Title: "Programming 1", Faculty: "Smith, Jane", Status: models.SectionStatusKeep},
		{ID: "x2", DepartmentID: "dept-1", Title: "Programming 2", Faculty: "smith, jane ", Status: models.SectionStatusChange},
		placeholder("s1", "Programming 1", "", ""),
	}
	req := request(t, "r1", "Smith, Jane", 2, models.PreferenceRow{Rank: 1, ClassTitle: "Programming"})

	result := Match([]models.FacultyRequest{req}, nil, sections)
	assert.Empty(t, result.Assignments)
	assert.Equal(t, []string{"r1"}, result.Satisfied)
}

func TestMatchImportedAndDeletedDoNotCountTowardLoad(t *testing.T) {
	sections := []models.ClassSection{
		{ID: "x1", DepartmentID: "dept-1", Title: "Old", Faculty: "Smith, Jane", Status: models.SectionStatusImported},
		{ID: "x2", DepartmentID: "dept-1", Title: "Old", Faculty: "Smith, Jane", Status: models.SectionStatusDelete},
		placeholder("s1", "Programming", "", ""),
	}
	req := request(t, "r1", "Smith, Jane", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Intro to Programming"})

	result := Match([]models.FacultyRequest{req}, nil, sections)
	require.Len(t, result.Assignments, 1)
	a := result.Assignments[0]
	assert.Equal(t, "s1", a.SectionID)
	assert.Equal(t, "Smith, Jane", a.Faculty)
	assert.Equal(t, models.SectionStatusImported, a.PreviousStatus)
	assert.Empty(t, result.Short)
}

func TestTitlesMatch(t *testing.T) {
	assert.True(t, TitlesMatch("Programming", "Intro to Programming"))
	assert.True(t, TitlesMatch("Intro to Programming", "programming"))
	assert.False(t, TitlesMatch("Calculus", "Programming"))
	assert.False(t, TitlesMatch("", "Programming"))
	assert.False(t, TitlesMatch("Programming", "  "))
}

func TestMatchSeniorityOrder(t *testing.T) {
	sections := []models.ClassSection{placeholder("s1", "Databases", "", "")}
	junior := request(t, "r-junior", "Lee", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"})
	senior := request(t, "r-senior", "Kim", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"})
	unranked := request(t, "r-unranked", "Ng", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"})
	instructors := []models.Instructor{
		{DepartmentID: "dept-1", Name: "lee", Seniority: seniority(5)},
		{DepartmentID: "dept-1", Name: "Kim", Seniority: seniority(1)},
		{DepartmentID: "dept-1", Name: "Ng"},
	}

	result := Match([]models.FacultyRequest{unranked, junior, senior}, instructors, sections)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "Kim", result.Assignments[0].Faculty)
	assert.ElementsMatch(t, []string{"r-junior", "r-unranked"}, result.Short)
}

func TestMatchRespectsLoadAndRankOrder(t *testing.T) {
	sections := []models.ClassSection{
		placeholder("s1", "Calculus I", "", ""),
		placeholder("s2", "Calculus II", "", ""),
		placeholder("s3", "Statistics", "", ""),
	}
	req := request(t, "r1", "Kim", 2,
		models.PreferenceRow{Rank: 3, ClassTitle: "Calculus"},
		models.PreferenceRow{Rank: 1, ClassTitle: "Statistics"},
		models.PreferenceRow{Rank: 2, ClassTitle: "Calculus"},
	)

	result := Match([]models.FacultyRequest{req}, nil, sections)
	require.Len(t, result.Assignments, 2)
	assert.Equal(t, "s3", result.Assignments[0].SectionID)
	assert.Equal(t, 1, result.Assignments[0].Rank)
	assert.Equal(t, "s1", result.Assignments[1].SectionID)
	assert.Equal(t, 2, result.Assignments[1].Rank)
}

func TestMatchOnePreferenceBindsOneSection(t *testing.T) {
	sections := []models.ClassSection{
		placeholder("s1", "Calculus I", "", ""),
		placeholder("s2", "Calculus II", "", ""),
	}
	req := request(t, "r1", "Kim", 3, models.PreferenceRow{Rank: 1, ClassTitle: "Calculus"})

	result := Match([]models.FacultyRequest{req}, nil, sections)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, []string{"r1"}, result.Short)
}

func TestMatchDayCompatibility(t *testing.T) {
	sections := []models.ClassSection{
		placeholder("s-mf", "Physics", "MF", "9:00 AM"),
		placeholder("s-mw", "Physics", "MW", "9:00 AM"),
		placeholder("s-tba", "Physics", "TR", ""),
	}
	mwf := request(t, "r1", "Kim", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Physics", Days: []string{"Monday", "Wednesday", "Friday"}})
	result := Match([]models.FacultyRequest{mwf}, nil, sections)
	require.Len(t, result.Assignments, 1)
	// "MF" is not a substring of "MWF"; "MW" is
	assert.Equal(t, "s-mw", result.Assignments[0].SectionID)

	thursday := request(t, "r2", "Lee", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Physics", Days: []string{"Thu"}})
	result = Match([]models.FacultyRequest{thursday}, nil, sections)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "s-tba", result.Assignments[0].SectionID, "sections without a begin time skip the day test")

	anyDay := request(t, "r3", "Ng", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Physics"})
	result = Match([]models.FacultyRequest{anyDay}, nil, sections)
	require.Len(t, result.Assignments, 1)
}

func TestMatchClaimsAreExclusiveAndDepartmentScoped(t *testing.T) {
	other := placeholder("s-other", "Databases", "", "")
	other.DepartmentID = "dept-2"
	deleted := placeholder("s-deleted", "Databases", "", "")
	deleted.Status = models.SectionStatusDelete
	sections := []models.ClassSection{other, deleted, placeholder("s1", "Databases", "", "")}

	first := request(t, "r1", "Kim", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"})
	second := request(t, "r2", "Lee", 1, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"})

	result := Match([]models.FacultyRequest{first, second}, nil, sections)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "s1", result.Assignments[0].SectionID)
	assert.Equal(t, "r1", result.Assignments[0].RequestID)
}

func TestMatchIsIdempotentOnAppliedState(t *testing.T) {
	sections := []models.ClassSection{
		placeholder("s1", "Databases", "", ""),
		placeholder("s2", "Networks", "", ""),
	}
	reqs := []models.FacultyRequest{
		request(t, "r1", "Kim", 2, models.PreferenceRow{Rank: 1, ClassTitle: "Databases"}),
		request(t, "r2", "Lee", 2, models.PreferenceRow{Rank: 1, ClassTitle: "Networks"}),
	}

	first := Match(reqs, nil, sections)
	require.Len(t, first.Assignments, 2)

	applied := make([]models.ClassSection, len(sections))
	copy(applied, sections)
	for _, a := range first.Assignments {
		for i := range applied {
			if applied[i].ID == a.SectionID {
				applied[i].Faculty = a.Faculty
				applied[i].Status = models.SectionStatusChange
			}
		}
	}

	second := Match(reqs, nil, applied)
	assert.Empty(t, second.Assignments)
	assert.Equal(t, models.FacultyStaff, sections[0].Faculty, "input must not be mutated")
}

func TestMatchMalformedPreferencesDegrade(t *testing.T) {
	req := models.FacultyRequest{ID: "r1", DepartmentID: "dept-1", FacultyName: "Kim", LoadDesired: 1, Preferences: []byte("not json")}
	result := Match([]models.FacultyRequest{req}, nil, []models.ClassSection{placeholder("s1", "Databases", "", "")})
	assert.Empty(t, result.Assignments)
	assert.Equal(t, []string{"r1"}, result.Short)
}
