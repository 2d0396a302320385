package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PreferenceRow is one ranked teaching wish inside a faculty request.
type PreferenceRow struct {
	Rank           int      `json:"rank" validate:"min=1"`
	ClassTitle     string   `json:"class_title"`
	Days           []string `json:"days"`
	TimeWindows    []string `json:"time_windows"`
	Campus         string   `json:"campus"`
	Modality       string   `json:"modality"`
	TextbookCost   string   `json:"textbook_cost"`
	Notes          string   `json:"notes"`
	SameAsLastYear bool     `json:"same_as_last_year"`
}

// FacultyRequest stores one faculty member's term preferences.
type FacultyRequest struct {
	ID              string         `db:"id" json:"id"`
	DepartmentID    string         `db:"department_id" json:"department_id"`
	FacultyName     string         `db:"faculty_name" json:"faculty_name"`
	Term            string         `db:"term" json:"term"`
	LoadDesired     int            `db:"load_desired" json:"load_desired"`
	Preferences     types.JSONText `db:"preferences" json:"preferences"`
	WillingLive     bool           `db:"willing_live" json:"willing_live"`
	WillingOnline   bool           `db:"willing_online" json:"willing_online"`
	WillingHybrid   bool           `db:"willing_hybrid" json:"willing_hybrid"`
	OnlineCertified bool           `db:"online_certified" json:"online_certified"`
	Email           string         `db:"email" json:"email"`
	Phone           string         `db:"phone" json:"phone"`
	Notes           string         `db:"notes" json:"notes"`
	SubmittedAt     time.Time      `db:"submitted_at" json:"submitted_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// PreferenceRows decodes the stored preferences ordered by rank.
func (r FacultyRequest) PreferenceRows() ([]PreferenceRow, error) {
	if len(r.Preferences) == 0 {
		return nil, nil
	}
	var rows []PreferenceRow
	if err := json.Unmarshal(r.Preferences, &rows); err != nil {
		return nil, fmt.Errorf("decode preferences for %s: %w", r.FacultyName, err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
	return rows, nil
}

// EncodePreferences serialises rows for the preferences column.
func EncodePreferences(rows []PreferenceRow) (types.JSONText, error) {
	if len(rows) == 0 {
		return types.JSONText("[]"), nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return types.JSONText(data), nil
}
