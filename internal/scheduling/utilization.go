package scheduling

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
)

// DefaultWeekMinutes is five teaching days of fourteen hours.
const DefaultWeekMinutes = 5 * 14 * 60

// Anomaly flags two sections double-booked inside one room.
type Anomaly struct {
	Room     string `json:"room"`
	FirstID  string `json:"first_id"`
	SecondID string `json:"second_id"`
	Message  string `json:"message"`
}

// RoomUsage aggregates the bookings of one room.
type RoomUsage struct {
	Room           string                `json:"room"`
	Sections       []models.ClassSection `json:"sections"`
	SectionCount   int                   `json:"section_count"`
	WeeklyMinutes  int                   `json:"weekly_minutes"`
	UtilizationPct float64               `json:"utilization_pct"`
	Anomalies      []Anomaly             `json:"anomalies,omitempty"`
}

// UtilizationReport summarises room occupancy for a department schedule.
type UtilizationReport struct {
	Rooms         []RoomUsage `json:"rooms"`
	UnroomedCount int         `json:"unroomed_count"`
	AnomalyCount  int         `json:"anomaly_count"`
	WeekMinutes   int         `json:"week_minutes"`
}

// BuildUtilization groups active sections by room, orders each group by day
// and start time and flags overlapping pairs.
func BuildUtilization(sections []models.ClassSection, weekMinutes int) UtilizationReport {
	if weekMinutes <= 0 {
		weekMinutes = DefaultWeekMinutes
	}
	report := UtilizationReport{WeekMinutes: weekMinutes, Rooms: []RoomUsage{}}

	groups := make(map[string]*RoomUsage)
	var keys []string
	for _, s := range sections {
		if !s.IsActive() {
			continue
		}
		if IsVirtualRoom(s.Room) {
			report.UnroomedCount++
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(s.Room))
		group, ok := groups[key]
		if !ok {
			group = &RoomUsage{Room: strings.TrimSpace(s.Room)}
			groups[key] = group
			keys = append(keys, key)
		}
		group.Sections = append(group.Sections, s)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group.Sections, func(i, j int) bool {
			return compareDayTime(group.Sections[i], group.Sections[j]) < 0
		})
		group.SectionCount = len(group.Sections)
		for i, s := range group.Sections {
			group.WeeklyMinutes += weeklyMinutes(s)
			for _, other := range group.Sections[i+1:] {
				if !hasMeetingPattern(s) || !hasMeetingPattern(other) || !clash(s, other) {
					continue
				}
				group.Anomalies = append(group.Anomalies, Anomaly{
					Room:     group.Room,
					FirstID:  s.ID,
					SecondID: other.ID,
					Message:  fmt.Sprintf("%s overlaps %s in %s", s.Label(), other.Label(), group.Room),
				})
			}
		}
		group.UtilizationPct = math.Round(float64(group.WeeklyMinutes)/float64(weekMinutes)*10000) / 100
		report.AnomalyCount += len(group.Anomalies)
		report.Rooms = append(report.Rooms, *group)
	}
	return report
}

func weeklyMinutes(s models.ClassSection) int {
	begin := ParseTimeMinutes(s.BeginTime)
	end := ParseTimeMinutes(s.EndTime)
	if !validInterval(begin, end) {
		return 0
	}
	return CountDays(s.MeetingDays) * (end - begin)
}
