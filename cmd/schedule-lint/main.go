package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
	"github.com/noah-isme/dept-scheduler-api/internal/scheduling"
)

const lintDepartment = "lint"

type options struct {
	path        string
	term        string
	sort        string
	jsonOutput  bool
	strict      bool
	weekMinutes int
}

type lintReport struct {
	Term        string                       `json:"term,omitempty"`
	Sort        string                       `json:"sort"`
	Imported    int                          `json:"imported"`
	Dropped     int                          `json:"dropped"`
	HeaderLine  int                          `json:"header_line"`
	Sections    []models.ClassSection        `json:"sections"`
	Conflicts   []scheduling.Conflict        `json:"conflicts"`
	Utilization scheduling.UtilizationReport `json:"utilization"`
}

var errConflictsFound = errors.New("room conflicts found")

func main() {
	var opts options
	flag.StringVar(&opts.path, "file", "", "Schedule CSV export (reads stdin when empty)")
	flag.StringVar(&opts.term, "term", "", "Only lint sections of this term")
	flag.StringVar(&opts.sort, "sort", "course", "Listing order: course|time|room|faculty|status")
	flag.BoolVar(&opts.jsonOutput, "json", false, "Print the report as JSON")
	flag.BoolVar(&opts.strict, "strict", false, "Exit non-zero when any room conflict exists")
	flag.IntVar(&opts.weekMinutes, "week-minutes", scheduling.DefaultWeekMinutes, "Teaching minutes per week used for utilisation")
	flag.Parse()

	input, closeInput, err := openInput(opts.path)
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer closeInput()

	if err := run(opts, input, os.Stdout); err != nil {
		if errors.Is(err, errConflictsFound) {
			os.Exit(1)
		}
		log.Fatalf("lint failed: %v", err)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func run(opts options, input io.Reader, out io.Writer) error {
	criterion, ok := scheduling.ParseSortCriterion(opts.sort)
	if !ok {
		return fmt.Errorf("unknown sort %q", opts.sort)
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}

	parsed := scheduling.ParseScheduleCSV(string(data), lintDepartment)
	report := buildReport(parsed, strings.TrimSpace(opts.term), criterion, opts.weekMinutes)

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printText(out, report)
	}

	if opts.strict && len(report.Conflicts) > 0 {
		return errConflictsFound
	}
	return nil
}

func buildReport(parsed scheduling.ImportResult, term string, criterion scheduling.SortCriterion, weekMinutes int) lintReport {
	sections := parsed.Sections
	if term != "" {
		filtered := make([]models.ClassSection, 0, len(sections))
		for _, s := range sections {
			if strings.EqualFold(s.Term, term) {
				filtered = append(filtered, s)
			}
		}
		sections = filtered
	}
	sorted := scheduling.Sort(sections, criterion)

	// Each pair is reported once, from the side that sorts first.
	position := make(map[string]int, len(sorted))
	for i, s := range sorted {
		position[s.ID] = i
	}
	sweep := scheduling.Sweep(sorted)
	conflicts := []scheduling.Conflict{}
	for _, s := range sorted {
		for _, c := range sweep[s.ID] {
			if position[c.SectionID] < position[c.OtherID] {
				conflicts = append(conflicts, c)
			}
		}
	}

	return lintReport{
		Term:        term,
		Sort:        string(criterion),
		Imported:    len(parsed.Sections),
		Dropped:     parsed.Dropped,
		HeaderLine:  parsed.HeaderLine,
		Sections:    sorted,
		Conflicts:   conflicts,
		Utilization: scheduling.BuildUtilization(sorted, weekMinutes),
	}
}

func printText(out io.Writer, report lintReport) {
	fmt.Fprintf(out, "%d sections imported, %d rows dropped", report.Imported, report.Dropped)
	if report.Term != "" {
		fmt.Fprintf(out, ", %d in %s", len(report.Sections), report.Term)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tDAYS\tTIME\tROOM\tFACULTY\tSTATUS")
	for _, s := range report.Sections {
		timeRange := ""
		if s.BeginTime != "" || s.EndTime != "" {
			timeRange = s.BeginTime + "-" + s.EndTime
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Label(), s.MeetingDays, timeRange, s.Room, s.Faculty, s.Status)
	}
	_ = tw.Flush()

	fmt.Fprintln(out)
	if len(report.Conflicts) == 0 {
		fmt.Fprintln(out, "no room conflicts")
	} else {
		labels := make(map[string]string, len(report.Sections))
		for _, s := range report.Sections {
			labels[s.ID] = s.Label()
		}
		fmt.Fprintf(out, "%d room conflicts:\n", len(report.Conflicts))
		for _, c := range report.Conflicts {
			fmt.Fprintf(out, "  %s: %s\n", labels[c.SectionID], c.Message)
		}
	}

	fmt.Fprintln(out)
	rooms := append([]scheduling.RoomUsage(nil), report.Utilization.Rooms...)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].UtilizationPct > rooms[j].UtilizationPct })
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tSECTIONS\tMINUTES\tUSE%")
	for _, room := range rooms {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", room.Room, room.SectionCount, room.WeeklyMinutes, room.UtilizationPct)
	}
	_ = tw.Flush()
	if report.Utilization.UnroomedCount > 0 {
		fmt.Fprintf(out, "%d sections without a physical room\n", report.Utilization.UnroomedCount)
	}
}
