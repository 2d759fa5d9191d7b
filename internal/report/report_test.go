package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"office-occupancy-facts/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleFacts() []model.FactRow {
	date := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	return []model.FactRow{
		{DateKey: 20250303, Date: date, LocationName: "Austin", LOBName: "Claims",
			AttendanceCount: 80, Capacity: intPtr(100), OccupancyRate: floatPtr(0.8), IsHybridDay: true},
		{DateKey: 20250303, Date: date, LocationName: "Austin", LOBName: "Underwriting",
			AttendanceCount: 0, Capacity: intPtr(100), OccupancyRate: floatPtr(0)},
		{DateKey: 20250304, Date: date.AddDate(0, 0, 1), LocationName: "Boston", LOBName: "Claims",
			AttendanceCount: 5, Capacity: nil},
		{DateKey: 20250308, Date: date.AddDate(0, 0, 5), LocationName: "Austin", LOBName: "Claims",
			IsWeekend: true, AttendanceCount: 30, Capacity: intPtr(20), OccupancyRate: floatPtr(1.5)},
	}
}

func TestBuildSummary(t *testing.T) {
	summary := Build(sampleFacts(), sampleFacts()[:2], 3, 1)

	if summary.FactRows != 4 || summary.AggregatedRows != 2 {
		t.Fatalf("unexpected row counts: %+v", summary)
	}
	if summary.FirstDateKey != 20250303 || summary.LastDateKey != 20250308 {
		t.Fatalf("unexpected date range: %d..%d", summary.FirstDateKey, summary.LastDateKey)
	}
	if summary.Locations != 2 || summary.LinesOfBusiness != 2 {
		t.Fatalf("unexpected dimension counts: %+v", summary)
	}
	if summary.UnknownCapacityRows != 1 || summary.AttendanceNoCapacity != 1 {
		t.Fatalf("unexpected capacity counts: %+v", summary)
	}
	if summary.OverCapacityRows != 1 {
		t.Fatalf("expected 1 over-capacity row, got %d", summary.OverCapacityRows)
	}
	if summary.ZeroAttendanceRows != 1 {
		t.Fatalf("expected 1 zero-attendance row, got %d", summary.ZeroAttendanceRows)
	}
	if summary.HybridRows != 1 {
		t.Fatalf("expected 1 hybrid row, got %d", summary.HybridRows)
	}
	if summary.InvalidAttendanceRows != 3 || summary.InvalidDeskcountRows != 1 {
		t.Fatalf("invalid row tallies not carried: %+v", summary)
	}
	if summary.WeekdayMeanRate == nil || *summary.WeekdayMeanRate != 0.4 {
		t.Fatalf("expected weekday mean 0.4, got %v", summary.WeekdayMeanRate)
	}
	if summary.WeekendMeanRate == nil || *summary.WeekendMeanRate != 1.5 {
		t.Fatalf("expected weekend mean 1.5, got %v", summary.WeekendMeanRate)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	summary := Build(sampleFacts(), nil, 0, 0)
	if err := WriteJSON(summary, path); err != nil {
		t.Fatalf("write json: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.FactRows != summary.FactRows || decoded.OverCapacityRows != summary.OverCapacityRows {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, summary)
	}
}

func TestWriteDetails(t *testing.T) {
	dir := t.TempDir()
	if err := WriteDetails(sampleFacts(), dir); err != nil {
		t.Fatalf("write details: %v", err)
	}

	mergeIssues, err := os.ReadFile(filepath.Join(dir, "deskcount_merge_issues.csv"))
	if err != nil {
		t.Fatalf("read merge issues: %v", err)
	}
	if want := "Boston"; !strings.Contains(string(mergeIssues), want) {
		t.Fatalf("expected Boston row in merge issues, got:\n%s", mergeIssues)
	}

	overCapacity, err := os.ReadFile(filepath.Join(dir, "over_capacity_days.csv"))
	if err != nil {
		t.Fatalf("read over capacity: %v", err)
	}
	if want := "2025-03-08"; !strings.Contains(string(overCapacity), want) {
		t.Fatalf("expected over-capacity date, got:\n%s", overCapacity)
	}
}
