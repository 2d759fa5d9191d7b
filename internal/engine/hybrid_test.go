package engine

import (
	"testing"
	"time"

	"office-occupancy-facts/internal/model"
)

func TestEligibleDatesMonthBoundary(t *testing.T) {
	// Week of Mon 2025-06-30 .. Sun 2025-07-06: June contributes one weekday
	// (the 30th), July contributes four. June's half fails the >=3 rule.
	dates := dateRows(day(2025, time.June, 23), day(2025, time.July, 13))
	eligible := EligibleDates(dates)

	if eligible[20250630] {
		t.Fatal("2025-06-30 should be ineligible: June contributes 1 weekday to its ISO week")
	}
	for _, key := range []int{20250701, 20250702, 20250703, 20250704} {
		if !eligible[key] {
			t.Fatalf("%d should be eligible: July contributes 4 weekdays to that week", key)
		}
	}
	// Fully in-month weeks qualify end to end.
	for _, key := range []int{20250623, 20250624, 20250625, 20250626, 20250627, 20250707} {
		if !eligible[key] {
			t.Fatalf("%d should be eligible", key)
		}
	}
	// Weekends never qualify.
	for _, key := range []int{20250628, 20250629, 20250705, 20250706} {
		if eligible[key] {
			t.Fatalf("%d is a weekend, must be ineligible", key)
		}
	}
}

func TestEligibleDatesTruncatedWeek(t *testing.T) {
	// Horizon ends Wed 2025-07-02: June contributes 1 weekday, July only 2.
	// Neither month reaches 3, so no date of that week is eligible.
	dates := dateRows(day(2025, time.June, 30), day(2025, time.July, 2))
	eligible := EligibleDates(dates)
	for _, key := range []int{20250630, 20250701, 20250702} {
		if eligible[key] {
			t.Fatalf("%d should be ineligible in a 1+2 split week", key)
		}
	}
}

func classifierFixture(t *testing.T, attendance map[int]int) []model.FactRow {
	t.Helper()
	dates := dateRows(day(2025, time.March, 3), day(2025, time.March, 9))
	locations := []model.LocationRow{{LocationKey: 1, Name: "Austin"}}
	rows, err := ExpandGrid(dates, locations, nil)
	if err != nil {
		t.Fatalf("expand grid: %v", err)
	}
	for i := range rows {
		rows[i].AttendanceCount = attendance[rows[i].DateKey]
	}
	ClassifyHybridDays(rows, dates)
	return rows
}

func flaggedKeys(rows []model.FactRow) map[int]bool {
	flagged := map[int]bool{}
	for _, row := range rows {
		if row.IsHybridDay {
			flagged[row.DateKey] = true
		}
	}
	return flagged
}

func TestClassifyHybridDaysTopThreeWithZeroCandidates(t *testing.T) {
	// Mon..Fri attendance 10, 0, 0, 5, 3: top three are Monday, Thursday,
	// Friday; the zero days lose on attendance, not on eligibility.
	rows := classifierFixture(t, map[int]int{
		20250303: 10,
		20250306: 5,
		20250307: 3,
	})
	flagged := flaggedKeys(rows)
	want := []int{20250303, 20250306, 20250307}
	if len(flagged) != len(want) {
		t.Fatalf("expected %d flagged dates, got %v", len(want), flagged)
	}
	for _, key := range want {
		if !flagged[key] {
			t.Fatalf("expected %d flagged, got %v", key, flagged)
		}
	}
}

func TestClassifyHybridDaysZeroAttendanceWeekFlagsThree(t *testing.T) {
	// No attendance at all: zero-attendance eligible weekdays still fill the
	// three slots, earliest dates first.
	rows := classifierFixture(t, map[int]int{})
	flagged := flaggedKeys(rows)
	for _, key := range []int{20250303, 20250304, 20250305} {
		if !flagged[key] {
			t.Fatalf("expected %d flagged in zero-attendance week, got %v", key, flagged)
		}
	}
	if len(flagged) != 3 {
		t.Fatalf("expected exactly 3 flagged dates, got %v", flagged)
	}
}

func TestClassifyHybridDaysTieBreakByDate(t *testing.T) {
	// Tue and Wed tie at 7; ties resolve to the earlier date.
	rows := classifierFixture(t, map[int]int{
		20250303: 10,
		20250304: 7,
		20250305: 7,
		20250306: 7,
	})
	flagged := flaggedKeys(rows)
	want := []int{20250303, 20250304, 20250305}
	for _, key := range want {
		if !flagged[key] {
			t.Fatalf("expected %d flagged, got %v", key, flagged)
		}
	}
	if flagged[20250306] {
		t.Fatal("Thursday should lose the tie to earlier dates")
	}
}

func TestClassifyHybridDaysNeverFlagsWeekend(t *testing.T) {
	rows := classifierFixture(t, map[int]int{
		20250308: 500, // Saturday
		20250309: 500, // Sunday
	})
	for _, row := range rows {
		if row.IsHybridDay && (row.DateKey == 20250308 || row.DateKey == 20250309) {
			t.Fatalf("weekend %d flagged as hybrid", row.DateKey)
		}
	}
}

func TestClassifyHybridDaysZeroEligibleWeek(t *testing.T) {
	// Horizon truncated to a 1+2 month split: neither month reaches 3
	// weekdays in the week, so heavy attendance flags nothing.
	dates := dateRows(day(2025, time.June, 30), day(2025, time.July, 2))
	locations := []model.LocationRow{{LocationKey: 1, Name: "Austin"}}
	rows, err := ExpandGrid(dates, locations, nil)
	if err != nil {
		t.Fatalf("expand grid: %v", err)
	}
	for i := range rows {
		rows[i].AttendanceCount = 50
	}
	ClassifyHybridDays(rows, dates)
	for _, row := range rows {
		if row.IsHybridDay {
			t.Fatalf("date %d flagged in a week with zero eligible dates", row.DateKey)
		}
	}
}

func TestClassifyHybridDaysPerWeekCardinality(t *testing.T) {
	// Two full weeks, plenty of attendance everywhere: exactly 3 per week.
	dates := dateRows(day(2025, time.March, 3), day(2025, time.March, 16))
	locations := []model.LocationRow{{LocationKey: 1, Name: "Austin"}}
	rows, err := ExpandGrid(dates, locations, nil)
	if err != nil {
		t.Fatalf("expand grid: %v", err)
	}
	for i := range rows {
		rows[i].AttendanceCount = rows[i].DateKey % 97
	}
	ClassifyHybridDays(rows, dates)

	perWeek := map[isoWeek]int{}
	for _, row := range rows {
		if row.IsHybridDay {
			perWeek[isoWeekOf(row.Date)]++
		}
	}
	if len(perWeek) != 2 {
		t.Fatalf("expected flags in 2 weeks, got %v", perWeek)
	}
	for week, count := range perWeek {
		if count != 3 {
			t.Fatalf("week %v: expected exactly 3 flags, got %d", week, count)
		}
	}
}

func TestClassifyHybridDaysCrossLOBTotalAndUniformFlag(t *testing.T) {
	dates := dateRows(day(2025, time.March, 3), day(2025, time.March, 9))
	locations := []model.LocationRow{{LocationKey: 1, Name: "Austin"}}
	lobs := []model.LineOfBusinessRow{
		{LOBKey: 1, Name: "Claims"},
		{LOBKey: 2, Name: "Underwriting"},
	}
	rows, err := ExpandGrid(dates, locations, lobs)
	if err != nil {
		t.Fatalf("expand grid: %v", err)
	}

	// Wednesday dominates only when LOBs are summed: 4+4 beats Monday's 6+0.
	perLOB := map[gridKey]int{
		{DateKey: 20250303, Location: "Austin", LOB: "Claims"}:       6,
		{DateKey: 20250305, Location: "Austin", LOB: "Claims"}:       4,
		{DateKey: 20250305, Location: "Austin", LOB: "Underwriting"}: 4,
		{DateKey: 20250306, Location: "Austin", LOB: "Claims"}:       1,
		{DateKey: 20250307, Location: "Austin", LOB: "Underwriting"}: 7,
	}
	FillAttendance(rows, perLOB)
	ClassifyHybridDays(rows, dates)

	flagged := map[int][]bool{}
	for _, row := range rows {
		flagged[row.DateKey] = append(flagged[row.DateKey], row.IsHybridDay)
	}
	for _, key := range []int{20250303, 20250305, 20250307} {
		for _, flag := range flagged[key] {
			if !flag {
				t.Fatalf("date %d must be flagged uniformly across LOB rows", key)
			}
		}
	}
	for _, flag := range flagged[20250306] {
		if flag {
			t.Fatal("Thursday (total 1) should not be in the top three")
		}
	}
}

func TestClassifyHybridDaysScopedPerLocation(t *testing.T) {
	// A location-unscoped "current best" would let Boston's huge Monday
	// shadow Austin's ranking. Each location ranks independently.
	dates := dateRows(day(2025, time.March, 3), day(2025, time.March, 9))
	locations := []model.LocationRow{
		{LocationKey: 1, Name: "Austin"},
		{LocationKey: 2, Name: "Boston"},
	}
	rows, err := ExpandGrid(dates, locations, nil)
	if err != nil {
		t.Fatalf("expand grid: %v", err)
	}
	counts := map[gridKey]int{
		{DateKey: 20250303, Location: "Boston"}: 900,
		{DateKey: 20250304, Location: "Boston"}: 800,
		{DateKey: 20250305, Location: "Boston"}: 700,
		{DateKey: 20250305, Location: "Austin"}: 2,
		{DateKey: 20250306, Location: "Austin"}: 9,
		{DateKey: 20250307, Location: "Austin"}: 4,
	}
	FillAttendance(rows, counts)
	ClassifyHybridDays(rows, dates)

	austin := map[int]bool{}
	for _, row := range rows {
		if row.LocationName == "Austin" && row.IsHybridDay {
			austin[row.DateKey] = true
		}
	}
	for _, key := range []int{20250305, 20250306, 20250307} {
		if !austin[key] {
			t.Fatalf("Austin should flag %d from its own ranking, got %v", key, austin)
		}
	}
	if len(austin) != 3 {
		t.Fatalf("Austin should flag exactly 3 days, got %v", austin)
	}
}
