package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"office-occupancy-facts/internal/model"
)

// Inputs carries everything a fact build consumes. LOBs nil selects the
// aggregated variant. Start and Cutoff bound the grid horizon inclusively;
// Cutoff is decided by the caller (typically the latest deskcount snapshot
// date), never by the engine.
type Inputs struct {
	Dates     []model.DateRow
	Locations []model.LocationRow
	LOBs      []model.LineOfBusinessRow
	Events    []model.AttendanceEvent
	Snapshots []model.CapacitySnapshot
	Start     time.Time
	Cutoff    time.Time
}

// Build runs the full fact construction: grid expansion, zero-filled
// attendance, as-of capacity resolution, occupancy rates, hybrid-day flags,
// and deterministic output ordering. Each stage fully materializes before the
// next begins.
func Build(ctx context.Context, in Inputs) ([]model.FactRow, error) {
	if in.Cutoff.IsZero() {
		return nil, fmt.Errorf("%w: cutoff date", ErrMissingInput)
	}
	dates := restrictDates(in.Dates, in.Start, in.Cutoff)
	if len(in.Dates) > 0 && len(dates) == 0 {
		return nil, fmt.Errorf("%w: date dimension after horizon restriction [%s, %s]",
			ErrEmptyDimension, in.Start.Format("2006-01-02"), in.Cutoff.Format("2006-01-02"))
	}

	rows, err := ExpandGrid(dates, in.Locations, in.LOBs)
	if err != nil {
		return nil, err
	}

	counts := CountAttendance(eventsInHorizon(in.Events, in.Start, in.Cutoff), in.LOBs != nil)
	FillAttendance(rows, counts)

	if err := ResolveCapacity(ctx, rows, in.Snapshots); err != nil {
		return nil, err
	}
	ComputeRates(rows)
	ClassifyHybridDays(rows, dates)

	SortFacts(rows)
	return rows, nil
}

// SortFacts orders rows by (date key, location name, LOB name), the stable
// output order both fact artifacts share.
func SortFacts(rows []model.FactRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DateKey != rows[j].DateKey {
			return rows[i].DateKey < rows[j].DateKey
		}
		if rows[i].LocationName != rows[j].LocationName {
			return rows[i].LocationName < rows[j].LocationName
		}
		return rows[i].LOBName < rows[j].LOBName
	})
}

func restrictDates(dates []model.DateRow, start time.Time, cutoff time.Time) []model.DateRow {
	start = model.DateOnly(start)
	cutoff = model.DateOnly(cutoff)
	kept := make([]model.DateRow, 0, len(dates))
	for _, d := range dates {
		if !start.IsZero() && d.Date.Before(start) {
			continue
		}
		if d.Date.After(cutoff) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func eventsInHorizon(events []model.AttendanceEvent, start time.Time, cutoff time.Time) []model.AttendanceEvent {
	start = model.DateOnly(start)
	cutoff = model.DateOnly(cutoff)
	kept := make([]model.AttendanceEvent, 0, len(events))
	for _, ev := range events {
		day := model.DateOnly(ev.Date)
		if !start.IsZero() && day.Before(start) {
			continue
		}
		if day.After(cutoff) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}
