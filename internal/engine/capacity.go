package engine

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"office-occupancy-facts/internal/model"
)

// ResolveCapacity attaches to every fact row the capacity of the most recent
// snapshot for its location with an effective date on or before the row's
// date. Rows before a location's first snapshot keep a nil capacity; future
// snapshots never fill backward. When two snapshots share a location and
// effective date the one recorded last in the input wins.
//
// Each location's sweep is independent; they run concurrently but write to
// disjoint row indices, so the result matches a sequential execution exactly.
func ResolveCapacity(ctx context.Context, rows []model.FactRow, snapshots []model.CapacitySnapshot) error {
	snapsByLoc := make(map[string][]model.CapacitySnapshot)
	for _, snap := range snapshots {
		snap.EffectiveDate = model.DateOnly(snap.EffectiveDate)
		snapsByLoc[snap.Location] = append(snapsByLoc[snap.Location], snap)
	}
	for _, snaps := range snapsByLoc {
		// Stable keeps input order for equal effective dates.
		sort.SliceStable(snaps, func(i, j int) bool {
			return snaps[i].EffectiveDate.Before(snaps[j].EffectiveDate)
		})
	}

	rowsByLoc := make(map[string][]int)
	for i := range rows {
		rowsByLoc[rows[i].LocationName] = append(rowsByLoc[rows[i].LocationName], i)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for loc, indices := range rowsByLoc {
		indices := indices
		snaps := snapsByLoc[loc]
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			resolveLocation(rows, indices, snaps)
			return nil
		})
	}
	return group.Wait()
}

// resolveLocation is the per-location merge sweep: row indices sorted by date,
// snapshots sorted by effective date, one forward pass carrying the latest
// known capacity.
func resolveLocation(rows []model.FactRow, indices []int, snaps []model.CapacitySnapshot) {
	sort.SliceStable(indices, func(i, j int) bool {
		return rows[indices[i]].DateKey < rows[indices[j]].DateKey
	})

	var current *int
	next := 0
	for _, idx := range indices {
		for next < len(snaps) && !snaps[next].EffectiveDate.After(rows[idx].Date) {
			current = snaps[next].Capacity
			next++
		}
		rows[idx].Capacity = current
	}
}
