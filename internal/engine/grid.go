package engine

import (
	"fmt"

	"office-occupancy-facts/internal/model"
)

type gridKey struct {
	DateKey  int
	Location string
	LOB      string
}

// ExpandGrid builds the exhaustive date x location (x line-of-business) key
// space as zero-attendance fact rows. When lobs is nil the aggregated variant
// is produced, with one row per date/location. Dimension rows must be unique;
// a duplicate key means the dimensions and the grid would disagree on
// cardinality, which is fatal.
func ExpandGrid(dates []model.DateRow, locations []model.LocationRow, lobs []model.LineOfBusinessRow) ([]model.FactRow, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: date dimension", ErrEmptyDimension)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: location dimension", ErrEmptyDimension)
	}
	if lobs != nil && len(lobs) == 0 {
		return nil, fmt.Errorf("%w: line of business dimension", ErrEmptyDimension)
	}

	size := len(dates) * len(locations)
	if lobs != nil {
		size *= len(lobs)
	}
	rows := make([]model.FactRow, 0, size)
	seen := make(map[gridKey]struct{}, size)

	appendRow := func(date model.DateRow, loc model.LocationRow, lobKey int, lobName string) error {
		key := gridKey{DateKey: date.DateKey, Location: loc.Name, LOB: lobName}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate grid combination %d/%s/%s", ErrInconsistentKey, date.DateKey, loc.Name, lobName)
		}
		seen[key] = struct{}{}
		rows = append(rows, model.FactRow{
			DateKey:      date.DateKey,
			LocationKey:  loc.LocationKey,
			LOBKey:       lobKey,
			Date:         date.Date,
			LocationName: loc.Name,
			LOBName:      lobName,
			Year:         date.Year,
			Month:        date.Month,
			IsWeekend:    date.IsWeekend,
		})
		return nil
	}

	for _, date := range dates {
		for _, loc := range locations {
			if lobs == nil {
				if err := appendRow(date, loc, 0, ""); err != nil {
					return nil, err
				}
				continue
			}
			for _, lob := range lobs {
				if err := appendRow(date, loc, lob.LOBKey, lob.Name); err != nil {
					return nil, err
				}
			}
		}
	}
	return rows, nil
}

// FillAttendance left-joins aggregated counts onto the grid, substituting zero
// for combinations with no observed events. Counts that match no grid row are
// out of horizon and ignored; the grid rows themselves are never dropped.
func FillAttendance(rows []model.FactRow, counts map[gridKey]int) {
	for i := range rows {
		key := gridKey{DateKey: rows[i].DateKey, Location: rows[i].LocationName, LOB: rows[i].LOBName}
		rows[i].AttendanceCount = counts[key]
	}
}
