package engine

import (
	"sort"
	"time"

	"office-occupancy-facts/internal/model"
)

// isoWeek identifies an ISO 8601 calendar week. The week year can differ from
// the calendar year near year boundaries.
type isoWeek struct {
	Year int
	Week int
}

func isoWeekOf(date time.Time) isoWeek {
	year, week := date.ISOWeek()
	return isoWeek{Year: year, Week: week}
}

func isWeekday(date time.Time) bool {
	wd := date.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// EligibleDates computes the date-level hybrid eligibility over the distinct
// date set: a date qualifies only if it is a weekday and its calendar month
// contributes at least 3 distinct weekday dates to the date's ISO week. Weeks
// straddling a month boundary can therefore lose one or both of their month
// halves. The predicate depends on dates alone, never on attendance or
// location.
func EligibleDates(dates []model.DateRow) map[int]bool {
	type monthWeek struct {
		Week  isoWeek
		Month int
	}

	seen := make(map[int]struct{}, len(dates))
	weekdayCounts := make(map[monthWeek]int)
	for _, d := range dates {
		if _, dup := seen[d.DateKey]; dup {
			continue
		}
		seen[d.DateKey] = struct{}{}
		if !isWeekday(d.Date) {
			continue
		}
		weekdayCounts[monthWeek{Week: isoWeekOf(d.Date), Month: int(d.Date.Month())}]++
	}

	eligible := make(map[int]bool, len(seen))
	for _, d := range dates {
		if !isWeekday(d.Date) {
			continue
		}
		mw := monthWeek{Week: isoWeekOf(d.Date), Month: int(d.Date.Month())}
		if weekdayCounts[mw] >= 3 {
			eligible[d.DateKey] = true
		}
	}
	return eligible
}

// ClassifyHybridDays flags, per location and ISO week, the up-to-three
// eligible dates with the highest daily attendance totals. Totals are summed
// across all lines of business, so every LOB row sharing a selected
// date/location is flagged together. Ties are broken by ascending date.
// Zero-attendance eligible weekdays remain valid candidates; a week with k<3
// eligible dates flags all k of them.
func ClassifyHybridDays(rows []model.FactRow, dates []model.DateRow) {
	eligible := EligibleDates(dates)

	type locDate struct {
		Location string
		DateKey  int
	}
	type locWeek struct {
		Location string
		Week     isoWeek
	}
	type candidate struct {
		DateKey int
		Total   int
	}

	totals := make(map[locDate]int)
	weekOf := make(map[int]isoWeek, len(dates))
	for i := range rows {
		totals[locDate{rows[i].LocationName, rows[i].DateKey}] += rows[i].AttendanceCount
		if _, ok := weekOf[rows[i].DateKey]; !ok {
			weekOf[rows[i].DateKey] = isoWeekOf(rows[i].Date)
		}
	}

	candidates := make(map[locWeek][]candidate)
	for key, total := range totals {
		if !eligible[key.DateKey] {
			continue
		}
		lw := locWeek{Location: key.Location, Week: weekOf[key.DateKey]}
		candidates[lw] = append(candidates[lw], candidate{DateKey: key.DateKey, Total: total})
	}

	selected := make(map[locDate]bool)
	for lw, cands := range candidates {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].Total != cands[j].Total {
				return cands[i].Total > cands[j].Total
			}
			return cands[i].DateKey < cands[j].DateKey
		})
		top := cands
		if len(top) > 3 {
			top = top[:3]
		}
		for _, c := range top {
			selected[locDate{Location: lw.Location, DateKey: c.DateKey}] = true
		}
	}

	for i := range rows {
		flag := selected[locDate{rows[i].LocationName, rows[i].DateKey}]
		// Eligibility guard: selection already uses the predicate, but a
		// flagged ineligible date must stay impossible even if the two ever
		// drift apart.
		rows[i].IsHybridDay = flag && eligible[rows[i].DateKey]
	}
}
