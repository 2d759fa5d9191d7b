package engine

import (
	"office-occupancy-facts/internal/model"
)

// CountAttendance groups cleaned attendance events into per-day buckets. With
// byLOB set, buckets are keyed by (date, location, line of business);
// otherwise the line of business is collapsed. Upstream cleaning guarantees
// one event per person/date/location, so the bucket size is the headcount.
// Combinations with no events get no bucket; zero-filling is FillAttendance's
// job.
func CountAttendance(events []model.AttendanceEvent, byLOB bool) map[gridKey]int {
	counts := make(map[gridKey]int)
	for _, ev := range events {
		key := gridKey{DateKey: model.DateKeyOf(ev.Date), Location: ev.Location}
		if byLOB {
			key.LOB = ev.LineOfBusiness
		}
		counts[key]++
	}
	return counts
}
