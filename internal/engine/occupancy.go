package engine

import "office-occupancy-facts/internal/model"

// ComputeRates derives the occupancy rate for every row with a known positive
// capacity. Rows with nil or non-positive capacity keep a nil rate: unknown
// capacity is genuinely unknown, never zero or full.
func ComputeRates(rows []model.FactRow) {
	for i := range rows {
		capacity := rows[i].Capacity
		if capacity == nil || *capacity <= 0 {
			rows[i].OccupancyRate = nil
			continue
		}
		rate := float64(rows[i].AttendanceCount) / float64(*capacity)
		rows[i].OccupancyRate = &rate
	}
}
