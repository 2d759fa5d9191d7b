// Package report summarizes data quality over the finished fact tables.
// Conditions expected in real data (unknown capacity, over-capacity days) are
// counted and surfaced here, never treated as pipeline failures.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"office-occupancy-facts/internal/model"
)

type Summary struct {
	FactRows              int      `json:"fact_rows"`
	AggregatedRows        int      `json:"aggregated_rows"`
	FirstDateKey          int      `json:"first_date_key"`
	LastDateKey           int      `json:"last_date_key"`
	Locations             int      `json:"locations"`
	LinesOfBusiness       int      `json:"lines_of_business"`
	WeekdayMeanRate       *float64 `json:"weekday_mean_occupancy,omitempty"`
	WeekendMeanRate       *float64 `json:"weekend_mean_occupancy,omitempty"`
	UnknownCapacityRows   int      `json:"unknown_capacity_rows"`
	AttendanceNoCapacity  int      `json:"attendance_without_capacity_rows"`
	OverCapacityRows      int      `json:"over_capacity_rows"`
	ZeroAttendanceRows    int      `json:"zero_attendance_rows"`
	HybridRows            int      `json:"hybrid_rows"`
	InvalidAttendanceRows int      `json:"invalid_attendance_rows"`
	InvalidDeskcountRows  int      `json:"invalid_deskcount_rows"`
}

// Build computes the summary from the per-LOB and aggregated fact tables plus
// the reader-side invalid row tallies.
func Build(perLOB []model.FactRow, aggregated []model.FactRow, invalidAttendance int, invalidDeskcount int) Summary {
	summary := Summary{
		FactRows:              len(perLOB),
		AggregatedRows:        len(aggregated),
		InvalidAttendanceRows: invalidAttendance,
		InvalidDeskcountRows:  invalidDeskcount,
	}

	locations := map[string]struct{}{}
	lobs := map[string]struct{}{}
	var weekdaySum, weekendSum float64
	var weekdayN, weekendN int

	for _, row := range perLOB {
		if summary.FirstDateKey == 0 || row.DateKey < summary.FirstDateKey {
			summary.FirstDateKey = row.DateKey
		}
		if row.DateKey > summary.LastDateKey {
			summary.LastDateKey = row.DateKey
		}
		locations[row.LocationName] = struct{}{}
		if row.LOBName != "" {
			lobs[row.LOBName] = struct{}{}
		}
		if row.Capacity == nil {
			summary.UnknownCapacityRows++
			if row.AttendanceCount > 0 {
				summary.AttendanceNoCapacity++
			}
		}
		if row.AttendanceCount == 0 {
			summary.ZeroAttendanceRows++
		}
		if row.OccupancyRate != nil {
			if row.IsWeekend {
				weekendSum += *row.OccupancyRate
				weekendN++
			} else {
				weekdaySum += *row.OccupancyRate
				weekdayN++
			}
			if *row.OccupancyRate > 1.0 {
				summary.OverCapacityRows++
			}
		}
		if row.IsHybridDay {
			summary.HybridRows++
		}
	}

	summary.Locations = len(locations)
	summary.LinesOfBusiness = len(lobs)
	if weekdayN > 0 {
		mean := weekdaySum / float64(weekdayN)
		summary.WeekdayMeanRate = &mean
	}
	if weekendN > 0 {
		mean := weekendSum / float64(weekendN)
		summary.WeekendMeanRate = &mean
	}
	return summary
}

// Print writes the human-readable summary to stdout.
func Print(summary Summary) {
	fmt.Println("Office Occupancy Validation Report")
	fmt.Println(strings.Repeat("=", 38))
	fmt.Printf("Fact rows: %d | Aggregated rows: %d\n", summary.FactRows, summary.AggregatedRows)
	fmt.Printf("Date key range: %d to %d\n", summary.FirstDateKey, summary.LastDateKey)
	fmt.Printf("Locations: %d | Lines of business: %d\n", summary.Locations, summary.LinesOfBusiness)
	fmt.Printf("Mean occupancy (weekday): %s | (weekend): %s\n",
		formatMean(summary.WeekdayMeanRate), formatMean(summary.WeekendMeanRate))
	fmt.Printf("Rows with unknown capacity: %d (with attendance: %d)\n",
		summary.UnknownCapacityRows, summary.AttendanceNoCapacity)
	fmt.Printf("Over-capacity rows (rate > 1.0): %d\n", summary.OverCapacityRows)
	fmt.Printf("Zero-attendance rows: %d\n", summary.ZeroAttendanceRows)
	fmt.Printf("Hybrid-day rows: %d\n", summary.HybridRows)
	if summary.InvalidAttendanceRows > 0 || summary.InvalidDeskcountRows > 0 {
		fmt.Printf("Invalid input rows skipped: attendance %d, deskcount %d\n",
			summary.InvalidAttendanceRows, summary.InvalidDeskcountRows)
	}
}

// WriteJSON persists the summary for downstream consumers.
func WriteJSON(summary Summary, path string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteDetails writes the row-level detail CSVs reviewers chase down:
// attendance recorded where no capacity is known, and days over capacity.
func WriteDetails(perLOB []model.FactRow, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var noCapacity, overCapacity []model.FactRow
	for _, row := range perLOB {
		if row.Capacity == nil && row.AttendanceCount > 0 {
			noCapacity = append(noCapacity, row)
		}
		if row.OccupancyRate != nil && *row.OccupancyRate > 1.0 {
			overCapacity = append(overCapacity, row)
		}
	}
	sortDetail(noCapacity)
	sortDetail(overCapacity)

	if err := writeDetailCSV(filepath.Join(dir, "deskcount_merge_issues.csv"), noCapacity); err != nil {
		return err
	}
	return writeDetailCSV(filepath.Join(dir, "over_capacity_days.csv"), overCapacity)
}

func sortDetail(rows []model.FactRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LocationName != rows[j].LocationName {
			return rows[i].LocationName < rows[j].LocationName
		}
		if rows[i].DateKey != rows[j].DateKey {
			return rows[i].DateKey < rows[j].DateKey
		}
		return rows[i].LOBName < rows[j].LOBName
	})
}

func writeDetailCSV(path string, rows []model.FactRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"date", "office_location", "line_of_business", "attendance_count", "deskcount", "occupancy_rate"}); err != nil {
		return err
	}
	for _, row := range rows {
		capacity := ""
		if row.Capacity != nil {
			capacity = strconv.Itoa(*row.Capacity)
		}
		rate := ""
		if row.OccupancyRate != nil {
			rate = strconv.FormatFloat(*row.OccupancyRate, 'f', -1, 64)
		}
		record := []string{
			row.Date.Format("2006-01-02"),
			row.LocationName,
			row.LOBName,
			strconv.Itoa(row.AttendanceCount),
			capacity,
			rate,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatMean(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *value)
}
