// Package facts writes the pipeline's terminal artifacts: the per-LOB and
// aggregated occupancy fact tables, plus the dimension tables they reference.
package facts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"office-occupancy-facts/internal/model"
)

const (
	PerLOBFileName     = "FactOccupancy.csv"
	AggregatedFileName = "FactOccupancyAggregated.csv"
)

// WriteFacts writes one fact variant. Rows are written in the order given;
// callers sort with engine.SortFacts first. Unknown capacity and rate become
// empty fields, never zeros.
func WriteFacts(rows []model.FactRow, path string, perLOB bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"date_key", "location_key"}
	if perLOB {
		header = append(header, "lob_key")
	}
	header = append(header, "date", "office_location")
	if perLOB {
		header = append(header, "line_of_business")
	}
	header = append(header, "year", "month", "is_weekend", "attendance_count", "deskcount", "occupancy_rate", "is_hybrid_day")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{strconv.Itoa(row.DateKey), strconv.Itoa(row.LocationKey)}
		if perLOB {
			record = append(record, strconv.Itoa(row.LOBKey))
		}
		record = append(record, row.Date.Format("2006-01-02"), row.LocationName)
		if perLOB {
			record = append(record, row.LOBName)
		}
		record = append(record,
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.FormatBool(row.IsWeekend),
			strconv.Itoa(row.AttendanceCount),
			formatCapacity(row.Capacity),
			formatRate(row.OccupancyRate),
			strconv.FormatBool(row.IsHybridDay),
		)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDimensions writes DimDate, DimLocation, and DimLineOfBusiness under
// dir. A nil lobs slice skips the LOB table.
func WriteDimensions(dir string, dates []model.DateRow, locations []model.LocationRow, lobs []model.LineOfBusinessRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dateRecords := [][]string{{
		"date_key", "date", "date_string", "year", "quarter", "month", "month_name",
		"week_of_year", "week_in_month", "day", "day_of_week", "day_name", "day_of_year", "is_weekend",
	}}
	for _, d := range dates {
		dateRecords = append(dateRecords, []string{
			strconv.Itoa(d.DateKey),
			d.Date.Format("2006-01-02"),
			d.Date.Format("2006-01-02"),
			strconv.Itoa(d.Year),
			strconv.Itoa(d.Quarter),
			strconv.Itoa(d.Month),
			d.MonthName,
			strconv.Itoa(d.WeekOfYear),
			strconv.Itoa(d.WeekInMonth),
			strconv.Itoa(d.Day),
			strconv.Itoa(d.DayOfWeek),
			d.DayName,
			strconv.Itoa(d.DayOfYear),
			strconv.FormatBool(d.IsWeekend),
		})
	}
	if err := writeCSV(filepath.Join(dir, "DimDate.csv"), dateRecords); err != nil {
		return fmt.Errorf("write DimDate: %w", err)
	}

	locationRecords := [][]string{{"location_key", "office_location"}}
	for _, loc := range locations {
		locationRecords = append(locationRecords, []string{strconv.Itoa(loc.LocationKey), loc.Name})
	}
	if err := writeCSV(filepath.Join(dir, "DimLocation.csv"), locationRecords); err != nil {
		return fmt.Errorf("write DimLocation: %w", err)
	}

	if lobs == nil {
		return nil
	}
	lobRecords := [][]string{{"lob_key", "line_of_business"}}
	for _, lob := range lobs {
		lobRecords = append(lobRecords, []string{strconv.Itoa(lob.LOBKey), lob.Name})
	}
	if err := writeCSV(filepath.Join(dir, "DimLineOfBusiness.csv"), lobRecords); err != nil {
		return fmt.Errorf("write DimLineOfBusiness: %w", err)
	}
	return nil
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

func formatCapacity(capacity *int) string {
	if capacity == nil {
		return ""
	}
	return strconv.Itoa(*capacity)
}

func formatRate(rate *float64) string {
	if rate == nil {
		return ""
	}
	return strconv.FormatFloat(*rate, 'f', -1, 64)
}
