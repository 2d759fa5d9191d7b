// Package source reads the cleaned tabular inputs the upstream cleaners hand
// off: attendance events and deskcount snapshots.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"office-occupancy-facts/internal/dimension"
	"office-occupancy-facts/internal/engine"
	"office-occupancy-facts/internal/model"
)

// ReadAttendance loads cleaned attendance events. Rows missing a person,
// date, or location are counted as invalid and skipped rather than failing
// the run.
func ReadAttendance(path string) ([]model.AttendanceEvent, int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: attendance file %s", engine.ErrMissingInput, path)
		}
		return nil, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read attendance header: %w", err)
	}

	colMap := normalizeHeaders(headers)
	personIdx, ok := findColumn(colMap, []string{"username", "person", "person_id", "employee_id", "user"})
	if !ok {
		return nil, 0, errors.New("missing username column")
	}
	dateIdx, ok := findColumn(colMap, []string{"logon_date", "date", "attendance_date"})
	if !ok {
		return nil, 0, errors.New("missing logon_date column")
	}
	locationIdx, ok := findColumn(colMap, []string{"office_location", "location", "office"})
	if !ok {
		return nil, 0, errors.New("missing office_location column")
	}
	lobIdx, _ := findColumn(colMap, []string{"line_of_business", "lob", "business_line"})

	var events []model.AttendanceEvent
	invalidRows := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("unable to read attendance CSV: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		person := getValue(record, personIdx)
		location := dimension.NormalizeName(getValue(record, locationIdx))
		if person == "" || location == "" {
			invalidRows++
			continue
		}
		parsedDate, err := parseDate(getValue(record, dateIdx))
		if err != nil {
			invalidRows++
			continue
		}

		lob := ""
		if lobIdx >= 0 {
			lob = dimension.NormalizeName(getValue(record, lobIdx))
		}
		events = append(events, model.AttendanceEvent{
			Person:         person,
			Date:           model.DateOnly(parsedDate),
			Location:       location,
			LineOfBusiness: lob,
		})
	}
	return events, invalidRows, nil
}

// ReadDeskcounts loads cleaned deskcount snapshots. An empty or non-positive
// deskcount is kept as a snapshot with unknown capacity, per the upstream
// cleaning contract; rows without a date or location are invalid.
func ReadDeskcounts(path string) ([]model.CapacitySnapshot, int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: deskcount file %s", engine.ErrMissingInput, path)
		}
		return nil, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read deskcount header: %w", err)
	}

	colMap := normalizeHeaders(headers)
	dateIdx, ok := findColumn(colMap, []string{"date", "effective_date", "snapshot_date"})
	if !ok {
		return nil, 0, errors.New("missing date column")
	}
	locationIdx, ok := findColumn(colMap, []string{"office_location", "location", "office"})
	if !ok {
		return nil, 0, errors.New("missing office_location column")
	}
	countIdx, ok := findColumn(colMap, []string{"deskcount", "desk_count", "capacity", "desks"})
	if !ok {
		return nil, 0, errors.New("missing deskcount column")
	}

	var snapshots []model.CapacitySnapshot
	invalidRows := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("unable to read deskcount CSV: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		location := dimension.NormalizeName(getValue(record, locationIdx))
		if location == "" {
			invalidRows++
			continue
		}
		parsedDate, err := parseDate(getValue(record, dateIdx))
		if err != nil {
			invalidRows++
			continue
		}

		snapshots = append(snapshots, model.CapacitySnapshot{
			Location:      location,
			EffectiveDate: model.DateOnly(parsedDate),
			Capacity:      parseCapacity(getValue(record, countIdx)),
		})
	}
	return snapshots, invalidRows, nil
}

// parseCapacity maps blank, unparsable, or non-positive deskcounts to nil:
// "no valid capacity" rather than zero seats.
func parseCapacity(value string) *int {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	count := int(parsed)
	if count <= 0 {
		return nil
	}
	return &count
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"01-02-2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
