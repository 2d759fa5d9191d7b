// Package dimension builds the reference tables the fact build joins against:
// a calendar date dimension over a fixed year range and location / line of
// business dimensions derived from the distinct values observed in cleaned
// attendance history.
package dimension

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"office-occupancy-facts/internal/model"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a free-text office or LOB name: trims, collapses
// interior whitespace, and strips trailing punctuation.
func NormalizeName(value string) string {
	value = strings.TrimSpace(value)
	value = whitespaceRun.ReplaceAllString(value, " ")
	return strings.TrimRight(value, ".,;:")
}

// BuildDateDim generates one row per calendar day from Jan 1 of firstYear
// through Dec 31 of lastYear, with the usual reporting attributes.
func BuildDateDim(firstYear int, lastYear int) []model.DateRow {
	start := time.Date(firstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(lastYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	var rows []model.DateRow
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		_, isoWeek := day.ISOWeek()
		dow := int(day.Weekday())
		if dow == 0 {
			dow = 7 // Sunday last, Monday first
		}
		rows = append(rows, model.DateRow{
			DateKey:     model.DateKeyOf(day),
			Date:        day,
			Year:        day.Year(),
			Quarter:     (int(day.Month())-1)/3 + 1,
			Month:       int(day.Month()),
			MonthName:   day.Month().String(),
			WeekOfYear:  isoWeek,
			WeekInMonth: (day.Day()-1)/7 + 1,
			Day:         day.Day(),
			DayOfWeek:   dow,
			DayName:     day.Weekday().String(),
			DayOfYear:   day.YearDay(),
			IsWeekend:   dow >= 6,
		})
	}
	return rows
}

// BuildLocationDim assigns surrogate keys to the distinct normalized office
// locations seen in attendance history, alphabetically for run-to-run
// stability.
func BuildLocationDim(events []model.AttendanceEvent) []model.LocationRow {
	names := distinctNames(events, func(ev model.AttendanceEvent) string { return ev.Location })
	rows := make([]model.LocationRow, 0, len(names))
	for i, name := range names {
		rows = append(rows, model.LocationRow{LocationKey: i + 1, Name: name})
	}
	return rows
}

// BuildLOBDim assigns surrogate keys to the distinct normalized lines of
// business seen in attendance history.
func BuildLOBDim(events []model.AttendanceEvent) []model.LineOfBusinessRow {
	names := distinctNames(events, func(ev model.AttendanceEvent) string { return ev.LineOfBusiness })
	rows := make([]model.LineOfBusinessRow, 0, len(names))
	for i, name := range names {
		rows = append(rows, model.LineOfBusinessRow{LOBKey: i + 1, Name: name})
	}
	return rows
}

func distinctNames(events []model.AttendanceEvent, pick func(model.AttendanceEvent) string) []string {
	seen := map[string]struct{}{}
	for _, ev := range events {
		name := NormalizeName(pick(ev))
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
