package model

import "time"

// DateRow is one calendar day of the date dimension. DateKey is the YYYYMMDD
// integer form of Date and is the join key used throughout the fact build.
type DateRow struct {
	DateKey     int       `json:"date_key"`
	Date        time.Time `json:"date"`
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	Month       int       `json:"month"`
	MonthName   string    `json:"month_name"`
	WeekOfYear  int       `json:"week_of_year"`
	WeekInMonth int       `json:"week_in_month"`
	Day         int       `json:"day"`
	DayOfWeek   int       `json:"day_of_week"` // 1 = Monday .. 7 = Sunday
	DayName     string    `json:"day_name"`
	DayOfYear   int       `json:"day_of_year"`
	IsWeekend   bool      `json:"is_weekend"`
}

// LocationRow is one office in the location dimension.
type LocationRow struct {
	LocationKey int    `json:"location_key"`
	Name        string `json:"office_location"`
}

// LineOfBusinessRow is one line of business in the LOB dimension.
type LineOfBusinessRow struct {
	LOBKey int    `json:"lob_key"`
	Name   string `json:"line_of_business"`
}

// AttendanceEvent is one cleaned badge/logon observation: a person seen at an
// office on a date. Upstream cleaning guarantees at most one event per
// (person, date, location), so counting rows counts people.
type AttendanceEvent struct {
	Person         string
	Date           time.Time
	Location       string
	LineOfBusiness string
}

// CapacitySnapshot is one deskcount reading for a location, valid from
// EffectiveDate until superseded by a later snapshot for the same location.
// A nil Capacity means the reading carried no valid seat count; it is never
// interpreted as zero seats.
type CapacitySnapshot struct {
	Location      string
	EffectiveDate time.Time
	Capacity      *int
}

// FactRow is one row of the occupancy fact table. In the aggregated variant
// LOBKey is zero and LOBName empty. Capacity and OccupancyRate are nil when no
// valid deskcount snapshot covers the row's date.
type FactRow struct {
	DateKey         int
	LocationKey     int
	LOBKey          int
	Date            time.Time
	LocationName    string
	LOBName         string
	Year            int
	Month           int
	IsWeekend       bool
	AttendanceCount int
	Capacity        *int
	OccupancyRate   *float64
	IsHybridDay     bool
}

// DateOnly truncates a timestamp to midnight, keeping its location.
func DateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// DateKeyOf returns the YYYYMMDD integer key for a date.
func DateKeyOf(value time.Time) int {
	return value.Year()*10000 + int(value.Month())*100 + value.Day()
}
