// Package config resolves pipeline settings from environment variables with
// sensible defaults; the CLI layers flag overrides on top.
package config

import (
	"os"
	"strconv"
)

type DBConfig struct {
	Enabled bool
	InitDB  bool
	URL     string
	Schema  string
	Tag     string
}

type Config struct {
	AttendancePath string
	DeskcountPath  string
	DimensionsDir  string
	FactsDir       string
	ReportsDir     string
	SummaryJSON    string
	FirstYear      int
	LastYear       int
	Cutoff         string // YYYY-MM-DD, empty = latest deskcount snapshot
	DB             DBConfig
}

// Load builds the default configuration from the environment.
func Load() *Config {
	return &Config{
		AttendancePath: getEnv("OCCUPANCY_CLEANED_PATH", "cleaned_data/Occupancy_cleaned.csv"),
		DeskcountPath:  getEnv("DESKCOUNT_CLEANED_PATH", "cleaned_data/Deskcount_cleaned.csv"),
		DimensionsDir:  getEnv("DIMENSIONS_DIR", "dimensions"),
		FactsDir:       getEnv("FACTS_DIR", "facts"),
		ReportsDir:     getEnv("REPORTS_DIR", "reports"),
		FirstYear:      getEnvInt("DIM_DATE_FIRST_YEAR", 2024),
		LastYear:       getEnvInt("DIM_DATE_LAST_YEAR", 2027),
		DB: DBConfig{
			Schema: getEnv("OCCUPANCY_FACTS_DB_SCHEMA", "occupancy_facts"),
		},
	}
}

func getEnv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
