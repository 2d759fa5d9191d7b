// Package warehouse persists finished fact runs to Postgres so reporting
// tools can query attendance history without touching the CSV artifacts.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"office-occupancy-facts/internal/model"
	"office-occupancy-facts/internal/report"
)

type Config struct {
	URL    string
	Schema string
	Tag    string
}

// URLFromEnv resolves the warehouse connection string from the environment.
func URLFromEnv(getenv func(string) string) string {
	if value := strings.TrimSpace(getenv("OCCUPANCY_FACTS_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(getenv("DATABASE_URL"))
}

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// Publish stores one fact run: a run header plus every row of both fact
// variants, in a single transaction.
func Publish(perLOB []model.FactRow, aggregated []model.FactRow, summary report.Summary, cfg Config) (string, error) {
	schema, db, ctx, cancel, err := connect(cfg)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer db.Close()

	return storeRunTx(ctx, db, perLOB, aggregated, summary, schema, cfg.Tag)
}

// Seed stores the current run only when the warehouse holds no runs yet.
func Seed(perLOB []model.FactRow, aggregated []model.FactRow, summary report.Summary, cfg Config) (string, error) {
	schema, db, ctx, cancel, err := connect(cfg)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.fact_runs`, schema)).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}
	return storeRunTx(ctx, db, perLOB, aggregated, summary, schema, cfg.Tag)
}

func connect(cfg Config) (string, *sql.DB, context.Context, context.CancelFunc, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", nil, nil, nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		db.Close()
		return "", nil, nil, nil, err
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		cancel()
		db.Close()
		return "", nil, nil, nil, err
	}
	return schema, db, ctx, cancel, nil
}

func storeRunTx(ctx context.Context, db *sql.DB, perLOB []model.FactRow, aggregated []model.FactRow, summary report.Summary, schema string, tag string) (string, error) {
	runID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.fact_runs (
			id, first_date_key, last_date_key, fact_rows, aggregated_rows,
			locations, lines_of_business, unknown_capacity_rows, over_capacity_rows,
			hybrid_rows, invalid_attendance_rows, invalid_deskcount_rows, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11,$12,$13
		)`, schema),
		runID,
		summary.FirstDateKey,
		summary.LastDateKey,
		summary.FactRows,
		summary.AggregatedRows,
		summary.Locations,
		summary.LinesOfBusiness,
		summary.UnknownCapacityRows,
		summary.OverCapacityRows,
		summary.HybridRows,
		summary.InvalidAttendanceRows,
		summary.InvalidDeskcountRows,
		nullString(tag),
	)
	if err != nil {
		return "", err
	}

	insertFactSQL := fmt.Sprintf(`
		INSERT INTO %s.fact_occupancy (
			id, run_id, date_key, location_key, lob_key, date, office_location,
			line_of_business, year, month, is_weekend, attendance_count,
			deskcount, occupancy_rate, is_hybrid_day
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,$11,$12,
			$13,$14,$15
		)`, schema)
	for _, row := range perLOB {
		_, err = tx.ExecContext(ctx, insertFactSQL,
			uuid.New(), runID,
			row.DateKey, row.LocationKey, row.LOBKey,
			row.Date, row.LocationName, row.LOBName,
			row.Year, row.Month, row.IsWeekend, row.AttendanceCount,
			nullInt(row.Capacity), nullFloat(row.OccupancyRate), row.IsHybridDay,
		)
		if err != nil {
			return "", err
		}
	}

	insertAggSQL := fmt.Sprintf(`
		INSERT INTO %s.fact_occupancy_aggregated (
			id, run_id, date_key, location_key, date, office_location,
			year, month, is_weekend, attendance_count,
			deskcount, occupancy_rate, is_hybrid_day
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13
		)`, schema)
	for _, row := range aggregated {
		_, err = tx.ExecContext(ctx, insertAggSQL,
			uuid.New(), runID,
			row.DateKey, row.LocationKey,
			row.Date, row.LocationName,
			row.Year, row.Month, row.IsWeekend, row.AttendanceCount,
			nullInt(row.Capacity), nullFloat(row.OccupancyRate), row.IsHybridDay,
		)
		if err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.fact_runs (
			id uuid PRIMARY KEY,
			first_date_key integer NOT NULL,
			last_date_key integer NOT NULL,
			fact_rows integer NOT NULL,
			aggregated_rows integer NOT NULL,
			locations integer NOT NULL,
			lines_of_business integer NOT NULL,
			unknown_capacity_rows integer NOT NULL,
			over_capacity_rows integer NOT NULL,
			hybrid_rows integer NOT NULL,
			invalid_attendance_rows integer NOT NULL,
			invalid_deskcount_rows integer NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.fact_occupancy (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.fact_runs(id) ON DELETE CASCADE,
			date_key integer NOT NULL,
			location_key integer NOT NULL,
			lob_key integer NOT NULL,
			date date NOT NULL,
			office_location text NOT NULL,
			line_of_business text NOT NULL,
			year integer NOT NULL,
			month integer NOT NULL,
			is_weekend boolean NOT NULL,
			attendance_count integer NOT NULL,
			deskcount integer,
			occupancy_rate numeric(10,6),
			is_hybrid_day boolean NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.fact_occupancy_aggregated (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.fact_runs(id) ON DELETE CASCADE,
			date_key integer NOT NULL,
			location_key integer NOT NULL,
			date date NOT NULL,
			office_location text NOT NULL,
			year integer NOT NULL,
			month integer NOT NULL,
			is_weekend boolean NOT NULL,
			attendance_count integer NOT NULL,
			deskcount integer,
			occupancy_rate numeric(10,6),
			is_hybrid_day boolean NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_fact_occupancy_run_idx ON %s.fact_occupancy (run_id)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_fact_occupancy_date_idx ON %s.fact_occupancy (date_key)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_fact_occupancy_aggregated_run_idx ON %s.fact_occupancy_aggregated (run_id)`, schema, schema))
	return err
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
