package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"office-occupancy-facts/internal/config"
	"office-occupancy-facts/internal/pipeline"
	"office-occupancy-facts/internal/warehouse"
)

func main() {
	cfg := config.Load()

	attendance := flag.String("attendance", cfg.AttendancePath, "Path to cleaned occupancy CSV")
	deskcount := flag.String("deskcount", cfg.DeskcountPath, "Path to cleaned deskcount CSV")
	dimensionsDir := flag.String("dimensions", cfg.DimensionsDir, "Output directory for dimension tables")
	factsDir := flag.String("facts", cfg.FactsDir, "Output directory for fact tables")
	reportsDir := flag.String("reports", cfg.ReportsDir, "Output directory for validation detail reports")
	summaryJSON := flag.String("json", "", "Optional JSON output path for the validation summary")
	cutoff := flag.String("cutoff", "", "Grid cutoff date (YYYY-MM-DD); default latest deskcount snapshot")
	firstYear := flag.Int("first-year", cfg.FirstYear, "First year of the date dimension")
	lastYear := flag.Int("last-year", cfg.LastYear, "Last year of the date dimension")
	fromStage := flag.Int("from", 1, "First stage number to run")
	toStage := flag.Int("to", 9, "Last stage number to run")
	only := flag.String("only", "", "Run only these stage numbers (comma-separated)")
	skip := flag.String("skip", "", "Skip these stage numbers (comma-separated)")
	dryRun := flag.Bool("dry-run", false, "Print the execution plan without running anything")
	dbEnabled := flag.Bool("db", false, "Store fact run in Postgres (requires OCCUPANCY_FACTS_DB_URL or DATABASE_URL)")
	dbSchema := flag.String("db-schema", cfg.DB.Schema, "Postgres schema for fact tables")
	dbTag := flag.String("db-tag", "", "Optional label for this fact run")
	initDB := flag.Bool("init-db", false, "Initialize warehouse schema and seed if empty")
	flag.Parse()

	cfg.AttendancePath = *attendance
	cfg.DeskcountPath = *deskcount
	cfg.DimensionsDir = *dimensionsDir
	cfg.FactsDir = *factsDir
	cfg.ReportsDir = *reportsDir
	cfg.SummaryJSON = *summaryJSON
	cfg.Cutoff = *cutoff
	cfg.FirstYear = *firstYear
	cfg.LastYear = *lastYear
	cfg.DB.Enabled = *dbEnabled
	cfg.DB.InitDB = *initDB
	cfg.DB.Schema = *dbSchema
	cfg.DB.Tag = *dbTag
	if cfg.DB.Enabled || cfg.DB.InitDB {
		cfg.DB.URL = warehouse.URLFromEnv(os.Getenv)
	}

	if cfg.FirstYear > cfg.LastYear {
		exitWithError(fmt.Errorf("-first-year %d is after -last-year %d", cfg.FirstYear, cfg.LastYear))
	}

	onlyStages, err := parseStageList(*only)
	if err != nil {
		exitWithError(fmt.Errorf("invalid -only value: %w", err))
	}
	skipStages, err := parseStageList(*skip)
	if err != nil {
		exitWithError(fmt.Errorf("invalid -skip value: %w", err))
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	run := pipeline.New(cfg, logger)
	plan := run.Plan(*fromStage, *toStage, onlyStages, skipStages)
	if len(plan) == 0 {
		fmt.Println("No stages selected. Nothing to do.")
		return
	}

	stageNames := map[int]string{}
	for _, stage := range run.Stages() {
		stageNames[stage.Num] = stage.Name
	}
	fmt.Println("Execution plan:")
	for _, num := range plan {
		fmt.Printf("  %d) %s\n", num, stageNames[num])
	}
	if *dryRun {
		return
	}

	if err := run.Run(context.Background(), plan); err != nil {
		exitWithError(err)
	}
	logger.Info("pipeline complete")
}

func parseStageList(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var stages []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("stage number %q: %w", part, err)
		}
		stages = append(stages, num)
	}
	return stages, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
