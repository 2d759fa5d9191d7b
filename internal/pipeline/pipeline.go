// Package pipeline orchestrates the occupancy fact build as ordered,
// restartable stages: load cleaned inputs, build dimensions, construct both
// fact variants, write artifacts, report data quality, and optionally publish
// to the warehouse.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"office-occupancy-facts/internal/config"
	"office-occupancy-facts/internal/dimension"
	"office-occupancy-facts/internal/engine"
	"office-occupancy-facts/internal/facts"
	"office-occupancy-facts/internal/model"
	"office-occupancy-facts/internal/report"
	"office-occupancy-facts/internal/source"
	"office-occupancy-facts/internal/warehouse"
)

type Stage struct {
	Num   int
	Name  string
	Check func() error
	Run   func(ctx context.Context) error
}

type Pipeline struct {
	cfg *config.Config
	log *zap.Logger

	events            []model.AttendanceEvent
	invalidAttendance int
	snapshots         []model.CapacitySnapshot
	invalidDeskcount  int

	dates     []model.DateRow
	locations []model.LocationRow
	lobs      []model.LineOfBusinessRow

	perLOB     []model.FactRow
	aggregated []model.FactRow
	summary    *report.Summary
}

func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Stages returns the ordered stage list. Checks verify the in-process state a
// stage depends on, so a subset plan fails fast instead of producing a
// partially-correct table.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Num: 1, Name: "load_attendance", Check: noCheck, Run: p.loadAttendance},
		{Num: 2, Name: "load_deskcounts", Check: noCheck, Run: p.loadDeskcounts},
		{Num: 3, Name: "build_dimensions", Check: p.needEvents, Run: p.buildDimensions},
		{Num: 4, Name: "build_fact_occupancy", Check: p.needDimensions, Run: p.buildPerLOB},
		{Num: 5, Name: "build_fact_occupancy_aggregated", Check: p.needDimensions, Run: p.buildAggregated},
		{Num: 6, Name: "write_dimensions", Check: p.needDimensions, Run: p.writeDimensions},
		{Num: 7, Name: "write_facts", Check: p.needFacts, Run: p.writeFacts},
		{Num: 8, Name: "validation_report", Check: p.needFacts, Run: p.validationReport},
		{Num: 9, Name: "publish_warehouse", Check: p.needFacts, Run: p.publish},
	}
}

// Run executes the planned stage numbers in order.
func (p *Pipeline) Run(ctx context.Context, plan []int) error {
	stages := p.Stages()
	byNum := make(map[int]Stage, len(stages))
	for _, stage := range stages {
		byNum[stage.Num] = stage
	}

	for _, num := range plan {
		stage, ok := byNum[num]
		if !ok {
			return fmt.Errorf("unknown stage %d", num)
		}
		if err := stage.Check(); err != nil {
			return fmt.Errorf("prerequisite for stage %d (%s): %w", stage.Num, stage.Name, err)
		}
		p.log.Info("stage starting", zap.Int("stage", stage.Num), zap.String("name", stage.Name))
		started := time.Now()
		if err := stage.Run(ctx); err != nil {
			return fmt.Errorf("stage %d (%s): %w", stage.Num, stage.Name, err)
		}
		p.log.Info("stage complete",
			zap.Int("stage", stage.Num),
			zap.String("name", stage.Name),
			zap.Duration("elapsed", time.Since(started)))
	}
	return nil
}

// Plan selects stage numbers: either the explicit only-list, or [from, to]
// minus the skip-list. Stage 9 is dropped from range plans unless the
// warehouse is enabled.
func (p *Pipeline) Plan(from int, to int, only []int, skip []int) []int {
	stages := p.Stages()
	if len(only) > 0 {
		valid := make(map[int]bool, len(stages))
		for _, stage := range stages {
			valid[stage.Num] = true
		}
		var plan []int
		for _, num := range only {
			if valid[num] {
				plan = append(plan, num)
			}
		}
		return plan
	}

	skipped := make(map[int]bool, len(skip))
	for _, num := range skip {
		skipped[num] = true
	}
	var plan []int
	for _, stage := range stages {
		if stage.Num < from || stage.Num > to || skipped[stage.Num] {
			continue
		}
		if stage.Num == 9 && !p.cfg.DB.Enabled && !p.cfg.DB.InitDB {
			continue
		}
		plan = append(plan, stage.Num)
	}
	return plan
}

func noCheck() error { return nil }

func (p *Pipeline) needEvents() error {
	if p.events == nil {
		return errors.New("attendance not loaded; run stage 1 first")
	}
	return nil
}

func (p *Pipeline) needDimensions() error {
	if p.dates == nil || p.locations == nil {
		return errors.New("dimensions not built; run stages 1-3 first")
	}
	return nil
}

func (p *Pipeline) needFacts() error {
	if p.perLOB == nil || p.aggregated == nil {
		return errors.New("facts not built; run stages 1-5 first")
	}
	return nil
}

func (p *Pipeline) loadAttendance(context.Context) error {
	events, invalid, err := source.ReadAttendance(p.cfg.AttendancePath)
	if err != nil {
		return err
	}
	p.events = events
	p.invalidAttendance = invalid
	p.log.Info("attendance loaded",
		zap.String("path", p.cfg.AttendancePath),
		zap.Int("events", len(events)),
		zap.Int("invalid_rows", invalid))
	return nil
}

func (p *Pipeline) loadDeskcounts(context.Context) error {
	snapshots, invalid, err := source.ReadDeskcounts(p.cfg.DeskcountPath)
	if err != nil {
		return err
	}
	p.snapshots = snapshots
	p.invalidDeskcount = invalid
	p.log.Info("deskcounts loaded",
		zap.String("path", p.cfg.DeskcountPath),
		zap.Int("snapshots", len(snapshots)),
		zap.Int("invalid_rows", invalid))
	return nil
}

func (p *Pipeline) buildDimensions(context.Context) error {
	p.dates = dimension.BuildDateDim(p.cfg.FirstYear, p.cfg.LastYear)
	p.locations = dimension.BuildLocationDim(p.events)
	p.lobs = dimension.BuildLOBDim(p.events)
	p.log.Info("dimensions built",
		zap.Int("dates", len(p.dates)),
		zap.Int("locations", len(p.locations)),
		zap.Int("lines_of_business", len(p.lobs)))
	return nil
}

func (p *Pipeline) buildPerLOB(ctx context.Context) error {
	start, cutoff, err := p.horizon()
	if err != nil {
		return err
	}
	rows, err := engine.Build(ctx, engine.Inputs{
		Dates:     p.dates,
		Locations: p.locations,
		LOBs:      p.lobs,
		Events:    p.events,
		Snapshots: p.snapshots,
		Start:     start,
		Cutoff:    cutoff,
	})
	if err != nil {
		return err
	}
	p.perLOB = rows
	p.log.Info("fact_occupancy built", zap.Int("rows", len(rows)), zap.Time("cutoff", cutoff))
	return nil
}

func (p *Pipeline) buildAggregated(ctx context.Context) error {
	start, cutoff, err := p.horizon()
	if err != nil {
		return err
	}
	rows, err := engine.Build(ctx, engine.Inputs{
		Dates:     p.dates,
		Locations: p.locations,
		Events:    p.events,
		Snapshots: p.snapshots,
		Start:     start,
		Cutoff:    cutoff,
	})
	if err != nil {
		return err
	}
	p.aggregated = rows
	p.log.Info("fact_occupancy_aggregated built", zap.Int("rows", len(rows)), zap.Time("cutoff", cutoff))
	return nil
}

// horizon picks the grid bounds: start is the earliest attendance date,
// cutoff is the configured override or else the latest deskcount snapshot
// (falling back to the latest attendance date when no snapshots exist).
func (p *Pipeline) horizon() (time.Time, time.Time, error) {
	var start, lastEvent time.Time
	for _, ev := range p.events {
		if start.IsZero() || ev.Date.Before(start) {
			start = ev.Date
		}
		if ev.Date.After(lastEvent) {
			lastEvent = ev.Date
		}
	}

	if p.cfg.Cutoff != "" {
		cutoff, err := time.Parse("2006-01-02", p.cfg.Cutoff)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid cutoff date %q: %w", p.cfg.Cutoff, err)
		}
		return start, cutoff, nil
	}

	var cutoff time.Time
	for _, snap := range p.snapshots {
		if snap.EffectiveDate.After(cutoff) {
			cutoff = snap.EffectiveDate
		}
	}
	if cutoff.IsZero() {
		cutoff = lastEvent
	}
	if cutoff.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: no deskcount snapshots or attendance to derive a cutoff", engine.ErrMissingInput)
	}
	return start, cutoff, nil
}

func (p *Pipeline) writeDimensions(context.Context) error {
	if err := facts.WriteDimensions(p.cfg.DimensionsDir, p.dates, p.locations, p.lobs); err != nil {
		return err
	}
	p.log.Info("dimensions written", zap.String("dir", p.cfg.DimensionsDir))
	return nil
}

func (p *Pipeline) writeFacts(context.Context) error {
	perLOBPath := filepath.Join(p.cfg.FactsDir, facts.PerLOBFileName)
	if err := facts.WriteFacts(p.perLOB, perLOBPath, true); err != nil {
		return err
	}
	aggPath := filepath.Join(p.cfg.FactsDir, facts.AggregatedFileName)
	if err := facts.WriteFacts(p.aggregated, aggPath, false); err != nil {
		return err
	}
	p.log.Info("facts written",
		zap.String("fact_occupancy", perLOBPath),
		zap.String("fact_occupancy_aggregated", aggPath))
	return nil
}

func (p *Pipeline) validationReport(context.Context) error {
	summary := report.Build(p.perLOB, p.aggregated, p.invalidAttendance, p.invalidDeskcount)
	p.summary = &summary
	report.Print(summary)

	if p.cfg.SummaryJSON != "" {
		if err := report.WriteJSON(summary, p.cfg.SummaryJSON); err != nil {
			return err
		}
		p.log.Info("summary written", zap.String("path", p.cfg.SummaryJSON))
	}
	if err := report.WriteDetails(p.perLOB, p.cfg.ReportsDir); err != nil {
		return err
	}
	p.log.Info("detail reports written", zap.String("dir", p.cfg.ReportsDir))
	return nil
}

func (p *Pipeline) publish(context.Context) error {
	if !p.cfg.DB.Enabled && !p.cfg.DB.InitDB {
		p.log.Info("warehouse publish disabled; skipping")
		return nil
	}
	if p.cfg.DB.URL == "" {
		return errors.New("database URL missing; set OCCUPANCY_FACTS_DB_URL or DATABASE_URL")
	}
	summary := p.summary
	if summary == nil {
		built := report.Build(p.perLOB, p.aggregated, p.invalidAttendance, p.invalidDeskcount)
		summary = &built
	}
	cfg := warehouse.Config{URL: p.cfg.DB.URL, Schema: p.cfg.DB.Schema, Tag: p.cfg.DB.Tag}

	seeded := false
	if p.cfg.DB.InitDB {
		runID, err := warehouse.Seed(p.perLOB, p.aggregated, *summary, cfg)
		if err != nil {
			return err
		}
		if runID != "" {
			seeded = true
			p.log.Info("warehouse seeded", zap.String("run_id", runID))
		} else {
			p.log.Info("warehouse already seeded; skipping")
		}
	}
	if p.cfg.DB.Enabled {
		if seeded {
			p.log.Info("current run already stored by seed; skipping duplicate insert")
			return nil
		}
		runID, err := warehouse.Publish(p.perLOB, p.aggregated, *summary, cfg)
		if err != nil {
			return err
		}
		p.log.Info("fact run stored", zap.String("run_id", runID))
	}
	return nil
}
