// Package pipeline runs one autofill pass over a roster:
// load, solve, validate chains, write, report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/rosterfill/internal/config"
	"github.com/julianstephens/rosterfill/internal/loader"
	"github.com/julianstephens/rosterfill/internal/logger"
	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/reporter"
	"github.com/julianstephens/rosterfill/internal/solver"
	"github.com/julianstephens/rosterfill/internal/storage"
	"github.com/julianstephens/rosterfill/internal/utils"
	"github.com/julianstephens/rosterfill/internal/validation"
	"github.com/julianstephens/rosterfill/internal/workbench"
	"github.com/julianstephens/rosterfill/internal/writer"
)

// Store is the persistence the pipeline reads from and writes to.
type Store interface {
	storage.Reader
	storage.SlotWriter
	storage.RunLedger
}

// Deps carries everything a run depends on. Zero Now and NewID fall back
// to the wall clock and random UUIDs.
type Deps struct {
	Store    Store
	Now      func() time.Time
	NewID    func() string
	Settings config.Settings
	// BeforeWrite runs once the slots are ready to persist, e.g. to take a
	// backup. An error aborts the run before anything is written.
	BeforeWrite func(ctx context.Context) error
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Settings == (config.Settings{}) {
		d.Settings = config.Default()
	}
	return d
}

type Options struct {
	// DryRun solves, validates and reports without writing.
	DryRun bool
}

// Result is the outcome of one run. Success is false only when loading
// failed, the pre-write hook failed, or the write failed wholesale.
type Result struct {
	Success       bool
	RunID         string
	RosterID      string
	DryRun        bool
	StartedAt     time.Time
	ExecutionTime time.Duration
	LoadStats     loader.Stats
	Solve         solver.Result
	Validation    *validation.Result
	Write         *writer.Result
	Report        *reporter.Report
	// Warnings are bookkeeping failures after a successful write.
	Warnings []string
	Err      error
}

var ErrNoStore = errors.New("pipeline: no store configured")

// Run executes one pass. It holds no locks; callers serialise runs per
// roster, for example through a Gate.
func Run(ctx context.Context, deps Deps, rosterID string, opts Options) Result {
	deps = deps.withDefaults()
	started := deps.Now()
	res := Result{RunID: deps.NewID(), RosterID: rosterID, DryRun: opts.DryRun, StartedAt: started}
	lg := logger.With("roster", rosterID, "run_id", res.RunID)

	if deps.Store == nil {
		res.Err = ErrNoStore
		return res
	}

	var timings []reporter.PhaseTiming
	timed := func(phase string, fn func()) {
		t := deps.Now()
		fn()
		d := deps.Now().Sub(t)
		timings = append(timings, reporter.PhaseTiming{Phase: phase, Duration: d})
		lg.Debug("phase finished", "phase", phase, "duration", d)
	}

	var bench *workbench.Bench
	var err error
	timed("load", func() {
		bench, res.LoadStats, err = loader.Load(ctx, deps.Store, rosterID)
	})
	if err != nil {
		res.Err = fmt.Errorf("load: %w", err)
		res.ExecutionTime = deps.Now().Sub(started)
		lg.Error("run aborted", "phase", "load", "err", err)
		return res
	}

	timed("solve", func() {
		res.Solve = solver.New(solver.Options{FairnessWindowDays: deps.Settings.FairnessWindowDays}).Solve(bench)
	})

	timed("validate", func() {
		vr := validation.New().ValidateChains(bench.Slots, bench.Services, bench.Roster.PeriodStart, bench.Roster.PeriodEnd)
		res.Validation = &vr
	})
	if res.Validation.HasErrors() {
		lg.Warn("chain validation found errors", "errors", len(res.Validation.Errors))
	}

	res.Success = true
	if !opts.DryRun {
		res.Success = write(ctx, deps, bench, &res, timed)
	}

	res.ExecutionTime = deps.Now().Sub(started)
	res.Report = reporter.Generate(reporter.Input{
		RunID:       res.RunID,
		GeneratedAt: deps.Now(),
		Duration:    res.ExecutionTime,
		Bench:       bench,
		Timings:     timings,
		Validation:  res.Validation,
		Write:       res.Write,
		Thresholds: reporter.Thresholds{
			MinRatio: deps.Settings.Bottleneck.MinRatio,
			MinOpen:  deps.Settings.Bottleneck.MinOpen,
		},
	})

	if res.Success && !opts.DryRun {
		if err := deps.Store.MarkRosterProcessed(ctx, rosterID, res.RunID, deps.Now()); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("failed to mark roster processed: %v", err))
			lg.Error("failed to mark roster processed", "err", err)
		}
	}
	// the history row is kept even when the caller gave up mid-write
	if err := deps.Store.RecordRun(context.WithoutCancel(ctx), runRecord(res, deps.Now())); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("failed to record run: %v", err))
		lg.Error("failed to record run", "err", err)
	}

	lg.Info("run finished",
		"success", res.Success,
		"dry_run", res.DryRun,
		"assigned", res.Solve.Assigned,
		"open", res.Solve.Open,
		"coverage", res.Report.Summary.CoveragePercent,
		"duration", res.ExecutionTime.Round(time.Millisecond),
	)
	return res
}

func write(ctx context.Context, deps Deps, bench *workbench.Bench, res *Result, timed func(string, func())) bool {
	if deps.BeforeWrite != nil {
		if err := deps.BeforeWrite(ctx); err != nil {
			res.Err = fmt.Errorf("before write: %w", err)
			return false
		}
	}

	w := writer.New(deps.Store, writer.Options{
		BatchSize:   deps.Settings.BatchSize,
		Concurrency: deps.Settings.WriteConcurrency,
		NewID:       func() string { return res.RunID },
	})
	var err error
	timed("write", func() {
		var wr writer.Result
		wr, err = w.Write(ctx, bench.Roster.ID, res.Solve.Touched)
		res.Write = &wr
	})
	if err != nil {
		res.Err = fmt.Errorf("write: %w", err)
		return false
	}
	return true
}

func runRecord(res Result, finished time.Time) models.RunRecord {
	rec := models.RunRecord{
		RunID:      res.RunID,
		RosterID:   res.RosterID,
		StartedAt:  utils.FormatTimestamp(res.StartedAt),
		FinishedAt: utils.FormatTimestamp(finished),
		Success:    res.Success,
		DryRun:     res.DryRun,
		Assigned:   res.Solve.Assigned,
		Open:       res.Solve.Open,
	}
	if res.Write != nil {
		rec.Updated = res.Write.Updated
	}
	if res.Report != nil {
		rec.CoveragePercent = res.Report.Summary.CoveragePercent
	}
	if res.Validation != nil {
		rec.ValidationCount = len(res.Validation.Errors)
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}
