package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options controls a single snapshot generation
type Options struct {
	SkipOptional bool
}

// WeeklyOptions controls a weekly batch run
type WeeklyOptions struct {
	SkipOptional bool
	// DryRun resolves and returns the reference dates without executing
	// any stage. Replaces the interactive confirmation a human would give
	// before a large batch.
	DryRun bool
}

// Orchestrator drives the ordered scoring-stage pipeline for a reference
// date and materializes the result as an immutable dated snapshot artifact.
// Stages run strictly sequentially: later stages consume earlier stages'
// file outputs.
type Orchestrator struct {
	stages      []Stage
	runner      Runner
	snapshotDir string
	log         zerolog.Logger
	ledger      *Ledger // optional run ledger
	now         func() time.Time
}

// NewOrchestrator creates a snapshot orchestrator. ledger may be nil.
func NewOrchestrator(stages []Stage, runner Runner, snapshotDir string, ledger *Ledger, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		stages:      stages,
		runner:      runner,
		snapshotDir: snapshotDir,
		ledger:      ledger,
		log:         log.With().Str("component", "orchestrator").Logger(),
		now:         time.Now,
	}
}

// Generate runs the full stage pipeline for refDate and writes the dated
// snapshot artifact. Stages only ever receive the reference date, so the
// snapshot derives exclusively from data available at or before that date.
//
// A required stage that times out, exits non-zero, or produces no artifact
// aborts the attempt; no snapshot is written. Optional stage failures are
// logged and skipped (also when opts.SkipOptional is set).
//
// Returns the snapshot path, or a *StageError naming the failing stage.
func (o *Orchestrator) Generate(ctx context.Context, refDate time.Time, opts Options) (string, error) {
	date := refDate.Format("2006-01-02")
	runID := uuid.NewString()
	start := o.now()

	o.log.Info().
		Str("reference_date", date).
		Str("run_id", runID).
		Bool("skip_optional", opts.SkipOptional).
		Msg("Generating snapshot")

	var (
		outcomes      []StageOutcome
		finalArtifact string
		finalStage    string
	)

	for _, stage := range o.stages {
		if opts.SkipOptional && !stage.Required {
			o.log.Info().Str("stage", stage.Name).Msg("Skipping optional stage")
			outcomes = append(outcomes, StageOutcome{
				Name: stage.Name, Status: StageSkipped, Required: false,
			})
			continue
		}

		result, err := o.runner.Run(ctx, stage, refDate)
		if err != nil {
			if stage.Required {
				o.log.Error().
					Err(err).
					Str("stage", stage.Name).
					Str("reference_date", date).
					Msg("Required stage failed, aborting snapshot")
				o.recordRun(runID, date, "failed", err, "", o.now().Sub(start))
				return "", err
			}

			// Degraded input for downstream stages, but the pipeline proceeds.
			o.log.Warn().
				Err(err).
				Str("stage", stage.Name).
				Msg("Optional stage failed, continuing")
			outcomes = append(outcomes, StageOutcome{
				Name: stage.Name, Status: StageFailed, Required: false,
			})
			continue
		}

		outcomes = append(outcomes, StageOutcome{
			Name:     stage.Name,
			Status:   StageCompleted,
			Required: stage.Required,
			Duration: result.Duration.Round(time.Millisecond).String(),
		})
		finalArtifact = result.ArtifactPath
		finalStage = stage.Name
	}

	path, err := o.writeSnapshot(date, runID, outcomes, finalArtifact, finalStage)
	if err != nil {
		o.recordRun(runID, date, "failed", err, "", o.now().Sub(start))
		return "", err
	}

	o.recordRun(runID, date, "completed", nil, path, o.now().Sub(start))

	o.log.Info().
		Str("reference_date", date).
		Str("snapshot", path).
		Msg("Snapshot generated")

	return path, nil
}

// writeSnapshot copies the final integrated dataset into the immutable,
// date-keyed snapshot artifact. Last-write-wins: an existing snapshot for
// the same reference date is replaced wholesale.
func (o *Orchestrator) writeSnapshot(date, runID string, outcomes []StageOutcome, finalArtifact, finalStage string) (string, error) {
	if finalArtifact == "" {
		return "", fmt.Errorf("no stage produced an integrated dataset for %s", date)
	}

	data, err := os.ReadFile(finalArtifact)
	if err != nil || !json.Valid(data) {
		// Attributed to the stage that produced the artifact: when the last
		// stage is optional and failed or was skipped, that is an earlier one.
		return "", &StageError{
			Stage: finalStage,
			Kind:  FailureMissingArtifact,
			Err:   fmt.Errorf("integrated dataset %s is unreadable", finalArtifact),
		}
	}

	doc := Document{
		ReferenceDate: date,
		GeneratedAt:   o.now().UTC(),
		RunID:         runID,
		Stages:        outcomes,
		Data:          data,
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(o.snapshotDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(o.snapshotDir, fmt.Sprintf("snapshot_%s.json", date))
	if _, err := os.Stat(path); err == nil {
		o.log.Warn().Str("snapshot", path).Msg("Replacing existing snapshot for this date")
	}

	// Write through a temp file so the dated artifact is never half-written.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	return path, nil
}

// GenerateWeekly runs Generate for `weeks` reference dates, stepping back in
// 7-day increments from the current date and snapping each to the nearest
// prior (or same) Friday. The batch is sequential and best-effort: per-date
// failures are logged and the batch proceeds. Returns the paths of the
// snapshots that were produced (or, for a dry run, the resolved dates).
func (o *Orchestrator) GenerateWeekly(ctx context.Context, weeks int, opts WeeklyOptions) ([]string, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	dates := WeeklyDates(o.now(), weeks)

	if opts.DryRun {
		var out []string
		for _, d := range dates {
			out = append(out, d.Format("2006-01-02"))
		}
		o.log.Info().Strs("dates", out).Msg("Dry run, no stages executed")
		return out, nil
	}

	var paths []string
	for _, date := range dates {
		path, err := o.Generate(ctx, date, Options{SkipOptional: opts.SkipOptional})
		if err != nil {
			o.log.Error().
				Err(err).
				Str("reference_date", date.Format("2006-01-02")).
				Msg("Snapshot failed, continuing batch")
			continue
		}
		paths = append(paths, path)
	}

	o.log.Info().
		Int("requested", weeks).
		Int("produced", len(paths)).
		Msg("Weekly batch finished")

	return paths, nil
}

// WeeklyDates derives `weeks` reference dates: now stepped back in 7-day
// increments, each snapped to the nearest prior (or same) Friday.
func WeeklyDates(now time.Time, weeks int) []time.Time {
	dates := make([]time.Time, 0, weeks)
	for i := 1; i <= weeks; i++ {
		dates = append(dates, priorFriday(now.AddDate(0, 0, -7*i)))
	}
	return dates
}

// BacktestDates returns three fixed offsets from now (90, 180, 365 days
// back) for quick validation runs.
func BacktestDates(now time.Time) []time.Time {
	return []time.Time{
		now.AddDate(0, 0, -90),
		now.AddDate(0, 0, -180),
		now.AddDate(0, 0, -365),
	}
}

// priorFriday snaps a date to the same day if it is a Friday, otherwise to
// the closest Friday before it.
func priorFriday(d time.Time) time.Time {
	offset := (int(d.Weekday()) - int(time.Friday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// recordRun writes the attempt to the run ledger when one is configured
func (o *Orchestrator) recordRun(runID, date, status string, failure error, path string, elapsed time.Duration) {
	if o.ledger == nil {
		return
	}

	rec := RunRecord{
		ID:            runID,
		ReferenceDate: date,
		Status:        status,
		SnapshotPath:  path,
		Duration:      elapsed,
		CreatedAt:     o.now().UTC(),
	}

	var stageErr *StageError
	if failure != nil && errors.As(failure, &stageErr) {
		rec.FailedStage = stageErr.Stage
		rec.FailureKind = string(stageErr.Kind)
	}

	if err := o.ledger.Record(rec); err != nil {
		o.log.Warn().Err(err).Msg("Failed to record run in ledger")
	}
}
