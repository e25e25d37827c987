package snapshot

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Result is a completed stage invocation
type Result struct {
	Stage        string
	ArtifactPath string
	Duration     time.Duration
}

// Runner executes one scoring stage bound to a reference date.
// Implementations must classify failures via *StageError.
type Runner interface {
	Run(ctx context.Context, stage Stage, refDate time.Time) (Result, error)
}

// ExecRunner runs stages as isolated external processes. The reference date
// is substituted into arguments and the expected artifact path; stderr is
// captured for diagnostics only, never parsed.
type ExecRunner struct {
	workDir string
	log     zerolog.Logger
}

// NewExecRunner creates a process-based stage runner. workDir is the
// working directory for stage processes ("" for the current directory).
func NewExecRunner(workDir string, log zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		workDir: workDir,
		log:     log.With().Str("component", "stage_runner").Logger(),
	}
}

// Run executes the stage with its configured timeout and verifies the
// expected output artifact exists afterwards.
func (r *ExecRunner) Run(ctx context.Context, stage Stage, refDate time.Time) (Result, error) {
	date := refDate.Format("2006-01-02")

	args := make([]string, len(stage.Args))
	for i, arg := range stage.Args {
		args[i] = strings.ReplaceAll(arg, datePlaceholder, date)
	}
	artifact := strings.ReplaceAll(stage.OutputArtifact, datePlaceholder, date)

	runCtx, cancel := context.WithTimeout(ctx, stage.Timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, stage.Command, args...)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr

	r.log.Info().
		Str("stage", stage.Name).
		Str("reference_date", date).
		Dur("timeout", stage.Timeout()).
		Msg("Running stage")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		kind := FailureExecution
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			kind = FailureTimeout
		}
		return Result{}, &StageError{
			Stage:      stage.Name,
			Kind:       kind,
			Diagnostic: truncateDiagnostic(stderr.String()),
			Err:        err,
		}
	}

	// The stage reported success; the artifact must be present and non-empty.
	info, err := os.Stat(artifact)
	if err != nil || info.Size() == 0 {
		return Result{}, &StageError{
			Stage:      stage.Name,
			Kind:       FailureMissingArtifact,
			Diagnostic: truncateDiagnostic(stderr.String()),
			Err:        err,
		}
	}

	r.log.Info().
		Str("stage", stage.Name).
		Dur("duration", duration).
		Str("artifact", artifact).
		Msg("Stage completed")

	return Result{
		Stage:        stage.Name,
		ArtifactPath: artifact,
		Duration:     duration,
	}, nil
}
