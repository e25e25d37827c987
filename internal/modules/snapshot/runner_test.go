package snapshot

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stage runner tests use sh")
	}
}

func TestExecRunnerSuccess(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	artifact := filepath.Join(dir, "out_{date}.json")

	stage := Stage{
		Name:           "screener",
		Command:        "sh",
		Args:           []string{"-c", `echo '[{"symbol":"AAPL","date":"{date}"}]' > ` + artifact},
		TimeoutMinutes: 1,
		Required:       true,
		OutputArtifact: artifact,
	}

	runner := NewExecRunner("", zerolog.Nop())
	result, err := runner.Run(context.Background(), stage, refDate(t, "2025-06-13"))
	require.NoError(t, err)

	// The date placeholder is substituted in both args and artifact path.
	assert.Equal(t, filepath.Join(dir, "out_2025-06-13.json"), result.ArtifactPath)
	assert.FileExists(t, result.ArtifactPath)
}

func TestExecRunnerExecutionFailure(t *testing.T) {
	requireShell(t)

	stage := Stage{
		Name:           "screener",
		Command:        "sh",
		Args:           []string{"-c", "echo 'provider unreachable' >&2; exit 3"},
		TimeoutMinutes: 1,
		Required:       true,
		OutputArtifact: filepath.Join(t.TempDir(), "out.json"),
	}

	runner := NewExecRunner("", zerolog.Nop())
	_, err := runner.Run(context.Background(), stage, refDate(t, "2025-06-13"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, FailureExecution, stageErr.Kind)
	assert.Contains(t, stageErr.Diagnostic, "provider unreachable")
}

func TestExecRunnerMissingArtifact(t *testing.T) {
	requireShell(t)

	stage := Stage{
		Name:           "screener",
		Command:        "sh",
		Args:           []string{"-c", "true"},
		TimeoutMinutes: 1,
		Required:       true,
		OutputArtifact: filepath.Join(t.TempDir(), "never_written.json"),
	}

	runner := NewExecRunner("", zerolog.Nop())
	_, err := runner.Run(context.Background(), stage, refDate(t, "2025-06-13"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, FailureMissingArtifact, stageErr.Kind)
}

func TestExecRunnerTimeout(t *testing.T) {
	requireShell(t)

	stage := Stage{
		Name:           "screener",
		Command:        "sh",
		Args:           []string{"-c", "sleep 5"},
		TimeoutMinutes: 1,
		Required:       true,
		OutputArtifact: filepath.Join(t.TempDir(), "out.json"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	runner := NewExecRunner("", zerolog.Nop())
	_, err := runner.Run(ctx, stage, refDate(t, "2025-06-13"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, FailureTimeout, stageErr.Kind)
}

func TestTruncateDiagnostic(t *testing.T) {
	short := "tail of the log"
	assert.Equal(t, short, truncateDiagnostic(short))

	long := make([]byte, maxDiagnosticBytes*2)
	for i := range long {
		long[i] = 'x'
	}
	long = append(long, []byte("the actual error")...)

	got := truncateDiagnostic(string(long))
	assert.LessOrEqual(t, len(got), maxDiagnosticBytes+3)
	assert.Contains(t, got, "the actual error")
}
