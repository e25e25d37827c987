package snapshot

import "fmt"

// FailureKind classifies why a scoring stage failed
type FailureKind string

const (
	// FailureTimeout - the stage ran past its configured timeout
	FailureTimeout FailureKind = "timeout"
	// FailureExecution - the stage exited non-zero or could not be started
	FailureExecution FailureKind = "execution"
	// FailureMissingArtifact - the stage reported success but its output
	// artifact is absent or unreadable
	FailureMissingArtifact FailureKind = "missing_artifact"
)

// maxDiagnosticBytes bounds the stage stderr carried on failures
const maxDiagnosticBytes = 2000

// StageError describes a fatal stage failure. For required stages it aborts
// the whole snapshot attempt for that reference date.
type StageError struct {
	Stage      string
	Kind       FailureKind
	Diagnostic string // truncated stderr
	Err        error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s failed (%s)", e.Stage, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// truncateDiagnostic caps captured stderr, keeping the tail where the
// actual failure message usually is.
func truncateDiagnostic(s string) string {
	if len(s) <= maxDiagnosticBytes {
		return s
	}
	return "..." + s[len(s)-maxDiagnosticBytes:]
}
