package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// datePlaceholder is substituted with the reference date (YYYY-MM-DD) in
// stage arguments and artifact paths.
const datePlaceholder = "{date}"

// Stage configures one external scoring stage. Stages are isolated
// processes; they communicate only through filesystem artifacts.
type Stage struct {
	Name           string        `json:"name"`
	Command        string        `json:"command"`
	Args           []string      `json:"args"`
	TimeoutMinutes int           `json:"timeout_minutes"`
	Required       bool          `json:"required"`
	OutputArtifact string        `json:"output_artifact"`
}

// Timeout returns the stage timeout as a duration
func (s Stage) Timeout() time.Duration {
	return time.Duration(s.TimeoutMinutes) * time.Minute
}

// StageStatus records one stage's outcome in snapshot provenance
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageSkipped   StageStatus = "skipped"
	StageFailed    StageStatus = "failed"
)

// StageOutcome is one entry in a snapshot's provenance block
type StageOutcome struct {
	Name     string      `json:"name"`
	Status   StageStatus `json:"status"`
	Required bool        `json:"required"`
	Duration string      `json:"duration,omitempty"`
}

// Document is the dated snapshot artifact. Data holds the final integrated
// dataset produced by the stage pipeline; the surrounding fields are
// provenance. Immutable once written; regenerating the same reference date
// replaces the file wholesale.
type Document struct {
	ReferenceDate string         `json:"reference_date"`
	GeneratedAt   time.Time      `json:"generated_at"`
	RunID         string         `json:"run_id"`
	Stages        []StageOutcome `json:"stages"`
	Data          json.RawMessage `json:"data"`
}

// LoadStages reads the ordered stage list from a JSON config file
func LoadStages(path string) ([]Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stages config: %w", err)
	}

	var stages []Stage
	if err := json.Unmarshal(data, &stages); err != nil {
		return nil, fmt.Errorf("failed to parse stages config: %w", err)
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("stages config %s defines no stages", path)
	}

	for i, stage := range stages {
		if stage.Name == "" || stage.Command == "" || stage.OutputArtifact == "" {
			return nil, fmt.Errorf("stage %d is missing name, command or output_artifact", i)
		}
		if stage.TimeoutMinutes <= 0 {
			return nil, fmt.Errorf("stage %s has no timeout", stage.Name)
		}
	}

	return stages, nil
}
