package repeaters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IndexDocument is the serialized repeater index. It is a derived,
// rebuildable artifact: the raw scan history remains the source of truth.
type IndexDocument struct {
	GeneratedAt time.Time        `json:"generated_at"`
	ScanCount   int              `json:"scan_count"`
	FirstScan   string           `json:"first_scan,omitempty"`
	LastScan    string           `json:"last_scan,omitempty"`
	Repeaters   []RepeaterRecord `json:"repeaters"`
}

// SaveIndex analyzes (if needed) and serializes the full repeater index,
// including appearance history, to a timestamped document under outDir.
// Returns the written path.
func (s *Store) SaveIndex(outDir string) (string, error) {
	records, err := s.AnalyzeRepeaters()
	if err != nil {
		return "", err
	}

	doc := IndexDocument{
		GeneratedAt: time.Now().UTC(),
		ScanCount:   len(s.scans),
		Repeaters:   records,
	}
	if len(s.scans) > 0 {
		doc.FirstScan = s.scans[0].Date.Format("2006-01-02")
		doc.LastScan = s.scans[len(s.scans)-1].Date.Format("2006-01-02")
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create index directory: %w", err)
	}

	path := filepath.Join(outDir,
		fmt.Sprintf("repeater_index_%s.json", doc.GeneratedAt.Format("20060102_150405")))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal repeater index: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write repeater index: %w", err)
	}

	s.log.Info().
		Str("path", path).
		Int("repeaters", len(records)).
		Msg("Saved repeater index")

	return path, nil
}
