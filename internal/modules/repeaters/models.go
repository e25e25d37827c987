package repeaters

import "time"

// Layout identifies the physical layout of a historical scan artifact.
// Both layouts coexist in the scan history; the format is detected per
// artifact, never globally.
type Layout string

const (
	// LayoutFlatFile is a single dated JSON file, e.g. scan_2025-06-13.json
	LayoutFlatFile Layout = "flat_file"
	// LayoutDatedDir is a dated directory holding a canonical results.json
	LayoutDatedDir Layout = "dated_dir"
)

// Scan is one loaded historical pattern-detection artifact
type Scan struct {
	Date    time.Time
	Layout  Layout
	Source  string // artifact file name, kept for appearance provenance
	Symbols []string
	Rows    []map[string]interface{} // raw dataset rows
}

// Appearance is a single dated occurrence of a symbol in a scan
type Appearance struct {
	ScanDate string `json:"scan_date"`
	Source   string `json:"source"`
}

// RepeaterRecord describes a symbol that triggered the detection pattern
// in two or more independent scans. Zero-valued (IsRepeater=false) records
// are returned for unknown symbols.
type RepeaterRecord struct {
	Symbol           string       `json:"symbol"`
	IsRepeater       bool         `json:"is_repeater"`
	RepeatCount      int          `json:"repeat_count"`
	ConsistencyScore int          `json:"consistency_score"` // 0-50
	BonusPoints      int          `json:"bonus_points"`      // 0-15
	FirstSeen        string       `json:"first_seen,omitempty"`
	LastSeen         string       `json:"last_seen,omitempty"`
	Appearances      []Appearance `json:"appearances,omitempty"`
}
