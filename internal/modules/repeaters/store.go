package repeaters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	// canonicalDataFile is the data file expected inside dated directories
	canonicalDataFile = "results.json"

	maxConsistencyScore = 50
	recencyBonus        = 10
	maxBonusPoints      = 15
)

var datePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// Store scans historical pattern-detection artifacts and derives the
// repeater index. The index is a rebuildable cache over the raw scan
// history, never the source of truth.
type Store struct {
	scanDir string
	log     zerolog.Logger

	scans []Scan
	index map[string]RepeaterRecord
}

// NewStore creates a new pattern recurrence store
func NewStore(scanDir string, log zerolog.Logger) *Store {
	return &Store{
		scanDir: scanDir,
		log:     log.With().Str("component", "repeaters").Logger(),
	}
}

// LoadAllScans discovers historical scan artifacts under the scan directory,
// in both supported layouts, and returns them ordered by scan date ascending.
// Malformed artifacts are skipped with a warning; a single bad artifact never
// aborts the load.
func (s *Store) LoadAllScans() ([]Scan, error) {
	entries, err := os.ReadDir(s.scanDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan directory: %w", err)
	}

	var scans []Scan
	for _, entry := range entries {
		var (
			scan Scan
			err  error
		)

		if entry.IsDir() {
			scan, err = s.loadDatedDir(entry.Name())
		} else if filepath.Ext(entry.Name()) == ".json" {
			scan, err = s.loadFlatFile(entry.Name())
		} else {
			continue
		}

		if err != nil {
			s.log.Warn().
				Err(err).
				Str("artifact", entry.Name()).
				Msg("Skipping malformed scan artifact")
			continue
		}

		scans = append(scans, scan)
	}

	sort.Slice(scans, func(i, j int) bool {
		return scans[i].Date.Before(scans[j].Date)
	})

	s.scans = scans
	s.index = nil // force re-analysis over the fresh history

	s.log.Info().Int("scans", len(scans)).Msg("Loaded scan history")

	return scans, nil
}

// loadFlatFile loads a single dated JSON file, e.g. scan_2025-06-13.json
func (s *Store) loadFlatFile(name string) (Scan, error) {
	date, err := extractDate(name)
	if err != nil {
		return Scan{}, err
	}

	rows, symbols, err := readScanData(filepath.Join(s.scanDir, name))
	if err != nil {
		return Scan{}, err
	}

	return Scan{
		Date:    date,
		Layout:  LayoutFlatFile,
		Source:  name,
		Symbols: symbols,
		Rows:    rows,
	}, nil
}

// loadDatedDir loads a dated directory holding the canonical data file,
// e.g. 2025-06-13/results.json
func (s *Store) loadDatedDir(name string) (Scan, error) {
	date, err := extractDate(name)
	if err != nil {
		return Scan{}, err
	}

	rows, symbols, err := readScanData(filepath.Join(s.scanDir, name, canonicalDataFile))
	if err != nil {
		return Scan{}, err
	}

	return Scan{
		Date:    date,
		Layout:  LayoutDatedDir,
		Source:  filepath.Join(name, canonicalDataFile),
		Symbols: symbols,
		Rows:    rows,
	}, nil
}

// extractDate pulls the scan date out of an artifact name or path
func extractDate(name string) (time.Time, error) {
	match := datePattern.FindString(name)
	if match == "" {
		return time.Time{}, fmt.Errorf("no date in artifact name %q", name)
	}

	date, err := time.Parse("2006-01-02", match)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q in artifact name: %w", match, err)
	}

	return date, nil
}

// readScanData reads a scan dataset. The minimal schema is a JSON array of
// records each carrying a "symbol" field; a wrapper object with a "results"
// array is also accepted.
func readScanData(path string) (rows []map[string]interface{}, symbols []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read scan data: %w", err)
	}

	if err := json.Unmarshal(data, &rows); err != nil {
		var wrapper struct {
			Results []map[string]interface{} `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil || wrapper.Results == nil {
			return nil, nil, fmt.Errorf("unparseable scan data in %s", path)
		}
		rows = wrapper.Results
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		symbol, ok := row["symbol"].(string)
		if !ok || symbol == "" {
			continue
		}
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	if len(symbols) == 0 {
		return nil, nil, fmt.Errorf("no symbols in scan data %s", path)
	}

	sort.Strings(symbols)

	return rows, symbols, nil
}

// AnalyzeRepeaters builds a RepeaterRecord for every symbol present on two
// or more distinct scan dates. Scans are loaded on demand when LoadAllScans
// has not been called yet. Records are returned ordered by repeat count
// descending.
func (s *Store) AnalyzeRepeaters() ([]RepeaterRecord, error) {
	if s.scans == nil {
		if _, err := s.LoadAllScans(); err != nil {
			return nil, err
		}
	}

	// Both layouts may capture the same scan date (scan_2025-06-13.json and
	// 2025-06-13/results.json). A symbol counts once per distinct date.
	appearances := make(map[string][]Appearance)
	seenDates := make(map[string]map[string]bool)
	for _, scan := range s.scans {
		date := scan.Date.Format("2006-01-02")
		for _, symbol := range scan.Symbols {
			if seenDates[symbol] == nil {
				seenDates[symbol] = make(map[string]bool)
			}
			if seenDates[symbol][date] {
				continue
			}
			seenDates[symbol][date] = true
			appearances[symbol] = append(appearances[symbol], Appearance{
				ScanDate: date,
				Source:   scan.Source,
			})
		}
	}

	var latestDate string
	if len(s.scans) > 0 {
		latestDate = s.scans[len(s.scans)-1].Date.Format("2006-01-02")
	}

	s.index = make(map[string]RepeaterRecord)
	var records []RepeaterRecord

	for symbol, appeared := range appearances {
		count := len(appeared)
		if count < 2 {
			continue
		}

		lastSeen := appeared[count-1].ScanDate

		score := count * 10
		if lastSeen == latestDate {
			score += recencyBonus
		}
		if score > maxConsistencyScore {
			score = maxConsistencyScore
		}

		bonus := count * 3
		if bonus > maxBonusPoints {
			bonus = maxBonusPoints
		}

		record := RepeaterRecord{
			Symbol:           symbol,
			IsRepeater:       true,
			RepeatCount:      count,
			ConsistencyScore: score,
			BonusPoints:      bonus,
			FirstSeen:        appeared[0].ScanDate,
			LastSeen:         lastSeen,
			Appearances:      appeared,
		}

		s.index[symbol] = record
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].RepeatCount != records[j].RepeatCount {
			return records[i].RepeatCount > records[j].RepeatCount
		}
		return records[i].Symbol < records[j].Symbol
	})

	s.log.Info().
		Int("symbols", len(appearances)).
		Int("repeaters", len(records)).
		Msg("Analyzed repeaters")

	return records, nil
}

// RepeaterBonus is a pure per-symbol lookup into the analyzed index.
// Unknown symbols get a zero-valued record; the call never rebuilds the
// index, so it is safe to use inline during position sizing.
func (s *Store) RepeaterBonus(symbol string) RepeaterRecord {
	if record, ok := s.index[symbol]; ok {
		return record
	}

	return RepeaterRecord{Symbol: symbol}
}
