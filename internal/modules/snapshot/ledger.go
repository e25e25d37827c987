package snapshot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/pattern-trader/internal/database"
)

// RunRecord is one snapshot attempt in the run ledger
type RunRecord struct {
	ID            string
	ReferenceDate string
	Status        string // completed | failed
	FailedStage   string
	FailureKind   string
	SnapshotPath  string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Ledger persists snapshot attempts for later inspection. It is an
// operational record, not the source of truth for any snapshot data.
type Ledger struct {
	db  *database.DB
	log zerolog.Logger
}

// NewLedger creates a run ledger over the application database
func NewLedger(db *database.DB, log zerolog.Logger) *Ledger {
	return &Ledger{
		db:  db,
		log: log.With().Str("component", "run_ledger").Logger(),
	}
}

// Record inserts one run record
func (l *Ledger) Record(rec RunRecord) error {
	query := `
		INSERT INTO snapshot_runs
			(run_id, reference_date, status, failed_stage, failure_kind, snapshot_path, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(query,
		rec.ID,
		rec.ReferenceDate,
		rec.Status,
		rec.FailedStage,
		rec.FailureKind,
		rec.SnapshotPath,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}

	return nil
}

// Recent returns the most recent run records, newest first
func (l *Ledger) Recent(limit int) ([]RunRecord, error) {
	query := `
		SELECT run_id, reference_date, status, failed_stage, failure_kind, snapshot_path, duration_ms, created_at
		FROM snapshot_runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := l.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			durationMS int64
			createdAt  string
		)

		if err := rows.Scan(&rec.ID, &rec.ReferenceDate, &rec.Status, &rec.FailedStage,
			&rec.FailureKind, &rec.SnapshotPath, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}

		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = ts
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}

	return records, nil
}
