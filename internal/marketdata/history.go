package marketdata

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// HistoryDB provides read access to per-symbol historical price databases.
// Each symbol lives in its own SQLite file under historyDir, written by the
// external data-acquisition pipeline.
type HistoryDB struct {
	historyDir string
	log        zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(historyDir string, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		historyDir: historyDir,
		log:        log.With().Str("component", "history_db").Logger(),
	}
}

// Candle represents a daily OHLC price point
type Candle struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// LatestClose returns the most recent closing price for a symbol
func (h *HistoryDB) LatestClose(symbol string) (float64, error) {
	db, err := h.openHistoryDB(symbol)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var closePrice float64
	query := `SELECT close_price FROM daily_prices ORDER BY date DESC LIMIT 1`

	if err := db.QueryRow(query).Scan(&closePrice); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("no price rows for %s", symbol)
		}
		return 0, fmt.Errorf("failed to query latest close for %s: %w", symbol, err)
	}

	if closePrice <= 0 {
		return 0, fmt.Errorf("non-positive close for %s: %v", symbol, closePrice)
	}

	return closePrice, nil
}

// DailyOHLC fetches up to limit daily candles for a symbol, oldest first,
// suitable for trailing-window indicators.
func (h *HistoryDB) DailyOHLC(symbol string, limit int) ([]Candle, error) {
	db, err := h.openHistoryDB(symbol)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT date, open_price, high_price, low_price, close_price
		FROM daily_prices
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var c Candle

		if err := rows.Scan(&c.Date, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Query returns newest first; reverse into ascending date order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	return candles, nil
}

// openHistoryDB opens the history database for a symbol
func (h *HistoryDB) openHistoryDB(symbol string) (*sql.DB, error) {
	// Convert symbol format: AAPL.US -> AAPL_US
	dbSymbol := strings.ReplaceAll(symbol, ".", "_")

	dbPath := filepath.Join(h.historyDir, dbSymbol+".db")

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no history database for %s: %w", symbol, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database for %s: %w", symbol, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database for %s: %w", symbol, err)
	}

	return db, nil
}
