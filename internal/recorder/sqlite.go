package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"SwingSentinel/internal/model"
)

// SQLiteRecorder persists signals and scan events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id            TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			timestamp     INTEGER NOT NULL,
			direction     TEXT NOT NULL,
			price         TEXT NOT NULL,
			trigger_level TEXT NOT NULL,
			swing_high    TEXT,
			swing_low     TEXT,
			high_date     TEXT,
			low_date      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS scans (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			trigger    TEXT,
			price      TEXT,
			status     TEXT,
			signal     TEXT,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(symbol string, sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := sig.Levels
	_, err := r.db.Exec(`INSERT INTO signals
		(id, symbol, timestamp, direction, price, trigger_level, swing_high, swing_low, high_date, low_date)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sig.ID, symbol, sig.Timestamp.UnixMilli(), string(sig.Direction),
		sig.Price.String(), sig.TriggerLevel.String(),
		l.High.String(), l.Low.String(), l.HighDate, l.LowDate,
	)
	return err
}

func (r *SQLiteRecorder) RecordScan(evt *ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := evt.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO scans
		(symbol, timestamp, trigger, price, status, signal, error)
		VALUES (?,?,?,?,?,?,?)`,
		evt.Symbol, ts.UnixMilli(), evt.Trigger, evt.Price, evt.Status, evt.Signal, evt.Error,
	)
	return err
}

// RecentSignals returns up to limit signals for symbol, oldest first.
func (r *SQLiteRecorder) RecentSignals(symbol string, limit int) ([]model.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, direction, price, trigger_level,
			swing_high, swing_low, high_date, low_date
		FROM signals WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		var (
			sig                            model.Signal
			ts                             int64
			dir, price, trigger, high, low string
		)
		if err := rows.Scan(&sig.ID, &ts, &dir, &price, &trigger, &high, &low,
			&sig.Levels.HighDate, &sig.Levels.LowDate); err != nil {
			return nil, err
		}
		sig.Timestamp = time.UnixMilli(ts)
		sig.Direction = model.Direction(dir)
		sig.Price, _ = decimal.NewFromString(price)
		sig.TriggerLevel, _ = decimal.NewFromString(trigger)
		sig.Levels.High, _ = decimal.NewFromString(high)
		sig.Levels.Low, _ = decimal.NewFromString(low)
		sig.Levels.HasHigh = sig.Levels.HighDate != ""
		sig.Levels.HasLow = sig.Levels.LowDate != ""
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
