package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"btracker/internal/model"
)

// SQLiteRecorder keeps run history, yearly rollups and histogram counts in a
// SQLite database file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

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
		`CREATE TABLE IF NOT EXISTS runs (
			run_id          TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			source          TEXT,
			observations    INTEGER,
			newest_date     TEXT,
			oldest_date     TEXT,
			latest_close    REAL,
			latest_wma      REAL,
			change_1d_pct   REAL,
			change_200w_pct REAL,
			non_finite      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS yearly_summaries (
			run_id       TEXT NOT NULL,
			year         INTEGER NOT NULL,
			open         REAL,
			high         REAL,
			low          REAL,
			close        REAL,
			volume       REAL,
			trading_days INTEGER,
			PRIMARY KEY (run_id, year)
		)`,

		`CREATE TABLE IF NOT EXISTS histogram_bins (
			run_id   TEXT NOT NULL,
			position INTEGER NOT NULL,
			label    TEXT,
			count    INTEGER,
			PRIMARY KEY (run_id, position)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores one run in a single transaction.
func (r *SQLiteRecorder) RecordRun(res *model.Result, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	latest := res.Latest()
	oldest := res.Rows[len(res.Rows)-1]
	if _, err := tx.Exec(`INSERT INTO runs
		(run_id, timestamp, source, observations, newest_date, oldest_date,
		 latest_close, latest_wma, change_1d_pct, change_200w_pct, non_finite)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		res.RunID, res.GeneratedAt.Unix(), source, len(res.Rows),
		latest.Date.Format("2006-01-02"), oldest.Date.Format("2006-01-02"),
		latest.Close, latest.MA.Close,
		nullable(latest.Change.PercentChange1D), nullable(latest.Change.PercentChange200W),
		res.NonFinite,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, y := range res.Yearly {
		if _, err := tx.Exec(`INSERT INTO yearly_summaries
			(run_id, year, open, high, low, close, volume, trading_days)
			VALUES (?,?,?,?,?,?,?,?)`,
			res.RunID, y.Year, optional(y.Open), optional(y.High), optional(y.Low), optional(y.Close),
			y.Volume, y.TradingDays,
		); err != nil {
			return fmt.Errorf("insert year %d: %w", y.Year, err)
		}
	}

	for i, b := range res.Histogram.Bins {
		if _, err := tx.Exec(`INSERT INTO histogram_bins (run_id, position, label, count) VALUES (?,?,?,?)`,
			res.RunID, i, b.Label, b.Count,
		); err != nil {
			return fmt.Errorf("insert bin %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// optional maps a missing value to SQL NULL.
func optional(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return nullable(*v)
}

// nullable maps NaN and infinities, which SQLite REAL cannot hold, to NULL.
func nullable(v float64) sql.NullFloat64 {
	if !model.IsFinite(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
