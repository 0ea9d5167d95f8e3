package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"VCPSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists signal events and scan snapshots to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets report queries read while a scan writes.
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
		`CREATE TABLE IF NOT EXISTS signal_events (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			bar_date    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			price       REAL,
			description TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_bar ON signal_events(symbol, bar_date, kind)`,

		`CREATE TABLE IF NOT EXISTS scan_snapshots (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			run_id            TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			bar_date          TEXT,
			close             REAL,
			ready             INTEGER,
			stage2_pass       INTEGER,
			is_pattern        INTEGER,
			progress          REAL,
			contraction_count INTEGER,
			max_contraction   REAL,
			min_contraction   REAL,
			weeks             REAL,
			rs_rating         REAL,
			state             TEXT,
			error             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol ON scan_snapshots(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordEvent stores evt. Re-recording the same symbol, date and kind is a no-op.
func (r *SQLiteRecorder) RecordEvent(evt *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR IGNORE INTO signal_events
		(id, timestamp, bar_date, symbol, kind, price, description)
		VALUES (?,?,?,?,?,?,?)`,
		evt.ID, time.Now().Unix(), evt.Date.Format(dateLayout), evt.Symbol,
		string(evt.Kind), evt.Price, evt.Description,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *ScanSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var date string
	if !snap.Date.IsZero() {
		date = snap.Date.Format(dateLayout)
	}
	var rating sql.NullFloat64
	if snap.RSRating != nil {
		rating = sql.NullFloat64{Float64: *snap.RSRating, Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO scan_snapshots
		(timestamp, run_id, symbol, bar_date, close, ready, stage2_pass, is_pattern, progress,
		 contraction_count, max_contraction, min_contraction, weeks, rs_rating, state, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.RunID, snap.Symbol, date, snap.Close,
		snap.Ready, snap.Stage2Pass, snap.IsPattern, snap.Progress,
		snap.ContractionCount, snap.MaxContractionPct, snap.MinContractionPct, snap.WeeksOfContraction,
		rating, string(snap.State), snap.Error,
	)
	return err
}

// RecentEvents returns up to limit events, newest bar first.
func (r *SQLiteRecorder) RecentEvents(limit int) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, bar_date, symbol, kind, price, description
		FROM signal_events ORDER BY bar_date DESC, timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			e          model.Event
			date, kind string
		)
		if err := rows.Scan(&e.ID, &date, &e.Symbol, &kind, &e.Price, &e.Description); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", date, err)
		}
		e.Kind = model.EventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
