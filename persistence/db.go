// Package persistence records simulation runs and squim deaths in SQLite.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/squim/telemetry"
)

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Run is one row of the runs table.
type Run struct {
	ID        string    `db:"id"`
	Seed      int64     `db:"seed"`
	Squims    int       `db:"squims"`
	Config    string    `db:"config_yaml"`
	StartedAt time.Time `db:"started_at"`
	EndTick   int64     `db:"end_tick"`
	Finished  bool      `db:"finished"`
}

// Death is one row of the deaths table.
type Death struct {
	RunID           string  `db:"run_id"`
	Tick            int64   `db:"tick"`
	SquimID         int64   `db:"squim_id"`
	Name            string  `db:"name"`
	Cause           string  `db:"cause"`
	SurvivalTimeSec float64 `db:"survival_sec"`
	FishEaten       int     `db:"fish_eaten"`
}

// Open opens or creates a SQLite database at the given path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps in-memory databases shared and serializes writes.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		squims INTEGER NOT NULL,
		config_yaml TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		end_tick INTEGER NOT NULL DEFAULT 0,
		finished INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS deaths (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		squim_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		cause TEXT NOT NULL,
		survival_sec REAL NOT NULL,
		fish_eaten INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		window_end INTEGER NOT NULL,
		squims INTEGER NOT NULL,
		fish INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		discontent_mean REAL NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE INDEX IF NOT EXISTS idx_deaths_run ON deaths(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun inserts a new run and returns its ID.
func (db *DB) StartRun(seed int64, squims int, configYAML string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, squims, config_yaml, started_at) VALUES (?, ?, ?, ?, ?)",
		id, seed, squims, configYAML, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run_started", "run_id", id, "seed", seed)
	return id, nil
}

// FinishRun marks a run as finished at the given tick.
func (db *DB) FinishRun(runID string, tick int32) error {
	_, err := db.conn.Exec("UPDATE runs SET end_tick = ?, finished = 1 WHERE id = ?", tick, runID)
	return err
}

// SaveDeath records a squim death.
func (db *DB) SaveDeath(runID string, d telemetry.DeathRecord) error {
	_, err := db.conn.Exec(`INSERT INTO deaths
		(run_id, tick, squim_id, name, cause, survival_sec, fish_eaten)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, d.Tick, d.SquimID, d.Name, d.Cause, d.SurvivalTimeSec, d.FishEaten,
	)
	if err != nil {
		return fmt.Errorf("insert death %d: %w", d.SquimID, err)
	}
	return nil
}

// SaveWindow records a summary of a telemetry window.
func (db *DB) SaveWindow(runID string, s telemetry.WindowStats) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO windows
		(run_id, window_end, squims, fish, deaths, discontent_mean)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, s.WindowEndTick, s.Squims, s.Fish, s.Deaths(), s.DiscontentMean,
	)
	return err
}

// GetRun returns a run by ID.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, seed, squims, config_yaml, started_at, end_tick, finished FROM runs WHERE id = ?", runID)
	return r, err
}

// Runs returns every recorded run, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, squims, config_yaml, started_at, end_tick, finished FROM runs ORDER BY started_at, id")
	return runs, err
}

// Deaths returns the deaths of a run in tick order.
func (db *DB) Deaths(runID string) ([]Death, error) {
	var deaths []Death
	err := db.conn.Select(&deaths,
		"SELECT run_id, tick, squim_id, name, cause, survival_sec, fish_eaten FROM deaths WHERE run_id = ? ORDER BY tick, id",
		runID,
	)
	return deaths, err
}

// DeathsByCause counts deaths of a run grouped by cause.
func (db *DB) DeathsByCause(runID string) (map[string]int, error) {
	var rows []struct {
		Cause string `db:"cause"`
		N     int    `db:"n"`
	}
	err := db.conn.Select(&rows, "SELECT cause, COUNT(*) AS n FROM deaths WHERE run_id = ? GROUP BY cause", runID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Cause] = r.N
	}
	return out, nil
}
