package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one completed (or paused-out) timer run.
type Run struct {
	ID           int64
	Name         string
	CountDown    bool
	InitialValue float64
	FinalValue   float64
	Ticks        int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Database is a SQLite-backed run-history store.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (creating if needed) the history database at path.
func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	database := &Database{db: db}
	if err := database.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

func (d *Database) initTables() error {
	_, err := d.db.Exec(`
        CREATE TABLE IF NOT EXISTS runs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            count_down INTEGER NOT NULL,
            initial_value REAL NOT NULL,
            final_value REAL NOT NULL,
            ticks INTEGER NOT NULL,
            started_at DATETIME NOT NULL,
            finished_at DATETIME NOT NULL
        )
    `)
	return err
}

// SaveRun inserts one run record and fills in its assigned ID.
func (d *Database) SaveRun(run *Run) error {
	result, err := d.db.Exec(`
        INSERT INTO runs (name, count_down, initial_value, final_value, ticks, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, run.Name, run.CountDown, run.InitialValue, run.FinalValue, run.Ticks, run.StartedAt, run.FinishedAt)
	if err != nil {
		return err
	}
	run.ID, err = result.LastInsertId()
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (d *Database) RecentRuns(limit int) ([]*Run, error) {
	rows, err := d.db.Query(`
        SELECT id, name, count_down, initial_value, final_value, ticks, started_at, finished_at
        FROM runs
        ORDER BY finished_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(&run.ID, &run.Name, &run.CountDown, &run.InitialValue,
			&run.FinalValue, &run.Ticks, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the underlying database handle.
func (d *Database) Close() error {
	return d.db.Close()
}
