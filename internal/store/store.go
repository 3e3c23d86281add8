// Package store persists run records and per-device aggregate snapshots.
// Individual readings are never stored; only rollups leave the process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for runs and device stats.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            run_id TEXT PRIMARY KEY,
            started_at TIMESTAMP,
            stopped_at TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS device_stats (
            run_id TEXT,
            device_id TEXT,
            kind TEXT,
            readings INTEGER,
            faults INTEGER,
            min_value REAL,
            max_value REAL,
            avg_value REAL,
            updated_at TIMESTAMP,
            PRIMARY KEY (run_id, device_id)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// DeviceStats is one aggregate row for a device within a run.
type DeviceStats struct {
	RunID     string    `json:"run_id"`
	DeviceID  string    `json:"device_id"`
	Kind      string    `json:"kind"`
	Readings  int64     `json:"readings"`
	Faults    int64     `json:"faults"`
	MinValue  float64   `json:"min_value"`
	MaxValue  float64   `json:"max_value"`
	AvgValue  float64   `json:"avg_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StartRun records the beginning of a run.
func (s *Store) StartRun(ctx context.Context, runID string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs(run_id, started_at) VALUES(?, ?)
        ON CONFLICT(run_id) DO UPDATE SET started_at=excluded.started_at`, runID, ts)
	return err
}

// FinishRun marks a run as stopped.
func (s *Store) FinishRun(ctx context.Context, runID string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET stopped_at=? WHERE run_id=?`, ts, runID)
	return err
}

// UpsertDeviceStats writes the current aggregate for one device.
func (s *Store) UpsertDeviceStats(ctx context.Context, st DeviceStats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO device_stats(run_id, device_id, kind, readings, faults, min_value, max_value, avg_value, updated_at)
        VALUES(?,?,?,?,?,?,?,?,?)
        ON CONFLICT(run_id, device_id) DO UPDATE SET readings=excluded.readings, faults=excluded.faults,
            min_value=excluded.min_value, max_value=excluded.max_value, avg_value=excluded.avg_value, updated_at=excluded.updated_at`,
		st.RunID, st.DeviceID, st.Kind, st.Readings, st.Faults, st.MinValue, st.MaxValue, st.AvgValue, st.UpdatedAt)
	return err
}

// ListDeviceStats returns aggregates for one run, most active devices first.
func (s *Store) ListDeviceStats(ctx context.Context, runID string) ([]DeviceStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, device_id, kind, readings, faults, min_value, max_value, avg_value, updated_at
        FROM device_stats WHERE run_id=? ORDER BY readings DESC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []DeviceStats
	for rows.Next() {
		var st DeviceStats
		if err := rows.Scan(&st.RunID, &st.DeviceID, &st.Kind, &st.Readings, &st.Faults, &st.MinValue, &st.MaxValue, &st.AvgValue, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Health returns err if DB not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
