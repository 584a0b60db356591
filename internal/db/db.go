// Package db persists simulation runs in SQLite: one row per run, the
// per-step flow/speed series, and the steady-state summary. The schema
// is managed by golang-migrate; EnsureSchema applies the same base
// schema directly for ephemeral databases in tests.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trafficsim/internal/nasch"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite store at path. Run MigrateUp or
// EnsureSchema before using the store.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{db}, nil
}

// EnsureSchema applies the base schema without the migration machinery.
// It mirrors migration 0001 and exists for throwaway test databases;
// long-lived stores should use MigrateUp so versioning works.
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			road_length       BIGINT NOT NULL,
			density           DOUBLE NOT NULL,
			max_speed         BIGINT NOT NULL,
			brake_prob        DOUBLE NOT NULL,
			random_seed       BIGINT,
			steps             BIGINT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS run_steps (
			run_id            TEXT NOT NULL,
			step              BIGINT NOT NULL,
			flow              DOUBLE NOT NULL,
			mean_speed        DOUBLE NOT NULL,
			PRIMARY KEY (run_id, step),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS run_snapshots (
			run_id            TEXT NOT NULL,
			step              BIGINT NOT NULL,
			positions         TEXT NOT NULL,
			speeds            TEXT NOT NULL,
			PRIMARY KEY (run_id, step),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS run_summaries (
			run_id            TEXT PRIMARY KEY,
			mean_flow         DOUBLE NOT NULL,
			mean_speed        DOUBLE NOT NULL,
			flow_std          DOUBLE NOT NULL,
			speed_std         DOUBLE NOT NULL,
			flow_efficiency   DOUBLE NOT NULL,
			speed_efficiency  DOUBLE NOT NULL,
			theoretical_max_flow DOUBLE NOT NULL,
			warmup_steps      BIGINT NOT NULL,
			sampled_steps     BIGINT NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	return err
}

// Run is one persisted simulation run.
type Run struct {
	ID         string    `json:"run_id"`
	RoadLength int       `json:"road_length"`
	Density    float64   `json:"density"`
	MaxSpeed   int       `json:"max_speed"`
	BrakeProb  float64   `json:"brake_prob"`
	Seed       *int64    `json:"random_seed,omitempty"`
	Steps      int       `json:"steps"`
	CreatedAt  time.Time `json:"created_at"`
}

// StepMetrics is one row of a run's per-step series.
type StepMetrics struct {
	Step      int     `json:"step"`
	Flow      float64 `json:"flow"`
	MeanSpeed float64 `json:"mean_speed"`
}

// InsertRun records a run's parameters and returns its generated ID.
func (db *DB) InsertRun(cfg nasch.Config) (string, error) {
	id := uuid.NewString()
	var seed interface{}
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	_, err := db.Exec(
		"INSERT INTO runs (run_id, road_length, density, max_speed, brake_prob, random_seed, steps) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, cfg.RoadLength, cfg.Density, cfg.MaxSpeed, cfg.BrakeProb, seed, cfg.Steps,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordSeries stores a run's whole per-step flow/speed series in one
// transaction.
func (db *DB) RecordSeries(runID string, h nasch.History) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO run_steps (run_id, step, flow, mean_speed) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare step insert: %w", err)
	}
	defer stmt.Close()

	flows := h.FlowSeries()
	speeds := h.SpeedSeries()
	for i := range flows {
		if _, err := stmt.Exec(runID, i, flows[i], speeds[i]); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecordHistory stores every snapshot of a run so the space-time
// history can be rebuilt later. Positions and speeds are stored as JSON
// arrays, one row per step, in one transaction.
func (db *DB) RecordHistory(runID string, h nasch.History) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO run_snapshots (run_id, step, positions, speeds) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, snap := range h.Snapshots {
		positions, err := json.Marshal(snap.Positions)
		if err != nil {
			return fmt.Errorf("failed to encode positions at step %d: %w", i, err)
		}
		speeds, err := json.Marshal(snap.Speeds)
		if err != nil {
			return fmt.Errorf("failed to encode speeds at step %d: %w", i, err)
		}
		if _, err := stmt.Exec(runID, i, string(positions), string(speeds)); err != nil {
			return fmt.Errorf("failed to insert snapshot %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetHistory rebuilds a run's recorded history from stored snapshots.
func (db *DB) GetHistory(runID string) (nasch.History, error) {
	run, err := db.GetRun(runID)
	if err != nil {
		return nasch.History{}, err
	}

	rows, err := db.Query(
		"SELECT positions, speeds FROM run_snapshots WHERE run_id = ? ORDER BY step",
		runID,
	)
	if err != nil {
		return nasch.History{}, err
	}
	defer rows.Close()

	h := nasch.History{RoadLength: run.RoadLength}
	for rows.Next() {
		var positions, speeds string
		if err := rows.Scan(&positions, &speeds); err != nil {
			return nasch.History{}, err
		}
		var snap nasch.Snapshot
		if err := json.Unmarshal([]byte(positions), &snap.Positions); err != nil {
			return nasch.History{}, fmt.Errorf("failed to decode positions: %w", err)
		}
		if err := json.Unmarshal([]byte(speeds), &snap.Speeds); err != nil {
			return nasch.History{}, fmt.Errorf("failed to decode speeds: %w", err)
		}
		h.Snapshots = append(h.Snapshots, snap)
	}
	return h, rows.Err()
}

// RecordSummary stores a run's steady-state summary.
func (db *DB) RecordSummary(runID string, s nasch.Summary) error {
	_, err := db.Exec(`
		INSERT INTO run_summaries (
			run_id, mean_flow, mean_speed, flow_std, speed_std,
			flow_efficiency, speed_efficiency, theoretical_max_flow,
			warmup_steps, sampled_steps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.MeanFlow, s.MeanSpeed, s.FlowStd, s.SpeedStd,
		s.FlowEfficiency, s.SpeedEfficiency, s.TheoreticalMaxFlow,
		s.WarmupSteps, s.SampledSteps,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		"SELECT run_id, road_length, density, max_speed, brake_prob, random_seed, steps, created_at FROM runs ORDER BY created_at DESC, run_id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var seed sql.NullInt64
		if err := rows.Scan(&r.ID, &r.RoadLength, &r.Density, &r.MaxSpeed, &r.BrakeProb, &seed, &r.Steps, &r.CreatedAt); err != nil {
			return nil, err
		}
		if seed.Valid {
			s := seed.Int64
			r.Seed = &s
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID, or sql.ErrNoRows.
func (db *DB) GetRun(runID string) (Run, error) {
	var r Run
	var seed sql.NullInt64
	err := db.QueryRow(
		"SELECT run_id, road_length, density, max_speed, brake_prob, random_seed, steps, created_at FROM runs WHERE run_id = ?",
		runID,
	).Scan(&r.ID, &r.RoadLength, &r.Density, &r.MaxSpeed, &r.BrakeProb, &seed, &r.Steps, &r.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	if seed.Valid {
		s := seed.Int64
		r.Seed = &s
	}
	return r, nil
}

// GetSummary returns a run's stored summary, or sql.ErrNoRows.
func (db *DB) GetSummary(runID string) (nasch.Summary, error) {
	var s nasch.Summary
	err := db.QueryRow(`
		SELECT mean_flow, mean_speed, flow_std, speed_std,
		       flow_efficiency, speed_efficiency, theoretical_max_flow,
		       warmup_steps, sampled_steps
		FROM run_summaries WHERE run_id = ?`, runID,
	).Scan(&s.MeanFlow, &s.MeanSpeed, &s.FlowStd, &s.SpeedStd,
		&s.FlowEfficiency, &s.SpeedEfficiency, &s.TheoreticalMaxFlow,
		&s.WarmupSteps, &s.SampledSteps)
	if err != nil {
		return nasch.Summary{}, err
	}
	return s, nil
}

// GetSeries returns a run's per-step series in step order.
func (db *DB) GetSeries(runID string) ([]StepMetrics, error) {
	rows, err := db.Query(
		"SELECT step, flow, mean_speed FROM run_steps WHERE run_id = ? ORDER BY step",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []StepMetrics
	for rows.Next() {
		var m StepMetrics
		if err := rows.Scan(&m.Step, &m.Flow, &m.MeanSpeed); err != nil {
			return nil, err
		}
		series = append(series, m)
	}
	return series, rows.Err()
}
