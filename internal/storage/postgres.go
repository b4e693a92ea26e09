package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hibiki-app/hibiki/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS energy_profiles (
	hour        INT NOT NULL,
	day         INT NOT NULL,
	average     DOUBLE PRECISION NOT NULL,
	sample_size INT NOT NULL,
	PRIMARY KEY (hour, day)
);
CREATE TABLE IF NOT EXISTS time_blocks (
	id                UUID PRIMARY KEY,
	pillar_id         TEXT NOT NULL,
	title             TEXT NOT NULL,
	start_time        TIMESTAMPTZ NOT NULL,
	end_time          TIMESTAMPTZ NOT NULL,
	energy_required   TEXT NOT NULL,
	status            TEXT NOT NULL,
	actual_start_time TIMESTAMPTZ,
	completed_at      TIMESTAMPTZ,
	notes             TEXT,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS health_history (
	pillar_id TEXT NOT NULL,
	score     DOUBLE PRECISION NOT NULL,
	ts        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_history_pillar ON health_history (pillar_id, ts);
CREATE TABLE IF NOT EXISTS suggestions (
	id           UUID PRIMARY KEY,
	type         TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	action_data  JSONB NOT NULL,
	dismissed    BOOLEAN NOT NULL,
	dismissed_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL,
	signature    TEXT NOT NULL
);
`

// PostgresStore is the hosted-deployment snapshot store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects a pgx pool to dsn and bootstraps the schema.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: bootstrap schema: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Load reads the full snapshot. A fresh database yields an empty snapshot.
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := Empty()

	rows, err := s.pool.Query(ctx, `SELECT hour, day, average, sample_size FROM energy_profiles`)
	if err != nil {
		return nil, fmt.Errorf("storage: load profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b model.Bucket
		var p model.EnergyProfile
		if err := rows.Scan(&b.Hour, &b.Day, &p.Average, &p.SampleSize); err != nil {
			return nil, fmt.Errorf("storage: scan profile: %w", err)
		}
		snap.Profiles[b] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load profiles: %w", err)
	}
	rows.Close()

	blockRows, err := s.pool.Query(ctx, `
		SELECT id, pillar_id, title, start_time, end_time, energy_required,
		       status, actual_start_time, completed_at, notes, created_at
		FROM time_blocks ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("storage: load blocks: %w", err)
	}
	defer blockRows.Close()
	for blockRows.Next() {
		var b model.TimeBlock
		var energy, status string
		if err := blockRows.Scan(&b.ID, &b.PillarID, &b.Title, &b.StartTime, &b.EndTime,
			&energy, &status, &b.ActualStartTime, &b.CompletedAt, &b.Notes, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan block: %w", err)
		}
		b.EnergyRequired = model.EnergyLevel(energy)
		b.Status = model.BlockStatus(status)
		snap.Blocks = append(snap.Blocks, b)
	}
	if err := blockRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load blocks: %w", err)
	}

	healthRows, err := s.pool.Query(ctx,
		`SELECT pillar_id, score, ts FROM health_history ORDER BY pillar_id, ts`)
	if err != nil {
		return nil, fmt.Errorf("storage: load health: %w", err)
	}
	defer healthRows.Close()
	for healthRows.Next() {
		var pillarID string
		var p model.HealthPoint
		if err := healthRows.Scan(&pillarID, &p.Score, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("storage: scan health: %w", err)
		}
		snap.Health[pillarID] = append(snap.Health[pillarID], p)
	}
	if err := healthRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load health: %w", err)
	}

	sgRows, err := s.pool.Query(ctx, `
		SELECT id, type, title, description, confidence, action_data,
		       dismissed, dismissed_at, created_at, signature
		FROM suggestions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("storage: load suggestions: %w", err)
	}
	defer sgRows.Close()
	for sgRows.Next() {
		var sg model.Suggestion
		var typ string
		var action []byte
		if err := sgRows.Scan(&sg.ID, &typ, &sg.Title, &sg.Description, &sg.Confidence,
			&action, &sg.Dismissed, &sg.DismissedAt, &sg.CreatedAt, &sg.Signature); err != nil {
			return nil, fmt.Errorf("storage: scan suggestion: %w", err)
		}
		if err := json.Unmarshal(action, &sg.ActionData); err != nil {
			return nil, fmt.Errorf("storage: suggestion action data: %w", err)
		}
		sg.Type = model.SuggestionType(typ)
		snap.Suggestions = append(snap.Suggestions, sg)
	}
	if err := sgRows.Err(); err != nil {
		return nil, fmt.Errorf("storage: load suggestions: %w", err)
	}

	return snap, nil
}

// Save replaces the persisted snapshot in one transaction.
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("storage: begin save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"energy_profiles", "time_blocks", "health_history", "suggestions"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("storage: clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for b, p := range snap.Profiles {
		batch.Queue(
			`INSERT INTO energy_profiles (hour, day, average, sample_size) VALUES ($1, $2, $3, $4)`,
			b.Hour, b.Day, p.Average, p.SampleSize)
	}
	for _, b := range snap.Blocks {
		batch.Queue(`
			INSERT INTO time_blocks (id, pillar_id, title, start_time, end_time,
				energy_required, status, actual_start_time, completed_at, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			b.ID, b.PillarID, b.Title, b.StartTime, b.EndTime,
			string(b.EnergyRequired), string(b.Status),
			b.ActualStartTime, b.CompletedAt, b.Notes, b.CreatedAt)
	}
	for pillarID, points := range snap.Health {
		for _, p := range points {
			batch.Queue(
				`INSERT INTO health_history (pillar_id, score, ts) VALUES ($1, $2, $3)`,
				pillarID, p.Score, p.Timestamp)
		}
	}
	for _, sg := range snap.Suggestions {
		action, err := json.Marshal(sg.ActionData)
		if err != nil {
			return fmt.Errorf("storage: marshal action data: %w", err)
		}
		batch.Queue(`
			INSERT INTO suggestions (id, type, title, description, confidence,
				action_data, dismissed, dismissed_at, created_at, signature)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			sg.ID, string(sg.Type), sg.Title, sg.Description, sg.Confidence,
			action, sg.Dismissed, sg.DismissedAt, sg.CreatedAt, sg.Signature)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("storage: save batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit save: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
