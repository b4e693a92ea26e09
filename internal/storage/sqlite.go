package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hibiki-app/hibiki/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS energy_profiles (
	hour        INTEGER NOT NULL,
	day         INTEGER NOT NULL,
	average     REAL    NOT NULL,
	sample_size INTEGER NOT NULL,
	PRIMARY KEY (hour, day)
);
CREATE TABLE IF NOT EXISTS time_blocks (
	id                TEXT PRIMARY KEY,
	pillar_id         TEXT NOT NULL,
	title             TEXT NOT NULL,
	start_time        TEXT NOT NULL,
	end_time          TEXT NOT NULL,
	energy_required   TEXT NOT NULL,
	status            TEXT NOT NULL,
	actual_start_time TEXT,
	completed_at      TEXT,
	notes             TEXT,
	created_at        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS health_history (
	pillar_id TEXT NOT NULL,
	score     REAL NOT NULL,
	ts        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_history_pillar ON health_history (pillar_id, ts);
CREATE TABLE IF NOT EXISTS suggestions (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	confidence   REAL NOT NULL,
	action_data  TEXT NOT NULL,
	dismissed    INTEGER NOT NULL,
	dismissed_at TEXT,
	created_at   TEXT NOT NULL,
	signature    TEXT NOT NULL
);
`

// SQLiteStore is the local single-file snapshot store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (and bootstraps) a SQLite snapshot store at path.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	// The store is accessed from one saver goroutine at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: bootstrap schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load reads the full snapshot. A fresh database yields an empty snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := Empty()

	rows, err := s.db.QueryContext(ctx, `SELECT hour, day, average, sample_size FROM energy_profiles`)
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

	if err := s.loadBlocks(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadHealth(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadSuggestions(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStore) loadBlocks(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pillar_id, title, start_time, end_time, energy_required,
		       status, actual_start_time, completed_at, notes, created_at
		FROM time_blocks ORDER BY start_time, id`)
	if err != nil {
		return fmt.Errorf("storage: load blocks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			b                          model.TimeBlock
			id, start, end, created    string
			energy, status             string
			actualStart, completed, ns sql.NullString
		)
		if err := rows.Scan(&id, &b.PillarID, &b.Title, &start, &end, &energy,
			&status, &actualStart, &completed, &ns, &created); err != nil {
			return fmt.Errorf("storage: scan block: %w", err)
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("storage: block id: %w", err)
		}
		if b.StartTime, err = parseTime(start); err != nil {
			return err
		}
		if b.EndTime, err = parseTime(end); err != nil {
			return err
		}
		if b.CreatedAt, err = parseTime(created); err != nil {
			return err
		}
		if b.ActualStartTime, err = parseNullTime(actualStart); err != nil {
			return err
		}
		if b.CompletedAt, err = parseNullTime(completed); err != nil {
			return err
		}
		if ns.Valid {
			notes := ns.String
			b.Notes = &notes
		}
		b.EnergyRequired = model.EnergyLevel(energy)
		b.Status = model.BlockStatus(status)
		snap.Blocks = append(snap.Blocks, b)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadHealth(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pillar_id, score, ts FROM health_history ORDER BY pillar_id, ts`)
	if err != nil {
		return fmt.Errorf("storage: load health: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pillarID, ts string
		var score float64
		if err := rows.Scan(&pillarID, &score, &ts); err != nil {
			return fmt.Errorf("storage: scan health: %w", err)
		}
		at, err := parseTime(ts)
		if err != nil {
			return err
		}
		snap.Health[pillarID] = append(snap.Health[pillarID], model.HealthPoint{Score: score, Timestamp: at})
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSuggestions(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, title, description, confidence, action_data,
		       dismissed, dismissed_at, created_at, signature
		FROM suggestions ORDER BY created_at, id`)
	if err != nil {
		return fmt.Errorf("storage: load suggestions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sg                  model.Suggestion
			id, action, created string
			typ                 string
			dismissed           int
			dismissedAt         sql.NullString
		)
		if err := rows.Scan(&id, &typ, &sg.Title, &sg.Description, &sg.Confidence,
			&action, &dismissed, &dismissedAt, &created, &sg.Signature); err != nil {
			return fmt.Errorf("storage: scan suggestion: %w", err)
		}
		var err error
		if sg.ID, err = uuid.Parse(id); err != nil {
			return fmt.Errorf("storage: suggestion id: %w", err)
		}
		if sg.CreatedAt, err = parseTime(created); err != nil {
			return err
		}
		if sg.DismissedAt, err = parseNullTime(dismissedAt); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(action), &sg.ActionData); err != nil {
			return fmt.Errorf("storage: suggestion action data: %w", err)
		}
		sg.Type = model.SuggestionType(typ)
		sg.Dismissed = dismissed != 0
		snap.Suggestions = append(snap.Suggestions, sg)
	}
	return rows.Err()
}

// Save replaces the persisted snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"energy_profiles", "time_blocks", "health_history", "suggestions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("storage: clear %s: %w", table, err)
		}
	}

	for b, p := range snap.Profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO energy_profiles (hour, day, average, sample_size) VALUES (?, ?, ?, ?)`,
			b.Hour, b.Day, p.Average, p.SampleSize); err != nil {
			return fmt.Errorf("storage: save profile: %w", err)
		}
	}

	for _, b := range snap.Blocks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO time_blocks (id, pillar_id, title, start_time, end_time,
				energy_required, status, actual_start_time, completed_at, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID.String(), b.PillarID, b.Title,
			formatTime(b.StartTime), formatTime(b.EndTime),
			string(b.EnergyRequired), string(b.Status),
			formatNullTime(b.ActualStartTime), formatNullTime(b.CompletedAt),
			nullString(b.Notes), formatTime(b.CreatedAt)); err != nil {
			return fmt.Errorf("storage: save block: %w", err)
		}
	}

	for pillarID, points := range snap.Health {
		for _, p := range points {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO health_history (pillar_id, score, ts) VALUES (?, ?, ?)`,
				pillarID, p.Score, formatTime(p.Timestamp)); err != nil {
				return fmt.Errorf("storage: save health: %w", err)
			}
		}
	}

	for _, sg := range snap.Suggestions {
		action, err := json.Marshal(sg.ActionData)
		if err != nil {
			return fmt.Errorf("storage: marshal action data: %w", err)
		}
		dismissed := 0
		if sg.Dismissed {
			dismissed = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO suggestions (id, type, title, description, confidence,
				action_data, dismissed, dismissed_at, created_at, signature)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sg.ID.String(), string(sg.Type), sg.Title, sg.Description, sg.Confidence,
			string(action), dismissed, formatNullTime(sg.DismissedAt),
			formatTime(sg.CreatedAt), sg.Signature); err != nil {
			return fmt.Errorf("storage: save suggestion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit save: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
