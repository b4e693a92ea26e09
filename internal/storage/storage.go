// Package storage implements the persistence collaborator: a whole-snapshot
// store the engine loads from at startup and saves to after each mutation.
//
// The engine itself never touches storage directly — saves are best-effort
// side activity, and a failed save never rolls back an in-memory mutation.
// Two backends exist: a local SQLite file for the single-user case and
// Postgres for hosted deployments. Both share the same snapshot semantics:
// Save replaces the persisted state atomically in one transaction.
package storage

import (
	"context"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Snapshot is the full persisted state of one engine instance.
type Snapshot struct {
	Profiles    map[model.Bucket]model.EnergyProfile
	Blocks      []model.TimeBlock
	Health      map[string][]model.HealthPoint
	Suggestions []model.Suggestion
}

// Empty returns a snapshot with initialized containers.
func Empty() *Snapshot {
	return &Snapshot{
		Profiles: make(map[model.Bucket]model.EnergyProfile),
		Health:   make(map[string][]model.HealthPoint),
	}
}

// Store persists and restores engine snapshots.
// Load on a fresh database returns an empty snapshot, not an error.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close(ctx context.Context) error
}
