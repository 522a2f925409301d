// Package repository persists season totals, baselines and reconcile runs.
package repository

import (
	"context"

	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/model"
)

// SeasonStore holds per-player skater season totals.
type SeasonStore interface {
	// UpsertSeasons inserts or replaces the given seasons of a player.
	UpsertSeasons(ctx context.Context, playerID string, seasons []baseline.SeasonTotals) error
	// Seasons returns a player's seasons, most recent first. ErrNotFound when none exist.
	Seasons(ctx context.Context, playerID string) ([]baseline.SeasonTotals, error)
}

// BaselineStore holds built baseline payloads, one per player and snapshot day.
type BaselineStore interface {
	SaveBaseline(ctx context.Context, p baseline.Payload) error
	// LatestBaseline returns the payload with the most recent snapshot date.
	LatestBaseline(ctx context.Context, playerID string) (baseline.Payload, error)
}

// RunStore holds reconcile runs by id.
type RunStore interface {
	SaveRun(ctx context.Context, run model.ReconcileRun) error
	Run(ctx context.Context, runID string) (model.ReconcileRun, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	SeasonStore
	BaselineStore
	RunStore

	// Players returns the number of players with stored seasons.
	Players(ctx context.Context) (int, error)
	Close() error
}
