// Package model contains records passed between the service layers.
package model

import (
	"time"

	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/decay"
	"github.com/okian/rinkcast/internal/domain/dedupe"
	"github.com/okian/rinkcast/internal/domain/reconcile"
	"github.com/okian/rinkcast/internal/domain/situation"
)

// BaselineJob asks a worker to build and persist one player's baseline.
type BaselineJob struct {
	ID           string             // uuid assigned at enqueue
	PlayerID     string             // player whose stored seasons are blended
	SnapshotDate time.Time          // "as of" date of the payload
	Rows         []baseline.GameRow // optional game rows for the recent window
	EnqueuedAt   time.Time
}

// Key is the idempotency key of the job.
func (j BaselineJob) Key() string {
	return dedupe.Key(j.PlayerID, j.SnapshotDate)
}

// ReconcileRun is a persisted reconciliation: the request and its result.
type ReconcileRun struct {
	RunID     string                  `json:"run_id"`
	GameID    string                  `json:"game_id,omitempty"`
	TeamID    string                  `json:"team_id"`
	CreatedAt time.Time               `json:"created_at"`
	Input     reconcile.Input         `json:"input"`
	Output    reconcile.Output        `json:"output"`
	Goals     []reconcile.PlayerGoals `json:"expected_goals,omitempty"`
}

// Stats is a point-in-time view of the service.
type Stats struct {
	QueueLen       int   `json:"queue_len"`
	QueueCapacity  int   `json:"queue_capacity"`
	WorkerCount    int   `json:"worker_count"`
	ActiveWorkers  int   `json:"active_workers"`
	DedupeSize     int64 `json:"dedupe_size"`
	ReconcileRuns  int64 `json:"reconcile_runs"`
	BaselinesBuilt int64 `json:"baselines_built"`
	BaselineErrors int64 `json:"baseline_errors"`
	Players        int   `json:"players"`
}

// ReconcileRequest is one team's roster to force onto its team totals.
type ReconcileRequest struct {
	GameID string
	TeamID string
	Input  reconcile.Input
	// Finishing, when set, adds expected goals from the reconciled shots.
	Finishing *reconcile.FinishingContext
}

// DecayBlendRequest asks for a decay blend with optional shrinkage.
type DecayBlendRequest struct {
	Samples []decay.Sample
	// TauDays falls back to the configured default when nil or non-positive.
	TauDays       *float64
	Prior         *float64
	PriorStrength float64
}

// DecayBlendResult is a blend plus its shrunk estimate when a prior was given.
type DecayBlendResult struct {
	decay.Result
	TauDays float64  `json:"tau_days"`
	Shrunk  *float64 `json:"shrunk,omitempty"`
}

// SituationResult is a decoded situation code, optionally classified for a team.
type SituationResult struct {
	Code     string             `json:"code"`
	Digits   situation.Digits   `json:"digits"`
	Strength situation.Strength `json:"strength,omitempty"`
	EmptyNet *bool              `json:"empty_net,omitempty"`
	TeamID   string             `json:"team_id,omitempty"`
	IsHome   *bool              `json:"is_home,omitempty"`
}
