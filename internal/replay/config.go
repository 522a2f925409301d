// Package replay drives a running rinkcast service with generated rosters and
// checks every response against the reconciliation guarantees.
package replay

import (
	"time"

	"github.com/okian/rinkcast/internal/domain/reconcile"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL    string        // base URL of the service
	Rosters    int           // number of rosters to generate
	MaxPlayers int           // upper bound on players per roster
	Seed       uint64        // generator seed; same seed, same rosters
	Workers    int           // concurrent submitters
	Timeout    time.Duration // per-request timeout
	OutputFile string        // where to save generated cases; empty skips saving
}

// Case is one generated roster.
type Case struct {
	ID      string                     `json:"id"`
	GameID  string                     `json:"game_id"`
	TeamID  string                     `json:"team_id"`
	Players []reconcile.PlayerEstimate `json:"players"`
	Targets reconcile.TeamTargets      `json:"targets"`
}

// Response is the reconcile endpoint's reply.
type Response struct {
	RunID   string                     `json:"run_id"`
	TeamID  string                     `json:"team_id"`
	Players []reconcile.PlayerEstimate `json:"players"`
	Report  reconcile.Report           `json:"report"`
}

// Outcome is what happened to one case.
type Outcome struct {
	CaseID     string
	RunID      string
	Status     int
	Violations []string
	Err        error
	Latency    time.Duration
	Fallback   bool // a shot field was split by TOI instead of scaled
	Idempotent bool
}

// Stats summarizes a replay run.
type Stats struct {
	Generated      int
	Submitted      int
	Passed         int
	Failed         int
	Errors         int
	Violations     int
	Fallbacks      int
	RunsFetched    int
	IdempotentRuns int
	StartTime      time.Time
	Duration       time.Duration
	MaxLatency     time.Duration
	TotalLatency   time.Duration
}
