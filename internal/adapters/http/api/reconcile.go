package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/numeric"
	"github.com/okian/rinkcast/internal/domain/reconcile"
	"github.com/okian/rinkcast/internal/domain/situation"
)

// ReconcileDependencies is the part of the service the reconcile routes use.
type ReconcileDependencies interface {
	Reconcile(ctx context.Context, req model.ReconcileRequest) (model.ReconcileRun, error)
	GetRun(ctx context.Context, runID string) (model.ReconcileRun, error)
	Aggregate(ctx context.Context, game reconcile.GameEvents) map[string]*reconcile.TeamAggregate
}

// ReconcileHandler handles reconciliation and game aggregation.
type ReconcileHandler struct {
	deps ReconcileDependencies
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(deps ReconcileDependencies) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

// maxUsage bounds every player estimate and team target.
const maxUsage = 1e9

// reconcileRequest mirrors the OpenAPI schema for POST /v1/reconcile.
type reconcileRequest struct {
	GameID    string                      `json:"game_id"`
	TeamID    string                      `json:"team_id"`
	Players   []reconcile.PlayerEstimate  `json:"players"`
	Targets   reconcile.TeamTargets       `json:"targets"`
	Finishing *reconcile.FinishingContext `json:"finishing,omitempty"`
}

func (r *reconcileRequest) validate() error {
	if strings.TrimSpace(r.TeamID) == "" {
		return errors.New("missing team_id")
	}
	if len(r.Players) == 0 {
		return errors.New("players must not be empty")
	}
	seen := make(map[string]struct{}, len(r.Players))
	for i, p := range r.Players {
		if strings.TrimSpace(p.PlayerID) == "" {
			return fmt.Errorf("players[%d]: missing player_id", i)
		}
		if _, dup := seen[p.PlayerID]; dup {
			return fmt.Errorf("players[%d]: duplicate player_id %q", i, p.PlayerID)
		}
		seen[p.PlayerID] = struct{}{}
		for _, f := range usageFields(p.TOIEsSeconds, p.TOIPpSeconds, p.ShotsEs, p.ShotsPp) {
			// Negative and NaN estimates are tolerated and count as zero.
			if f.v > maxUsage {
				return fmt.Errorf("players[%d].%s must not exceed %g", i, f.name, float64(maxUsage))
			}
		}
	}
	t := r.Targets
	for _, f := range usageFields(t.TOIEsSeconds, t.TOIPpSeconds, t.ShotsEs, t.ShotsPp) {
		if !numeric.IsFinite(f.v) || f.v < 0 {
			return fmt.Errorf("targets.%s must be a non-negative number", f.name)
		}
		if f.v > maxUsage {
			return fmt.Errorf("targets.%s must not exceed %g", f.name, float64(maxUsage))
		}
	}
	if f := r.Finishing; f != nil {
		if f.LeagueSv < 0 || f.LeagueSv > 1 || f.GoalieSvProj < 0 || f.GoalieSvProj > 1 {
			return errors.New("finishing save percentages must be within [0, 1]")
		}
	}
	return nil
}

type usageField struct {
	name string
	v    float64
}

func usageFields(toiEs, toiPp, shotsEs, shotsPp float64) []usageField {
	return []usageField{
		{"toi_es_seconds", toiEs},
		{"toi_pp_seconds", toiPp},
		{"shots_es", shotsEs},
		{"shots_pp", shotsPp},
	}
}

type reconcileResponse struct {
	RunID         string                     `json:"run_id"`
	GameID        string                     `json:"game_id,omitempty"`
	TeamID        string                     `json:"team_id"`
	Players       []reconcile.PlayerEstimate `json:"players"`
	Report        reconcile.Report           `json:"report"`
	ExpectedGoals []reconcile.PlayerGoals    `json:"expected_goals,omitempty"`
}

// HandlePostReconcile handles POST /v1/reconcile requests.
func (h *ReconcileHandler) HandlePostReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reconcile"
	var req reconcileRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	run, err := h.deps.Reconcile(r.Context(), model.ReconcileRequest{
		GameID:    req.GameID,
		TeamID:    req.TeamID,
		Input:     reconcile.Input{Players: req.Players, Targets: req.Targets},
		Finishing: req.Finishing,
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{
		RunID:         run.RunID,
		GameID:        run.GameID,
		TeamID:        run.TeamID,
		Players:       run.Output.Players,
		Report:        run.Output.Report,
		ExpectedGoals: run.Goals,
	})
}

// HandleGetRun handles GET /v1/reconcile/{run_id} requests.
func (h *ReconcileHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_reconcile_run"
	runID := strings.TrimSpace(r.PathValue("run_id"))
	if runID == "" {
		fail(w, op, NewKind(op, ErrBadRequest))
		return
	}
	run, err := h.deps.GetRun(r.Context(), runID)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// HandleAggregate handles POST /v1/games/aggregate requests.
func (h *ReconcileHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_aggregate"
	var game reconcile.GameEvents
	if err := decode(w, r, &game); err != nil {
		fail(w, op, err)
		return
	}
	if strings.TrimSpace(game.HomeTeamID) == "" || strings.TrimSpace(game.AwayTeamID) == "" {
		fail(w, op, WrapKind(op, ErrBadRequest, errors.New("home_team_id and away_team_id are required")))
		return
	}
	if game.HomeTeamID == game.AwayTeamID {
		fail(w, op, WrapKind(op, ErrBadRequest, errors.New("home and away teams must differ")))
		return
	}
	for i, s := range game.Shots {
		if _, err := situation.ParseDigits(s.SituationCode); err != nil {
			fail(w, op, fmt.Errorf("shots[%d]: %w", i, err))
			return
		}
	}
	for i, s := range game.Shifts {
		if _, err := situation.ParseDigits(s.SituationCode); err != nil {
			fail(w, op, fmt.Errorf("shifts[%d]: %w", i, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.deps.Aggregate(r.Context(), game))
}
