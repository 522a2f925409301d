// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/reconcile"
)

// maxBodyBytes bounds request bodies; a full roster with rows fits easily.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Reconcile(ctx context.Context, req model.ReconcileRequest) (model.ReconcileRun, error)
	GetRun(ctx context.Context, runID string) (model.ReconcileRun, error)
	Aggregate(ctx context.Context, game reconcile.GameEvents) map[string]*reconcile.TeamAggregate

	DecayBlend(ctx context.Context, req model.DecayBlendRequest) model.DecayBlendResult
	Situation(code, teamID, homeID, awayID string) (model.SituationResult, error)

	UpsertSeasons(ctx context.Context, playerID string, seasons []baseline.SeasonTotals) error
	BuildBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (baseline.Payload, error)
	EnqueueBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (model.BaselineJob, bool, error)
	LatestBaseline(ctx context.Context, playerID string) (baseline.Payload, error)

	GetStats(ctx context.Context) model.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	reconcileHandler *ReconcileHandler
	baselineHandler  *BaselineHandler
	blendHandler     *BlendHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		reconcileHandler: NewReconcileHandler(deps),
		baselineHandler:  NewBaselineHandler(deps),
		blendHandler:     NewBlendHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /v1/reconcile", MetricsMiddleware(s.reconcileHandler.HandlePostReconcile, "reconcile"))
	mux.HandleFunc("GET /v1/reconcile/{run_id}", MetricsMiddleware(s.reconcileHandler.HandleGetRun, "reconcile_run"))
	mux.HandleFunc("POST /v1/games/aggregate", MetricsMiddleware(s.reconcileHandler.HandleAggregate, "aggregate"))

	mux.HandleFunc("POST /v1/decay-blend", MetricsMiddleware(s.blendHandler.HandleDecayBlend, "decay_blend"))
	mux.HandleFunc("GET /v1/situation/{code}", MetricsMiddleware(s.blendHandler.HandleSituation, "situation"))

	mux.HandleFunc("POST /v1/seasons", MetricsMiddleware(s.baselineHandler.HandlePostSeasons, "seasons"))
	mux.HandleFunc("POST /v1/baselines", MetricsMiddleware(s.baselineHandler.HandlePostBaseline, "baselines"))
	mux.HandleFunc("POST /v1/baselines/jobs", MetricsMiddleware(s.baselineHandler.HandlePostJob, "baseline_jobs"))
	mux.HandleFunc("GET /v1/baselines/{player_id}", MetricsMiddleware(s.baselineHandler.HandleGetBaseline, "baseline"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status of its kind, wrapping it with op unless it
// already carries one.
func fail(w http.ResponseWriter, op string, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		err = Wrap(op, err)
	}
	status, code := statusOf(err)
	writeError(w, status, code, err)
}

// decode reads a single JSON document into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC3339; empty means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q; want YYYY-MM-DD or RFC3339", ErrBadRequest, s)
	}
	return t.UTC(), nil
}
