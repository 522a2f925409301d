package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/model"
)

// BaselineDependencies is the part of the service the baseline routes use.
type BaselineDependencies interface {
	UpsertSeasons(ctx context.Context, playerID string, seasons []baseline.SeasonTotals) error
	BuildBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (baseline.Payload, error)
	EnqueueBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (model.BaselineJob, bool, error)
	LatestBaseline(ctx context.Context, playerID string) (baseline.Payload, error)
}

// BaselineHandler handles season uploads and baseline builds.
type BaselineHandler struct {
	deps BaselineDependencies
	now  func() time.Time
}

// NewBaselineHandler creates a new baseline handler.
func NewBaselineHandler(deps BaselineDependencies) *BaselineHandler {
	return &BaselineHandler{deps: deps, now: time.Now}
}

type seasonsRequest struct {
	PlayerID string                  `json:"player_id"`
	Seasons  []baseline.SeasonTotals `json:"seasons"`
}

func (s *seasonsRequest) validate() error {
	if strings.TrimSpace(s.PlayerID) == "" {
		return errors.New("missing player_id")
	}
	if len(s.Seasons) == 0 {
		return errors.New("seasons must not be empty")
	}
	for i, st := range s.Seasons {
		if st.SeasonID <= 0 {
			return fmt.Errorf("seasons[%d]: season_id must be positive", i)
		}
		if st.GamesPlayed < 0 {
			return fmt.Errorf("seasons[%d]: games_played must not be negative", i)
		}
	}
	return nil
}

// baselineRequest mirrors the OpenAPI schema for POST /v1/baselines and
// POST /v1/baselines/jobs.
type baselineRequest struct {
	PlayerID     string             `json:"player_id"`
	SnapshotDate string             `json:"snapshot_date"`
	Rows         []baseline.GameRow `json:"rows,omitempty"`
}

func (b *baselineRequest) parse(now time.Time) (time.Time, error) {
	if strings.TrimSpace(b.PlayerID) == "" {
		return time.Time{}, fmt.Errorf("%w: missing player_id", ErrBadRequest)
	}
	return parseDate(b.SnapshotDate, now)
}

type seasonsResponse struct {
	PlayerID string `json:"player_id"`
	Seasons  int    `json:"seasons"`
}

type jobResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	JobID     string `json:"job_id,omitempty"`
	Key       string `json:"key"`
}

// HandlePostSeasons handles POST /v1/seasons requests.
func (h *BaselineHandler) HandlePostSeasons(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_seasons"
	var req seasonsRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.UpsertSeasons(r.Context(), req.PlayerID, req.Seasons); err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, seasonsResponse{PlayerID: req.PlayerID, Seasons: len(req.Seasons)})
}

// HandlePostBaseline handles POST /v1/baselines requests.
func (h *BaselineHandler) HandlePostBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_baseline"
	var req baselineRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	snapshot, err := req.parse(h.now())
	if err != nil {
		fail(w, op, err)
		return
	}
	p, err := h.deps.BuildBaseline(r.Context(), req.PlayerID, snapshot, req.Rows)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePostJob handles POST /v1/baselines/jobs requests.
func (h *BaselineHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_baseline_job"
	var req baselineRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	snapshot, err := req.parse(h.now())
	if err != nil {
		fail(w, op, err)
		return
	}
	job, duplicate, err := h.deps.EnqueueBaseline(r.Context(), req.PlayerID, snapshot, req.Rows)
	if err != nil {
		fail(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, jobResponse{Status: "duplicate", Duplicate: true, Key: job.Key()})
		return
	}
	writeJSON(w, http.StatusAccepted, jobResponse{Status: "accepted", JobID: job.ID, Key: job.Key()})
}

// HandleGetBaseline handles GET /v1/baselines/{player_id} requests.
func (h *BaselineHandler) HandleGetBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_baseline"
	playerID := strings.TrimSpace(r.PathValue("player_id"))
	if playerID == "" {
		fail(w, op, NewKind(op, ErrBadRequest))
		return
	}
	p, err := h.deps.LatestBaseline(r.Context(), playerID)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
