package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rinkcast/internal/domain/decay"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/numeric"
)

// BlendDependencies is the part of the service the stateless routes use.
type BlendDependencies interface {
	DecayBlend(ctx context.Context, req model.DecayBlendRequest) model.DecayBlendResult
	Situation(code, teamID, homeID, awayID string) (model.SituationResult, error)
}

// BlendHandler handles decay blends and situation lookups.
type BlendHandler struct {
	deps BlendDependencies
}

// NewBlendHandler creates a new blend handler.
func NewBlendHandler(deps BlendDependencies) *BlendHandler {
	return &BlendHandler{deps: deps}
}

type decayBlendRequest struct {
	Samples       []decay.Sample `json:"samples"`
	TauDays       *float64       `json:"tau_days,omitempty"`
	Prior         *float64       `json:"prior,omitempty"`
	PriorStrength float64        `json:"prior_strength,omitempty"`
}

func (d *decayBlendRequest) validate() error {
	if d.TauDays != nil && !(*d.TauDays > 0) {
		return errors.New("tau_days must be positive")
	}
	if d.PriorStrength < 0 {
		return errors.New("prior_strength must not be negative")
	}
	if d.Prior != nil && !numeric.IsFinite(*d.Prior) {
		return errors.New("prior must be finite")
	}
	return nil
}

// HandleDecayBlend handles POST /v1/decay-blend requests.
func (h *BlendHandler) HandleDecayBlend(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_decay_blend"
	var req decayBlendRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, op, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	res := h.deps.DecayBlend(r.Context(), model.DecayBlendRequest{
		Samples:       req.Samples,
		TauDays:       req.TauDays,
		Prior:         req.Prior,
		PriorStrength: req.PriorStrength,
	})
	writeJSON(w, http.StatusOK, res)
}

// HandleSituation handles GET /v1/situation/{code} requests. The team query
// parameter needs both home and away to be classified.
func (h *BlendHandler) HandleSituation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_situation"
	q := r.URL.Query()
	team, home, away := strings.TrimSpace(q.Get("team")), strings.TrimSpace(q.Get("home")), strings.TrimSpace(q.Get("away"))
	if team != "" && (home == "" || away == "") {
		fail(w, op, WrapKind(op, ErrBadRequest, errors.New("team requires home and away")))
		return
	}
	if team != "" && team != home && team != away {
		fail(w, op, WrapKind(op, ErrBadRequest, fmt.Errorf("team %q is neither home nor away", team)))
		return
	}
	res, err := h.deps.Situation(r.PathValue("code"), team, home, away)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
