package service

import (
	"context"

	"github.com/okian/rinkcast/internal/domain/decay"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/situation"
	"github.com/okian/rinkcast/pkg/metrics"
)

// DecayBlend computes a recency-weighted mean of the samples.
func (s *Service) DecayBlend(_ context.Context, req model.DecayBlendRequest) model.DecayBlendResult {
	tau := s.decayTauDays
	if req.TauDays != nil && *req.TauDays > 0 {
		tau = *req.TauDays
	}
	r := decay.Blend(req.Samples, tau)
	metrics.RecordDecayBlend(r.EffectiveSampleSize)

	out := model.DecayBlendResult{Result: r, TauDays: tau}
	if req.Prior != nil {
		v := decay.Shrink(r, *req.Prior, req.PriorStrength)
		out.Shrunk = &v
	}
	return out
}

// Situation decodes code and, when teamID is given, classifies that team.
func (s *Service) Situation(code, teamID, homeID, awayID string) (model.SituationResult, error) {
	d, err := situation.ParseDigits(code)
	if err != nil {
		return model.SituationResult{}, err
	}
	res := model.SituationResult{Code: code, Digits: d}
	if teamID == "" {
		return res, nil
	}
	home := teamID == homeID
	empty := situation.IsEmptyNet(d, home)
	res.TeamID = teamID
	res.IsHome = &home
	res.EmptyNet = &empty
	res.Strength = situation.StrengthForTeam(d, teamID, homeID, awayID)
	return res, nil
}
