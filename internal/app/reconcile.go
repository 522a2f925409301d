package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/reconcile"
	"github.com/okian/rinkcast/pkg/logger"
	"github.com/okian/rinkcast/pkg/metrics"
)

// Reconcile runs the team-to-player reconciler, records the run and returns it.
func (s *Service) Reconcile(ctx context.Context, req model.ReconcileRequest) (model.ReconcileRun, error) { //nolint:gocritic // hugeParam
	release, err := s.acquire(false)
	if err != nil {
		return model.ReconcileRun{}, err
	}
	defer release()
	if req.TeamID == "" {
		return model.ReconcileRun{}, fmt.Errorf("%w: missing team_id", ErrInvalidRequest)
	}
	if n := len(req.Input.Players); n > s.maxRoster {
		return model.ReconcileRun{}, fmt.Errorf("%w: %d players, max %d", ErrRosterTooLarge, n, s.maxRoster)
	}

	start := time.Now()
	out := reconcile.ReconcileTeamToPlayers(req.Input)
	metrics.RecordReconcileLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordReconcileRoster(len(req.Input.Players))
	observeReport(out.Report)

	run := model.ReconcileRun{
		RunID:     newID(),
		GameID:    req.GameID,
		TeamID:    req.TeamID,
		CreatedAt: s.now().UTC(),
		Input:     req.Input,
		Output:    out,
	}
	if req.Finishing != nil {
		run.Goals = reconcile.ExpectedGoals(out.Players, *req.Finishing)
	}

	if err := s.store.SaveRun(ctx, run); err != nil {
		metrics.RecordReconcileRun("error")
		return model.ReconcileRun{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	metrics.RecordReconcileRun("ok")
	s.reconcileRuns.Add(1)

	s.logger.Info(ctx, "reconciled team",
		logger.String("run_id", run.RunID),
		logger.String("game_id", run.GameID),
		logger.String("team_id", run.TeamID),
		logger.Int("players", len(out.Players)),
		logger.Float64("toi_es", out.Report.TOIEs.After),
		logger.Float64("toi_pp", out.Report.TOIPp.After),
		logger.Bool("shots_es_fallback", out.Report.ShotsEs.ScaleApplied == nil && out.Report.ShotsEs.After > 0),
	)
	return run, nil
}

// observeReport exports scale factors and counts shot fallbacks.
func observeReport(r reconcile.Report) {
	fields := []struct {
		name  string
		rep   reconcile.FieldReport
		shots bool
	}{
		{"toi_es", r.TOIEs, false},
		{"toi_pp", r.TOIPp, false},
		{"shots_es", r.ShotsEs, true},
		{"shots_pp", r.ShotsPp, true},
	}
	for _, f := range fields {
		if f.rep.ScaleApplied != nil {
			metrics.RecordReconcileScale(f.name, *f.rep.ScaleApplied)
			continue
		}
		if f.shots && f.rep.After > 0 {
			metrics.RecordReconcileFallback(f.name)
		}
	}
}

// GetRun loads a persisted reconcile run.
func (s *Service) GetRun(ctx context.Context, runID string) (model.ReconcileRun, error) {
	release, err := s.acquire(false)
	if err != nil {
		return model.ReconcileRun{}, err
	}
	defer release()
	return s.store.Run(ctx, runID)
}

// Aggregate splits a game's play-by-play into per-team strength totals.
func (s *Service) Aggregate(ctx context.Context, game reconcile.GameEvents) map[string]*reconcile.TeamAggregate {
	aggs := reconcile.AggregateByStrength(game)
	for id, a := range aggs {
		if a.Skipped > 0 {
			s.log().Warn(ctx, "skipped events with malformed situation codes",
				logger.String("team_id", id), logger.Int("skipped", a.Skipped))
		}
	}
	return aggs
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Named("service")
	}
	return s.logger
}
