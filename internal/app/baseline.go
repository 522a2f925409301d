package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	jobqueue "github.com/okian/rinkcast/internal/adapters/mq/queue"
	"github.com/okian/rinkcast/internal/adapters/repository"
	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/pkg/logger"
	"github.com/okian/rinkcast/pkg/metrics"
)

// UpsertSeasons stores a player's season totals.
func (s *Service) UpsertSeasons(ctx context.Context, playerID string, seasons []baseline.SeasonTotals) error {
	release, err := s.acquire(false)
	if err != nil {
		return err
	}
	defer release()
	if playerID == "" || len(seasons) == 0 {
		return fmt.Errorf("%w: player_id and seasons are required", ErrInvalidRequest)
	}
	if err := s.store.UpsertSeasons(ctx, playerID, seasons); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.logger.Debug(ctx, "stored seasons", logger.String("player_id", playerID), logger.Int("seasons", len(seasons)))
	return nil
}

// BuildBaseline blends a player's stored seasons (and optional game rows)
// as of snapshot, persists the payload and returns it.
func (s *Service) BuildBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (baseline.Payload, error) {
	release, err := s.acquire(false)
	if err != nil {
		return baseline.Payload{}, err
	}
	defer release()
	return s.buildBaseline(ctx, playerID, snapshot, rows)
}

// buildBaseline expects the caller to hold the read lock.
func (s *Service) buildBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (baseline.Payload, error) {
	start := time.Now()

	seasons, err := s.store.Seasons(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrNotFound) && len(rows) == 0:
		s.failBaseline()
		return baseline.Payload{}, fmt.Errorf("%w: %s", ErrNoData, playerID)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		s.failBaseline()
		return baseline.Payload{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	p := baseline.BuildBaselinePayload(baseline.PayloadInput{
		PlayerID:      playerID,
		SnapshotDate:  snapshot.UTC(),
		RowsAll:       rows,
		SeasonTotals:  seasons,
		RecentTauDays: s.recentTauDays,
	})
	if err := s.store.SaveBaseline(ctx, p); err != nil {
		s.failBaseline()
		return baseline.Payload{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	metrics.RecordBaselineBuild()
	metrics.RecordBaselineLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.baselinesBuilt.Add(1)
	s.logger.Info(ctx, "built baseline",
		logger.String("player_id", playerID),
		logger.String("snapshot", p.SnapshotDate.Format(time.DateOnly)),
		logger.Int("seasons", p.SeasonsUsed),
		logger.Int("stats_3yr", len(p.Win3yr)),
		logger.Int("recent_stats", len(p.WinRecent)),
	)
	return p, nil
}

func (s *Service) failBaseline() {
	metrics.RecordBaselineError()
	s.baselineErrors.Add(1)
}

// BuildFromJob implements the worker builder. It keeps running while Stop
// drains the queue. A failed job forgets its key so the same build can be
// requested again.
func (s *Service) BuildFromJob(ctx context.Context, job model.BaselineJob) error { //nolint:gocritic // hugeParam
	release, err := s.acquire(true)
	if err != nil {
		return err
	}
	defer release()
	if _, err := s.buildBaseline(ctx, job.PlayerID, job.SnapshotDate, job.Rows); err != nil {
		s.deduper.Unrecord(ctx, job.Key())
		return err
	}
	return nil
}

// EnqueueBaseline schedules an asynchronous baseline build. duplicate is true
// when the same player and snapshot day was already accepted; the returned
// job is then the rejected request. Backpressure surfaces as jobqueue.ErrFull.
func (s *Service) EnqueueBaseline(ctx context.Context, playerID string, snapshot time.Time, rows []baseline.GameRow) (job model.BaselineJob, duplicate bool, err error) {
	release, err := s.acquire(false)
	if err != nil {
		return model.BaselineJob{}, false, err
	}
	defer release()
	if playerID == "" {
		return model.BaselineJob{}, false, fmt.Errorf("%w: missing player_id", ErrInvalidRequest)
	}

	job = model.BaselineJob{
		ID:           newID(),
		PlayerID:     playerID,
		SnapshotDate: snapshot.UTC(),
		Rows:         rows,
		EnqueuedAt:   s.now(),
	}
	key := job.Key()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordBaselineJobDuplicate()
		s.logger.Debug(ctx, "duplicate baseline job", logger.String("key", key))
		return job, true, nil
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, key)
		if errors.Is(err, jobqueue.ErrFull) {
			s.logger.Warn(ctx, "baseline queue full", logger.String("key", key))
		}
		return model.BaselineJob{}, false, err
	}
	return job, false, nil
}

// LatestBaseline returns a player's most recent stored baseline.
func (s *Service) LatestBaseline(ctx context.Context, playerID string) (baseline.Payload, error) {
	release, err := s.acquire(false)
	if err != nil {
		return baseline.Payload{}, err
	}
	defer release()
	return s.store.LatestBaseline(ctx, playerID)
}
