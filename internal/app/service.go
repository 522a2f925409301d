// Package service wires the projection core to storage, the baseline job
// queue and its workers. It implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/rinkcast/internal/adapters/mq/queue"
	workerpool "github.com/okian/rinkcast/internal/adapters/mq/worker"
	"github.com/okian/rinkcast/internal/adapters/repository"
	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/dedupe"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/pkg/logger"
	"github.com/okian/rinkcast/pkg/metrics"
)

// Service implements the API dependencies of rinkcast.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	ownsDB  bool
	deduper dedupe.Deduper
	queue   jobqueue.Queue
	pool    *workerpool.Pool

	workerCount   int
	queueSize     int
	dedupeSize    int
	dbPath        string
	decayTauDays  float64
	recentTauDays float64
	maxRoster     int
	now           func() time.Time

	reconcileRuns  atomic.Int64
	baselinesBuilt atomic.Int64
	baselineErrors atomic.Int64

	started  bool
	stopping bool
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of baseline workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the baseline job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many job keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore injects a store; the service will not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDBPath sets the SQLite file opened when no store is injected.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithDecayTauDays sets the default decay constant of DecayBlend.
func WithDecayTauDays(tau float64) Option {
	return func(s *Service) {
		if tau > 0 {
			s.decayTauDays = tau
		}
	}
}

// WithRecentTauDays sets the decay constant of the baseline recent window.
func WithRecentTauDays(tau float64) Option {
	return func(s *Service) {
		if tau > 0 {
			s.recentTauDays = tau
		}
	}
}

// WithMaxRosterSize caps the players accepted per reconcile request.
func WithMaxRosterSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRoster = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for run timestamps and job enqueue times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    100_000,
		dbPath:        "rinkcast.db",
		decayTauDays:  30,
		recentTauDays: baseline.DefaultRecentTauDays,
		maxRoster:     40,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	if s.store == nil {
		store, err := repository.Open(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		s.store = store
		s.ownsDB = true
		s.logger.Info(ctx, "opened sqlite store", logger.String("path", s.dbPath))
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithPoolLogger(s.logger.Named("workers")))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Float64("decay_tau_days", s.decayTauDays),
		logger.Float64("recent_tau_days", s.recentTauDays),
	)
	return nil
}

// Stop drains queued baseline jobs and closes storage it opened. New
// requests are refused as soon as Stop begins; queued jobs still build.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	pool := s.pool
	s.mu.Unlock()
	s.logger.Info(ctx, "stopping service")

	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownsDB {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
		s.store = nil
		s.ownsDB = false
	}
	s.started = false
	s.stopping = false
	s.logger.Info(ctx, "service stopped")
	return errors.Join(errs...)
}

// acquire read-locks the service for one call and returns the unlock. While
// stopping only the queue drain is admitted.
func (s *Service) acquire(drain bool) (func(), error) {
	s.mu.RLock()
	if !s.started || (s.stopping && !drain) {
		s.mu.RUnlock()
		return nil, ErrNotStarted
	}
	return s.mu.RUnlock, nil
}

// newID returns a fresh random identifier.
func newID() string {
	return uuid.NewString()
}

// GetStats returns a point-in-time view of the service.
func (s *Service) GetStats(ctx context.Context) model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := model.Stats{
		WorkerCount:    s.workerCount,
		QueueCapacity:  s.queueSize,
		ReconcileRuns:  s.reconcileRuns.Load(),
		BaselinesBuilt: s.baselinesBuilt.Load(),
		BaselineErrors: s.baselineErrors.Load(),
	}
	if !s.started {
		return st
	}
	st.QueueLen = s.queue.Len(ctx)
	st.ActiveWorkers = s.pool.Active()
	st.DedupeSize = s.deduper.Size()
	if n, err := s.store.Players(ctx); err == nil {
		st.Players = n
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.HeapInuse)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return st
}
