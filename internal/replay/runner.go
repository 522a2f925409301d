package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/rinkcast/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// maxFetched bounds how many persisted runs are read back.
const maxFetched = 25

// Run generates the rosters, submits them, verifies every reply and writes a
// summary table to out. It returns an error when any case failed.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	log := logger.Named("replay")
	stats := &Stats{StartTime: time.Now()}
	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting replay",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("rosters", cfg.Rosters),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	if _, err := client.Get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	cases := Generate(cfg.Seed, cfg.Rosters, cfg.MaxPlayers)
	stats.Generated = len(cases)
	if cfg.OutputFile != "" {
		if err := saveCases(cfg.OutputFile, cases); err != nil {
			log.Warn(ctx, "failed to save cases", logger.Error(err))
		}
	}

	outcomes := submit(ctx, client, cfg, cases)
	summarize(stats, outcomes)
	for _, o := range outcomes {
		if o.Err != nil || len(o.Violations) > 0 {
			log.Warn(ctx, "case failed",
				logger.String("case", o.CaseID),
				logger.Int("status", o.Status),
				logger.Any("violations", o.Violations),
				logger.Error(o.Err))
		}
	}

	stats.RunsFetched = fetchRuns(ctx, client, outcomes)
	stats.Duration = time.Since(stats.StartTime)

	RenderSummary(out, stats)
	if stats.Failed > 0 || stats.Errors > 0 {
		return stats, fmt.Errorf("%d of %d cases failed", stats.Failed+stats.Errors, stats.Submitted)
	}
	log.Info(ctx, "replay completed", logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submit runs every case through the worker pool.
func submit(ctx context.Context, client *HTTPClient, cfg *Config, cases []Case) []Outcome {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]Outcome, len(cases))
	next := make(chan int, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				outcomes[i] = runCase(ctx, client, &cases[i])
			}
		}()
	}

	go func() {
		defer close(next)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case next <- i:
			}
		}
	}()

	wg.Wait()
	// cases never handed out were cancelled
	for i := range outcomes {
		if outcomes[i].CaseID == "" {
			outcomes[i] = Outcome{CaseID: cases[i].ID, Err: ctx.Err()}
		}
	}
	return outcomes
}

// runCase posts one roster, verifies the reply, then posts the reply back and
// expects it unchanged.
func runCase(ctx context.Context, client *HTTPClient, c *Case) Outcome {
	o := Outcome{CaseID: c.ID}
	start := time.Now()
	var first Response
	o.Status, o.Err = client.Post(ctx, "/v1/reconcile", c, &first)
	o.Latency = time.Since(start)
	if o.Err != nil {
		return o
	}
	o.RunID = first.RunID
	o.Violations = Verify(c, &first)

	again := *c
	again.Players = first.Players
	var second Response
	if _, err := client.Post(ctx, "/v1/reconcile", again, &second); err != nil {
		o.Err = fmt.Errorf("idempotence check: %w", err)
		return o
	}
	o.Idempotent = Same(first.Players, second.Players)
	if !o.Idempotent {
		o.Violations = append(o.Violations, "reconciling the output changed it")
	}
	o.Fallback = Fallback(&first)
	return o
}

func summarize(stats *Stats, outcomes []Outcome) {
	for _, o := range outcomes {
		stats.Submitted++
		stats.TotalLatency += o.Latency
		if o.Latency > stats.MaxLatency {
			stats.MaxLatency = o.Latency
		}
		if o.Fallback {
			stats.Fallbacks++
		}
		if o.Idempotent {
			stats.IdempotentRuns++
		}
		switch {
		case o.Err != nil:
			stats.Errors++
		case len(o.Violations) > 0:
			stats.Failed++
			stats.Violations += len(o.Violations)
		default:
			stats.Passed++
		}
	}
}

// fetchRuns reads back a sample of persisted runs and returns how many were found.
func fetchRuns(ctx context.Context, client *HTTPClient, outcomes []Outcome) int {
	found := 0
	for _, o := range outcomes {
		if found >= maxFetched {
			break
		}
		if o.RunID == "" {
			continue
		}
		var run struct {
			RunID string `json:"run_id"`
		}
		if _, err := client.Get(ctx, "/v1/reconcile/"+o.RunID, &run); err == nil && run.RunID == o.RunID {
			found++
		}
	}
	return found
}

func saveCases(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
