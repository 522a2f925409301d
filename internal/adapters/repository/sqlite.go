package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/rinkcast/internal/domain/baseline"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/pkg/metrics"

	_ "modernc.org/sqlite"
)

const (
	defaultMetricsUpdateInterval = 15 * time.Second
	dateLayout                   = time.DateOnly
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS season_totals (
		player_id     TEXT    NOT NULL,
		season_id     INTEGER NOT NULL,
		games_played  INTEGER NOT NULL DEFAULT 0,
		toi           REAL    NOT NULL DEFAULT 0,
		ixg           REAL    NOT NULL DEFAULT 0,
		goals         REAL    NOT NULL DEFAULT 0,
		assists       REAL    NOT NULL DEFAULT 0,
		shots         REAL    NOT NULL DEFAULT 0,
		icf           REAL    NOT NULL DEFAULT 0,
		ihdcf         REAL    NOT NULL DEFAULT 0,
		points        REAL    NOT NULL DEFAULT 0,
		updated_at    TEXT    NOT NULL,
		PRIMARY KEY (player_id, season_id)
	)`,
	`CREATE TABLE IF NOT EXISTS baselines (
		player_id     TEXT NOT NULL,
		snapshot_date TEXT NOT NULL,
		payload       TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		PRIMARY KEY (player_id, snapshot_date)
	)`,
	`CREATE TABLE IF NOT EXISTS reconcile_runs (
		run_id     TEXT PRIMARY KEY,
		game_id    TEXT,
		team_id    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		payload    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_game ON reconcile_runs(game_id)`,
}

// tables whose row counts are exported as metrics.
var tables = []string{"season_totals", "baselines", "reconcile_runs"}

// SQLiteStore implements Store on a single-connection SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	metricsUpdateInterval time.Duration
	stop                  chan struct{}
	wg                    sync.WaitGroup
	closeOnce             sync.Once
}

// Open opens (creating if needed) the database at path and starts the
// background metrics refresher. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps writes serialized and an in-memory database alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	s := &SQLiteStore{
		db:                    db,
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stop:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.updateMetrics(ctx)
	s.startMetricsUpdater()
	return s, nil
}

// Close stops the refresher and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteStore) startMetricsUpdater() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.updateMetrics(context.Background())
			}
		}
	}()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) {
	for _, table := range tables {
		var n int
		// table names come from the fixed list above.
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			metrics.RecordErrorByComponent("repository", "count")
			continue
		}
		metrics.UpdateRepositoryRecords(table, n)
	}
}

func observeWrite(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeRead(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

// UpsertSeasons writes all seasons in one transaction.
func (s *SQLiteStore) UpsertSeasons(ctx context.Context, playerID string, seasons []baseline.SeasonTotals) error {
	if playerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidInput)
	}
	defer observeWrite(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO season_totals
			(player_id, season_id, games_played, toi, ixg, goals, assists, shots, icf, ihdcf, points, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, season_id) DO UPDATE SET
			games_played = excluded.games_played,
			toi          = excluded.toi,
			ixg          = excluded.ixg,
			goals        = excluded.goals,
			assists      = excluded.assists,
			shots        = excluded.shots,
			icf          = excluded.icf,
			ihdcf        = excluded.ihdcf,
			points       = excluded.points,
			updated_at   = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	stamp := s.now().UTC().Format(time.RFC3339)
	for _, st := range seasons {
		if _, err := stmt.ExecContext(ctx, playerID, st.SeasonID, st.GamesPlayed,
			st.TOI, st.IXG, st.Goals, st.Assists, st.Shots, st.ICF, st.IHDCF, st.Points, stamp); err != nil {
			return fmt.Errorf("upsert season %d: %w", st.SeasonID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Seasons returns a player's seasons ordered by season id descending.
func (s *SQLiteStore) Seasons(ctx context.Context, playerID string) ([]baseline.SeasonTotals, error) {
	defer observeRead(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT season_id, games_played, toi, ixg, goals, assists, shots, icf, ihdcf, points
		FROM season_totals WHERE player_id = ? ORDER BY season_id DESC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	defer rows.Close()

	var out []baseline.SeasonTotals
	for rows.Next() {
		var st baseline.SeasonTotals
		if err := rows.Scan(&st.SeasonID, &st.GamesPlayed, &st.TOI, &st.IXG, &st.Goals,
			&st.Assists, &st.Shots, &st.ICF, &st.IHDCF, &st.Points); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("seasons for %s: %w", playerID, ErrNotFound)
	}
	return out, nil
}

// SaveBaseline stores p, replacing any payload of the same player and day.
func (s *SQLiteStore) SaveBaseline(ctx context.Context, p baseline.Payload) error {
	if p.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidInput)
	}
	defer observeWrite(time.Now())

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO baselines (player_id, snapshot_date, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id, snapshot_date) DO UPDATE SET
			payload = excluded.payload, created_at = excluded.created_at`,
		p.PlayerID, p.SnapshotDate.UTC().Format(dateLayout), string(body), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	return nil
}

// LatestBaseline returns the most recent snapshot of a player.
func (s *SQLiteStore) LatestBaseline(ctx context.Context, playerID string) (baseline.Payload, error) {
	defer observeRead(time.Now())

	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM baselines WHERE player_id = ?
		ORDER BY snapshot_date DESC LIMIT 1`, playerID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return baseline.Payload{}, fmt.Errorf("baseline for %s: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return baseline.Payload{}, fmt.Errorf("query baseline: %w", err)
	}

	var p baseline.Payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return baseline.Payload{}, fmt.Errorf("decode baseline: %w", err)
	}
	return p, nil
}

// SaveRun stores a reconcile run. Run ids are unique; saving twice fails.
func (s *SQLiteStore) SaveRun(ctx context.Context, run model.ReconcileRun) error { //nolint:gocritic // hugeParam
	if run.RunID == "" {
		return fmt.Errorf("%w: empty run id", ErrInvalidInput)
	}
	defer observeWrite(time.Now())

	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs (run_id, game_id, team_id, created_at, payload) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.GameID, run.TeamID, run.CreatedAt.UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Run loads a reconcile run by id.
func (s *SQLiteStore) Run(ctx context.Context, runID string) (model.ReconcileRun, error) {
	defer observeRead(time.Now())

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reconcile_runs WHERE run_id = ?`, runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReconcileRun{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return model.ReconcileRun{}, fmt.Errorf("query run: %w", err)
	}

	var run model.ReconcileRun
	if err := json.Unmarshal([]byte(body), &run); err != nil {
		return model.ReconcileRun{}, fmt.Errorf("decode run: %w", err)
	}
	return run, nil
}

// Players returns the number of players with stored seasons.
func (s *SQLiteStore) Players(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT player_id) FROM season_totals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}
