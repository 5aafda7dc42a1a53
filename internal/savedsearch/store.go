// Package savedsearch stores named search presets and re-runs them on a
// schedule, recording how many listings each run produced and which providers
// failed. Listings themselves are never stored.
package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"careercraft/jobsearch-service/internal/model"
)

var (
	ErrNotFound = errors.New("saved search not found")
	ErrInvalid  = errors.New("saved search needs a name and a query")
)

// Repository is the persistence the handlers and the Runner need.
type Repository interface {
	List(ctx context.Context) ([]model.SavedSearch, error)
	ListActive(ctx context.Context) ([]model.SavedSearch, error)
	Create(ctx context.Context, s model.SavedSearch) (model.SavedSearch, error)
	RecordRun(ctx context.Context, run model.SearchRun) error
	Runs(ctx context.Context, savedSearchID string, limit int) ([]model.SearchRun, error)
}

// PostgresStore implements Repository on the saved_searches and search_runs
// tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectSearches = `SELECT id, name, query, region_only, exclude, is_active, created_at
	FROM saved_searches`

func (s *PostgresStore) List(ctx context.Context) ([]model.SavedSearch, error) {
	return s.query(ctx, selectSearches+` ORDER BY created_at DESC`)
}

// ListActive returns the presets the scheduler should run.
func (s *PostgresStore) ListActive(ctx context.Context) ([]model.SavedSearch, error) {
	return s.query(ctx, selectSearches+` WHERE is_active = true ORDER BY created_at`)
}

func (s *PostgresStore) query(ctx context.Context, sql string) ([]model.SavedSearch, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query saved_searches: %w", err)
	}
	defer rows.Close()

	out := []model.SavedSearch{}
	for rows.Next() {
		var ss model.SavedSearch
		if err := rows.Scan(
			&ss.ID, &ss.Name, &ss.Query, &ss.RegionOnly,
			&ss.Exclude, &ss.IsActive, &ss.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Create validates and inserts ss, assigning its id and creation time.
func (s *PostgresStore) Create(ctx context.Context, ss model.SavedSearch) (model.SavedSearch, error) {
	ss, err := prepare(ss)
	if err != nil {
		return model.SavedSearch{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_searches (id, name, query, region_only, exclude, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ss.ID, ss.Name, ss.Query, ss.RegionOnly, ss.Exclude, ss.IsActive, ss.CreatedAt,
	)
	if err != nil {
		return model.SavedSearch{}, fmt.Errorf("insert saved_search: %w", err)
	}
	return ss, nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run model.SearchRun) error {
	failed := make([]string, len(run.Report.Failed))
	for i, src := range run.Report.Failed {
		failed[i] = string(src)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_runs (id, saved_search_id, attempted, succeeded, failed, total, ran_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.SavedSearchID, run.Report.Attempted, run.Report.Succeeded,
		failed, run.Total, run.RanAt,
	)
	if err != nil {
		return fmt.Errorf("insert search_run: %w", err)
	}
	return nil
}

// Runs returns the newest runs of one saved search, at most limit.
func (s *PostgresStore) Runs(ctx context.Context, savedSearchID string, limit int) ([]model.SearchRun, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_searches WHERE id::text = $1)`, savedSearchID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lookup saved_search: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, saved_search_id, attempted, succeeded, failed, total, ran_at
		 FROM search_runs
		 WHERE saved_search_id::text = $1
		 ORDER BY ran_at DESC
		 LIMIT $2`,
		savedSearchID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query search_runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SearchRun, error) {
		var (
			run    model.SearchRun
			failed []string
		)
		err := row.Scan(
			&run.ID, &run.SavedSearchID, &run.Report.Attempted, &run.Report.Succeeded,
			&failed, &run.Total, &run.RanAt,
		)
		for _, f := range failed {
			run.Report.Failed = append(run.Report.Failed, model.Source(f))
		}
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search_runs: %w", err)
	}
	return runs, nil
}

// prepare trims and validates ss and fills in the generated fields.
func prepare(ss model.SavedSearch) (model.SavedSearch, error) {
	ss.Name = strings.TrimSpace(ss.Name)
	ss.Query = strings.TrimSpace(ss.Query)
	if ss.Name == "" || ss.Query == "" {
		return model.SavedSearch{}, ErrInvalid
	}
	if ss.Exclude == nil {
		ss.Exclude = []string{}
	}
	ss.ID = uuid.NewString()
	ss.CreatedAt = time.Now().UTC()
	return ss, nil
}
