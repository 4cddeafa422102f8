package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/forensics/internal/db"
)

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	entity      TEXT NOT NULL,
	fiscal_year INTEGER NOT NULL,
	rating      TEXT NOT NULL,
	config_hash TEXT NOT NULL DEFAULT '',
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_scores (
	analysis_id    TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	interpretation TEXT NOT NULL,
	PRIMARY KEY (analysis_id, name)
);

CREATE INDEX IF NOT EXISTS idx_analyses_entity ON analyses(entity);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_scores_interpretation ON analysis_scores(interpretation);
`

var scoreColumns = []string{"analysis_id", "name", "score", "interpretation"}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO analyses (id, entity, fiscal_year, rating, config_hash, result, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Entity, a.FiscalYear, string(a.Rating), a.ConfigHash, []byte(a.Result), a.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert analysis %s", a.ID)
	}

	rows := make([][]any, 0, len(a.Scores))
	for _, sr := range a.Scores {
		rows = append(rows, []any{a.ID, string(sr.Name), sr.Score, string(sr.Interpretation)})
	}
	if _, err := db.CopyFrom(ctx, tx, "analysis_scores", scoreColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: insert scores for %s", a.ID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit analysis")
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	var a Analysis
	var result []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, entity, fiscal_year, rating, config_hash, result, created_at FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Entity, &a.FiscalYear, &a.Rating, &a.ConfigHash, &result, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}
	a.Result = result

	rows, err := s.pool.Query(ctx,
		`SELECT name, score, interpretation FROM analysis_scores WHERE analysis_id = $1`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scores %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var sr ScoreRow
		if err := rows.Scan(&sr.Name, &sr.Score, &sr.Interpretation); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		a.Scores = append(a.Scores, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: get scores iterate")
	}
	sortScoreRows(a.Scores)
	return &a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]Analysis, error) {
	query := `SELECT id, entity, fiscal_year, rating, config_hash, result, created_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Entity != "" {
		query += fmt.Sprintf(` AND entity = $%d`, argIdx)
		args = append(args, filter.Entity)
		argIdx++
	}
	if filter.FiscalYear > 0 {
		query += fmt.Sprintf(` AND fiscal_year = $%d`, argIdx)
		args = append(args, filter.FiscalYear)
		argIdx++
	}
	if filter.Rating != "" {
		query += fmt.Sprintf(` AND rating = $%d`, argIdx)
		args = append(args, string(filter.Rating))
		argIdx++
	}
	if filter.Interpretation != "" {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM analysis_scores sc WHERE sc.analysis_id = analyses.id AND sc.interpretation = $%d)`, argIdx)
		args = append(args, string(filter.Interpretation))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		var result []byte
		if err := rows.Scan(&a.ID, &a.Entity, &a.FiscalYear, &a.Rating, &a.ConfigHash, &result, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		a.Result = result
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}
