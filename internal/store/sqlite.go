package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	entity      TEXT NOT NULL,
	fiscal_year INTEGER NOT NULL,
	rating      TEXT NOT NULL,
	config_hash TEXT NOT NULL DEFAULT '',
	result      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analysis_scores (
	analysis_id    TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	score          REAL NOT NULL,
	interpretation TEXT NOT NULL,
	PRIMARY KEY (analysis_id, name)
);

CREATE INDEX IF NOT EXISTS idx_analyses_entity ON analyses(entity);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analysis_scores_interpretation ON analysis_scores(interpretation);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analyses (id, entity, fiscal_year, rating, config_hash, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Entity, a.FiscalYear, string(a.Rating), a.ConfigHash, string(a.Result), a.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert analysis %s", a.ID)
	}

	for _, sr := range a.Scores {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO analysis_scores (analysis_id, name, score, interpretation) VALUES (?, ?, ?, ?)`,
			a.ID, string(sr.Name), sr.Score, string(sr.Interpretation),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert score %s for %s", sr.Name, a.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit analysis")
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, entity, fiscal_year, rating, config_hash, result, created_at FROM analyses WHERE id = ?`,
		id,
	)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, score, interpretation FROM analysis_scores WHERE analysis_id = ?`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scores %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var sr ScoreRow
		if err := rows.Scan(&sr.Name, &sr.Score, &sr.Interpretation); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		a.Scores = append(a.Scores, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: get scores iterate")
	}
	sortScoreRows(a.Scores)
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]Analysis, error) {
	query := `SELECT id, entity, fiscal_year, rating, config_hash, result, created_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Entity != "" {
		query += ` AND entity = ?`
		args = append(args, filter.Entity)
	}
	if filter.FiscalYear > 0 {
		query += ` AND fiscal_year = ?`
		args = append(args, filter.FiscalYear)
	}
	if filter.Rating != "" {
		query += ` AND rating = ?`
		args = append(args, string(filter.Rating))
	}
	if filter.Interpretation != "" {
		query += ` AND EXISTS (SELECT 1 FROM analysis_scores sc WHERE sc.analysis_id = analyses.id AND sc.interpretation = ?)`
		args = append(args, string(filter.Interpretation))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*Analysis, error) {
	var a Analysis
	var result string
	if err := row.Scan(&a.ID, &a.Entity, &a.FiscalYear, &a.Rating, &a.ConfigHash, &result, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Result = []byte(result)
	return &a, nil
}
