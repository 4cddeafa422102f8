package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forensics/internal/scorer"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

var analysisColumns = []string{"id", "entity", "fiscal_year", "rating", "config_hash", "result", "created_at"}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS analyses`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a := sampleAnalysis(t, "ACME", 2023, scorer.Fair, scorer.GrayZone)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "ACME", 2023, "fair", a.ConfigHash, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"analysis_scores"}, scoreColumns).WillReturnResult(2)
	mock.ExpectCommit()

	require.NoError(t, s.SaveAnalysis(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis_InsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a := sampleAnalysis(t, "ACME", 2023, scorer.Fair, scorer.GrayZone)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO analyses`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := s.SaveAnalysis(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert analysis")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis_CopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a := sampleAnalysis(t, "ACME", 2023, scorer.Fair, scorer.GrayZone)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO analyses`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"analysis_scores"}, scoreColumns).WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	err := s.SaveAnalysis(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert scores")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, entity, fiscal_year, rating, config_hash, result, created_at FROM analyses WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(analysisColumns).
			AddRow("a1", "ACME", 2023, scorer.Fair, "hash", []byte(`{"fiscal_year":2023}`), created))
	mock.ExpectQuery(`SELECT name, score, interpretation FROM analysis_scores WHERE analysis_id = \$1`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows([]string{"name", "score", "interpretation"}).
			AddRow(scorer.NameStrength, 6.0, scorer.Moderate).
			AddRow(scorer.NameBankruptcy, 2.255, scorer.GrayZone))

	got, err := s.GetAnalysis(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Entity)
	assert.Equal(t, created, got.CreatedAt)
	require.Len(t, got.Scores, 2)
	assert.Equal(t, scorer.NameBankruptcy, got.Scores[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE true AND entity = \$1 AND EXISTS \(.*interpretation = \$2\) ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs("ACME", "distress", 10, 20).
		WillReturnRows(pgxmock.NewRows(analysisColumns).
			AddRow("a1", "ACME", 2023, scorer.CriticalRating, "hash", []byte(`{}`), created))

	list, err := s.ListAnalyses(context.Background(), AnalysisFilter{
		Entity:         "ACME",
		Interpretation: scorer.Distress,
		Limit:          10,
		Offset:         20,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, scorer.CriticalRating, list[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE true ORDER BY created_at DESC, id LIMIT \$1$`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(analysisColumns))

	list, err := s.ListAnalyses(context.Background(), AnalysisFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM analyses`).WillReturnError(errors.New("connection reset"))

	_, err := s.ListAnalyses(context.Background(), AnalysisFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list analyses")
}

func TestPostgresStore_CloseWithoutOwner(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.NoError(t, s.Close())
}
