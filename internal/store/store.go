// Package store persists analysis results. The engine itself never touches
// storage; callers save its output here.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forensics/internal/engine"
	"github.com/sells-group/forensics/internal/scorer"
)

// ErrNotFound is returned when an analysis ID does not exist.
var ErrNotFound = eris.New("store: not found")

// Analysis is a stored engine result.
type Analysis struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	FiscalYear int             `json:"fiscal_year"`
	Rating     scorer.Rating   `json:"rating"`
	ConfigHash string          `json:"config_hash"`
	Result     json.RawMessage `json:"result"`
	Scores     []ScoreRow      `json:"scores,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ScoreRow is the indexed summary of one calculator's result.
type ScoreRow struct {
	Name           scorer.Name           `json:"name"`
	Score          float64               `json:"score"`
	Interpretation scorer.Interpretation `json:"interpretation"`
}

// AnalysisFilter specifies criteria for listing analyses.
type AnalysisFilter struct {
	Entity         string                `json:"entity,omitempty"`
	FiscalYear     int                   `json:"fiscal_year,omitempty"`
	Rating         scorer.Rating         `json:"rating,omitempty"`
	Interpretation scorer.Interpretation `json:"interpretation,omitempty"`
	Limit          int                   `json:"limit,omitempty"`
	Offset         int                   `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f AnalysisFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for analysis results.
type Store interface {
	// SaveAnalysis assigns ID and CreatedAt when unset.
	SaveAnalysis(ctx context.Context, a *Analysis) error
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]Analysis, error)

	Migrate(ctx context.Context) error
	Close() error
}

// NewAnalysis builds a record from an engine result. Score rows follow
// calculator order.
func NewAnalysis(entity string, res *engine.Result, cfg scorer.Config) (*Analysis, error) {
	if res == nil {
		return nil, eris.New("store: nil result")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal result")
	}

	a := &Analysis{
		Entity:     entity,
		FiscalYear: res.FiscalYear,
		Rating:     res.Rating.Rating,
		ConfigHash: scorer.ConfigHash(cfg),
		Result:     data,
	}
	for _, n := range scorer.Names() {
		if r, ok := res.Scores[n]; ok {
			a.Scores = append(a.Scores, ScoreRow{Name: n, Score: r.Score, Interpretation: r.Interpretation})
		}
	}
	return a, nil
}

// Decode unmarshals the stored engine result.
func (a *Analysis) Decode() (*engine.Result, error) {
	var res engine.Result
	if err := json.Unmarshal(a.Result, &res); err != nil {
		return nil, eris.Wrapf(err, "store: decode analysis %s", a.ID)
	}
	return &res, nil
}

func sortScoreRows(rows []ScoreRow) {
	order := make(map[scorer.Name]int, len(scorer.Names()))
	for i, n := range scorer.Names() {
		order[n] = i
	}
	sort.SliceStable(rows, func(i, j int) bool { return order[rows[i].Name] < order[rows[j].Name] })
}
