// Package engine runs the full analysis: reconcile facts into a two-year
// statement, complete derived fields, compute the five scores and aggregate
// them into an overall rating. It does no I/O.
package engine

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forensics/internal/fact"
	"github.com/sells-group/forensics/internal/financials"
	"github.com/sells-group/forensics/internal/reconcile"
	"github.com/sells-group/forensics/internal/scorer"
)

// Options controls a single analysis.
type Options struct {
	// FiscalYear to reconcile against. Zero infers it from the facts.
	FiscalYear int

	scorer.Config

	// Catalog overrides the embedded tag-alias catalog.
	Catalog *reconcile.Catalog

	// Now anchors fiscal-year inference. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions infers the fiscal year and prefers market capitalization.
func DefaultOptions() Options {
	return Options{Config: scorer.DefaultConfig()}
}

// DataQuality summarizes how much of the statement could be reconciled.
type DataQuality struct {
	HasCurrentYearData bool `json:"has_current_year_data"`
	HasPriorYearData   bool `json:"has_prior_year_data"`
	FieldsPopulated    int  `json:"fields_populated"`
}

// Result is the output of Analyze. Scores omits calculators whose inputs
// were missing.
type Result struct {
	FiscalYear  int                   `json:"fiscal_year"`
	DataQuality DataQuality           `json:"data_quality"`
	Scores      scorer.Scores         `json:"scores"`
	Rating      scorer.Overall        `json:"rating"`
	Financials  financials.Financials `json:"financials"`
}

// Analyze scores a fact set. The only error conditions are an invalid
// scorer config and a fiscal year that cannot be inferred
// (reconcile.ErrFiscalYearUnknown).
func Analyze(facts []fact.Fact, opts Options) (*Result, error) {
	if err := scorer.ValidateConfig(opts.Config); err != nil {
		return nil, eris.Wrap(err, "engine: invalid options")
	}
	if opts.FiscalYear < 0 {
		return nil, eris.Errorf("engine: invalid fiscal year %d", opts.FiscalYear)
	}

	year := opts.FiscalYear
	if year == 0 {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		y, err := reconcile.InferFiscalYear(facts, now())
		if err != nil {
			return nil, err
		}
		year = y
	}

	st := reconcile.Reconcile(facts, year, opts.Catalog)
	cur := reconcile.Complete(st.Current)
	prior := reconcile.CompletePrior(st.Prior)

	if opts.MarketCap != nil {
		cur.Values = cur.With(financials.MarketCap, *opts.MarketCap)
	}

	scores := make(scorer.Scores, len(scorer.Names()))
	add := func(n scorer.Name, r scorer.Result, ok bool) {
		if !ok {
			zap.L().Debug("engine: score withheld",
				zap.String("score", string(n)),
				zap.Int("fiscal_year", year),
			)
			return
		}
		scores[n] = r
	}

	r, ok := scorer.Manipulation(cur, prior)
	add(scorer.NameManipulation, r, ok)
	r, ok = scorer.Bankruptcy(cur, opts.UseMarketCap)
	add(scorer.NameBankruptcy, r, ok)
	r, ok = scorer.Accruals(cur, prior)
	add(scorer.NameAccruals, r, ok)
	r, ok = scorer.Runway(cur, burnGrowth(cur, prior, opts.BurnGrowthRate))
	add(scorer.NameRunway, r, ok)
	r, ok = scorer.Strength(cur, prior)
	add(scorer.NameStrength, r, ok)

	populated := cur.Populated(financials.CoreFields()...)
	return &Result{
		FiscalYear: year,
		DataQuality: DataQuality{
			HasCurrentYearData: populated > 0,
			HasPriorYearData:   prior.Populated(financials.PriorFields()...) > 0,
			FieldsPopulated:    populated,
		},
		Scores:     scores,
		Rating:     scorer.Aggregate(scores),
		Financials: cur,
	}, nil
}

// burnGrowth returns the explicit rate when set. Otherwise, when the company
// burned cash in both years, it is the relative change in burn.
func burnGrowth(cur financials.Financials, prior financials.PriorYear, explicit *float64) *float64 {
	if explicit != nil {
		return explicit
	}
	ocf, ok := cur.Get(financials.OperatingCashFlow)
	pocf, pok := prior.Get(financials.OperatingCashFlow)
	if !ok || !pok || ocf >= 0 || pocf >= 0 {
		return nil
	}
	g := (math.Abs(ocf) - math.Abs(pocf)) / math.Abs(pocf)
	return &g
}
