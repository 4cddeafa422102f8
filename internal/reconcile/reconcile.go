package reconcile

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forensics/internal/fact"
	"github.com/sells-group/forensics/internal/financials"
)

// ErrFiscalYearUnknown is returned when no fact carries a usable period-end
// year, so no fiscal year can be chosen.
var ErrFiscalYearUnknown = eris.New("reconcile: no fact has a usable period-end year")

// candidate is a fact that survived parsing, reduced to what matching needs.
type candidate struct {
	name  string // lowercased local tag name
	year  int
	value float64
}

// prepare drops facts with no period end or an unparseable value, keeping
// input order for the rest.
func prepare(facts []fact.Fact) []candidate {
	out := make([]candidate, 0, len(facts))
	var malformed, undated int
	for _, f := range facts {
		year, ok := f.Year()
		if !ok {
			undated++
			continue
		}
		v, err := f.Float()
		if err != nil {
			malformed++
			continue
		}
		out = append(out, candidate{
			name:  strings.ToLower(f.LocalName()),
			year:  year,
			value: v,
		})
	}
	if malformed > 0 || undated > 0 {
		zap.L().Debug("reconcile: skipped facts",
			zap.Int("malformed", malformed),
			zap.Int("undated", undated),
		)
	}
	return out
}

// InferFiscalYear picks the latest period-end year that is not after now.
// Only facts that would take part in matching are considered.
func InferFiscalYear(facts []fact.Fact, now time.Time) (int, error) {
	limit := now.Year()
	best := 0
	for _, c := range prepare(facts) {
		if c.year <= limit && c.year > best {
			best = c.year
		}
	}
	if best == 0 {
		return 0, ErrFiscalYearUnknown
	}
	return best, nil
}

// Reconcile maps facts onto the statement for year and year-1.
//
// For each field the catalog aliases are tried in two passes: first exact
// tag matches in alias priority order, then substring matches in the same
// order. Within an alias, facts are scanned in input order and the first one
// dated in the target year wins. Fields with no match stay absent.
func Reconcile(facts []fact.Fact, year int, cat *Catalog) financials.Statements {
	if cat == nil {
		cat = DefaultCatalog()
	}
	cands := prepare(facts)

	st := financials.Statements{
		Current: financials.Financials{FiscalYear: year},
		Prior:   financials.PriorYear{FiscalYear: year - 1},
	}
	for _, f := range financials.CoreFields() {
		if v, ok := match(cands, cat.Candidates(f), year); ok {
			st.Current.Values = st.Current.With(f, v)
		}
	}
	for _, f := range financials.PriorFields() {
		if v, ok := match(cands, cat.Candidates(f), year-1); ok {
			st.Prior.Values = st.Prior.With(f, v)
		}
	}
	return st
}

func match(cands []candidate, aliases []string, year int) (float64, bool) {
	if len(aliases) == 0 {
		return 0, false
	}
	lower := make([]string, len(aliases))
	for i, a := range aliases {
		lower[i] = strings.ToLower(a)
	}

	for _, alias := range lower {
		for _, c := range cands {
			if c.year == year && c.name == alias {
				return c.value, true
			}
		}
	}
	for _, alias := range lower {
		for _, c := range cands {
			if c.year == year && strings.Contains(c.name, alias) {
				return c.value, true
			}
		}
	}
	return 0, false
}
