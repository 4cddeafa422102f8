// Package xbrl parses EDGAR company-facts JSON into engine facts.
package xbrl

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forensics/internal/fact"
)

// CompanyFacts represents the EDGAR company facts JSON structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups concepts by namespace (e.g., "us-gaap", "dei").
type FactNS map[string]Concept

// Concept is a single XBRL concept with its values grouped by unit.
type Concept struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a concept. Val is kept as a
// json.Number so the decimal text survives decoding.
type FactValue struct {
	Start string      `json:"start,omitempty"`
	End   string      `json:"end"`
	Val   json.Number `json:"val"`
	Accn  string      `json:"accn"`
	FY    int         `json:"fy"`
	FP    string      `json:"fp"`
	Form  string      `json:"form"`
	Filed string      `json:"filed"`
	Frame string      `json:"frame,omitempty"`
}

// Namespaces lists the taxonomies read, in output order.
var Namespaces = []string{"us-gaap", "ifrs-full", "dei"}

// AnnualForms are the filing forms treated as annual reports.
var AnnualForms = []string{"10-K", "10-K/A", "20-F", "20-F/A", "40-F"}

// minAnnualDuration drops quarterly and year-to-date flows from annual filings.
const minAnnualDuration = 300 * 24 * time.Hour

// Options controls how company facts are flattened.
type Options struct {
	AnnualOnly bool
}

// ParseCompanyFacts parses EDGAR Company Facts JSON from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var facts CompanyFacts
	if err := dec.Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse company facts")
	}
	return &facts, nil
}

// ToFacts flattens company facts into an ordered fact list. Order is
// namespace, then concept name, then unit, then filed date descending so the
// most recent restatement of a period comes first.
func ToFacts(cf *CompanyFacts, opts Options) []fact.Fact {
	if cf == nil || len(cf.Facts) == 0 {
		return nil
	}

	forms := make(map[string]bool, len(AnnualForms))
	for _, f := range AnnualForms {
		forms[f] = true
	}

	var out []fact.Fact
	var skipped int
	for _, ns := range Namespaces {
		nsMap, ok := cf.Facts[ns]
		if !ok {
			continue
		}

		for _, name := range sortedKeys(nsMap) {
			concept := nsMap[name]
			for _, unit := range sortedKeys(concept.Units) {
				values := append([]FactValue(nil), concept.Units[unit]...)
				sort.SliceStable(values, func(i, j int) bool {
					if values[i].Filed != values[j].Filed {
						return values[i].Filed > values[j].Filed
					}
					return values[i].End > values[j].End
				})

				for _, v := range values {
					if v.End == "" {
						skipped++
						continue
					}
					if opts.AnnualOnly && !forms[v.Form] {
						continue
					}
					f, ok := toFact(ns, name, v, opts)
					if !ok {
						skipped++
						continue
					}
					out = append(out, f)
				}
			}
		}
	}

	zap.L().Debug("xbrl: flattened company facts",
		zap.Int("cik", cf.CIK),
		zap.Int("facts", len(out)),
		zap.Int("skipped", skipped),
	)
	return out
}

func toFact(ns, name string, v FactValue, opts Options) (fact.Fact, bool) {
	end, err := fact.ParseDate(v.End)
	if err != nil || end == nil {
		return fact.Fact{}, false
	}

	pt := fact.PeriodInstant
	if v.Start != "" {
		pt = fact.PeriodDuration
		start, err := fact.ParseDate(v.Start)
		if err != nil || start == nil {
			return fact.Fact{}, false
		}
		if opts.AnnualOnly && end.Sub(*start) < minAnnualDuration {
			return fact.Fact{}, false
		}
	}

	return fact.Fact{
		Tag:        ns + ":" + name,
		Value:      v.Val.String(),
		PeriodEnd:  end,
		PeriodType: pt,
	}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
