// Package fact defines the tagged financial disclosures consumed by the
// reconciliation engine.
package fact

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// PeriodType distinguishes point-in-time balances from flows over a period.
type PeriodType string

// Period types.
const (
	PeriodInstant  PeriodType = "instant"
	PeriodDuration PeriodType = "duration"
)

// Valid reports whether p is one of the known period types.
func (p PeriodType) Valid() bool {
	return p == PeriodInstant || p == PeriodDuration
}

// DateLayout is the layout of period-end dates in fact files and API bodies.
const DateLayout = "2006-01-02"

// Fact is a single period-stamped numeric disclosure. Value is kept as
// decimal text so that nothing is lost before reconciliation decides to use it.
type Fact struct {
	Tag        string     `json:"tag"`
	Value      string     `json:"value"`
	PeriodEnd  *time.Time `json:"period_end,omitempty"`
	PeriodType PeriodType `json:"period_type"`
}

// Float parses Value as a decimal number. Malformed values and values outside
// float64 range return an error and are expected to be skipped by the caller.
func (f Fact) Float() (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(f.Value))
	if err != nil {
		return 0, eris.Wrapf(err, "fact: parse value %q for %s", f.Value, f.Tag)
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, eris.Errorf("fact: parse value %q for %s: out of float64 range", f.Value, f.Tag)
	}
	return v, nil
}

// Year returns the calendar year of the period end, or false when the
// period end is unknown.
func (f Fact) Year() (int, bool) {
	if f.PeriodEnd == nil {
		return 0, false
	}
	return f.PeriodEnd.Year(), true
}

// LocalName strips a taxonomy prefix such as "us-gaap:" from the tag.
func (f Fact) LocalName() string {
	if i := strings.LastIndexByte(f.Tag, ':'); i >= 0 {
		return f.Tag[i+1:]
	}
	return f.Tag
}

// ParseDate parses a period-end date. Empty input yields a nil date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, eris.Wrapf(err, "fact: parse date %q", s)
	}
	return &t, nil
}
