package financials

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Values is a fixed set of optional canonical values. The zero value has
// every field absent. Values is copied by assignment, so a Financials passed
// by value can't be changed by the callee.
type Values struct {
	val [fieldCount]float64
	ok  [fieldCount]bool
}

// Get returns the value and whether it is present.
func (v Values) Get(f Field) (float64, bool) {
	if !f.Valid() {
		return 0, false
	}
	return v.val[f], v.ok[f]
}

// Has reports whether f is present.
func (v Values) Has(f Field) bool {
	return f.Valid() && v.ok[f]
}

// Or returns the value of f, or def when f is absent. Scorers use this to
// make zero-defaulting explicit at the scoring boundary.
func (v Values) Or(f Field, def float64) float64 {
	if x, ok := v.Get(f); ok {
		return x
	}
	return def
}

// With returns a copy with f set to x.
func (v Values) With(f Field, x float64) Values {
	if f.Valid() {
		v.val[f] = x
		v.ok[f] = true
	}
	return v
}

// Populated counts present fields among fs, or among all fields when fs is empty.
func (v Values) Populated(fs ...Field) int {
	if len(fs) == 0 {
		fs = Fields()
	}
	n := 0
	for _, f := range fs {
		if v.Has(f) {
			n++
		}
	}
	return n
}

// Map returns the present values among fs keyed by field name.
func (v Values) Map(fs ...Field) map[string]float64 {
	if len(fs) == 0 {
		fs = Fields()
	}
	m := make(map[string]float64, len(fs))
	for _, f := range fs {
		if x, ok := v.Get(f); ok {
			m[f.String()] = x
		}
	}
	return m
}

// Financials is the reconciled statement for a single fiscal year.
type Financials struct {
	FiscalYear int
	Values
}

// PriorYear is the reconciled statement for the year before FiscalYear.
type PriorYear struct {
	FiscalYear int
	Values
}

// Statements pairs a current year with its prior year.
type Statements struct {
	Current Financials
	Prior   PriorYear
}

// MarshalJSON emits the present core fields. encoding/json sorts map keys so
// output is stable.
func (f Financials) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementJSON{f.FiscalYear, f.Map(CoreFields()...)})
}

type statementJSON struct {
	FiscalYear int                `json:"fiscal_year"`
	Values     map[string]float64 `json:"values"`
}

func decodeStatement(data []byte) (int, Values, error) {
	var raw statementJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, Values{}, eris.Wrap(err, "financials: decode statement")
	}
	var v Values
	for name, x := range raw.Values {
		f, ok := ParseField(name)
		if !ok {
			return 0, Values{}, eris.Errorf("financials: unknown field %q", name)
		}
		v = v.With(f, x)
	}
	return raw.FiscalYear, v, nil
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (f *Financials) UnmarshalJSON(data []byte) error {
	year, v, err := decodeStatement(data)
	if err != nil {
		return err
	}
	f.FiscalYear, f.Values = year, v
	return nil
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (p *PriorYear) UnmarshalJSON(data []byte) error {
	year, v, err := decodeStatement(data)
	if err != nil {
		return err
	}
	p.FiscalYear, p.Values = year, v
	return nil
}

// MarshalJSON emits the present prior-year fields.
func (p PriorYear) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementJSON{p.FiscalYear, p.Map(priorFields...)})
}

// Names returns the names of present fields among fs in field order.
func (v Values) Names(fs ...Field) []string {
	if len(fs) == 0 {
		fs = Fields()
	}
	var names []string
	for _, f := range fs {
		if v.Has(f) {
			names = append(names, f.String())
		}
	}
	return names
}
