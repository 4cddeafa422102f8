// Package scorer implements the forensic and financial-health scores computed
// from a reconciled statement, and the aggregation of those scores into an
// overall rating.
package scorer

import "math"

// Name identifies a score calculator.
type Name string

// Score names.
const (
	NameManipulation Name = "manipulation_risk"
	NameBankruptcy   Name = "bankruptcy_risk"
	NameAccruals     Name = "accruals_quality"
	NameRunway       Name = "cash_runway"
	NameStrength     Name = "financial_strength"
)

// Names lists every calculator in flag-union order.
func Names() []Name {
	return []Name{NameManipulation, NameBankruptcy, NameAccruals, NameRunway, NameStrength}
}

// Interpretation is the categorical reading of a score.
type Interpretation string

// Manipulation risk.
const (
	HighRisk     Interpretation = "high_risk"
	ModerateRisk Interpretation = "moderate_risk"
	LowRisk      Interpretation = "low_risk"
)

// Bankruptcy risk zones.
const (
	Safe     Interpretation = "safe"
	GrayZone Interpretation = "gray_zone"
	Distress Interpretation = "distress"
)

// Accruals quality.
const (
	HighQuality     Interpretation = "high_quality"
	ModerateQuality Interpretation = "moderate_quality"
	LowQuality      Interpretation = "low_quality"
)

// Cash runway bands. Strong is shared with financial strength.
const (
	Critical   Interpretation = "critical"
	Concerning Interpretation = "concerning"
	Adequate   Interpretation = "adequate"
	Strong     Interpretation = "strong"
)

// Financial strength.
const (
	Moderate Interpretation = "moderate"
	Weak     Interpretation = "weak"
)

var interpretations = map[Name][]Interpretation{
	NameManipulation: {HighRisk, ModerateRisk, LowRisk},
	NameBankruptcy:   {Safe, GrayZone, Distress},
	NameAccruals:     {HighQuality, ModerateQuality, LowQuality},
	NameRunway:       {Critical, Concerning, Adequate, Strong},
	NameStrength:     {Strong, Moderate, Weak},
}

// Interpretations returns the closed set of readings a calculator can emit.
func Interpretations(n Name) []Interpretation {
	return append([]Interpretation(nil), interpretations[n]...)
}

// Valid reports whether i belongs to the set for calculator n.
func (i Interpretation) Valid(n Name) bool {
	for _, v := range interpretations[n] {
		if v == i {
			return true
		}
	}
	return false
}

// RiskLevel grades dilution risk for the cash runway score.
type RiskLevel string

// Risk levels.
const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Result is the output of a single calculator. Components holds the
// intermediate values behind Score so each can be audited.
type Result struct {
	Name           Name               `json:"name"`
	Score          float64            `json:"score"`
	Interpretation Interpretation     `json:"interpretation"`
	Probability    *float64           `json:"probability,omitempty"`
	Risk           RiskLevel          `json:"risk,omitempty"`
	Components     map[string]float64 `json:"components"`
	Flags          []string           `json:"flags"`
}

// Scores holds the results that were available, keyed by calculator.
type Scores map[Name]Result

func newResult(n Name) Result {
	return Result{
		Name:       n,
		Components: make(map[string]float64),
		Flags:      []string{},
	}
}

func (r *Result) flag(s string) {
	r.Flags = append(r.Flags, s)
}

func probability(p float64) *float64 { return &p }

// safeDiv returns 0 when the denominator is 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// index is a year-over-year ratio that reads as neutral (1) when its
// denominator is 0.
func index(num, den float64) float64 {
	if den == 0 {
		return 1
	}
	return num / den
}

func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
