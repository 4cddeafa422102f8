package scorer

import (
	"fmt"

	"github.com/sells-group/forensics/internal/financials"
)

// Altman Z-score zone cutoffs.
const (
	zSafe     = 2.99
	zGrayZone = 1.81
)

// Bankruptcy computes the five-ratio Altman Z-score. Total assets must be
// present and non-zero, otherwise every ratio is undefined and the score is
// withheld. X4 uses market capitalization when one is present and
// useMarketCap is set, and book equity otherwise.
func Bankruptcy(cur financials.Financials, useMarketCap bool) (Result, bool) {
	ta, ok := cur.Get(financials.TotalAssets)
	if !ok || ta == 0 {
		return Result{}, false
	}

	equity := cur.Or(financials.ShareholdersEquity, 0)
	equitySource := "book"
	if mc, ok := cur.Get(financials.MarketCap); ok && useMarketCap {
		equity = mc
		equitySource = "market"
	}

	x1 := safeDiv(cur.Or(financials.WorkingCapital, 0), ta)
	x2 := safeDiv(cur.Or(financials.RetainedEarnings, 0), ta)
	x3 := safeDiv(cur.Or(financials.EBIT, 0), ta)
	x4 := safeDiv(equity, cur.Or(financials.TotalLiabilities, 0))
	x5 := safeDiv(cur.Or(financials.Revenue, 0), ta)

	z := 1.2*x1 + 1.4*x2 + 3.3*x3 + 0.6*x4 + 1.0*x5

	r := newResult(NameBankruptcy)
	r.Score = round(z, 3)
	r.Components = map[string]float64{
		"x1_working_capital":    round(x1, 3),
		"x2_retained_earnings":  round(x2, 3),
		"x3_ebit":               round(x3, 3),
		"x4_equity_liabilities": round(x4, 3),
		"x5_asset_turnover":     round(x5, 3),
		"market_cap_used":       boolScore(equitySource == "market"),
	}

	if x1 < 0 {
		r.flag("negative working capital")
	}
	if x2 < 0 {
		r.flag("accumulated deficit in retained earnings")
	}
	if x3 < 0 {
		r.flag("negative operating earnings relative to assets")
	}
	if x4 < 0.5 {
		r.flag(fmt.Sprintf("%s equity covers only %.2fx of liabilities", equitySource, x4))
	}

	switch {
	case z > zSafe:
		r.Interpretation = Safe
		r.Probability = probability(0.05)
	case z > zGrayZone:
		r.Interpretation = GrayZone
		r.Probability = probability(0.35)
	default:
		r.Interpretation = Distress
		r.Probability = probability(0.80)
		r.flag("financial distress zone")
	}
	return r, true
}
