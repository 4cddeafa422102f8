package scorer

import (
	"fmt"

	"github.com/sells-group/forensics/internal/financials"
)

// Beneish M-score coefficients.
const (
	mIntercept = -4.84
	mDSRI      = 0.92
	mGMI       = 0.528
	mAQI       = 0.404
	mSGI       = 0.892
	mDEPI      = 0.115
	mSGAI      = -0.172
	mTATA      = 4.679
	mLVGI      = -0.327

	mHighCutoff     = -1.78
	mModerateCutoff = -2.22
)

// Manipulation computes the eight-index Beneish M-score. It needs prior-year
// revenue and total assets; without them the score is withheld and ok is
// false. Missing operands read as zero, and any index whose denominator is
// zero reads as neutral.
func Manipulation(cur financials.Financials, prior financials.PriorYear) (Result, bool) {
	if !prior.Has(financials.Revenue) || !prior.Has(financials.TotalAssets) {
		return Result{}, false
	}

	c := func(f financials.Field) float64 { return cur.Or(f, 0) }
	p := func(f financials.Field) float64 { return prior.Or(f, 0) }

	softAssets := func(ca, ppe, ta float64) float64 { return 1 - safeDiv(ca+ppe, ta) }
	depRate := func(dep, ppe float64) float64 { return safeDiv(dep, dep+ppe) }

	dsri := index(
		safeDiv(c(financials.Receivables), c(financials.Revenue)),
		safeDiv(p(financials.Receivables), p(financials.Revenue)),
	)
	gmi := index(
		safeDiv(p(financials.GrossProfit), p(financials.Revenue)),
		safeDiv(c(financials.GrossProfit), c(financials.Revenue)),
	)
	aqi := index(
		softAssets(c(financials.CurrentAssets), c(financials.NetPPE), c(financials.TotalAssets)),
		softAssets(p(financials.CurrentAssets), p(financials.NetPPE), p(financials.TotalAssets)),
	)
	sgi := index(c(financials.Revenue), p(financials.Revenue))
	depi := index(
		depRate(p(financials.Depreciation), p(financials.NetPPE)),
		depRate(c(financials.Depreciation), c(financials.NetPPE)),
	)
	sgai := index(
		safeDiv(c(financials.SGAExpense), c(financials.Revenue)),
		safeDiv(p(financials.SGAExpense), p(financials.Revenue)),
	)
	lvgi := index(
		safeDiv(c(financials.LongTermDebt)+c(financials.CurrentLiabilities), c(financials.TotalAssets)),
		safeDiv(p(financials.LongTermDebt)+p(financials.CurrentLiabilities), p(financials.TotalAssets)),
	)
	tata := safeDiv(c(financials.NetIncome)-c(financials.OperatingCashFlow), c(financials.TotalAssets))

	m := mIntercept +
		mDSRI*dsri +
		mGMI*gmi +
		mAQI*aqi +
		mSGI*sgi +
		mDEPI*depi +
		mSGAI*sgai +
		mTATA*tata +
		mLVGI*lvgi

	r := newResult(NameManipulation)
	r.Score = round(m, 2)
	r.Components = map[string]float64{
		"dsri": round(dsri, 2),
		"gmi":  round(gmi, 2),
		"aqi":  round(aqi, 2),
		"sgi":  round(sgi, 2),
		"depi": round(depi, 2),
		"sgai": round(sgai, 2),
		"lvgi": round(lvgi, 2),
		"tata": round(tata, 3),
	}

	if dsri > 1.5 {
		r.flag(fmt.Sprintf("DSRI %.2f: receivables growing much faster than revenue", dsri))
	}
	if gmi > 1.2 {
		r.flag(fmt.Sprintf("GMI %.2f: gross margin deteriorating", gmi))
	}
	if aqi > 1.3 {
		r.flag(fmt.Sprintf("AQI %.2f: rising share of soft assets, possible cost capitalization", aqi))
	}
	if sgi > 1.5 {
		r.flag(fmt.Sprintf("SGI %.2f: rapid sales growth raises pressure to manage earnings", sgi))
	}
	if depi > 1.2 {
		r.flag(fmt.Sprintf("DEPI %.2f: depreciation rate slowing", depi))
	}
	if lvgi > 1.3 {
		r.flag(fmt.Sprintf("LVGI %.2f: leverage increasing", lvgi))
	}
	if tata > 0.05 {
		r.flag(fmt.Sprintf("TATA %.3f: earnings running ahead of operating cash flow", tata))
	}

	switch {
	case m > mHighCutoff:
		r.Interpretation = HighRisk
		r.Probability = probability(0.76)
	case m > mModerateCutoff:
		r.Interpretation = ModerateRisk
		r.Probability = probability(0.35)
	default:
		r.Interpretation = LowRisk
		r.Probability = probability(0.12)
	}
	return r, true
}
