package scorer

import (
	"fmt"

	"github.com/sells-group/forensics/internal/financials"
)

// Accruals measures how much of net income is backed by operating cash flow.
// Net income and operating cash flow must both be present. The accruals
// ratio is scaled by average total assets when the prior year's total assets
// are known, and by current total assets otherwise.
func Accruals(cur financials.Financials, prior financials.PriorYear) (Result, bool) {
	ni, okNI := cur.Get(financials.NetIncome)
	ocf, okOCF := cur.Get(financials.OperatingCashFlow)
	if !okNI || !okOCF {
		return Result{}, false
	}

	ta := cur.Or(financials.TotalAssets, 0)
	scale := ta
	if pta, ok := prior.Get(financials.TotalAssets); ok {
		scale = (ta + pta) / 2
	}

	totalAccruals := ni - ocf
	ratio := safeDiv(totalAccruals, scale)
	conversion := safeDiv(ocf, ni)

	r := newResult(NameAccruals)
	r.Score = round(ratio, 4)
	r.Components = map[string]float64{
		"total_accruals":  totalAccruals,
		"accruals_ratio":  round(ratio, 4),
		"cash_conversion": round(conversion, 2),
		"asset_base":      scale,
	}

	switch {
	case conversion >= 1 && ratio < 0.05:
		r.Interpretation = HighQuality
	case conversion >= 0.7 && ratio < 0.10:
		r.Interpretation = ModerateQuality
	default:
		r.Interpretation = LowQuality
		r.flag(fmt.Sprintf("low earnings quality: cash conversion %.2f, accruals ratio %.3f", conversion, ratio))
	}

	if ratio > 0.10 {
		r.flag(fmt.Sprintf("accruals ratio %.3f above 0.10: earnings-management risk", ratio))
	}
	if ni > 0 && conversion < 0 {
		r.flag("negative operating cash flow despite positive net income")
	}
	if totalAccruals > 0 && totalAccruals > 0.5*ni {
		r.flag("majority of earnings are non-cash")
	}
	return r, true
}
