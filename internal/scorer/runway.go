package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/forensics/internal/financials"
)

// RunwaySentinel is reported as runway months when the company is not
// burning cash. It marks "no burn", not a measured duration.
const RunwaySentinel = 999.0

// Runway estimates how many months current cash lasts at the current
// operating burn. Cash and operating cash flow must both be present.
// A positive burnGrowth shortens the runway by half the growth rate, floored
// at zero months.
func Runway(cur financials.Financials, burnGrowth *float64) (Result, bool) {
	cash, okCash := cur.Get(financials.Cash)
	ocf, okOCF := cur.Get(financials.OperatingCashFlow)
	if !okCash || !okOCF {
		return Result{}, false
	}

	r := newResult(NameRunway)
	r.Components["cash"] = cash
	r.Components["operating_cash_flow"] = ocf

	var quarterlyBurn float64
	if ocf < 0 {
		quarterlyBurn = math.Abs(ocf) / 4
	}
	r.Components["quarterly_burn_rate"] = quarterlyBurn

	if quarterlyBurn == 0 {
		r.Score = RunwaySentinel
		r.Components["runway_months"] = RunwaySentinel
		r.Components["runway_sentinel"] = 1
		r.Interpretation = Strong
		r.Risk = RiskLow
		return r, true
	}

	months := safeDiv(cash, quarterlyBurn) * 3
	if burnGrowth != nil && *burnGrowth > 0 {
		g := *burnGrowth
		months *= 1 - g*0.5
		months = math.Max(months, 0)
		r.Components["burn_growth_rate"] = round(g, 4)
		r.flag(fmt.Sprintf("cash burn growing %.1f%% year over year", g*100))
	}
	shown := round(months, 1)
	r.Score = shown
	r.Components["runway_months"] = shown
	r.Components["runway_sentinel"] = 0

	switch {
	case months < 6:
		r.Interpretation = Critical
		r.Risk = RiskHigh
		r.flag(fmt.Sprintf("only %.1f months of cash runway: high dilution risk", shown))
	case months < 12:
		r.Interpretation = Concerning
		r.Risk = RiskHigh
		r.flag(fmt.Sprintf("%.1f months of cash runway: capital raise likely within a year", shown))
	case months < 24:
		r.Interpretation = Adequate
		r.Risk = RiskMedium
		r.flag(fmt.Sprintf("%.1f months of cash runway: funding needed within two years", shown))
	default:
		r.Interpretation = Strong
		r.Risk = RiskLow
	}
	return r, true
}
