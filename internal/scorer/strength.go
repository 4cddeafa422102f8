package scorer

import "github.com/sells-group/forensics/internal/financials"

// signal is one pass/fail test of the Piotroski F-score.
type signal struct {
	key     string
	pass    bool
	failMsg string
}

// Strength computes the nine-signal Piotroski F-score. Prior-year total
// assets and current liabilities are required. Share-count data is never
// available from the canonical statement, so the no-dilution signal always
// passes.
func Strength(cur financials.Financials, prior financials.PriorYear) (Result, bool) {
	if !prior.Has(financials.TotalAssets) || !prior.Has(financials.CurrentLiabilities) {
		return Result{}, false
	}

	c := func(f financials.Field) float64 { return cur.Or(f, 0) }
	p := func(f financials.Field) float64 { return prior.Or(f, 0) }

	ni := c(financials.NetIncome)
	ocf := c(financials.OperatingCashFlow)
	roa := safeDiv(ni, c(financials.TotalAssets))

	profitability := []signal{
		{"positive_net_income", ni > 0, "net loss"},
		{"positive_roa", roa > 0, "non-positive return on assets"},
		{"positive_operating_cash_flow", ocf > 0, "non-positive operating cash flow"},
		{"cash_flow_exceeds_income", ocf > ni, "operating cash flow below net income"},
	}

	leverage := []signal{
		{"lower_leverage",
			safeDiv(c(financials.LongTermDebt), c(financials.TotalAssets)) <
				safeDiv(p(financials.LongTermDebt), p(financials.TotalAssets)),
			"long-term leverage did not decrease"},
		{"higher_current_ratio",
			safeDiv(c(financials.CurrentAssets), c(financials.CurrentLiabilities)) >
				safeDiv(p(financials.CurrentAssets), p(financials.CurrentLiabilities)),
			"current ratio did not improve"},
		{"no_new_shares", true, ""},
	}

	efficiency := []signal{
		{"higher_gross_margin",
			safeDiv(c(financials.GrossProfit), c(financials.Revenue)) >
				safeDiv(p(financials.GrossProfit), p(financials.Revenue)),
			"gross margin did not improve"},
		{"higher_asset_turnover",
			safeDiv(c(financials.Revenue), c(financials.TotalAssets)) >
				safeDiv(p(financials.Revenue), p(financials.TotalAssets)),
			"asset turnover did not improve"},
	}

	r := newResult(NameStrength)
	var total float64
	for _, group := range []struct {
		name    string
		signals []signal
	}{
		{"profitability", profitability},
		{"leverage", leverage},
		{"efficiency", efficiency},
	} {
		var sum float64
		for _, s := range group.signals {
			v := boolScore(s.pass)
			r.Components[s.key] = v
			sum += v
			if !s.pass {
				r.flag(s.failMsg)
			}
		}
		r.Components[group.name] = sum
		total += sum
	}
	r.Score = total

	switch {
	case total >= 7:
		r.Interpretation = Strong
	case total >= 4:
		r.Interpretation = Moderate
	default:
		r.Interpretation = Weak
	}
	return r, true
}
