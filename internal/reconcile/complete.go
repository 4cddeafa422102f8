package reconcile

import "github.com/sells-group/forensics/internal/financials"

// Complete fills derived fields that are absent. Fields already present from
// reconciliation are never overwritten.
//
// EBIT is approximated by operating income; it is not true EBIT.
func Complete(f financials.Financials) financials.Financials {
	v := f.Values

	if !v.Has(financials.WorkingCapital) {
		ca, okA := v.Get(financials.CurrentAssets)
		cl, okL := v.Get(financials.CurrentLiabilities)
		if okA && okL {
			v = v.With(financials.WorkingCapital, ca-cl)
		}
	}
	if !v.Has(financials.EBIT) {
		if oi, ok := v.Get(financials.OperatingIncome); ok {
			v = v.With(financials.EBIT, oi)
		}
	}
	v = completeGrossProfit(v)

	f.Values = v
	return f
}

// CompletePrior fills the prior-year gross profit when it is absent.
func CompletePrior(p financials.PriorYear) financials.PriorYear {
	p.Values = completeGrossProfit(p.Values)
	return p
}

func completeGrossProfit(v financials.Values) financials.Values {
	if v.Has(financials.GrossProfit) {
		return v
	}
	rev, okR := v.Get(financials.Revenue)
	cost, okC := v.Get(financials.CostOfRevenue)
	if okR && okC {
		v = v.With(financials.GrossProfit, rev-cost)
	}
	return v
}
