// Package financials holds the canonical multi-period statement that facts
// are reconciled onto.
package financials

// Field identifies a canonical statement line item.
type Field uint8

// Canonical fields. The order is the presentation order.
const (
	Revenue Field = iota
	CostOfRevenue
	GrossProfit
	NetIncome
	OperatingIncome
	TotalAssets
	CurrentAssets
	CurrentLiabilities
	TotalLiabilities
	LongTermDebt
	ShareholdersEquity
	Cash
	Receivables
	Inventory
	NetPPE
	Depreciation
	SGAExpense
	OperatingCashFlow
	RetainedEarnings
	WorkingCapital
	EBIT
	MarketCap

	fieldCount
)

var fieldNames = [fieldCount]string{
	Revenue:            "revenue",
	CostOfRevenue:      "cost_of_revenue",
	GrossProfit:        "gross_profit",
	NetIncome:          "net_income",
	OperatingIncome:    "operating_income",
	TotalAssets:        "total_assets",
	CurrentAssets:      "current_assets",
	CurrentLiabilities: "current_liabilities",
	TotalLiabilities:   "total_liabilities",
	LongTermDebt:       "long_term_debt",
	ShareholdersEquity: "shareholders_equity",
	Cash:               "cash",
	Receivables:        "receivables",
	Inventory:          "inventory",
	NetPPE:             "net_ppe",
	Depreciation:       "depreciation",
	SGAExpense:         "sga_expense",
	OperatingCashFlow:  "operating_cash_flow",
	RetainedEarnings:   "retained_earnings",
	WorkingCapital:     "working_capital",
	EBIT:               "ebit",
	MarketCap:          "market_cap",
}

// String returns the snake_case name used in catalogs and JSON.
func (f Field) String() string {
	if f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool { return f < fieldCount }

// ParseField resolves a snake_case name to a Field.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Fields returns every canonical field in presentation order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// CoreFields are the current-year fields reconciled from facts and reported
// back to callers. MarketCap is excluded since it never comes from filings.
func CoreFields() []Field {
	out := Fields()
	return out[:MarketCap]
}

// priorFields is the subset reconciled for the prior year. CostOfRevenue lets
// a missing prior gross profit be derived; OperatingCashFlow and NetIncome are
// carried so burn growth can be derived.
var priorFields = []Field{
	Revenue,
	CostOfRevenue,
	GrossProfit,
	TotalAssets,
	Receivables,
	Inventory,
	CurrentAssets,
	CurrentLiabilities,
	NetPPE,
	Depreciation,
	SGAExpense,
	LongTermDebt,
	OperatingCashFlow,
	NetIncome,
}

// PriorFields returns the fields reconciled for the prior year.
func PriorFields() []Field {
	return append([]Field(nil), priorFields...)
}

// Derived reports whether a field is normally computed rather than tagged.
func (f Field) Derived() bool {
	return f == WorkingCapital || f == EBIT
}
