package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forensics/internal/fact"
	"github.com/sells-group/forensics/internal/financials"
)

func date(s string) *time.Time {
	t, err := time.Parse(fact.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func instant(tag, value, end string) fact.Fact {
	return fact.Fact{Tag: tag, Value: value, PeriodEnd: date(end), PeriodType: fact.PeriodInstant}
}

func duration(tag, value, end string) fact.Fact {
	return fact.Fact{Tag: tag, Value: value, PeriodEnd: date(end), PeriodType: fact.PeriodDuration}
}

func sampleFacts() []fact.Fact {
	return []fact.Fact{
		duration("us-gaap:Revenues", "900", "2023-12-31"),
		duration("us-gaap:Revenues", "800", "2022-12-31"),
		duration("us-gaap:CostOfRevenue", "500", "2023-12-31"),
		duration("us-gaap:NetIncomeLoss", "120", "2023-12-31"),
		duration("us-gaap:OperatingIncomeLoss", "150", "2023-12-31"),
		instant("us-gaap:Assets", "1000", "2023-12-31"),
		instant("us-gaap:Assets", "950", "2022-12-31"),
		instant("us-gaap:AssetsCurrent", "400", "2023-12-31"),
		instant("us-gaap:LiabilitiesCurrent", "200", "2023-12-31"),
		instant("us-gaap:LiabilitiesCurrent", "180", "2022-12-31"),
		instant("us-gaap:Liabilities", "500", "2023-12-31"),
		instant("us-gaap:StockholdersEquity", "400", "2023-12-31"),
		instant("us-gaap:RetainedEarningsAccumulatedDeficit", "100", "2023-12-31"),
		duration("us-gaap:NetCashProvidedByUsedInOperatingActivities", "110", "2023-12-31"),
	}
}

func TestInferFiscalYear(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	year, err := InferFiscalYear(sampleFacts(), now)
	require.NoError(t, err)
	assert.Equal(t, 2023, year)
}

func TestInferFiscalYear_IgnoresFuture(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	facts := append(sampleFacts(), instant("us-gaap:Assets", "1", "2026-12-31"))

	year, err := InferFiscalYear(facts, now)
	require.NoError(t, err)
	assert.Equal(t, 2023, year)
}

func TestInferFiscalYear_Unknown(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		facts []fact.Fact
	}{
		{"no facts", nil},
		{"no dates", []fact.Fact{{Tag: "Assets", Value: "1", PeriodType: fact.PeriodInstant}}},
		{"only future", []fact.Fact{instant("Assets", "1", "2030-12-31")}},
		{"only malformed", []fact.Fact{instant("Assets", "abc", "2023-12-31")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InferFiscalYear(tt.facts, now)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrFiscalYearUnknown))
		})
	}
}

func TestReconcile_CurrentAndPrior(t *testing.T) {
	st := Reconcile(sampleFacts(), 2023, nil)

	assert.Equal(t, 2023, st.Current.FiscalYear)
	assert.Equal(t, 2022, st.Prior.FiscalYear)

	rev, ok := st.Current.Get(financials.Revenue)
	require.True(t, ok)
	assert.InDelta(t, 900.0, rev, 0)

	ta, ok := st.Current.Get(financials.TotalAssets)
	require.True(t, ok)
	assert.InDelta(t, 1000.0, ta, 0, "exact Assets must beat substring AssetsCurrent")

	prevRev, ok := st.Prior.Get(financials.Revenue)
	require.True(t, ok)
	assert.InDelta(t, 800.0, prevRev, 0)

	prevTA, ok := st.Prior.Get(financials.TotalAssets)
	require.True(t, ok)
	assert.InDelta(t, 950.0, prevTA, 0)
}

func TestReconcile_AbsentFieldsStayAbsent(t *testing.T) {
	st := Reconcile(sampleFacts(), 2023, nil)

	assert.False(t, st.Current.Has(financials.Inventory))
	assert.False(t, st.Current.Has(financials.GrossProfit))
	assert.False(t, st.Current.Has(financials.WorkingCapital))
	assert.False(t, st.Prior.Has(financials.Receivables))
}

func TestReconcile_SubstringFallback(t *testing.T) {
	facts := []fact.Fact{
		duration("custom:CompanyCostOfGoodsAndServicesSoldAdjusted", "321", "2023-12-31"),
	}
	st := Reconcile(facts, 2023, nil)

	v, ok := st.Current.Get(financials.CostOfRevenue)
	require.True(t, ok)
	assert.InDelta(t, 321.0, v, 0)
}

func TestReconcile_CaseInsensitive(t *testing.T) {
	facts := []fact.Fact{instant("ASSETS", "10", "2023-06-30")}
	st := Reconcile(facts, 2023, nil)

	assert.True(t, st.Current.Has(financials.TotalAssets))
}

func TestReconcile_PriorityOrder(t *testing.T) {
	facts := []fact.Fact{
		duration("us-gaap:SalesRevenueNet", "1", "2023-12-31"),
		duration("us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", "2", "2023-12-31"),
	}
	st := Reconcile(facts, 2023, nil)

	v, _ := st.Current.Get(financials.Revenue)
	assert.InDelta(t, 2.0, v, 0, "higher-priority alias wins regardless of input order")
}

func TestReconcile_ExactLowerAliasBeatsSubstringHigherAlias(t *testing.T) {
	// "Revenues" is the top revenue alias but only matches OtherRevenues as a
	// substring; the second alias matches exactly and wins.
	facts := []fact.Fact{
		duration("custom:OtherRevenues", "1", "2023-12-31"),
		duration("us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax", "2", "2023-12-31"),
	}
	st := Reconcile(facts, 2023, nil)

	v, ok := st.Current.Get(financials.Revenue)
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 0)

	st = Reconcile(facts[:1], 2023, nil)
	v, ok = st.Current.Get(financials.Revenue)
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 0)
}

func TestReconcile_FirstInInputOrderWins(t *testing.T) {
	facts := []fact.Fact{
		instant("us-gaap:Assets", "111", "2023-12-31"),
		instant("us-gaap:Assets", "222", "2023-06-30"),
	}
	st := Reconcile(facts, 2023, nil)

	v, _ := st.Current.Get(financials.TotalAssets)
	assert.InDelta(t, 111.0, v, 0)
}

func TestReconcile_SkipsMalformed(t *testing.T) {
	facts := []fact.Fact{
		instant("us-gaap:Assets", "not-a-number", "2023-12-31"),
		instant("us-gaap:Assets", "500", "2023-12-31"),
		{Tag: "us-gaap:AssetsCurrent", Value: "10", PeriodType: fact.PeriodInstant},
	}
	st := Reconcile(facts, 2023, nil)

	v, ok := st.Current.Get(financials.TotalAssets)
	require.True(t, ok)
	assert.InDelta(t, 500.0, v, 0)
	assert.False(t, st.Current.Has(financials.CurrentAssets), "undated facts never match")
}

func TestReconcile_NoBlendAcrossYears(t *testing.T) {
	facts := []fact.Fact{instant("us-gaap:InventoryNet", "7", "2022-12-31")}
	st := Reconcile(facts, 2023, nil)

	assert.False(t, st.Current.Has(financials.Inventory))
	assert.True(t, st.Prior.Has(financials.Inventory))
}

func TestReconcile_Idempotent(t *testing.T) {
	facts := sampleFacts()
	a := Reconcile(facts, 2023, nil)
	b := Reconcile(facts, 2023, nil)
	assert.Equal(t, a, b)
}

func TestComplete(t *testing.T) {
	st := Reconcile(sampleFacts(), 2023, nil)
	f := Complete(st.Current)

	wc, ok := f.Get(financials.WorkingCapital)
	require.True(t, ok)
	assert.InDelta(t, 200.0, wc, 0)

	ebit, ok := f.Get(financials.EBIT)
	require.True(t, ok)
	assert.InDelta(t, 150.0, ebit, 0)

	gp, ok := f.Get(financials.GrossProfit)
	require.True(t, ok)
	assert.InDelta(t, 400.0, gp, 0)

	assert.False(t, st.Current.Has(financials.EBIT), "input is not mutated")
}

func TestComplete_NeverOverwrites(t *testing.T) {
	var f financials.Financials
	f.Values = f.
		With(financials.Revenue, 100).
		With(financials.CostOfRevenue, 60).
		With(financials.GrossProfit, 55).
		With(financials.CurrentAssets, 10).
		With(financials.CurrentLiabilities, 4).
		With(financials.WorkingCapital, 1).
		With(financials.OperatingIncome, 9).
		With(financials.EBIT, 8)

	got := Complete(f)
	assert.InDelta(t, 55.0, got.Or(financials.GrossProfit, 0), 0)
	assert.InDelta(t, 1.0, got.Or(financials.WorkingCapital, 0), 0)
	assert.InDelta(t, 8.0, got.Or(financials.EBIT, 0), 0)
}

func TestComplete_MissingOperands(t *testing.T) {
	var f financials.Financials
	f.Values = f.With(financials.Revenue, 100).With(financials.CurrentAssets, 10)

	got := Complete(f)
	assert.False(t, got.Has(financials.GrossProfit))
	assert.False(t, got.Has(financials.WorkingCapital))
	assert.False(t, got.Has(financials.EBIT))
}

func TestCompletePrior(t *testing.T) {
	var p financials.PriorYear
	p.Values = p.With(financials.Revenue, 80).With(financials.CostOfRevenue, 50)

	got := CompletePrior(p)
	assert.InDelta(t, 30.0, got.Or(financials.GrossProfit, 0), 0)
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Same(t, c, DefaultCatalog())

	rev := c.Candidates(financials.Revenue)
	require.NotEmpty(t, rev)
	assert.Equal(t, "Revenues", rev[0])

	rev[0] = "Mutated"
	assert.Equal(t, "Revenues", c.Candidates(financials.Revenue)[0])

	assert.Contains(t, c.Fields(), financials.CostOfRevenue)
	assert.NotContains(t, c.Fields(), financials.WorkingCapital)
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "catalog: {}\n", "catalog is empty"},
		{"unknown field", "catalog:\n  ebitda: [Foo]\n", "unknown field ebitda"},
		{"no aliases", "catalog:\n  revenue: ['  ']\n", "no aliases for revenue"},
		{"bad yaml", "catalog: [", "parse catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCatalog_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  revenue: [TurnoverTotal]\n"), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	st := Reconcile([]fact.Fact{duration("x:TurnoverTotal", "42", "2023-12-31")}, 2023, c)
	assert.InDelta(t, 42.0, st.Current.Or(financials.Revenue, 0), 0)
	assert.False(t, st.Current.Has(financials.TotalAssets))
}

func TestCatalog_YAMLRoundTrip(t *testing.T) {
	data, err := DefaultCatalog().YAML()
	require.NoError(t, err)

	c, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Fields(), c.Fields())
}
