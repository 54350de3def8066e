package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/kakeibo/src/models"
)

// metricsFixture builds n consecutive months of internally consistent joined
// statements: constant income and expenditure, savings parked in the liquid
// bucket, and the risk bucket growing by gainRate a month.
func metricsFixture(start models.Month, n int, income, expenditure int64, initialRisk, gainRate float64) ([]models.CashFlowStatement, []models.BalanceSheet) {
	savings := income - expenditure
	cashflows := make([]models.CashFlowStatement, n)
	sheets := make([]models.BalanceSheet, n)
	liquid, risk := 1000000.0, initialRisk
	for i := 0; i < n; i++ {
		m := start.Add(i)
		cashflows[i] = models.CashFlowStatement{
			Month:          m,
			AfterTaxIncome: income,
			Expenditure:    expenditure,
			NetSavings:     savings,
		}
		var gain float64
		if i > 0 {
			gain = risk * gainRate
			risk += gain
			liquid += float64(savings)
		}
		sheets[i] = models.BalanceSheet{
			Month:                m,
			LiquidAssets:         liquid,
			RiskAssets:           risk,
			TotalFinancialAssets: liquid + risk,
			InvestmentGainLoss:   gain,
		}
	}
	return cashflows, sheets
}

func steadyMarkets(start models.Month, n int, usdjpy, sp500, spGrowth float64) []models.MarketRecord {
	out := make([]models.MarketRecord, n)
	sp := sp500
	for i := range out {
		if i > 0 {
			sp *= 1 + spGrowth
		}
		out[i] = models.MarketRecord{Month: start.Add(i), USDJPY: usdjpy, EURJPY: usdjpy * 1.1, SP500: sp}
	}
	return out
}

func TestMetricsProcessor_ShortHistoryStaysUndefined(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 11, 300000, 200000, 2000000, 0.01)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 11)

	for _, rec := range records {
		assert.False(t, rec.SavingsRate.Defined(), "savings_rate at %s", rec.Month)
		assert.False(t, rec.MonthlyReturn.Defined(), "monthly_return at %s", rec.Month)
		assert.False(t, rec.BenchmarkReturn.Defined(), "benchmark_return at %s", rec.Month)
		assert.False(t, rec.MonthlyAlpha.Defined(), "monthly_alpha at %s", rec.Month)
		assert.False(t, rec.FIRatio12M.Defined(), "fi_ratio_12m at %s", rec.Month)
		assert.False(t, rec.FIRatio48M.Defined(), "fi_ratio_48m at %s", rec.Month)

		// single-month ratios ignore history depth
		assert.True(t, rec.RiskAssetRatio.Defined(), "risk_asset_ratio at %s", rec.Month)
		assert.True(t, rec.FIRatioNext12M.Defined(), "fi_ratio_next_12m at %s", rec.Month)
	}
}

func TestMetricsProcessor_SavingsRate(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 12, 300000, 200000, 2000000, 0)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 12)

	assert.False(t, records[10].SavingsRate.Defined())

	rate, ok := records[11].SavingsRate.Value()
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, rate, 1e-12)
}

func TestMetricsProcessor_SavingsRateZeroIncomeUndefined(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 12, 0, 100000, 2000000, 0)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

	assert.False(t, records[11].SavingsRate.Defined(), "zero income denominator")
}

// Twelve consecutive 1% raw returns compound to a 1% geometric mean.
func TestMetricsProcessor_ConstantReturnGeometricMean(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 13, 300000, 200000, 1000000, 0.01)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 13)

	// the first month has no raw return, so the window is one short here
	assert.False(t, records[11].MonthlyReturn.Defined())

	got, ok := records[12].MonthlyReturn.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.01, got, 1e-9)
}

func TestMetricsProcessor_TotalLossMakesReturnUndefined(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 13, 300000, 200000, 1000000, 0.01)
	// a -100% month: 1+r hits zero and the compounded product stops being
	// a meaningful growth factor
	sheets[6].InvestmentGainLoss = -sheets[5].RiskAssets

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

	assert.False(t, records[12].MonthlyReturn.Defined())
}

func TestMetricsProcessor_BenchmarkReturn(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 13, 300000, 200000, 1000000, 0.01)

	t.Run("index growth in yen terms", func(t *testing.T) {
		markets := steadyMarkets("2023-01", 13, 150, 4000, 0.01)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, markets)

		assert.False(t, records[11].BenchmarkReturn.Defined())

		bench, ok := records[12].BenchmarkReturn.Value()
		require.True(t, ok)
		assert.InDelta(t, 0.01, bench, 1e-9)

		alpha, ok := records[12].MonthlyAlpha.Value()
		require.True(t, ok)
		assert.InDelta(t, 0, alpha, 1e-9)
	})

	t.Run("a weakening yen raises the benchmark", func(t *testing.T) {
		// flat index, USDJPY up 1% a month: a yen-based holder still gains
		markets := steadyMarkets("2023-01", 13, 150, 4000, 0)
		for i := 1; i < len(markets); i++ {
			markets[i].USDJPY = markets[i-1].USDJPY * 1.01
		}
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, markets)

		bench, ok := records[12].BenchmarkReturn.Value()
		require.True(t, ok)
		assert.InDelta(t, 0.01, bench, 1e-9)
	})

	t.Run("no market data leaves alpha undefined", func(t *testing.T) {
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		assert.True(t, records[12].MonthlyReturn.Defined())
		assert.False(t, records[12].BenchmarkReturn.Defined())
		assert.False(t, records[12].MonthlyAlpha.Defined())
	})
}

func TestMetricsProcessor_FIRatios(t *testing.T) {
	t.Run("zero gains are a computed zero, not undefined", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2023-01", 12, 300000, 200000, 2000000, 0)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		fi, ok := records[11].FIRatio12M.Value()
		require.True(t, ok)
		assert.Equal(t, 0.0, fi)
	})

	t.Run("48-month window", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2020-01", 48, 300000, 200000, 2000000, 0.005)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		assert.False(t, records[46].FIRatio48M.Defined())
		assert.True(t, records[47].FIRatio48M.Defined())

		var gains float64
		for _, bs := range sheets {
			gains += bs.InvestmentGainLoss
		}
		fi, _ := records[47].FIRatio48M.Value()
		assert.InDelta(t, gains/(48*200000), fi, 1e-12)
	})

	t.Run("zero expenditure denominator", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2023-01", 12, 300000, 0, 2000000, 0.01)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		assert.False(t, records[11].FIRatio12M.Defined())
	})
}

func TestMetricsProcessor_FIRatioNext(t *testing.T) {
	t.Run("configured expense base", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2024-01", 1, 300000, 200000, 24000000, 0)
		records := NewMetricsProcessor(0.05, 6000000).Process(cashflows, sheets, nil)

		fi, ok := records[0].FIRatioNext12M.Value()
		require.True(t, ok)
		assert.InDelta(t, 0.2, fi, 1e-12)
	})

	t.Run("derived from trailing expenditure, partial window allowed", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2024-01", 3, 300000, 200000, 1200000, 0)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		// 1,200,000 * 0.05 / (3 * 200,000)
		fi, ok := records[2].FIRatioNext12M.Value()
		require.True(t, ok)
		assert.InDelta(t, 0.1, fi, 1e-12)
	})

	t.Run("nothing spent and no override", func(t *testing.T) {
		cashflows, sheets := metricsFixture("2024-01", 3, 300000, 0, 1200000, 0)
		records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)

		assert.False(t, records[2].FIRatioNext12M.Defined())
	})
}

func TestMetricsProcessor_RiskAssetRatio(t *testing.T) {
	cashflows := []models.CashFlowStatement{
		{Month: "2024-01", AfterTaxIncome: 300000, Expenditure: 200000, NetSavings: 100000},
		{Month: "2024-02", AfterTaxIncome: 300000, Expenditure: 200000, NetSavings: 100000},
	}
	sheets := []models.BalanceSheet{
		{Month: "2024-01", LiquidAssets: 500000, RiskAssets: 400000, PensionAssets: 100000, TotalFinancialAssets: 1000000},
		{Month: "2024-02"}, // everything zero
	}

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 2)

	ratio, ok := records[0].RiskAssetRatio.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-12)

	assert.False(t, records[1].RiskAssetRatio.Defined(), "zero total")
}

// Windows are calendar windows: a one-month hole keeps every 12-month ratio
// undefined until the window clears it, even though 12 rows exist.
func TestMetricsProcessor_GapBreaksWindows(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 13, 300000, 200000, 1000000, 0.01)
	cashflows = append(cashflows[:5], cashflows[6:]...)
	sheets = append(sheets[:5], sheets[6:]...)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 12)

	last := records[len(records)-1]
	assert.False(t, last.SavingsRate.Defined())
	assert.False(t, last.MonthlyReturn.Defined())
	assert.False(t, last.FIRatio12M.Defined())
}

// Months present in only one statement series are not metric months.
func TestMetricsProcessor_JoinSkipsUnmatchedMonths(t *testing.T) {
	cashflows, sheets := metricsFixture("2023-01", 13, 300000, 200000, 1000000, 0.01)
	dropped := cashflows[3].Month
	cashflows = append(cashflows[:3], cashflows[4:]...)

	records := NewMetricsProcessor(0.05, 0).Process(cashflows, sheets, nil)
	require.Len(t, records, 12)
	for _, rec := range records {
		assert.NotEqual(t, dropped, rec.Month)
	}
}
