package processors

import (
	"math"

	"github.com/username/kakeibo/src/models"
)

// MetricsProcessor derives the trailing-window ratio series from the joined
// cash flow and balance sheet statements. Every ratio that lacks a full
// window or a nonzero denominator stays undefined; it is never reported as
// zero.
type MetricsProcessor struct {
	expectedAnnualReturn    float64
	projectedAnnualExpenses float64
}

// NewMetricsProcessor configures the engine. projectedAnnualExpenses of 0
// means "derive from trailing expenditure" per month.
func NewMetricsProcessor(expectedAnnualReturn, projectedAnnualExpenses float64) *MetricsProcessor {
	return &MetricsProcessor{
		expectedAnnualReturn:    expectedAnnualReturn,
		projectedAnnualExpenses: projectedAnnualExpenses,
	}
}

// seriesPoint is one month of the joined statement series, the unit the
// window computations slide over. Values are whole yen held as float64.
type seriesPoint struct {
	month          models.Month
	afterTaxIncome float64
	expenditure    float64
	netSavings     float64
	liquidAssets   float64
	riskAssets     float64
	pensionAssets  float64
	totalAssets    float64
	gain           float64
}

// Process computes one MetricsRecord per month present in both statement
// series, in chronological order. Each month uses only data at or before it.
func (p *MetricsProcessor) Process(
	cashflows []models.CashFlowStatement,
	sheets []models.BalanceSheet,
	markets []models.MarketRecord,
) []models.MetricsRecord {
	points := joinSeries(cashflows, sheets)
	bench := buildBenchmarkRawReturns(markets)
	return computeMetrics(points, bench, p.expectedAnnualReturn, p.projectedAnnualExpenses)
}

// joinSeries pairs each balance sheet with the cash flow statement of the
// same month. Sheets arrive chronologically sorted, so the join is too.
func joinSeries(cashflows []models.CashFlowStatement, sheets []models.BalanceSheet) []seriesPoint {
	cfByMonth := make(map[models.Month]models.CashFlowStatement, len(cashflows))
	for _, cf := range cashflows {
		cfByMonth[cf.Month] = cf
	}
	points := make([]seriesPoint, 0, len(sheets))
	for _, bs := range sheets {
		cf, ok := cfByMonth[bs.Month]
		if !ok {
			continue
		}
		points = append(points, seriesPoint{
			month:          bs.Month,
			afterTaxIncome: float64(cf.AfterTaxIncome),
			expenditure:    float64(cf.Expenditure),
			netSavings:     float64(cf.NetSavings),
			liquidAssets:   bs.LiquidAssets,
			riskAssets:     bs.RiskAssets,
			pensionAssets:  bs.PensionAssets,
			totalAssets:    bs.TotalFinancialAssets,
			gain:           bs.InvestmentGainLoss,
		})
	}
	return points
}

// buildBenchmarkRawReturns computes the raw monthly benchmark return for
// every market month with a usable predecessor: the S&P 500 index converted
// to yen, so the benchmark reflects what a yen-based holder of the index
// actually experienced.
func buildBenchmarkRawReturns(markets []models.MarketRecord) map[models.Month]models.Ratio {
	byMonth := make(map[models.Month]models.MarketRecord, len(markets))
	for _, m := range markets {
		byMonth[m.Month] = m
	}
	raws := make(map[models.Month]models.Ratio, len(markets))
	for _, m := range markets {
		prev, ok := byMonth[m.Month.Add(-1)]
		if !ok {
			continue
		}
		prevJPY := prev.SP500 * prev.USDJPY
		if prevJPY <= 0 {
			continue
		}
		curJPY := m.SP500 * m.USDJPY
		raws[m.Month] = models.DefinedRatio((curJPY - prevJPY) / prevJPY)
	}
	return raws
}

func computeMetrics(
	points []seriesPoint,
	benchRaw map[models.Month]models.Ratio,
	expectedAnnualReturn float64,
	projectedAnnualExpenses float64,
) []models.MetricsRecord {
	rawReturns := buildRawReturns(points)

	records := make([]models.MetricsRecord, 0, len(points))
	for i, pt := range points {
		rec := models.MetricsRecord{Month: pt.month}

		if windowComplete(points, i, 12) {
			var savings, income float64
			for j := i - 11; j <= i; j++ {
				savings += points[j].netSavings
				income += points[j].afterTaxIncome
			}
			if income != 0 {
				rec.SavingsRate = models.DefinedRatio(savings / income)
			}
		}

		if pt.totalAssets != 0 {
			rec.RiskAssetRatio = models.DefinedRatio((pt.riskAssets + pt.pensionAssets) / pt.totalAssets)
		}

		rec.MonthlyReturn = trailingGeometricMean(rawReturns, i)
		rec.BenchmarkReturn = benchmarkGeometricMean(benchRaw, pt.month)
		rec.MonthlyAlpha = rec.MonthlyReturn.Sub(rec.BenchmarkReturn)

		rec.FIRatio12M = fiRatio(points, i, 12)
		rec.FIRatio48M = fiRatio(points, i, 48)
		rec.FIRatioNext12M = fiRatioNext(points, i, expectedAnnualReturn, projectedAnnualExpenses)

		records = append(records, rec)
	}
	return records
}

// buildRawReturns computes r[m] = gain[m] / risk[m-1] per point, undefined
// when the calendar predecessor is absent from the series or held zero risk
// assets.
func buildRawReturns(points []seriesPoint) []models.Ratio {
	raws := make([]models.Ratio, len(points))
	for i := 1; i < len(points); i++ {
		prev := points[i-1]
		if prev.month != points[i].month.Add(-1) || prev.riskAssets == 0 {
			continue
		}
		raws[i] = models.DefinedRatio(points[i].gain / prev.riskAssets)
	}
	return raws
}

// windowComplete reports whether the n calendar months ending at points[end]
// are all present. The series is sorted and month-unique, so n points
// spanning exactly n calendar slots must be consecutive.
func windowComplete(points []seriesPoint, end, n int) bool {
	start := end - (n - 1)
	if start < 0 {
		return false
	}
	return points[start].month == points[end].month.Add(-(n - 1))
}

// trailingGeometricMean folds the 12 raw returns ending at end into
// (Π(1+r))^(1/12) − 1. Any missing raw return, or any 1+r ≤ 0 (the product
// would stop being a meaningful growth factor), makes the result undefined.
func trailingGeometricMean(raws []models.Ratio, end int) models.Ratio {
	if end < 11 {
		return models.UndefinedRatio()
	}
	product := 1.0
	for i := end - 11; i <= end; i++ {
		r, ok := raws[i].Value()
		if !ok || 1+r <= 0 {
			return models.UndefinedRatio()
		}
		product *= 1 + r
	}
	return models.DefinedRatio(math.Pow(product, 1.0/12) - 1)
}

// benchmarkGeometricMean is the benchmark counterpart over the 12 calendar
// months ending at m, read from the market-derived raw return map.
func benchmarkGeometricMean(benchRaw map[models.Month]models.Ratio, m models.Month) models.Ratio {
	product := 1.0
	for k := 11; k >= 0; k-- {
		b, ok := benchRaw[m.Add(-k)].Value()
		if !ok || 1+b <= 0 {
			return models.UndefinedRatio()
		}
		product *= 1 + b
	}
	return models.DefinedRatio(math.Pow(product, 1.0/12) - 1)
}

// fiRatio is Σ gain / Σ expenditure over the trailing n-month window,
// undefined while the window is incomplete or nothing was spent.
func fiRatio(points []seriesPoint, end, n int) models.Ratio {
	if !windowComplete(points, end, n) {
		return models.UndefinedRatio()
	}
	var gain, spent float64
	for j := end - (n - 1); j <= end; j++ {
		gain += points[j].gain
		spent += points[j].expenditure
	}
	if spent == 0 {
		return models.UndefinedRatio()
	}
	return models.DefinedRatio(gain / spent)
}

// fiRatioNext projects next year's investment income against projected
// expenses: risk[m] × expected annual return / projected annual expenses.
// The expense base is the configured override when set, otherwise the
// expenditure recorded over the trailing 12 calendar months, however many of
// them exist. Undefined only when that base is zero.
func fiRatioNext(points []seriesPoint, end int, expectedAnnualReturn, override float64) models.Ratio {
	expenses := override
	if expenses == 0 {
		floor := points[end].month.Add(-11)
		for j := end; j >= 0 && points[j].month >= floor; j-- {
			expenses += points[j].expenditure
		}
	}
	if expenses == 0 {
		return models.UndefinedRatio()
	}
	return models.DefinedRatio(points[end].riskAssets * expectedAnnualReturn / expenses)
}
