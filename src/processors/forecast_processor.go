package processors

import (
	"errors"
	"math"
	"strconv"

	"github.com/username/kakeibo/src/models"
	"github.com/username/kakeibo/src/utils"
)

// ErrNoHistory means the statement series is empty, so there is no last
// known state to project from.
var ErrNoHistory = errors.New("no historical months to project from")

// Assumptions is the parameter set driving one projection run. Zero values
// mean "derive from trailing history" where a derivation exists; the derived
// values end up in the recorded parameter rows either way.
type Assumptions struct {
	ExpectedAnnualReturn    float64
	ProjectedAnnualExpenses float64 // 0 = trailing 12-month expenditure sum
	MonthlySavings          float64 // used only when HasMonthlySavings
	HasMonthlySavings       bool    // a configured 0 is not the same as unset
	PensionContribution     float64
	HorizonMonths           int
}

// ForecastResult bundles everything one projection run produces.
type ForecastResult struct {
	Records    []models.ForecastRecord
	Annual     []models.ForecastAnnualSummary
	Parameters []models.ForecastParameter
}

// ForecastProcessor extends the statement series beyond the last observed
// month by an iterative whole-yen fold: each projected month derives solely
// from the previous month's state and the fixed assumption set, so identical
// inputs always reproduce the identical sequence.
type ForecastProcessor struct {
	assumptions Assumptions
}

func NewForecastProcessor(a Assumptions) *ForecastProcessor {
	return &ForecastProcessor{assumptions: a}
}

// Process projects HorizonMonths past the last historical month and returns
// the combined historical+projected records, the annual rollup of the
// projected months, and the assumption rows actually used.
func (p *ForecastProcessor) Process(
	cashflows []models.CashFlowStatement,
	sheets []models.BalanceSheet,
	markets []models.MarketRecord,
) (*ForecastResult, error) {
	history := joinSeries(cashflows, sheets)
	if len(history) == 0 {
		return nil, ErrNoHistory
	}
	last := history[len(history)-1]

	monthlyRate := math.Pow(1+p.assumptions.ExpectedAnnualReturn, 1.0/12) - 1

	annualExpenses := p.assumptions.ProjectedAnnualExpenses
	expensesDerived := annualExpenses == 0
	if expensesDerived {
		annualExpenses = trailingExpenditureSum(history)
	}
	monthlySavings := p.assumptions.MonthlySavings
	savingsDerived := !p.assumptions.HasMonthlySavings
	if savingsDerived {
		monthlySavings = trailingSavingsMean(history)
	}

	// Whole-yen flows keep the statement identities exact across the fold.
	monthlySavings = utils.RoundFloat(monthlySavings, 0)
	contribution := utils.RoundFloat(p.assumptions.PensionContribution, 0)
	monthlyExpenditure := utils.RoundFloat(annualExpenses/12, 0)
	monthlyIncome := monthlyExpenditure + monthlySavings

	points := make([]seriesPoint, 0, len(history)+p.assumptions.HorizonMonths)
	points = append(points, history...)

	liquid := last.liquidAssets
	risk := last.riskAssets
	pension := last.pensionAssets
	prevTotal := last.totalAssets
	investable := monthlySavings - contribution
	for k := 1; k <= p.assumptions.HorizonMonths; k++ {
		pension += contribution
		grown := utils.RoundFloat(risk*(1+monthlyRate), 0)
		if investable >= 0 {
			// Surplus savings flow into the risk bucket; liquid holds.
			risk = grown + investable
		} else {
			// A deficit draws the liquid bucket down.
			risk = grown
			liquid += investable
		}
		total := liquid + risk + pension
		points = append(points, seriesPoint{
			month:          last.month.Add(k),
			afterTaxIncome: monthlyIncome,
			expenditure:    monthlyExpenditure,
			netSavings:     monthlySavings,
			liquidAssets:   liquid,
			riskAssets:     risk,
			pensionAssets:  pension,
			totalAssets:    total,
			gain:           total - prevTotal - monthlySavings,
		})
		prevTotal = total
	}

	// Metrics run over the combined series: historical months keep their
	// market-derived benchmark, projected months take the assumed rate as
	// their raw benchmark return so alpha converges to zero once the
	// trailing window leaves observed history.
	bench := buildBenchmarkRawReturns(markets)
	assumed := models.DefinedRatio(monthlyRate)
	for k := 1; k <= p.assumptions.HorizonMonths; k++ {
		bench[last.month.Add(k)] = assumed
	}
	metrics := computeMetrics(points, bench, p.assumptions.ExpectedAnnualReturn, p.assumptions.ProjectedAnnualExpenses)

	records := make([]models.ForecastRecord, 0, len(points))
	for i, pt := range points {
		phase := models.PhaseHistorical
		if i >= len(history) {
			phase = models.PhaseProjected
		}
		m := metrics[i]
		alpha := m.MonthlyAlpha
		if phase == models.PhaseProjected {
			alpha = snapAlpha(alpha)
		}
		records = append(records, models.ForecastRecord{
			Month:                pt.month,
			Phase:                phase,
			AfterTaxIncome:       pt.afterTaxIncome,
			Expenditure:          pt.expenditure,
			NetSavings:           pt.netSavings,
			LiquidAssets:         pt.liquidAssets,
			RiskAssets:           pt.riskAssets,
			PensionAssets:        pt.pensionAssets,
			TotalFinancialAssets: pt.totalAssets,
			InvestmentGainLoss:   pt.gain,
			SavingsRate:          m.SavingsRate,
			RiskAssetRatio:       m.RiskAssetRatio,
			MonthlyReturn:        m.MonthlyReturn,
			MonthlyAlpha:         alpha,
			BenchmarkReturn:      m.BenchmarkReturn,
			FIRatio12M:           m.FIRatio12M,
			FIRatio48M:           m.FIRatio48M,
			FIRatioNext12M:       m.FIRatioNext12M,
		})
	}

	result := &ForecastResult{
		Records: records,
		Annual:  rollupAnnual(records[len(history):]),
		Parameters: p.parameterRows(
			monthlyRate, annualExpenses, monthlyExpenditure, monthlySavings,
			contribution, expensesDerived, savingsDerived, last.month.Add(1),
		),
	}
	return result, nil
}

// trailingExpenditureSum totals expenditure over the 12 calendar months
// ending at the last point, over however many of them exist.
func trailingExpenditureSum(points []seriesPoint) float64 {
	end := len(points) - 1
	floor := points[end].month.Add(-11)
	var sum float64
	for j := end; j >= 0 && points[j].month >= floor; j-- {
		sum += points[j].expenditure
	}
	return sum
}

// trailingSavingsMean averages net savings over the same trailing span.
func trailingSavingsMean(points []seriesPoint) float64 {
	end := len(points) - 1
	floor := points[end].month.Add(-11)
	var sum float64
	var n int
	for j := end; j >= 0 && points[j].month >= floor; j-- {
		sum += points[j].netSavings
		n++
	}
	return sum / float64(n)
}

// snapAlpha clears rounding noise from the converged projection tail, where
// portfolio and benchmark compound at the same assumed rate. Values beyond
// the threshold (the window still straddling observed history) pass through.
func snapAlpha(r models.Ratio) models.Ratio {
	if v, ok := r.Value(); ok && math.Abs(v) <= 0.0001 {
		return models.DefinedRatio(0)
	}
	return r
}

// rollupAnnual folds every 12 consecutive projected records into one summary
// row: flows summed, balances taken from the block's last month. A trailing
// partial block is dropped rather than reported as a short year.
func rollupAnnual(projected []models.ForecastRecord) []models.ForecastAnnualSummary {
	summaries := make([]models.ForecastAnnualSummary, 0, len(projected)/12)
	for start := 0; start+12 <= len(projected); start += 12 {
		block := projected[start : start+12]
		s := models.ForecastAnnualSummary{
			Period:     start/12 + 1,
			StartMonth: block[0].Month,
			EndMonth:   block[len(block)-1].Month,
		}
		for _, r := range block {
			s.AfterTaxIncome += r.AfterTaxIncome
			s.Expenditure += r.Expenditure
			s.NetSavings += r.NetSavings
			s.InvestmentGainLoss += r.InvestmentGainLoss
		}
		end := block[len(block)-1]
		s.LiquidAssets = end.LiquidAssets
		s.RiskAssets = end.RiskAssets
		s.PensionAssets = end.PensionAssets
		s.TotalFinancialAssets = end.TotalFinancialAssets
		summaries = append(summaries, s)
	}
	return summaries
}

// parameterRows records the assumption set actually applied, including the
// values derived from trailing history, so a forecast file can be audited
// without rerunning the pipeline.
func (p *ForecastProcessor) parameterRows(
	monthlyRate, annualExpenses, monthlyExpenditure, monthlySavings, contribution float64,
	expensesDerived, savingsDerived bool,
	startMonth models.Month,
) []models.ForecastParameter {
	expensesSource := "configured override"
	if expensesDerived {
		expensesSource = "derived from trailing 12-month expenditure"
	}
	savingsSource := "configured value"
	if savingsDerived {
		savingsSource = "derived mean of trailing 12-month net savings"
	}
	return []models.ForecastParameter{
		{
			Category:    "return",
			Item:        "risk_assets",
			Parameter:   "expected_annual_return",
			Value:       strconv.FormatFloat(p.assumptions.ExpectedAnnualReturn, 'f', 4, 64),
			Unit:        "ratio",
			Description: "annual growth assumption for the risk bucket",
		},
		{
			Category:    "return",
			Item:        "risk_assets",
			Parameter:   "monthly_return",
			Value:       strconv.FormatFloat(monthlyRate, 'f', 6, 64),
			Unit:        "ratio",
			Description: "monthly-equivalent compounding rate",
		},
		{
			Category:    "expense",
			Item:        "household",
			Parameter:   "projected_annual_expenses",
			Value:       utils.FormatYen(annualExpenses),
			Unit:        "jpy",
			Description: expensesSource,
		},
		{
			Category:    "expense",
			Item:        "household",
			Parameter:   "monthly_expenditure",
			Value:       utils.FormatYen(monthlyExpenditure),
			Unit:        "jpy",
			Description: "projected annual expenses divided by 12",
		},
		{
			Category:    "cashflow",
			Item:        "household",
			Parameter:   "monthly_savings",
			Value:       utils.FormatYen(monthlySavings),
			Unit:        "jpy",
			Description: savingsSource,
		},
		{
			Category:    "cashflow",
			Item:        "pension",
			Parameter:   "pension_contribution",
			Value:       utils.FormatYen(contribution),
			Unit:        "jpy",
			Description: "monthly flow into the pension bucket",
		},
		{
			Category:    "horizon",
			Item:        "projection",
			Parameter:   "horizon_months",
			Value:       strconv.Itoa(p.assumptions.HorizonMonths),
			Unit:        "months",
			Description: "number of projected months",
		},
		{
			Category:    "horizon",
			Item:        "projection",
			Parameter:   "start_month",
			Value:       startMonth.String(),
			Unit:        "month",
			Description: "first projected month",
		},
	}
}
