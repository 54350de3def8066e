package processors

import (
	"github.com/username/kakeibo/src/models"
)

// NormalizedRow is one month of the wide presentation pivot: the raw tables
// spread over per-id columns next to the month's statements and metrics.
// Asset values are converted to JPY; missing ids simply have no entry and
// render as zero.
type NormalizedRow struct {
	Month           models.Month
	IncomeByAccount map[models.AccountID]int64
	ExpenseByMethod map[models.PaymentMethodID]int64
	AssetByAccount  map[models.AccountID]float64
	ClassBalances   map[models.AssetClass]float64
	CashFlow        models.CashFlowStatement
	Balance         models.BalanceSheet
	Metrics         models.MetricsRecord
}

// NormalizedProcessor assembles the pivot rows behind the normalized export.
type NormalizedProcessor struct{}

func NewNormalizedProcessor() *NormalizedProcessor { return &NormalizedProcessor{} }

// Process builds one row per month of the joined series. The metrics series
// already carries the join, so rows line up with it month for month.
func (p *NormalizedProcessor) Process(
	data *models.RawDataSet,
	accounts models.AccountMap,
	cashflows []models.CashFlowStatement,
	sheets []models.BalanceSheet,
	metrics []models.MetricsRecord,
) ([]NormalizedRow, error) {
	cfByMonth := make(map[models.Month]models.CashFlowStatement, len(cashflows))
	for _, cf := range cashflows {
		cfByMonth[cf.Month] = cf
	}
	bsByMonth := make(map[models.Month]models.BalanceSheet, len(sheets))
	for _, bs := range sheets {
		bsByMonth[bs.Month] = bs
	}
	marketByMonth := make(map[models.Month]models.MarketRecord, len(data.Markets))
	for _, m := range data.Markets {
		marketByMonth[m.Month] = m
	}

	incomeByMonth := make(map[models.Month]map[models.AccountID]int64)
	for _, r := range data.Incomes {
		if incomeByMonth[r.Month] == nil {
			incomeByMonth[r.Month] = make(map[models.AccountID]int64)
		}
		incomeByMonth[r.Month][r.AccountID] += r.AmountJPY
	}
	expenseByMonth := make(map[models.Month]map[models.PaymentMethodID]int64)
	for _, r := range data.Expenses {
		if expenseByMonth[r.Month] == nil {
			expenseByMonth[r.Month] = make(map[models.PaymentMethodID]int64)
		}
		expenseByMonth[r.Month][r.MethodID] += r.AmountJPY
	}

	assetByMonth := make(map[models.Month]map[models.AccountID]float64)
	classByMonth := make(map[models.Month]map[models.AssetClass]float64)
	for _, a := range data.Assets {
		account, ok := accounts[a.AccountID]
		if !ok {
			return nil, &UnknownReferenceError{Kind: "account", ID: string(a.AccountID), Month: a.Month}
		}
		jpy, err := convertToJPY(a, account, marketByMonth)
		if err != nil {
			return nil, err
		}
		if assetByMonth[a.Month] == nil {
			assetByMonth[a.Month] = make(map[models.AccountID]float64)
		}
		assetByMonth[a.Month][a.AccountID] += jpy
		if classByMonth[a.Month] == nil {
			classByMonth[a.Month] = make(map[models.AssetClass]float64)
		}
		classByMonth[a.Month][a.AssetClass] += jpy
	}

	rows := make([]NormalizedRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, NormalizedRow{
			Month:           m.Month,
			IncomeByAccount: incomeByMonth[m.Month],
			ExpenseByMethod: expenseByMonth[m.Month],
			AssetByAccount:  assetByMonth[m.Month],
			ClassBalances:   classByMonth[m.Month],
			CashFlow:        cfByMonth[m.Month],
			Balance:         bsByMonth[m.Month],
			Metrics:         m,
		})
	}
	return rows, nil
}
