package processors

import "github.com/username/kakeibo/src/models"

// CashFlowAggregator reduces raw income and expense records into one
// statement per month.
type CashFlowAggregator interface {
	Process(incomes []models.IncomeRecord, expenses []models.ExpenseRecord,
		accounts models.AccountMap, methods models.PaymentMethodMap) ([]models.CashFlowStatement, error)
}

// BalanceSheetAggregator reduces raw asset balances into one balance sheet
// per month, in chronological order.
type BalanceSheetAggregator interface {
	Process(assets []models.AssetRecord, markets []models.MarketRecord,
		accounts models.AccountMap, cashflows []models.CashFlowStatement) ([]models.BalanceSheet, error)
}

// MetricsEngine derives the trailing-window ratio series from the joined
// statement series.
type MetricsEngine interface {
	Process(cashflows []models.CashFlowStatement, sheets []models.BalanceSheet,
		markets []models.MarketRecord) []models.MetricsRecord
}

// ForecastEngine extends the statement series past the last observed month
// and rolls the projection into annual summaries.
type ForecastEngine interface {
	Process(cashflows []models.CashFlowStatement, sheets []models.BalanceSheet,
		markets []models.MarketRecord) (*ForecastResult, error)
}

// NormalizedPivoter spreads the raw tables into the wide per-id pivot rows
// behind the normalized export.
type NormalizedPivoter interface {
	Process(data *models.RawDataSet, accounts models.AccountMap,
		cashflows []models.CashFlowStatement, sheets []models.BalanceSheet,
		metrics []models.MetricsRecord) ([]NormalizedRow, error)
}
