package processors

import (
	"sort"

	"github.com/username/kakeibo/src/models"
)

// CashFlowProcessor aggregates raw income and expense records into one
// statement per month.
type CashFlowProcessor struct{}

func NewCashFlowProcessor() *CashFlowProcessor { return &CashFlowProcessor{} }

// Process returns one CashFlowStatement per distinct month present in either
// input set, in chronological order. A month with records on only one side
// gets a zero total for the other, never an omitted statement. Every record's
// id must resolve against master data.
func (p *CashFlowProcessor) Process(
	incomes []models.IncomeRecord,
	expenses []models.ExpenseRecord,
	accounts models.AccountMap,
	methods models.PaymentMethodMap,
) ([]models.CashFlowStatement, error) {
	incomeByMonth := make(map[models.Month]int64)
	expenseByMonth := make(map[models.Month]int64)

	for _, rec := range incomes {
		if _, ok := accounts[rec.AccountID]; !ok {
			return nil, &UnknownReferenceError{Kind: "account", ID: string(rec.AccountID), Month: rec.Month}
		}
		incomeByMonth[rec.Month] += rec.AmountJPY
	}
	for _, rec := range expenses {
		if _, ok := methods[rec.MethodID]; !ok {
			return nil, &UnknownReferenceError{Kind: "payment method", ID: string(rec.MethodID), Month: rec.Month}
		}
		// Adjustments arrive as negative amounts and reduce the total here.
		expenseByMonth[rec.Month] += rec.AmountJPY
	}

	months := make([]models.Month, 0, len(incomeByMonth)+len(expenseByMonth))
	seen := make(map[models.Month]struct{}, len(incomeByMonth)+len(expenseByMonth))
	for m := range incomeByMonth {
		seen[m] = struct{}{}
		months = append(months, m)
	}
	for m := range expenseByMonth {
		if _, ok := seen[m]; !ok {
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	statements := make([]models.CashFlowStatement, 0, len(months))
	for _, m := range months {
		income := incomeByMonth[m]
		expense := expenseByMonth[m]
		statements = append(statements, models.CashFlowStatement{
			Month:          m,
			AfterTaxIncome: income,
			Expenditure:    expense,
			NetSavings:     income - expense,
		})
	}
	return statements, nil
}
