package parsers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/username/kakeibo/src/models"
)

// ParseIncome reads income.csv rows: month, account_id, amount.
func ParseIncome(r io.Reader) ([]models.IncomeRecord, error) {
	rows, err := readRows(r, "income")
	if err != nil {
		return nil, err
	}

	records := make([]models.IncomeRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, columnCountError("income", i, len(row), 3)
		}
		month, err := models.ParseMonth(row[0])
		if err != nil {
			return nil, rowError("income", i, err)
		}
		amount, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, rowError("income", i, fmt.Errorf("invalid amount %q: %w", row[2], err))
		}
		records = append(records, models.IncomeRecord{
			Month:     month,
			AccountID: models.AccountID(row[1]),
			AmountJPY: amount,
		})
	}
	return records, nil
}

// ParseExpense reads expense.csv rows: month, method_id, amount.
// Negative amounts are adjustments and pass through unchanged.
func ParseExpense(r io.Reader) ([]models.ExpenseRecord, error) {
	rows, err := readRows(r, "expense")
	if err != nil {
		return nil, err
	}

	records := make([]models.ExpenseRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, columnCountError("expense", i, len(row), 3)
		}
		month, err := models.ParseMonth(row[0])
		if err != nil {
			return nil, rowError("expense", i, err)
		}
		amount, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, rowError("expense", i, fmt.Errorf("invalid amount %q: %w", row[2], err))
		}
		records = append(records, models.ExpenseRecord{
			Month:     month,
			MethodID:  models.PaymentMethodID(row[1]),
			AmountJPY: amount,
		})
	}
	return records, nil
}

// ParseAssets reads assets.csv rows: month, account_id, asset_class, balance.
func ParseAssets(r io.Reader) ([]models.AssetRecord, error) {
	rows, err := readRows(r, "assets")
	if err != nil {
		return nil, err
	}

	records := make([]models.AssetRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			return nil, columnCountError("assets", i, len(row), 4)
		}
		month, err := models.ParseMonth(row[0])
		if err != nil {
			return nil, rowError("assets", i, err)
		}
		class, err := models.ParseAssetClass(row[2])
		if err != nil {
			return nil, rowError("assets", i, err)
		}
		balance, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, rowError("assets", i, fmt.Errorf("invalid balance %q: %w", row[3], err))
		}
		records = append(records, models.AssetRecord{
			Month:         month,
			AccountID:     models.AccountID(row[1]),
			AssetClass:    class,
			BalanceNative: balance,
		})
	}
	return records, nil
}

// ParseMarket reads market.csv rows: month, usd_jpy, eur_jpy, sp500.
func ParseMarket(r io.Reader) ([]models.MarketRecord, error) {
	rows, err := readRows(r, "market")
	if err != nil {
		return nil, err
	}

	records := make([]models.MarketRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			return nil, columnCountError("market", i, len(row), 4)
		}
		month, err := models.ParseMonth(row[0])
		if err != nil {
			return nil, rowError("market", i, err)
		}
		values := make([]float64, 3)
		for j, name := range []string{"usd_jpy", "eur_jpy", "sp500"} {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, rowError("market", i, fmt.Errorf("invalid %s %q: %w", name, row[j+1], err))
			}
			values[j] = v
		}
		records = append(records, models.MarketRecord{
			Month:  month,
			USDJPY: values[0],
			EURJPY: values[1],
			SP500:  values[2],
		})
	}
	return records, nil
}
