package parsers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/username/kakeibo/src/models"
)

// ParseAccounts reads accounts.csv rows: account_id, name, type, currency, risk.
func ParseAccounts(r io.Reader) ([]models.Account, error) {
	rows, err := readRows(r, "accounts")
	if err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(rows))
	for i, row := range rows {
		if len(row) != 5 {
			return nil, columnCountError("accounts", i, len(row), 5)
		}
		accountType, err := models.ParseAccountType(row[2])
		if err != nil {
			return nil, rowError("accounts", i, err)
		}
		currency, err := models.ParseCurrency(row[3])
		if err != nil {
			return nil, rowError("accounts", i, err)
		}
		isRisk, err := strconv.ParseBool(row[4])
		if err != nil {
			return nil, rowError("accounts", i, fmt.Errorf("invalid risk flag %q: %w", row[4], err))
		}
		accounts = append(accounts, models.Account{
			ID:       models.AccountID(row[0]),
			Name:     row[1],
			Type:     accountType,
			Currency: currency,
			IsRisk:   isRisk,
		})
	}
	return accounts, nil
}

// ParsePaymentMethods reads payment_methods.csv rows: method_id, name,
// settlement_account. The settlement column may be empty.
func ParsePaymentMethods(r io.Reader) ([]models.PaymentMethod, error) {
	rows, err := readRows(r, "payment_methods")
	if err != nil {
		return nil, err
	}

	methods := make([]models.PaymentMethod, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, columnCountError("payment_methods", i, len(row), 3)
		}
		methods = append(methods, models.PaymentMethod{
			ID:                models.PaymentMethodID(row[0]),
			Name:              row[1],
			SettlementAccount: models.AccountID(row[2]),
		})
	}
	return methods, nil
}
