package models

import "fmt"

// AccountID identifies an account in the accounts master table.
type AccountID string

// PaymentMethodID identifies a payment method in the payment_methods master table.
type PaymentMethodID string

// AccountType classifies the institution holding an account.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeSecurities AccountType = "securities"
	AccountTypeCrypto     AccountType = "crypto"
	AccountTypePension    AccountType = "pension"
	AccountTypeFintech    AccountType = "fintech"
)

// ParseAccountType validates an account type string from master data.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(s); t {
	case AccountTypeBank, AccountTypeSecurities, AccountTypeCrypto, AccountTypePension, AccountTypeFintech:
		return t, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// Currency is the currency an account's balances are recorded in.
// CurrencyMulti marks accounts whose balances are stored already converted
// to JPY, so they take an FX rate of 1.0 like JPY itself.
type Currency string

const (
	CurrencyJPY   Currency = "JPY"
	CurrencyUSD   Currency = "USD"
	CurrencyEUR   Currency = "EUR"
	CurrencyMulti Currency = "multi"
)

// ParseCurrency validates a currency string from master data.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(s); c {
	case CurrencyJPY, CurrencyUSD, CurrencyEUR, CurrencyMulti:
		return c, nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

// AssetClass categorizes what an asset balance is invested in.
type AssetClass string

const (
	AssetClassCash    AssetClass = "cash"
	AssetClassStockJP AssetClass = "stock_jp"
	AssetClassStockUS AssetClass = "stock_us"
	AssetClassFund    AssetClass = "fund"
	AssetClassFX      AssetClass = "fx"
	AssetClassCrypto  AssetClass = "crypto"
	AssetClassPension AssetClass = "pension"
	AssetClassVC      AssetClass = "vc"
)

// AssetClasses returns the closed set of asset classes in id order, used to
// build the per-class pivot columns of the normalized export.
func AssetClasses() []AssetClass {
	return []AssetClass{
		AssetClassCash,
		AssetClassCrypto,
		AssetClassFX,
		AssetClassFund,
		AssetClassPension,
		AssetClassStockJP,
		AssetClassStockUS,
		AssetClassVC,
	}
}

// ParseAssetClass validates an asset class string from a raw asset row.
func ParseAssetClass(s string) (AssetClass, error) {
	switch c := AssetClass(s); c {
	case AssetClassCash, AssetClassStockJP, AssetClassStockUS, AssetClassFund,
		AssetClassFX, AssetClassCrypto, AssetClassPension, AssetClassVC:
		return c, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// IncomeRecord is one raw after-tax income entry for a month and account.
type IncomeRecord struct {
	Month     Month     `json:"month"`
	AccountID AccountID `json:"account_id"`
	AmountJPY int64     `json:"amount"`
}

// ExpenseRecord is one raw expenditure entry for a month and payment method.
// A negative amount is an adjustment/refund that reduces recorded expenditure.
type ExpenseRecord struct {
	Month     Month           `json:"month"`
	MethodID  PaymentMethodID `json:"method_id"`
	AmountJPY int64           `json:"amount"`
}

// AssetRecord is one raw end-of-month balance in the account's native currency.
type AssetRecord struct {
	Month         Month      `json:"month"`
	AccountID     AccountID  `json:"account_id"`
	AssetClass    AssetClass `json:"asset_class"`
	BalanceNative float64    `json:"balance"`
}

// MarketRecord holds the month-end market observations used for FX conversion
// and benchmark returns.
type MarketRecord struct {
	Month  Month   `json:"month"`
	USDJPY float64 `json:"usd_jpy"`
	EURJPY float64 `json:"eur_jpy"`
	SP500  float64 `json:"sp500"`
}

// Account is a row of the accounts master table.
type Account struct {
	ID       AccountID   `json:"account_id"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	Currency Currency    `json:"currency"`
	IsRisk   bool        `json:"risk"`
}

// PaymentMethod is a row of the payment_methods master table.
// SettlementAccount is the account the method's charges are funded from;
// empty means none recorded.
type PaymentMethod struct {
	ID                PaymentMethodID `json:"method_id"`
	Name              string          `json:"name"`
	SettlementAccount AccountID       `json:"settlement_account,omitempty"`
}

// AccountMap is the immutable account lookup built once per run.
type AccountMap map[AccountID]Account

// PaymentMethodMap is the immutable payment-method lookup built once per run.
type PaymentMethodMap map[PaymentMethodID]PaymentMethod

// BuildAccountMap indexes accounts by id.
func BuildAccountMap(accounts []Account) AccountMap {
	m := make(AccountMap, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return m
}

// BuildPaymentMethodMap indexes payment methods by id.
func BuildPaymentMethodMap(methods []PaymentMethod) PaymentMethodMap {
	m := make(PaymentMethodMap, len(methods))
	for _, pm := range methods {
		m[pm.ID] = pm
	}
	return m
}

// RawDataSet bundles everything one pipeline run reads.
type RawDataSet struct {
	Incomes  []IncomeRecord
	Expenses []ExpenseRecord
	Assets   []AssetRecord
	Markets  []MarketRecord
	Accounts []Account
	Methods  []PaymentMethod
}
