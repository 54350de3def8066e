package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/kakeibo/src/models"
)

func balanceSheetAccounts() models.AccountMap {
	return models.BuildAccountMap([]models.Account{
		{ID: "bank_main", Name: "Main Bank", Type: models.AccountTypeBank, Currency: models.CurrencyJPY, IsRisk: false},
		{ID: "sec_jp", Name: "JP Broker", Type: models.AccountTypeSecurities, Currency: models.CurrencyJPY, IsRisk: true},
		{ID: "sec_us", Name: "US Broker", Type: models.AccountTypeSecurities, Currency: models.CurrencyUSD, IsRisk: true},
		{ID: "sec_eu", Name: "EU Broker", Type: models.AccountTypeSecurities, Currency: models.CurrencyEUR, IsRisk: true},
		{ID: "dc_plan", Name: "DC Plan", Type: models.AccountTypePension, Currency: models.CurrencyJPY, IsRisk: false},
		{ID: "robo", Name: "Robo Advisor", Type: models.AccountTypeFintech, Currency: models.CurrencyMulti, IsRisk: true},
	})
}

func TestBalanceSheetProcessor_Buckets(t *testing.T) {
	accounts := balanceSheetAccounts()
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 1500000},
		{Month: "2024-01", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 800000},
		{Month: "2024-01", AccountID: "sec_jp", AssetClass: models.AssetClassFund, BalanceNative: 200000},
		{Month: "2024-01", AccountID: "dc_plan", AssetClass: models.AssetClassPension, BalanceNative: 300000},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, nil)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	bs := sheets[0]
	assert.Equal(t, 1500000.0, bs.LiquidAssets)
	assert.Equal(t, 1000000.0, bs.RiskAssets)
	assert.Equal(t, 300000.0, bs.PensionAssets)
	assert.Equal(t, 2800000.0, bs.TotalFinancialAssets)
	assert.Equal(t, bs.LiquidAssets+bs.RiskAssets+bs.PensionAssets, bs.TotalFinancialAssets)
	assert.Equal(t, 0.0, bs.InvestmentGainLoss, "first month has no predecessor")
}

func TestBalanceSheetProcessor_CurrencyConversion(t *testing.T) {
	accounts := balanceSheetAccounts()
	markets := []models.MarketRecord{{Month: "2024-01", USDJPY: 150.25, EURJPY: 160.5, SP500: 4800}}
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "sec_us", AssetClass: models.AssetClassStockUS, BalanceNative: 1000},
		{Month: "2024-01", AccountID: "sec_eu", AssetClass: models.AssetClassStockUS, BalanceNative: 100},
		// multi-currency balances are stored pre-converted
		{Month: "2024-01", AccountID: "robo", AssetClass: models.AssetClassFund, BalanceNative: 123456},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, markets, accounts, nil)
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	// 1000*150.25 + 100*160.5 + 123456
	assert.Equal(t, 150250.0+16050.0+123456.0, sheets[0].RiskAssets)
	assert.Equal(t, sheets[0].RiskAssets, sheets[0].TotalFinancialAssets)
}

func TestBalanceSheetProcessor_WholeYenRounding(t *testing.T) {
	accounts := balanceSheetAccounts()
	markets := []models.MarketRecord{{Month: "2024-01", USDJPY: 150.1, EURJPY: 160, SP500: 4800}}
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "sec_us", AssetClass: models.AssetClassStockUS, BalanceNative: 10.5},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, markets, accounts, nil)
	require.NoError(t, err)

	// 10.5 * 150.1 = 1576.05 rounds to whole yen
	assert.Equal(t, 1576.0, sheets[0].RiskAssets)
	assert.Equal(t, 1576.0, sheets[0].TotalFinancialAssets)
}

func TestBalanceSheetProcessor_MissingMarketData(t *testing.T) {
	accounts := balanceSheetAccounts()

	t.Run("conversion without a market row fails", func(t *testing.T) {
		assets := []models.AssetRecord{
			{Month: "2024-02", AccountID: "sec_us", AssetClass: models.AssetClassStockUS, BalanceNative: 1000},
		}
		sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, nil)

		var marketErr *MissingMarketDataError
		require.ErrorAs(t, err, &marketErr)
		assert.Equal(t, models.Month("2024-02"), marketErr.Month)
		assert.Equal(t, models.CurrencyUSD, marketErr.Currency)
		assert.Nil(t, sheets)
	})

	t.Run("yen-only month needs no market row", func(t *testing.T) {
		assets := []models.AssetRecord{
			{Month: "2024-02", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 500000},
			{Month: "2024-02", AccountID: "robo", AssetClass: models.AssetClassFund, BalanceNative: 100000},
		}
		sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, nil)
		require.NoError(t, err)
		assert.Equal(t, 600000.0, sheets[0].TotalFinancialAssets)
	})
}

func TestBalanceSheetProcessor_UnknownAccount(t *testing.T) {
	accounts := balanceSheetAccounts()
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "ghost", AssetClass: models.AssetClassCash, BalanceNative: 1},
	}

	_, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, nil)

	var refErr *UnknownReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "account", refErr.Kind)
	assert.Equal(t, "ghost", refErr.ID)
}

// A 100,000 rise in total fully explained by 100,000 of net savings is a
// zero investment gain.
func TestBalanceSheetProcessor_GainFullyExplainedBySavings(t *testing.T) {
	accounts := balanceSheetAccounts()
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 900000},
		{Month: "2024-02", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 1000000},
	}
	cashflows := []models.CashFlowStatement{
		{Month: "2024-02", AfterTaxIncome: 300000, Expenditure: 200000, NetSavings: 100000},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, cashflows)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	assert.Equal(t, 0.0, sheets[0].InvestmentGainLoss)
	assert.Equal(t, 0.0, sheets[1].InvestmentGainLoss)
}

func TestBalanceSheetProcessor_GainRoundTrip(t *testing.T) {
	accounts := balanceSheetAccounts()
	assets := []models.AssetRecord{
		// fed out of order on purpose
		{Month: "2024-03", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 1075000},
		{Month: "2024-01", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 900000},
		{Month: "2024-02", AccountID: "sec_jp", AssetClass: models.AssetClassStockJP, BalanceNative: 1000000},
		{Month: "2024-02", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 50000},
		{Month: "2024-03", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 30000},
	}
	cashflows := []models.CashFlowStatement{
		{Month: "2024-01", AfterTaxIncome: 250000, Expenditure: 250000, NetSavings: 0},
		{Month: "2024-02", AfterTaxIncome: 300000, Expenditure: 200000, NetSavings: 100000},
		{Month: "2024-03", AfterTaxIncome: 300000, Expenditure: 280000, NetSavings: 20000},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, cashflows)
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	savings := map[models.Month]float64{"2024-01": 0, "2024-02": 100000, "2024-03": 20000}
	for i := 1; i < len(sheets); i++ {
		prev, cur := sheets[i-1], sheets[i]
		assert.Less(t, prev.Month, cur.Month)
		assert.Equal(t, prev.TotalFinancialAssets+savings[cur.Month]+cur.InvestmentGainLoss,
			cur.TotalFinancialAssets, "round trip at %s", cur.Month)
	}

	// 2024-02: (1050000 - 900000) - 100000
	assert.Equal(t, 50000.0, sheets[1].InvestmentGainLoss)
	// 2024-03: (1105000 - 1050000) - 20000
	assert.Equal(t, 35000.0, sheets[2].InvestmentGainLoss)
}

// A month missing from the cash flow series contributes zero savings to the
// gain derivation rather than dropping the sheet.
func TestBalanceSheetProcessor_MonthWithoutCashFlow(t *testing.T) {
	accounts := balanceSheetAccounts()
	assets := []models.AssetRecord{
		{Month: "2024-01", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 100000},
		{Month: "2024-02", AccountID: "bank_main", AssetClass: models.AssetClassCash, BalanceNative: 120000},
	}

	sheets, err := NewBalanceSheetProcessor().Process(assets, nil, accounts, nil)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, 20000.0, sheets[1].InvestmentGainLoss)
}
