package processors

import (
	"sort"

	"github.com/username/kakeibo/src/models"
	"github.com/username/kakeibo/src/utils"
)

// BalanceSheetProcessor folds raw asset balances into one balance sheet per
// month: converts every balance to JPY, classifies it into a bucket, and
// derives investment gain/loss from the previous month's total.
type BalanceSheetProcessor struct{}

func NewBalanceSheetProcessor() *BalanceSheetProcessor { return &BalanceSheetProcessor{} }

// Process produces balance sheets in chronological order, one per month with
// asset records. cashflows supplies the net savings used in the gain/loss
// derivation; a month without a cash flow statement contributes zero savings.
// The fold carries the prior month's total, so gain/loss for the first month
// is zero.
func (p *BalanceSheetProcessor) Process(
	assets []models.AssetRecord,
	markets []models.MarketRecord,
	accounts models.AccountMap,
	cashflows []models.CashFlowStatement,
) ([]models.BalanceSheet, error) {
	marketByMonth := make(map[models.Month]models.MarketRecord, len(markets))
	for _, m := range markets {
		marketByMonth[m.Month] = m
	}
	savingsByMonth := make(map[models.Month]int64, len(cashflows))
	for _, cf := range cashflows {
		savingsByMonth[cf.Month] = cf.NetSavings
	}

	assetsByMonth := make(map[models.Month][]models.AssetRecord)
	for _, a := range assets {
		assetsByMonth[a.Month] = append(assetsByMonth[a.Month], a)
	}
	months := make([]models.Month, 0, len(assetsByMonth))
	for m := range assetsByMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	sheets := make([]models.BalanceSheet, 0, len(months))
	var prevTotal float64
	for i, month := range months {
		var liquid, risk, pension float64
		for _, a := range assetsByMonth[month] {
			account, ok := accounts[a.AccountID]
			if !ok {
				return nil, &UnknownReferenceError{Kind: "account", ID: string(a.AccountID), Month: a.Month}
			}
			jpy, err := convertToJPY(a, account, marketByMonth)
			if err != nil {
				return nil, err
			}
			switch ClassifyAsset(a, account) {
			case BucketPension:
				pension += jpy
			case BucketRisk:
				risk += jpy
			default:
				liquid += jpy
			}
		}

		// Whole-yen buckets keep the sum identity exact through export.
		liquid = utils.RoundFloat(liquid, 0)
		risk = utils.RoundFloat(risk, 0)
		pension = utils.RoundFloat(pension, 0)
		total := liquid + risk + pension

		var gain float64
		if i > 0 {
			gain = total - prevTotal - float64(savingsByMonth[month])
		}

		sheets = append(sheets, models.BalanceSheet{
			Month:                month,
			LiquidAssets:         liquid,
			RiskAssets:           risk,
			PensionAssets:        pension,
			TotalFinancialAssets: total,
			InvestmentGainLoss:   gain,
		})
		prevTotal = total
	}
	return sheets, nil
}

// convertToJPY converts a raw balance to yen using the month's market rate
// for the account's currency. JPY balances and multi-currency accounts
// (recorded pre-converted) pass through at 1.0.
func convertToJPY(asset models.AssetRecord, account models.Account, markets map[models.Month]models.MarketRecord) (float64, error) {
	switch account.Currency {
	case models.CurrencyUSD, models.CurrencyEUR:
	default:
		return asset.BalanceNative, nil
	}

	market, ok := markets[asset.Month]
	if !ok {
		return 0, &MissingMarketDataError{Month: asset.Month, Currency: account.Currency}
	}
	if account.Currency == models.CurrencyUSD {
		return asset.BalanceNative * market.USDJPY, nil
	}
	return asset.BalanceNative * market.EURJPY, nil
}
