package models

// CashFlowStatement is the aggregated profit-and-loss view of one month.
// NetSavings always equals AfterTaxIncome - Expenditure, in exact yen.
type CashFlowStatement struct {
	Month          Month `json:"month"`
	AfterTaxIncome int64 `json:"after_tax_income"`
	Expenditure    int64 `json:"expenditure"`
	NetSavings     int64 `json:"net_savings"`
}

// BalanceSheet is the aggregated asset view of one month. All values are in
// whole yen; TotalFinancialAssets always equals the sum of the three buckets.
// InvestmentGainLoss is the part of the month-over-month total change not
// explained by net savings, zero for the first month of the series.
type BalanceSheet struct {
	Month                Month   `json:"month"`
	LiquidAssets         float64 `json:"liquid_assets"`
	RiskAssets           float64 `json:"risk_assets"`
	PensionAssets        float64 `json:"pension_assets"`
	TotalFinancialAssets float64 `json:"total_financial_assets"`
	InvestmentGainLoss   float64 `json:"investment_gain_loss"`
}

// MetricsRecord holds the trailing-window ratios for one month. Every field
// may be undefined when its window is incomplete or a denominator is zero.
type MetricsRecord struct {
	Month           Month `json:"month"`
	SavingsRate     Ratio `json:"savings_rate"`
	RiskAssetRatio  Ratio `json:"risk_asset_ratio"`
	MonthlyReturn   Ratio `json:"monthly_return"`
	MonthlyAlpha    Ratio `json:"monthly_alpha"`
	BenchmarkReturn Ratio `json:"benchmark_return"`
	FIRatio12M      Ratio `json:"fi_ratio_12m"`
	FIRatio48M      Ratio `json:"fi_ratio_48m"`
	FIRatioNext12M  Ratio `json:"fi_ratio_next_12m"`
}

// ForecastPhase marks a forecast row as observed history or projection.
type ForecastPhase string

const (
	PhaseHistorical ForecastPhase = "historical"
	PhaseProjected  ForecastPhase = "projected"
)

// ForecastRecord is one row of the combined history-plus-projection series:
// the union of the three statement shapes plus the phase flag. Flow values
// are float64 here because projected flows derive from fractional averages.
type ForecastRecord struct {
	Month                Month         `json:"month"`
	Phase                ForecastPhase `json:"phase"`
	AfterTaxIncome       float64       `json:"after_tax_income"`
	Expenditure          float64       `json:"expenditure"`
	NetSavings           float64       `json:"net_savings"`
	LiquidAssets         float64       `json:"liquid_assets"`
	RiskAssets           float64       `json:"risk_assets"`
	PensionAssets        float64       `json:"pension_assets"`
	TotalFinancialAssets float64       `json:"total_financial_assets"`
	InvestmentGainLoss   float64       `json:"investment_gain_loss"`
	SavingsRate          Ratio         `json:"savings_rate"`
	RiskAssetRatio       Ratio         `json:"risk_asset_ratio"`
	MonthlyReturn        Ratio         `json:"monthly_return"`
	MonthlyAlpha         Ratio         `json:"monthly_alpha"`
	BenchmarkReturn      Ratio         `json:"benchmark_return"`
	FIRatio12M           Ratio         `json:"fi_ratio_12m"`
	FIRatio48M           Ratio         `json:"fi_ratio_48m"`
	FIRatioNext12M       Ratio         `json:"fi_ratio_next_12m"`
}

// ForecastAnnualSummary rolls 12 consecutive projected months into one row:
// flow columns are sums over the block, balance columns are the end-of-period
// snapshot.
type ForecastAnnualSummary struct {
	Period               int     `json:"period"`
	StartMonth           Month   `json:"start_month"`
	EndMonth             Month   `json:"end_month"`
	AfterTaxIncome       float64 `json:"after_tax_income"`
	Expenditure          float64 `json:"expenditure"`
	NetSavings           float64 `json:"net_savings"`
	InvestmentGainLoss   float64 `json:"investment_gain_loss"`
	LiquidAssets         float64 `json:"liquid_assets"`
	RiskAssets           float64 `json:"risk_assets"`
	PensionAssets        float64 `json:"pension_assets"`
	TotalFinancialAssets float64 `json:"total_financial_assets"`
}

// ForecastParameter is one assumption row recorded for auditability alongside
// the forecast output.
type ForecastParameter struct {
	Category    string `json:"category"`
	Item        string `json:"item"`
	Parameter   string `json:"parameter"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}
