package services

import (
	"errors"
	"time"

	"github.com/username/kakeibo/src/models"
)

// Define common service errors
var (
	ErrLoadFailed = errors.New("raw data load failed")
	ErrNoData     = errors.New("snapshot store is empty")
)

// RunSummary reports what one pipeline run read and produced.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	FirstMonth   models.Month  `json:"first_month,omitempty"`
	LastMonth    models.Month  `json:"last_month,omitempty"`
	CashFlowRows int           `json:"cashflow_rows"`
	BalanceRows  int           `json:"balance_sheet_rows"`
	MetricsRows  int           `json:"metrics_rows"`
	ForecastRows int           `json:"forecast_rows"`
	AnnualRows   int           `json:"forecast_annual_rows"`
	Duration     time.Duration `json:"duration"`
}

// PipelineService runs the whole batch in dependency order: load the raw
// tables, aggregate the statements, derive metrics, project the forecast,
// then rewrite the CSV outputs and the snapshot store. Nothing is written
// until every stage has succeeded.
type PipelineService interface {
	Run() (*RunSummary, error)
}

// RunRecorder receives run outcomes for instrumentation.
type RunRecorder interface {
	RecordRun(statementRows, forecastRows int, duration time.Duration)
	RecordRunFailure()
}

// HealthStatus reports snapshot store freshness for the health endpoint.
type HealthStatus struct {
	Status    string       `json:"status"`
	Months    int          `json:"months"`
	LastMonth models.Month `json:"last_month,omitempty"`
}

// StatementView is one joined month for the API: cash flow, balance sheet
// and trailing metrics side by side. Undefined ratios serialize as null.
type StatementView struct {
	Month                models.Month `json:"month"`
	AfterTaxIncome       int64        `json:"after_tax_income"`
	Expenditure          int64        `json:"expenditure"`
	NetSavings           int64        `json:"net_savings"`
	LiquidAssets         float64      `json:"liquid_assets"`
	RiskAssets           float64      `json:"risk_assets"`
	PensionAssets        float64      `json:"pension_assets"`
	TotalFinancialAssets float64      `json:"total_financial_assets"`
	InvestmentGainLoss   float64      `json:"investment_gain_loss"`
	SavingsRate          models.Ratio `json:"savings_rate"`
	RiskAssetRatio       models.Ratio `json:"risk_asset_ratio"`
	MonthlyReturn        models.Ratio `json:"monthly_return"`
	MonthlyAlpha         models.Ratio `json:"monthly_alpha"`
	BenchmarkReturn      models.Ratio `json:"benchmark_return"`
	FIRatio12M           models.Ratio `json:"fi_ratio_12m"`
	FIRatio48M           models.Ratio `json:"fi_ratio_48m"`
	FIRatioNext12M       models.Ratio `json:"fi_ratio_next_12m"`
}

// ReportService serves the read model behind the HTTP API. Every method
// reads the snapshot store written by the last pipeline run.
type ReportService interface {
	Health() (*HealthStatus, error)
	Summary() (*StatementView, error)
	Statements(limit int) ([]StatementView, error)
	Metrics(limit int) ([]models.MetricsRecord, error)
	Forecast(phase models.ForecastPhase, limit int) ([]models.ForecastRecord, error)
	ForecastAnnual() ([]models.ForecastAnnualSummary, error)
	ForecastParameters() ([]models.ForecastParameter, error)
	InvalidateCache()
}
