package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/kakeibo/src/database"
	"github.com/username/kakeibo/src/logger"
	"github.com/username/kakeibo/src/model"
	"github.com/username/kakeibo/src/models"
	"github.com/username/kakeibo/src/parsers"
	"github.com/username/kakeibo/src/processors"
)

type pipelineServiceImpl struct {
	loader            *parsers.Loader
	cashFlowProcessor processors.CashFlowAggregator
	balanceProcessor  processors.BalanceSheetAggregator
	metricsProcessor  processors.MetricsEngine
	forecastProcessor processors.ForecastEngine
	pivotProcessor    processors.NormalizedPivoter
	exporter          *ExportService
	reportCache       *cache.Cache
	recorder          RunRecorder
}

func NewPipelineService(
	loader *parsers.Loader,
	cashFlowProcessor processors.CashFlowAggregator,
	balanceProcessor processors.BalanceSheetAggregator,
	metricsProcessor processors.MetricsEngine,
	forecastProcessor processors.ForecastEngine,
	pivotProcessor processors.NormalizedPivoter,
	exporter *ExportService,
	reportCache *cache.Cache,
	recorder RunRecorder,
) PipelineService {
	return &pipelineServiceImpl{
		loader:            loader,
		cashFlowProcessor: cashFlowProcessor,
		balanceProcessor:  balanceProcessor,
		metricsProcessor:  metricsProcessor,
		forecastProcessor: forecastProcessor,
		pivotProcessor:    pivotProcessor,
		exporter:          exporter,
		reportCache:       reportCache,
		recorder:          recorder,
	}
}

// Run executes one batch run. Every stage must succeed before the first
// byte of output is written; a failing stage leaves the previous run's CSVs
// and snapshots untouched.
func (s *pipelineServiceImpl) Run() (*RunSummary, error) {
	summary, err := s.run()
	if s.recorder != nil {
		if err != nil {
			s.recorder.RecordRunFailure()
		} else {
			s.recorder.RecordRun(summary.MetricsRows, summary.ForecastRows, summary.Duration)
		}
	}
	return summary, err
}

func (s *pipelineServiceImpl) run() (*RunSummary, error) {
	runID := uuid.New().String()
	start := time.Now()
	log := logger.L.With("run_id", runID)
	log.Info("Pipeline run starting")

	data, err := s.loader.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	log.Info("Raw tables loaded",
		"income_rows", len(data.Incomes),
		"expense_rows", len(data.Expenses),
		"asset_rows", len(data.Assets),
		"market_rows", len(data.Markets),
		"accounts", len(data.Accounts),
		"payment_methods", len(data.Methods))

	accounts := models.BuildAccountMap(data.Accounts)
	methods := models.BuildPaymentMethodMap(data.Methods)

	cashflows, err := s.cashFlowProcessor.Process(data.Incomes, data.Expenses, accounts, methods)
	if err != nil {
		return nil, fmt.Errorf("cash flow aggregation failed: %w", err)
	}
	sheets, err := s.balanceProcessor.Process(data.Assets, data.Markets, accounts, cashflows)
	if err != nil {
		return nil, fmt.Errorf("balance sheet aggregation failed: %w", err)
	}
	metrics := s.metricsProcessor.Process(cashflows, sheets, data.Markets)
	forecast, err := s.forecastProcessor.Process(cashflows, sheets, data.Markets)
	if err != nil {
		return nil, fmt.Errorf("forecast projection failed: %w", err)
	}
	normalized, err := s.pivotProcessor.Process(data, accounts, cashflows, sheets, metrics)
	if err != nil {
		return nil, fmt.Errorf("normalized pivot failed: %w", err)
	}

	artifacts := &PipelineArtifacts{
		Accounts:   data.Accounts,
		Methods:    data.Methods,
		CashFlows:  cashflows,
		Sheets:     sheets,
		Metrics:    metrics,
		Forecast:   forecast,
		Normalized: normalized,
	}
	if err := s.exporter.ExportAll(artifacts); err != nil {
		return nil, fmt.Errorf("csv export failed: %w", err)
	}
	if err := s.replaceSnapshots(cashflows, sheets, metrics, forecast); err != nil {
		return nil, fmt.Errorf("snapshot rebuild failed: %w", err)
	}
	if s.reportCache != nil {
		s.reportCache.Flush()
	}

	summary := &RunSummary{
		RunID:        runID,
		CashFlowRows: len(cashflows),
		BalanceRows:  len(sheets),
		MetricsRows:  len(metrics),
		ForecastRows: len(forecast.Records),
		AnnualRows:   len(forecast.Annual),
		Duration:     time.Since(start),
	}
	if len(metrics) > 0 {
		summary.FirstMonth = metrics[0].Month
		summary.LastMonth = metrics[len(metrics)-1].Month
	}
	log.Info("Pipeline run finished",
		"months", summary.MetricsRows,
		"first_month", string(summary.FirstMonth),
		"last_month", string(summary.LastMonth),
		"cashflow_rows", summary.CashFlowRows,
		"balance_sheet_rows", summary.BalanceRows,
		"forecast_rows", summary.ForecastRows,
		"forecast_annual_rows", summary.AnnualRows,
		"duration", summary.Duration.String())
	return summary, nil
}

// replaceSnapshots rebuilds the read model from the run's outputs. The
// metrics series carries the month join, so statement snapshots exist for
// exactly the months that have both statements.
func (s *pipelineServiceImpl) replaceSnapshots(
	cashflows []models.CashFlowStatement,
	sheets []models.BalanceSheet,
	metrics []models.MetricsRecord,
	forecast *processors.ForecastResult,
) error {
	cfByMonth := make(map[models.Month]models.CashFlowStatement, len(cashflows))
	for _, cf := range cashflows {
		cfByMonth[cf.Month] = cf
	}
	bsByMonth := make(map[models.Month]models.BalanceSheet, len(sheets))
	for _, bs := range sheets {
		bsByMonth[bs.Month] = bs
	}

	statements := make([]model.StatementSnapshot, 0, len(metrics))
	for _, m := range metrics {
		statements = append(statements, model.StatementSnapshotFrom(cfByMonth[m.Month], bsByMonth[m.Month], m))
	}
	forecastRows := make([]model.ForecastSnapshot, 0, len(forecast.Records))
	for _, r := range forecast.Records {
		forecastRows = append(forecastRows, model.ForecastSnapshotFrom(r))
	}
	return model.ReplaceSnapshots(database.DB, statements, forecastRows, forecast.Annual, forecast.Parameters)
}
