package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/kakeibo/src/database"
	"github.com/username/kakeibo/src/model"
	"github.com/username/kakeibo/src/models"
)

const (
	ckSummary            = "report_summary"
	ckStatements         = "report_statements_%d"
	ckMetrics            = "report_metrics_%d"
	ckForecast           = "report_forecast_%s_%d"
	ckForecastAnnual     = "report_forecast_annual"
	ckForecastParameters = "report_forecast_parameters"

	// CacheCleanupInterval is how often expired report entries are purged.
	CacheCleanupInterval = 30 * time.Minute
)

type reportServiceImpl struct {
	reportCache *cache.Cache
}

func NewReportService(reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{reportCache: reportCache}
}

// Health is intentionally uncached; it is the freshness probe.
func (s *reportServiceImpl) Health() (*HealthStatus, error) {
	count, err := model.CountStatementSnapshots(database.DB)
	if err != nil {
		return nil, err
	}
	status := &HealthStatus{Status: "ok", Months: count}
	if count == 0 {
		status.Status = "empty"
		return status, nil
	}
	latest, err := model.GetLatestStatementSnapshot(database.DB)
	if err != nil {
		return nil, err
	}
	status.LastMonth = latest.Month
	return status, nil
}

func (s *reportServiceImpl) Summary() (*StatementView, error) {
	if cached, found := s.reportCache.Get(ckSummary); found {
		return cached.(*StatementView), nil
	}
	latest, err := model.GetLatestStatementSnapshot(database.DB)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	view := statementViewFrom(*latest)
	s.reportCache.Set(ckSummary, &view, cache.DefaultExpiration)
	return &view, nil
}

func (s *reportServiceImpl) Statements(limit int) ([]StatementView, error) {
	cacheKey := fmt.Sprintf(ckStatements, limit)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]StatementView), nil
	}
	snapshots, err := model.GetStatementSnapshots(database.DB, limit)
	if err != nil {
		return nil, err
	}
	views := make([]StatementView, 0, len(snapshots))
	for _, sn := range snapshots {
		views = append(views, statementViewFrom(sn))
	}
	s.reportCache.Set(cacheKey, views, cache.DefaultExpiration)
	return views, nil
}

func (s *reportServiceImpl) Metrics(limit int) ([]models.MetricsRecord, error) {
	cacheKey := fmt.Sprintf(ckMetrics, limit)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.MetricsRecord), nil
	}
	snapshots, err := model.GetStatementSnapshots(database.DB, limit)
	if err != nil {
		return nil, err
	}
	records := make([]models.MetricsRecord, 0, len(snapshots))
	for _, sn := range snapshots {
		records = append(records, sn.Metrics())
	}
	s.reportCache.Set(cacheKey, records, cache.DefaultExpiration)
	return records, nil
}

func (s *reportServiceImpl) Forecast(phase models.ForecastPhase, limit int) ([]models.ForecastRecord, error) {
	cacheKey := fmt.Sprintf(ckForecast, phase, limit)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.ForecastRecord), nil
	}
	snapshots, err := model.GetForecastSnapshots(database.DB, phase, limit)
	if err != nil {
		return nil, err
	}
	records := make([]models.ForecastRecord, 0, len(snapshots))
	for _, sn := range snapshots {
		records = append(records, sn.Record())
	}
	s.reportCache.Set(cacheKey, records, cache.DefaultExpiration)
	return records, nil
}

func (s *reportServiceImpl) ForecastAnnual() ([]models.ForecastAnnualSummary, error) {
	if cached, found := s.reportCache.Get(ckForecastAnnual); found {
		return cached.([]models.ForecastAnnualSummary), nil
	}
	rows, err := model.GetForecastAnnual(database.DB)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckForecastAnnual, rows, cache.DefaultExpiration)
	return rows, nil
}

func (s *reportServiceImpl) ForecastParameters() ([]models.ForecastParameter, error) {
	if cached, found := s.reportCache.Get(ckForecastParameters); found {
		return cached.([]models.ForecastParameter), nil
	}
	rows, err := model.GetForecastParameters(database.DB)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(ckForecastParameters, rows, cache.DefaultExpiration)
	return rows, nil
}

func (s *reportServiceImpl) InvalidateCache() {
	s.reportCache.Flush()
}

func statementViewFrom(sn model.StatementSnapshot) StatementView {
	return StatementView{
		Month:                sn.Month,
		AfterTaxIncome:       sn.AfterTaxIncome,
		Expenditure:          sn.Expenditure,
		NetSavings:           sn.NetSavings,
		LiquidAssets:         sn.LiquidAssets,
		RiskAssets:           sn.RiskAssets,
		PensionAssets:        sn.PensionAssets,
		TotalFinancialAssets: sn.TotalFinancialAssets,
		InvestmentGainLoss:   sn.InvestmentGainLoss,
		SavingsRate:          models.RatioFromNull(sn.SavingsRate),
		RiskAssetRatio:       models.RatioFromNull(sn.RiskAssetRatio),
		MonthlyReturn:        models.RatioFromNull(sn.MonthlyReturn),
		MonthlyAlpha:         models.RatioFromNull(sn.MonthlyAlpha),
		BenchmarkReturn:      models.RatioFromNull(sn.BenchmarkReturn),
		FIRatio12M:           models.RatioFromNull(sn.FIRatio12M),
		FIRatio48M:           models.RatioFromNull(sn.FIRatio48M),
		FIRatioNext12M:       models.RatioFromNull(sn.FIRatioNext12M),
	}
}
