package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/username/kakeibo/src/models"
	"github.com/username/kakeibo/src/processors"
	"github.com/username/kakeibo/src/utils"
)

// PipelineArtifacts bundles everything one run computes before any output
// is written.
type PipelineArtifacts struct {
	Accounts   []models.Account
	Methods    []models.PaymentMethod
	CashFlows  []models.CashFlowStatement
	Sheets     []models.BalanceSheet
	Metrics    []models.MetricsRecord
	Forecast   *processors.ForecastResult
	Normalized []processors.NormalizedRow
}

// ExportService rewrites the calculated CSV directory from one run's
// artifacts. Output ordering is fully determined by the inputs, so a rerun
// over identical data produces byte-identical files.
type ExportService struct {
	outputDir string
}

func NewExportService(outputDir string) *ExportService {
	return &ExportService{outputDir: outputDir}
}

var ratioHeader = []string{
	"savings_rate", "risk_asset_ratio", "monthly_return", "monthly_alpha",
	"benchmark_return", "fi_ratio_12m", "fi_ratio_48m", "fi_ratio_next_12m",
}

// ExportAll writes every calculated CSV into the output directory.
func (s *ExportService) ExportAll(a *PipelineArtifacts) error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.outputDir, err)
	}
	if err := s.exportCashFlow(a.CashFlows); err != nil {
		return err
	}
	if err := s.exportBalanceSheet(a.Sheets); err != nil {
		return err
	}
	if err := s.exportMetrics(a.Metrics); err != nil {
		return err
	}
	if err := s.exportForecast(a.Forecast.Records); err != nil {
		return err
	}
	if err := s.exportForecastAnnual(a.Forecast.Annual); err != nil {
		return err
	}
	if err := s.exportForecastParameters(a.Forecast.Parameters); err != nil {
		return err
	}
	return s.exportNormalized(a)
}

func (s *ExportService) exportCashFlow(cashflows []models.CashFlowStatement) error {
	header := []string{"month", "after_tax_income", "expenditure", "net_savings"}
	rows := make([][]string, 0, len(cashflows))
	for _, cf := range cashflows {
		rows = append(rows, []string{
			cf.Month.String(),
			strconv.FormatInt(cf.AfterTaxIncome, 10),
			strconv.FormatInt(cf.Expenditure, 10),
			strconv.FormatInt(cf.NetSavings, 10),
		})
	}
	return s.writeFile("cashflow.csv", header, rows)
}

func (s *ExportService) exportBalanceSheet(sheets []models.BalanceSheet) error {
	header := []string{
		"month", "liquid_assets", "risk_assets", "pension_assets",
		"total_financial_assets", "investment_gain_loss",
	}
	rows := make([][]string, 0, len(sheets))
	for _, bs := range sheets {
		rows = append(rows, []string{
			bs.Month.String(),
			utils.FormatYen(bs.LiquidAssets),
			utils.FormatYen(bs.RiskAssets),
			utils.FormatYen(bs.PensionAssets),
			utils.FormatYen(bs.TotalFinancialAssets),
			utils.FormatYen(bs.InvestmentGainLoss),
		})
	}
	return s.writeFile("balance_sheet.csv", header, rows)
}

func (s *ExportService) exportMetrics(metrics []models.MetricsRecord) error {
	header := append([]string{"month"}, ratioHeader...)
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, append([]string{m.Month.String()}, ratioCells(m)...))
	}
	return s.writeFile("metrics.csv", header, rows)
}

func (s *ExportService) exportForecast(records []models.ForecastRecord) error {
	header := []string{
		"month", "phase", "after_tax_income", "expenditure", "net_savings",
		"liquid_assets", "risk_assets", "pension_assets",
		"total_financial_assets", "investment_gain_loss",
	}
	header = append(header, ratioHeader...)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			r.Month.String(),
			string(r.Phase),
			utils.FormatYen(r.AfterTaxIncome),
			utils.FormatYen(r.Expenditure),
			utils.FormatYen(r.NetSavings),
			utils.FormatYen(r.LiquidAssets),
			utils.FormatYen(r.RiskAssets),
			utils.FormatYen(r.PensionAssets),
			utils.FormatYen(r.TotalFinancialAssets),
			utils.FormatYen(r.InvestmentGainLoss),
		}
		row = append(row,
			r.SavingsRate.CSVString(),
			r.RiskAssetRatio.CSVString(),
			r.MonthlyReturn.CSVString(),
			r.MonthlyAlpha.CSVString(),
			r.BenchmarkReturn.CSVString(),
			r.FIRatio12M.CSVString(),
			r.FIRatio48M.CSVString(),
			r.FIRatioNext12M.CSVString(),
		)
		rows = append(rows, row)
	}
	return s.writeFile("forecast.csv", header, rows)
}

func (s *ExportService) exportForecastAnnual(annual []models.ForecastAnnualSummary) error {
	header := []string{
		"period", "start_month", "end_month",
		"after_tax_income", "expenditure", "net_savings", "investment_gain_loss",
		"liquid_assets", "risk_assets", "pension_assets", "total_financial_assets",
	}
	rows := make([][]string, 0, len(annual))
	for _, r := range annual {
		rows = append(rows, []string{
			strconv.Itoa(r.Period),
			r.StartMonth.String(),
			r.EndMonth.String(),
			utils.FormatYen(r.AfterTaxIncome),
			utils.FormatYen(r.Expenditure),
			utils.FormatYen(r.NetSavings),
			utils.FormatYen(r.InvestmentGainLoss),
			utils.FormatYen(r.LiquidAssets),
			utils.FormatYen(r.RiskAssets),
			utils.FormatYen(r.PensionAssets),
			utils.FormatYen(r.TotalFinancialAssets),
		})
	}
	return s.writeFile("forecast_annual.csv", header, rows)
}

func (s *ExportService) exportForecastParameters(params []models.ForecastParameter) error {
	header := []string{"category", "item", "parameter", "value", "unit", "description"}
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, []string{p.Category, p.Item, p.Parameter, p.Value, p.Unit, p.Description})
	}
	return s.writeFile("forecast_parameters.csv", header, rows)
}

// exportNormalized writes the wide pivot. Column sets come from the master
// tables and the closed asset-class set, sorted by id, so the layout does
// not depend on which ids happen to appear in a given month.
func (s *ExportService) exportNormalized(a *PipelineArtifacts) error {
	accountIDs := make([]models.AccountID, 0, len(a.Accounts))
	for _, acc := range a.Accounts {
		accountIDs = append(accountIDs, acc.ID)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i] < accountIDs[j] })

	methodIDs := make([]models.PaymentMethodID, 0, len(a.Methods))
	for _, m := range a.Methods {
		methodIDs = append(methodIDs, m.ID)
	}
	sort.Slice(methodIDs, func(i, j int) bool { return methodIDs[i] < methodIDs[j] })

	classes := models.AssetClasses()

	header := []string{"month"}
	for _, id := range accountIDs {
		header = append(header, "income_"+string(id))
	}
	for _, id := range methodIDs {
		header = append(header, "expense_"+string(id))
	}
	header = append(header, "after_tax_income", "expenditure", "net_savings")
	for _, id := range accountIDs {
		header = append(header, "asset_"+string(id))
	}
	for _, c := range classes {
		header = append(header, "class_"+string(c))
	}
	header = append(header,
		"liquid_assets", "risk_assets", "pension_assets",
		"total_financial_assets", "investment_gain_loss",
	)
	header = append(header, ratioHeader...)

	rows := make([][]string, 0, len(a.Normalized))
	for _, n := range a.Normalized {
		row := make([]string, 0, len(header))
		row = append(row, n.Month.String())
		for _, id := range accountIDs {
			row = append(row, strconv.FormatInt(n.IncomeByAccount[id], 10))
		}
		for _, id := range methodIDs {
			row = append(row, strconv.FormatInt(n.ExpenseByMethod[id], 10))
		}
		row = append(row,
			strconv.FormatInt(n.CashFlow.AfterTaxIncome, 10),
			strconv.FormatInt(n.CashFlow.Expenditure, 10),
			strconv.FormatInt(n.CashFlow.NetSavings, 10),
		)
		for _, id := range accountIDs {
			row = append(row, utils.FormatYen(n.AssetByAccount[id]))
		}
		for _, c := range classes {
			row = append(row, utils.FormatYen(n.ClassBalances[c]))
		}
		row = append(row,
			utils.FormatYen(n.Balance.LiquidAssets),
			utils.FormatYen(n.Balance.RiskAssets),
			utils.FormatYen(n.Balance.PensionAssets),
			utils.FormatYen(n.Balance.TotalFinancialAssets),
			utils.FormatYen(n.Balance.InvestmentGainLoss),
		)
		row = append(row, ratioCells(n.Metrics)...)
		rows = append(rows, row)
	}
	return s.writeFile("normalized.csv", header, rows)
}

func ratioCells(m models.MetricsRecord) []string {
	return []string{
		m.SavingsRate.CSVString(),
		m.RiskAssetRatio.CSVString(),
		m.MonthlyReturn.CSVString(),
		m.MonthlyAlpha.CSVString(),
		m.BenchmarkReturn.CSVString(),
		m.FIRatio12M.CSVString(),
		m.FIRatio48M.CSVString(),
		m.FIRatioNext12M.CSVString(),
	}
}

func (s *ExportService) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	w.Write(header)
	w.WriteAll(rows)
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
