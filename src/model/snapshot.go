package model

import (
	"database/sql"
	"fmt"

	"github.com/username/kakeibo/src/models"
)

// StatementSnapshot is one month of the joined read model: cash flow,
// balance sheet and trailing metrics in a single row. Ratio columns are
// NULL while the metric is undefined.
type StatementSnapshot struct {
	Month                models.Month
	AfterTaxIncome       int64
	Expenditure          int64
	NetSavings           int64
	LiquidAssets         float64
	RiskAssets           float64
	PensionAssets        float64
	TotalFinancialAssets float64
	InvestmentGainLoss   float64
	SavingsRate          sql.NullFloat64
	RiskAssetRatio       sql.NullFloat64
	MonthlyReturn        sql.NullFloat64
	MonthlyAlpha         sql.NullFloat64
	BenchmarkReturn      sql.NullFloat64
	FIRatio12M           sql.NullFloat64
	FIRatio48M           sql.NullFloat64
	FIRatioNext12M       sql.NullFloat64
}

// ForecastSnapshot is one persisted row of the combined
// history-plus-projection series.
type ForecastSnapshot struct {
	Month                models.Month
	Phase                models.ForecastPhase
	AfterTaxIncome       float64
	Expenditure          float64
	NetSavings           float64
	LiquidAssets         float64
	RiskAssets           float64
	PensionAssets        float64
	TotalFinancialAssets float64
	InvestmentGainLoss   float64
	SavingsRate          sql.NullFloat64
	RiskAssetRatio       sql.NullFloat64
	MonthlyReturn        sql.NullFloat64
	MonthlyAlpha         sql.NullFloat64
	BenchmarkReturn      sql.NullFloat64
	FIRatio12M           sql.NullFloat64
	FIRatio48M           sql.NullFloat64
	FIRatioNext12M       sql.NullFloat64
}

// StatementSnapshotFrom flattens one month of statements and metrics into
// its persisted row.
func StatementSnapshotFrom(cf models.CashFlowStatement, bs models.BalanceSheet, m models.MetricsRecord) StatementSnapshot {
	return StatementSnapshot{
		Month:                cf.Month,
		AfterTaxIncome:       cf.AfterTaxIncome,
		Expenditure:          cf.Expenditure,
		NetSavings:           cf.NetSavings,
		LiquidAssets:         bs.LiquidAssets,
		RiskAssets:           bs.RiskAssets,
		PensionAssets:        bs.PensionAssets,
		TotalFinancialAssets: bs.TotalFinancialAssets,
		InvestmentGainLoss:   bs.InvestmentGainLoss,
		SavingsRate:          m.SavingsRate.NullFloat64(),
		RiskAssetRatio:       m.RiskAssetRatio.NullFloat64(),
		MonthlyReturn:        m.MonthlyReturn.NullFloat64(),
		MonthlyAlpha:         m.MonthlyAlpha.NullFloat64(),
		BenchmarkReturn:      m.BenchmarkReturn.NullFloat64(),
		FIRatio12M:           m.FIRatio12M.NullFloat64(),
		FIRatio48M:           m.FIRatio48M.NullFloat64(),
		FIRatioNext12M:       m.FIRatioNext12M.NullFloat64(),
	}
}

// ForecastSnapshotFrom maps a forecast record onto its persisted row.
func ForecastSnapshotFrom(rec models.ForecastRecord) ForecastSnapshot {
	return ForecastSnapshot{
		Month:                rec.Month,
		Phase:                rec.Phase,
		AfterTaxIncome:       rec.AfterTaxIncome,
		Expenditure:          rec.Expenditure,
		NetSavings:           rec.NetSavings,
		LiquidAssets:         rec.LiquidAssets,
		RiskAssets:           rec.RiskAssets,
		PensionAssets:        rec.PensionAssets,
		TotalFinancialAssets: rec.TotalFinancialAssets,
		InvestmentGainLoss:   rec.InvestmentGainLoss,
		SavingsRate:          rec.SavingsRate.NullFloat64(),
		RiskAssetRatio:       rec.RiskAssetRatio.NullFloat64(),
		MonthlyReturn:        rec.MonthlyReturn.NullFloat64(),
		MonthlyAlpha:         rec.MonthlyAlpha.NullFloat64(),
		BenchmarkReturn:      rec.BenchmarkReturn.NullFloat64(),
		FIRatio12M:           rec.FIRatio12M.NullFloat64(),
		FIRatio48M:           rec.FIRatio48M.NullFloat64(),
		FIRatioNext12M:       rec.FIRatioNext12M.NullFloat64(),
	}
}

// Metrics converts the ratio columns back to their optional domain form.
func (s StatementSnapshot) Metrics() models.MetricsRecord {
	return models.MetricsRecord{
		Month:           s.Month,
		SavingsRate:     models.RatioFromNull(s.SavingsRate),
		RiskAssetRatio:  models.RatioFromNull(s.RiskAssetRatio),
		MonthlyReturn:   models.RatioFromNull(s.MonthlyReturn),
		MonthlyAlpha:    models.RatioFromNull(s.MonthlyAlpha),
		BenchmarkReturn: models.RatioFromNull(s.BenchmarkReturn),
		FIRatio12M:      models.RatioFromNull(s.FIRatio12M),
		FIRatio48M:      models.RatioFromNull(s.FIRatio48M),
		FIRatioNext12M:  models.RatioFromNull(s.FIRatioNext12M),
	}
}

// Record converts the row back into the domain forecast record.
func (s ForecastSnapshot) Record() models.ForecastRecord {
	return models.ForecastRecord{
		Month:                s.Month,
		Phase:                s.Phase,
		AfterTaxIncome:       s.AfterTaxIncome,
		Expenditure:          s.Expenditure,
		NetSavings:           s.NetSavings,
		LiquidAssets:         s.LiquidAssets,
		RiskAssets:           s.RiskAssets,
		PensionAssets:        s.PensionAssets,
		TotalFinancialAssets: s.TotalFinancialAssets,
		InvestmentGainLoss:   s.InvestmentGainLoss,
		SavingsRate:          models.RatioFromNull(s.SavingsRate),
		RiskAssetRatio:       models.RatioFromNull(s.RiskAssetRatio),
		MonthlyReturn:        models.RatioFromNull(s.MonthlyReturn),
		MonthlyAlpha:         models.RatioFromNull(s.MonthlyAlpha),
		BenchmarkReturn:      models.RatioFromNull(s.BenchmarkReturn),
		FIRatio12M:           models.RatioFromNull(s.FIRatio12M),
		FIRatio48M:           models.RatioFromNull(s.FIRatio48M),
		FIRatioNext12M:       models.RatioFromNull(s.FIRatioNext12M),
	}
}

const statementSnapshotSelect = `
	SELECT month, after_tax_income, expenditure, net_savings,
		liquid_assets, risk_assets, pension_assets, total_financial_assets, investment_gain_loss,
		savings_rate, risk_asset_ratio, monthly_return, monthly_alpha, benchmark_return,
		fi_ratio_12m, fi_ratio_48m, fi_ratio_next_12m
	FROM statement_snapshots`

const forecastSnapshotSelect = `
	SELECT month, phase, after_tax_income, expenditure, net_savings,
		liquid_assets, risk_assets, pension_assets, total_financial_assets, investment_gain_loss,
		savings_rate, risk_asset_ratio, monthly_return, monthly_alpha, benchmark_return,
		fi_ratio_12m, fi_ratio_48m, fi_ratio_next_12m
	FROM forecast_snapshots`

// ReplaceSnapshots rebuilds the whole read model inside one transaction, so
// readers never observe a partially written run.
func ReplaceSnapshots(db *sql.DB, statements []StatementSnapshot, forecast []ForecastSnapshot, annual []models.ForecastAnnualSummary, parameters []models.ForecastParameter) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceStatementSnapshots(tx, statements); err != nil {
		return err
	}
	if err := replaceForecastSnapshots(tx, forecast); err != nil {
		return err
	}
	if err := replaceForecastAnnual(tx, annual); err != nil {
		return err
	}
	if err := replaceForecastParameters(tx, parameters); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	return nil
}

func replaceStatementSnapshots(tx *sql.Tx, rows []StatementSnapshot) error {
	if _, err := tx.Exec(`DELETE FROM statement_snapshots`); err != nil {
		return fmt.Errorf("failed to clear statement_snapshots: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO statement_snapshots (
			month, after_tax_income, expenditure, net_savings,
			liquid_assets, risk_assets, pension_assets, total_financial_assets, investment_gain_loss,
			savings_rate, risk_asset_ratio, monthly_return, monthly_alpha, benchmark_return,
			fi_ratio_12m, fi_ratio_48m, fi_ratio_next_12m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement_snapshots insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		_, err := stmt.Exec(
			r.Month, r.AfterTaxIncome, r.Expenditure, r.NetSavings,
			r.LiquidAssets, r.RiskAssets, r.PensionAssets, r.TotalFinancialAssets, r.InvestmentGainLoss,
			r.SavingsRate, r.RiskAssetRatio, r.MonthlyReturn, r.MonthlyAlpha, r.BenchmarkReturn,
			r.FIRatio12M, r.FIRatio48M, r.FIRatioNext12M,
		)
		if err != nil {
			return fmt.Errorf("failed to insert statement snapshot %s: %w", r.Month, err)
		}
	}
	return nil
}

func replaceForecastSnapshots(tx *sql.Tx, rows []ForecastSnapshot) error {
	if _, err := tx.Exec(`DELETE FROM forecast_snapshots`); err != nil {
		return fmt.Errorf("failed to clear forecast_snapshots: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO forecast_snapshots (
			month, phase, after_tax_income, expenditure, net_savings,
			liquid_assets, risk_assets, pension_assets, total_financial_assets, investment_gain_loss,
			savings_rate, risk_asset_ratio, monthly_return, monthly_alpha, benchmark_return,
			fi_ratio_12m, fi_ratio_48m, fi_ratio_next_12m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast_snapshots insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		_, err := stmt.Exec(
			r.Month, r.Phase, r.AfterTaxIncome, r.Expenditure, r.NetSavings,
			r.LiquidAssets, r.RiskAssets, r.PensionAssets, r.TotalFinancialAssets, r.InvestmentGainLoss,
			r.SavingsRate, r.RiskAssetRatio, r.MonthlyReturn, r.MonthlyAlpha, r.BenchmarkReturn,
			r.FIRatio12M, r.FIRatio48M, r.FIRatioNext12M,
		)
		if err != nil {
			return fmt.Errorf("failed to insert forecast snapshot %s: %w", r.Month, err)
		}
	}
	return nil
}

func replaceForecastAnnual(tx *sql.Tx, rows []models.ForecastAnnualSummary) error {
	if _, err := tx.Exec(`DELETE FROM forecast_annual_snapshots`); err != nil {
		return fmt.Errorf("failed to clear forecast_annual_snapshots: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO forecast_annual_snapshots (
			period, start_month, end_month,
			after_tax_income, expenditure, net_savings, investment_gain_loss,
			liquid_assets, risk_assets, pension_assets, total_financial_assets
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast_annual_snapshots insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		_, err := stmt.Exec(
			r.Period, r.StartMonth, r.EndMonth,
			r.AfterTaxIncome, r.Expenditure, r.NetSavings, r.InvestmentGainLoss,
			r.LiquidAssets, r.RiskAssets, r.PensionAssets, r.TotalFinancialAssets,
		)
		if err != nil {
			return fmt.Errorf("failed to insert annual snapshot for period %d: %w", r.Period, err)
		}
	}
	return nil
}

func replaceForecastParameters(tx *sql.Tx, rows []models.ForecastParameter) error {
	if _, err := tx.Exec(`DELETE FROM forecast_parameter_snapshots`); err != nil {
		return fmt.Errorf("failed to clear forecast_parameter_snapshots: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO forecast_parameter_snapshots (
			category, item, parameter, value, unit, description
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast_parameter_snapshots insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		_, err := stmt.Exec(r.Category, r.Item, r.Parameter, r.Value, r.Unit, r.Description)
		if err != nil {
			return fmt.Errorf("failed to insert forecast parameter %s/%s: %w", r.Item, r.Parameter, err)
		}
	}
	return nil
}

// GetStatementSnapshots returns the trailing limit months in chronological
// order. A limit of zero or less returns every month.
func GetStatementSnapshots(db *sql.DB, limit int) ([]StatementSnapshot, error) {
	query := statementSnapshotSelect + ` ORDER BY month DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement snapshots: %w", err)
	}
	defer rows.Close()

	var out []StatementSnapshot
	for rows.Next() {
		var s StatementSnapshot
		if err := rows.Scan(
			&s.Month, &s.AfterTaxIncome, &s.Expenditure, &s.NetSavings,
			&s.LiquidAssets, &s.RiskAssets, &s.PensionAssets, &s.TotalFinancialAssets, &s.InvestmentGainLoss,
			&s.SavingsRate, &s.RiskAssetRatio, &s.MonthlyReturn, &s.MonthlyAlpha, &s.BenchmarkReturn,
			&s.FIRatio12M, &s.FIRatio48M, &s.FIRatioNext12M,
		); err != nil {
			return nil, fmt.Errorf("failed to scan statement snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetLatestStatementSnapshot returns the most recent month, or
// sql.ErrNoRows when the store is empty.
func GetLatestStatementSnapshot(db *sql.DB) (*StatementSnapshot, error) {
	var s StatementSnapshot
	err := db.QueryRow(statementSnapshotSelect + ` ORDER BY month DESC LIMIT 1`).Scan(
		&s.Month, &s.AfterTaxIncome, &s.Expenditure, &s.NetSavings,
		&s.LiquidAssets, &s.RiskAssets, &s.PensionAssets, &s.TotalFinancialAssets, &s.InvestmentGainLoss,
		&s.SavingsRate, &s.RiskAssetRatio, &s.MonthlyReturn, &s.MonthlyAlpha, &s.BenchmarkReturn,
		&s.FIRatio12M, &s.FIRatio48M, &s.FIRatioNext12M,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func CountStatementSnapshots(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM statement_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count statement snapshots: %w", err)
	}
	return n, nil
}

// GetForecastSnapshots returns forecast rows in chronological order,
// optionally filtered by phase. A limit of zero or less returns every row;
// a positive limit keeps the earliest rows, which for the projected phase
// are the nearest months.
func GetForecastSnapshots(db *sql.DB, phase models.ForecastPhase, limit int) ([]ForecastSnapshot, error) {
	query := forecastSnapshotSelect
	args := []interface{}{}
	if phase != "" {
		query += ` WHERE phase = ?`
		args = append(args, phase)
	}
	query += ` ORDER BY month`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast snapshots: %w", err)
	}
	defer rows.Close()

	var out []ForecastSnapshot
	for rows.Next() {
		var s ForecastSnapshot
		if err := rows.Scan(
			&s.Month, &s.Phase, &s.AfterTaxIncome, &s.Expenditure, &s.NetSavings,
			&s.LiquidAssets, &s.RiskAssets, &s.PensionAssets, &s.TotalFinancialAssets, &s.InvestmentGainLoss,
			&s.SavingsRate, &s.RiskAssetRatio, &s.MonthlyReturn, &s.MonthlyAlpha, &s.BenchmarkReturn,
			&s.FIRatio12M, &s.FIRatio48M, &s.FIRatioNext12M,
		); err != nil {
			return nil, fmt.Errorf("failed to scan forecast snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func GetForecastAnnual(db *sql.DB) ([]models.ForecastAnnualSummary, error) {
	rows, err := db.Query(`
		SELECT period, start_month, end_month,
			after_tax_income, expenditure, net_savings, investment_gain_loss,
			liquid_assets, risk_assets, pension_assets, total_financial_assets
		FROM forecast_annual_snapshots ORDER BY period`)
	if err != nil {
		return nil, fmt.Errorf("failed to query annual snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.ForecastAnnualSummary
	for rows.Next() {
		var r models.ForecastAnnualSummary
		if err := rows.Scan(
			&r.Period, &r.StartMonth, &r.EndMonth,
			&r.AfterTaxIncome, &r.Expenditure, &r.NetSavings, &r.InvestmentGainLoss,
			&r.LiquidAssets, &r.RiskAssets, &r.PensionAssets, &r.TotalFinancialAssets,
		); err != nil {
			return nil, fmt.Errorf("failed to scan annual snapshot: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func GetForecastParameters(db *sql.DB) ([]models.ForecastParameter, error) {
	rows, err := db.Query(`
		SELECT category, item, parameter, value, unit, description
		FROM forecast_parameter_snapshots ORDER BY category, item, parameter`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast parameters: %w", err)
	}
	defer rows.Close()

	var out []models.ForecastParameter
	for rows.Next() {
		var r models.ForecastParameter
		if err := rows.Scan(&r.Category, &r.Item, &r.Parameter, &r.Value, &r.Unit, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan forecast parameter: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
