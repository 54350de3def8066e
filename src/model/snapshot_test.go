package model

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/kakeibo/src/models"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_create_snapshot_tables.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func statementFixture(month models.Month, withRatios bool) StatementSnapshot {
	cf := models.CashFlowStatement{
		Month:          month,
		AfterTaxIncome: 300000,
		Expenditure:    200000,
		NetSavings:     100000,
	}
	bs := models.BalanceSheet{
		Month:                month,
		LiquidAssets:         1000000,
		RiskAssets:           2000000,
		PensionAssets:        500000,
		TotalFinancialAssets: 3500000,
		InvestmentGainLoss:   20000,
	}
	m := models.MetricsRecord{Month: month}
	if withRatios {
		m.SavingsRate = models.DefinedRatio(1.0 / 3.0)
		m.RiskAssetRatio = models.DefinedRatio(2500000.0 / 3500000.0)
		m.MonthlyAlpha = models.DefinedRatio(0)
	}
	return StatementSnapshotFrom(cf, bs, m)
}

func forecastFixture(month models.Month, phase models.ForecastPhase) ForecastSnapshot {
	return ForecastSnapshotFrom(models.ForecastRecord{
		Month:                month,
		Phase:                phase,
		AfterTaxIncome:       300000,
		Expenditure:          200000,
		NetSavings:           100000,
		LiquidAssets:         1000000,
		RiskAssets:           2000000,
		PensionAssets:        500000,
		TotalFinancialAssets: 3500000,
		InvestmentGainLoss:   10000,
		MonthlyReturn:        models.DefinedRatio(0.004),
	})
}

func TestReplaceSnapshots_RoundTrip(t *testing.T) {
	db := newTestStore(t)

	statements := []StatementSnapshot{
		statementFixture("2024-01", false),
		statementFixture("2024-02", true),
		statementFixture("2024-03", true),
	}
	forecast := []ForecastSnapshot{
		forecastFixture("2024-03", models.PhaseHistorical),
		forecastFixture("2024-04", models.PhaseProjected),
		forecastFixture("2024-05", models.PhaseProjected),
	}
	annual := []models.ForecastAnnualSummary{
		{
			Period:               1,
			StartMonth:           "2024-04",
			EndMonth:             "2025-03",
			AfterTaxIncome:       3600000,
			Expenditure:          2400000,
			NetSavings:           1200000,
			InvestmentGainLoss:   120000,
			LiquidAssets:         1000000,
			RiskAssets:           3320000,
			PensionAssets:        500000,
			TotalFinancialAssets: 4820000,
		},
	}
	parameters := []models.ForecastParameter{
		{Category: "return", Item: "risk_assets", Parameter: "expected_annual_return", Value: "0.0500", Unit: "ratio", Description: "annual growth assumption for the risk bucket"},
		{Category: "horizon", Item: "projection", Parameter: "horizon_months", Value: "360", Unit: "months", Description: "number of projected months"},
	}

	require.NoError(t, ReplaceSnapshots(db, statements, forecast, annual, parameters))

	gotStatements, err := GetStatementSnapshots(db, 0)
	require.NoError(t, err)
	assert.Equal(t, statements, gotStatements)

	count, err := CountStatementSnapshots(db)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	latest, err := GetLatestStatementSnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, statements[2], *latest)

	gotForecast, err := GetForecastSnapshots(db, "", 0)
	require.NoError(t, err)
	assert.Equal(t, forecast, gotForecast)

	gotAnnual, err := GetForecastAnnual(db)
	require.NoError(t, err)
	assert.Equal(t, annual, gotAnnual)

	gotParameters, err := GetForecastParameters(db)
	require.NoError(t, err)
	// Parameters come back ordered by category, item, parameter.
	require.Len(t, gotParameters, 2)
	assert.Equal(t, parameters[1], gotParameters[0])
	assert.Equal(t, parameters[0], gotParameters[1])
}

func TestReplaceSnapshots_RerunReplacesEverything(t *testing.T) {
	db := newTestStore(t)

	first := []StatementSnapshot{
		statementFixture("2024-01", false),
		statementFixture("2024-02", true),
	}
	require.NoError(t, ReplaceSnapshots(db, first, nil, nil, nil))

	second := []StatementSnapshot{statementFixture("2024-05", true)}
	require.NoError(t, ReplaceSnapshots(db, second, nil, nil, nil))

	got, err := GetStatementSnapshots(db, 0)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	count, err := CountStatementSnapshots(db)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetStatementSnapshots_LimitKeepsTrailingMonths(t *testing.T) {
	db := newTestStore(t)

	statements := []StatementSnapshot{
		statementFixture("2024-01", false),
		statementFixture("2024-02", false),
		statementFixture("2024-03", true),
		statementFixture("2024-04", true),
	}
	require.NoError(t, ReplaceSnapshots(db, statements, nil, nil, nil))

	got, err := GetStatementSnapshots(db, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Month("2024-03"), got[0].Month)
	assert.Equal(t, models.Month("2024-04"), got[1].Month)
}

func TestGetForecastSnapshots_PhaseAndLimit(t *testing.T) {
	db := newTestStore(t)

	forecast := []ForecastSnapshot{
		forecastFixture("2024-02", models.PhaseHistorical),
		forecastFixture("2024-03", models.PhaseHistorical),
		forecastFixture("2024-04", models.PhaseProjected),
		forecastFixture("2024-05", models.PhaseProjected),
		forecastFixture("2024-06", models.PhaseProjected),
	}
	require.NoError(t, ReplaceSnapshots(db, nil, forecast, nil, nil))

	projected, err := GetForecastSnapshots(db, models.PhaseProjected, 0)
	require.NoError(t, err)
	require.Len(t, projected, 3)
	assert.Equal(t, models.Month("2024-04"), projected[0].Month)

	// A limit keeps the nearest projected months.
	nearest, err := GetForecastSnapshots(db, models.PhaseProjected, 2)
	require.NoError(t, err)
	require.Len(t, nearest, 2)
	assert.Equal(t, models.Month("2024-04"), nearest[0].Month)
	assert.Equal(t, models.Month("2024-05"), nearest[1].Month)

	all, err := GetForecastSnapshots(db, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGetLatestStatementSnapshot_EmptyStore(t *testing.T) {
	db := newTestStore(t)

	_, err := GetLatestStatementSnapshot(db)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSnapshotConversions_UndefinedRatiosSurviveRoundTrip(t *testing.T) {
	db := newTestStore(t)

	snap := statementFixture("2024-02", true)
	require.NoError(t, ReplaceSnapshots(db, []StatementSnapshot{snap}, nil, nil, nil))

	got, err := GetLatestStatementSnapshot(db)
	require.NoError(t, err)

	metrics := got.Metrics()
	rate, ok := metrics.SavingsRate.Value()
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, rate, 1e-12)

	alpha, ok := metrics.MonthlyAlpha.Value()
	require.True(t, ok)
	assert.Equal(t, 0.0, alpha)

	// Never-set windows stay undefined through the store.
	assert.False(t, metrics.MonthlyReturn.Defined())
	assert.False(t, metrics.FIRatio48M.Defined())
}
