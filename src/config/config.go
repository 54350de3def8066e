package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	LogLevel     string
	DatabasePath string

	// Data locations
	DataDir   string // raw input tables (income, expense, assets, market)
	MasterDir string // master tables (accounts, payment_methods)
	OutputDir string // calculated CSV outputs, fully replaced each run

	// Forecast assumptions
	ExpectedAnnualReturn    float64
	ProjectedAnnualExpenses float64 // 0 = derive from trailing-12-month expenditure
	MonthlySavings          float64
	HasMonthlySavings       bool // false = derive from trailing-12-month net savings
	PensionContribution     float64
	ForecastHorizonMonths   int

	// Serve settings
	CacheExpiration time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("Info: No .env file found. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", err)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	monthlySavings, hasMonthlySavings := lookupEnvAsFloat("MONTHLY_SAVINGS")

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./kakeibo.db"),

		DataDir:   getEnv("DATA_DIR", "data/input"),
		MasterDir: getEnv("MASTER_DIR", "data/master"),
		OutputDir: getEnv("OUTPUT_DIR", "data/calculated"),

		ExpectedAnnualReturn:    getEnvAsFloat("EXPECTED_ANNUAL_RETURN", 0.05),
		ProjectedAnnualExpenses: getEnvAsFloat("PROJECTED_ANNUAL_EXPENSES", 0),
		MonthlySavings:          monthlySavings,
		HasMonthlySavings:       hasMonthlySavings,
		PensionContribution:     getEnvAsFloat("PENSION_CONTRIBUTION", 0),
		ForecastHorizonMonths:   getEnvAsInt("FORECAST_HORIZON_MONTHS", 360),

		CacheExpiration: getEnvAsDuration("CACHE_EXPIRATION", 15*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DataDir=%s, OutputDir=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DataDir, Cfg.OutputDir, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// lookupEnvAsFloat distinguishes "not set" from an explicit value, for
// settings whose absence selects a derived default.
func lookupEnvAsFloat(key string) (float64, bool) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s ('%s'), treating as unset", key, valueStr)
		return 0, false
	}
	return value, true
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
