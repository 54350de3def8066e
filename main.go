package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/kakeibo/src/config"
	"github.com/username/kakeibo/src/database"
	"github.com/username/kakeibo/src/handlers"
	"github.com/username/kakeibo/src/logger"
	"github.com/username/kakeibo/src/metrics"
	"github.com/username/kakeibo/src/model"
	"github.com/username/kakeibo/src/parsers"
	"github.com/username/kakeibo/src/processors"
	"github.com/username/kakeibo/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// enableCORS is permissive: the API is read-only and carries no credentials.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	logger.L.Info("kakeibo starting", "command", command)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(config.Cfg.CacheExpiration, services.CacheCleanupInterval)

	collector := metrics.NewCollector(func() float64 {
		count, err := model.CountStatementSnapshots(database.DB)
		if err != nil {
			return 0
		}
		return float64(count)
	})

	loader := parsers.NewLoader(config.Cfg.DataDir, config.Cfg.MasterDir)
	cashFlowProcessor := processors.NewCashFlowProcessor()
	balanceProcessor := processors.NewBalanceSheetProcessor()
	metricsProcessor := processors.NewMetricsProcessor(
		config.Cfg.ExpectedAnnualReturn,
		config.Cfg.ProjectedAnnualExpenses,
	)
	forecastProcessor := processors.NewForecastProcessor(processors.Assumptions{
		ExpectedAnnualReturn:    config.Cfg.ExpectedAnnualReturn,
		ProjectedAnnualExpenses: config.Cfg.ProjectedAnnualExpenses,
		MonthlySavings:          config.Cfg.MonthlySavings,
		HasMonthlySavings:       config.Cfg.HasMonthlySavings,
		PensionContribution:     config.Cfg.PensionContribution,
		HorizonMonths:           config.Cfg.ForecastHorizonMonths,
	})
	pivotProcessor := processors.NewNormalizedProcessor()
	exporter := services.NewExportService(config.Cfg.OutputDir)

	pipelineService := services.NewPipelineService(
		loader,
		cashFlowProcessor,
		balanceProcessor,
		metricsProcessor,
		forecastProcessor,
		pivotProcessor,
		exporter,
		reportCache,
		collector,
	)

	switch command {
	case "run":
		if _, err := pipelineService.Run(); err != nil {
			logger.L.Error("Pipeline run failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		reportService := services.NewReportService(reportCache)
		serve(reportService, collector)
	default:
		stdlog.Fatalf("unknown command %q (expected run or serve)", command)
	}
}

func serve(reportService services.ReportService, collector *metrics.Collector) {
	reportHandler := handlers.NewReportHandler(reportService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(collector.Middleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "kakeibo reporting service is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", reportHandler.HandleHealth)
		r.Get("/summary", reportHandler.HandleSummary)
		r.Get("/statements", reportHandler.HandleStatements)
		r.Get("/metrics", reportHandler.HandleMetrics)
		r.Get("/forecast", reportHandler.HandleForecast)
		r.Get("/forecast/annual", reportHandler.HandleForecastAnnual)
		r.Get("/forecast/parameters", reportHandler.HandleForecastParameters)
	})

	r.Method(http.MethodGet, "/metrics", collector.Handler())

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
