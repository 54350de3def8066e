package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/kakeibo/src/logger"
	"github.com/username/kakeibo/src/models"
	"github.com/username/kakeibo/src/services"
	"github.com/username/kakeibo/src/utils"
)

// ReportHandler exposes the snapshot read model as JSON endpoints.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.reportService.Health()
	if err != nil {
		logger.FromContext(r.Context()).Error("Health check failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.Summary()
	if errors.Is(err, services.ErrNoData) {
		utils.SendJSONError(w, "snapshot store is empty; run the pipeline first", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Summary lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *ReportHandler) HandleStatements(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonthsParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	views, err := h.reportService.Statements(months)
	if err != nil {
		logger.FromContext(r.Context()).Error("Statements lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []services.StatementView{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (h *ReportHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonthsParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.reportService.Metrics(months)
	if err != nil {
		logger.FromContext(r.Context()).Error("Metrics lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.MetricsRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *ReportHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	months, err := parseMonthsParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	phase, err := parsePhaseParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.reportService.Forecast(phase, months)
	if err != nil {
		logger.FromContext(r.Context()).Error("Forecast lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.ForecastRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *ReportHandler) HandleForecastAnnual(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.ForecastAnnual()
	if err != nil {
		logger.FromContext(r.Context()).Error("Forecast annual lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.ForecastAnnualSummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (h *ReportHandler) HandleForecastParameters(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.ForecastParameters()
	if err != nil {
		logger.FromContext(r.Context()).Error("Forecast parameters lookup failed", "error", err)
		utils.SendJSONError(w, "failed to read snapshot store", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.ForecastParameter{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// parseMonthsParam reads the optional trailing-window size; absent means
// everything.
func parseMonthsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return 0, nil
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months < 1 {
		return 0, fmt.Errorf("invalid months parameter %q", raw)
	}
	return months, nil
}

func parsePhaseParam(r *http.Request) (models.ForecastPhase, error) {
	raw := r.URL.Query().Get("phase")
	switch raw {
	case "":
		return "", nil
	case string(models.PhaseHistorical), string(models.PhaseProjected):
		return models.ForecastPhase(raw), nil
	}
	return "", fmt.Errorf("invalid phase parameter %q", raw)
}
