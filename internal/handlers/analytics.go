package handlers

import (
	"net/http"
	"strconv"
	"time"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// AnalyticsHandler обслуживает отчёт о продажах для админки.
type AnalyticsHandler struct {
	analytics AnalyticsProvider
	log       *logger.Logger
}

// NewAnalyticsHandler создаёт обработчик аналитики.
func NewAnalyticsHandler(analytics AnalyticsProvider, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		log:       log,
	}
}

// SalesReport возвращает показатели продаж за интервал из query-параметров
// from/to (RFC3339) и top (размер топа товаров).
func (h *AnalyticsHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var filter models.SalesFilter

	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid from: expected RFC3339 timestamp")
			return
		}
		filter.From = v
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid to: expected RFC3339 timestamp")
			return
		}
		filter.To = v
	}
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid top")
			return
		}
		filter.TopLimit = v
	}

	kpis, err := h.analytics.SalesReport(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build sales report")
		return
	}

	writeJSONResponse(w, http.StatusOK, kpis)
}
