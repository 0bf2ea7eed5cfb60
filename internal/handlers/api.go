package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"urbanmart-dashboard/internal/errors"
	"urbanmart-dashboard/internal/observability"
	"urbanmart-dashboard/internal/services"
)

const version = "1.0.0"

// The loaded table never changes while the server runs.
var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, metrics *observability.Metrics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		metrics:   metrics,
		logger:    logger,
	}
}

// filtered parses the request filter and writes compute's result, or a
// VALIDATION_ERROR envelope when the filter is invalid.
func (h *APIHandlers) filtered(view string, compute func(q FilterQuery, f services.Filter) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := observability.GetRequestID(r.Context())

		q, err := ParseFilterQuery(r.URL.Query())
		if err != nil {
			errors.WriteError(w, h.logger, err, requestID)
			return
		}
		f, err := q.Filter()
		if err != nil {
			errors.WriteError(w, h.logger, err, requestID)
			return
		}

		h.metrics.IncAggregation(view)
		errors.WriteSuccessWithHeaders(w, h.logger, compute(q, f), cacheHeaders)
	}
}

func (h *APIHandlers) HandleSummary() http.HandlerFunc {
	return h.filtered("summary", func(q FilterQuery, f services.Filter) any {
		return h.analytics.Summarize(f, q.TopN())
	})
}

func (h *APIHandlers) HandleKPIs() http.HandlerFunc {
	return h.filtered("kpis", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.KPIs(f)
	})
}

func (h *APIHandlers) HandleCategories() http.HandlerFunc {
	return h.filtered("categories", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.CategoryPerformance(f)
	})
}

func (h *APIHandlers) HandleDailyRevenue() http.HandlerFunc {
	return h.filtered("daily", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.DailyRevenue(f)
	})
}

func (h *APIHandlers) HandleWeekdayRevenue() http.HandlerFunc {
	return h.filtered("weekday", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.WeekdayRevenue(f)
	})
}

func (h *APIHandlers) HandleMonthlyRevenue() http.HandlerFunc {
	return h.filtered("monthly", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.MonthlyRevenue(f)
	})
}

func (h *APIHandlers) HandleStores() http.HandlerFunc {
	return h.filtered("stores", func(_ FilterQuery, f services.Filter) any {
		return h.analytics.StorePerformance(f)
	})
}

func (h *APIHandlers) HandleTopCustomers() http.HandlerFunc {
	return h.filtered("customers", func(q FilterQuery, f services.Filter) any {
		return h.analytics.TopCustomers(f, q.TopN())
	})
}

func (h *APIHandlers) HandlePreview() http.HandlerFunc {
	return h.filtered("preview", func(q FilterQuery, f services.Filter) any {
		return h.analytics.Preview(f, q.PreviewLimit())
	})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.logger, h.analytics.FilterOptions(), cacheHeaders)
}

func (h *APIHandlers) HandleChannels(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.logger, h.analytics.ChannelCounts(), cacheHeaders)
}

// HandleNotFound answers unknown API paths with the JSON envelope instead of
// the mux's plain text 404.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, h.logger, errors.NotFound("Unknown API endpoint "+r.URL.Path),
		observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	if stats["record_count"] == 0 {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("No transactions loaded"),
			observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, h.logger, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
		"records":   stats["record_count"],
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.logger, h.analytics.Stats())
}
