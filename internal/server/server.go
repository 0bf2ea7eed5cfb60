package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"urbanmart-dashboard/internal/handlers"
	"urbanmart-dashboard/internal/observability"
	"urbanmart-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires every route. gatherer backs /metrics and may be nil to
// leave the endpoint out.
func NewServer(analytics *services.Analytics, metrics *observability.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, metrics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, metrics, logger),
	}
	s.setupRoutes(templateHandlers, gatherer)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, gatherer prometheus.Gatherer) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary())
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs())
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories())
	s.mux.HandleFunc("GET /api/daily-revenue", s.apiHandlers.HandleDailyRevenue())
	s.mux.HandleFunc("GET /api/weekday-revenue", s.apiHandlers.HandleWeekdayRevenue())
	s.mux.HandleFunc("GET /api/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue())
	s.mux.HandleFunc("GET /api/stores", s.apiHandlers.HandleStores())
	s.mux.HandleFunc("GET /api/customers", s.apiHandlers.HandleTopCustomers())
	s.mux.HandleFunc("GET /api/preview", s.apiHandlers.HandlePreview())
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/channels", s.apiHandlers.HandleChannels)
	s.mux.HandleFunc("GET /api/", s.apiHandlers.HandleNotFound)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll())
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs())
	s.mux.HandleFunc("GET /sse/categories", s.sseHandlers.HandleCategories())
	s.mux.HandleFunc("GET /sse/stores", s.sseHandlers.HandleStores())
	s.mux.HandleFunc("GET /sse/weekdays", s.sseHandlers.HandleWeekdays())
	s.mux.HandleFunc("GET /sse/daily", s.sseHandlers.HandleDaily())
	s.mux.HandleFunc("GET /sse/customers", s.sseHandlers.HandleCustomers())
	s.mux.HandleFunc("GET /sse/raw-data", s.sseHandlers.HandleRawData())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
