package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"urbanmart-dashboard/internal/errors"
	"urbanmart-dashboard/internal/observability"
	"urbanmart-dashboard/internal/services"
	"urbanmart-dashboard/internal/ui/templates"
)

// datastarParam is the query parameter Datastar uses to send signals on GET.
const datastarParam = "datastar"

type SSEHandlers struct {
	analytics *services.Analytics
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, metrics *observability.Metrics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		metrics:   metrics,
		logger:    logger,
	}
}

// readSignals decodes the dashboard signals. A request without signals gets
// the unfiltered view.
func readSignals(r *http.Request) (FilterQuery, error) {
	var q FilterQuery
	if r.Method == http.MethodGet && !r.URL.Query().Has(datastarParam) {
		return q, nil
	}
	if err := datastar.ReadSignals(r, &q); err != nil {
		return q, errors.BadRequestWrap(err, "Invalid dashboard signals")
	}
	return q, nil
}

// stream opens the event stream, resolves the filter and hands it to send.
// Filter problems are reported in the page instead of failing the stream.
func (h *SSEHandlers) stream(view string, send func(ctx context.Context, sse *datastar.ServerSentEventGenerator, q FilterQuery, f services.Filter) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := observability.GetRequestID(r.Context())

		q, err := readSignals(r)
		var f services.Filter
		if err == nil {
			f, err = q.Filter()
		}

		sse := datastar.NewSSE(w, r)
		if err != nil {
			h.logger.Warn("rejected dashboard filter", "view", view, "error", err, "request_id", requestID)
			if err := h.patch(r.Context(), sse, templates.FilterError(err.Error())); err != nil {
				h.logger.Error("dashboard stream failed", "view", view, "error", err, "request_id", requestID)
			}
			return
		}

		h.metrics.IncAggregation(view)
		if err := h.patch(r.Context(), sse, templates.FilterError("")); err != nil {
			return
		}
		if err := send(r.Context(), sse, q, f); err != nil {
			h.logger.Error("dashboard stream failed", "view", view, "error", err, "request_id", requestID)
		}
	}
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	html, err := templates.Render(ctx, c)
	if err != nil {
		return fmt.Errorf("render fragment: %w", err)
	}
	return sse.PatchElements(html)
}

func (h *SSEHandlers) patchAll(ctx context.Context, sse *datastar.ServerSentEventGenerator, components ...templ.Component) error {
	for _, c := range components {
		if err := h.patch(ctx, sse, c); err != nil {
			return err
		}
	}
	return nil
}

// chartSignals pushes the time series. The underscore prefix keeps them local
// to the browser so they are not sent back with every request.
func chartSignals(sse *datastar.ServerSentEventGenerator, summary *services.Summary) error {
	data, err := json.Marshal(map[string]any{
		"_monthly": summary.Monthly,
		"_rows":    summary.Rows,
	})
	if err != nil {
		return fmt.Errorf("marshal chart signals: %w", err)
	}
	return sse.PatchSignals(data)
}

func (h *SSEHandlers) HandleRefreshAll() http.HandlerFunc {
	return h.stream("refresh-all", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, q FilterQuery, f services.Filter) error {
		summary := h.analytics.Summarize(f, q.TopN())
		preview := h.analytics.Preview(f, services.DefaultPreviewRows)

		if err := h.patchAll(ctx, sse,
			templates.KPICards(summary.KPIs),
			templates.CategoryTable(summary.Categories),
			templates.StoreTable(summary.Stores),
			templates.WeekdayBars(summary.Weekdays),
			templates.DailyTrend(summary.Daily),
			templates.CustomerTable(summary.Customers),
			templates.RawData(preview, summary.Rows),
		); err != nil {
			return err
		}
		return chartSignals(sse, summary)
	})
}

func (h *SSEHandlers) HandleKPIs() http.HandlerFunc {
	return h.stream("kpis", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, _ FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.KPICards(h.analytics.KPIs(f)))
	})
}

func (h *SSEHandlers) HandleCategories() http.HandlerFunc {
	return h.stream("categories", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, _ FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.CategoryTable(h.analytics.CategoryPerformance(f)))
	})
}

func (h *SSEHandlers) HandleStores() http.HandlerFunc {
	return h.stream("stores", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, _ FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.StoreTable(h.analytics.StorePerformance(f)))
	})
}

func (h *SSEHandlers) HandleWeekdays() http.HandlerFunc {
	return h.stream("weekday", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, _ FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.WeekdayBars(h.analytics.WeekdayRevenue(f)))
	})
}

func (h *SSEHandlers) HandleDaily() http.HandlerFunc {
	return h.stream("daily", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, _ FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.DailyTrend(h.analytics.DailyRevenue(f)))
	})
}

func (h *SSEHandlers) HandleCustomers() http.HandlerFunc {
	return h.stream("customers", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, q FilterQuery, f services.Filter) error {
		return h.patch(ctx, sse, templates.CustomerTable(h.analytics.TopCustomers(f, q.TopN())))
	})
}

func (h *SSEHandlers) HandleRawData() http.HandlerFunc {
	return h.stream("preview", func(ctx context.Context, sse *datastar.ServerSentEventGenerator, q FilterQuery, f services.Filter) error {
		rows := h.analytics.Filtered(f)
		limit := min(q.PreviewLimit(), len(rows))
		return h.patch(ctx, sse, templates.RawData(rows[:limit], len(rows)))
	})
}
