package observability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"urbanmart-dashboard/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf).Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json logger wrote %q", buf.String())
	}

	buf.Reset()
	NewLogger(config.LoggerConfig{Level: "info", Format: "text"}, &buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text logger wrote %q", buf.String())
	}

	buf.Reset()
	NewLogger(config.LoggerConfig{Level: "warn", Format: "text"}, &buf).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"other":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_ContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	ctx, span := StartSpan(WithRequestID(context.Background(), "req-1"), "work")
	logger.With("component", "test").InfoContext(ctx, "hello")

	line := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"trace_id":"` + span.TraceID + `"`, `"component":"test"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %s missing %s", line, want)
		}
	}

	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id without context: %s", buf.String())
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestSpans(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "parent")
	_, child := StartSpan(ctx, "child")

	if len(parent.TraceID) != 32 || len(parent.SpanID) != 16 {
		t.Errorf("unexpected id lengths: trace %d, span %d", len(parent.TraceID), len(parent.SpanID))
	}
	if parent.ParentID != "" {
		t.Error("root span should have no parent")
	}
	if child.TraceID != parent.TraceID {
		t.Error("child span should inherit trace id")
	}
	if child.ParentID != parent.SpanID {
		t.Error("child span should reference parent span id")
	}
	if SpanFromContext(ctx) != parent {
		t.Error("context should carry the parent span")
	}

	child.SetAttr("rows", 3)
	child.SetError(errors.New("boom"))
	child.End()
	if !child.Failed() || child.Duration < 0 {
		t.Errorf("unexpected finished span: %+v", child)
	}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("done", "span", child)
	for _, want := range []string{`"name":"child"`, `"error":"boom"`, `"rows":3`, `"parent_id":"` + parent.SpanID + `"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log line %s missing %s", buf.String(), want)
		}
	}
}

func TestContinueTrace(t *testing.T) {
	const header = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	_, span := StartSpan(ContinueTrace(context.Background(), header), "request")
	if span.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" || span.ParentID != "00f067aa0ba902b7" {
		t.Errorf("span did not join remote trace: %+v", span)
	}
	if got := span.Traceparent(); !strings.HasPrefix(got, "00-4bf92f3577b34da6a3ce929d0e0e4736-") || !strings.HasSuffix(got, "-01") {
		t.Errorf("Traceparent() = %q", got)
	}

	for _, bad := range []string{
		"",
		"garbage",
		"00-00000000000000000000000000000000-00f067aa0ba902b7-01",
		"00-4BF92F3577B34DA6A3CE929D0E0E4736-00f067aa0ba902b7-01",
		"00-4bf92f3577b34da6-00f067aa0ba902b7-01",
	} {
		_, span := StartSpan(ContinueTrace(context.Background(), bad), "request")
		if span.ParentID != "" {
			t.Errorf("header %q should be ignored", bad)
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("GET", "/api/kpis", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/api/kpis", 200, 5*time.Millisecond)
	m.SetDataset(25000, 3)
	m.IncGeneration()
	m.IncAggregation("summary")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(t, mfs, "http_requests_total"); got != 2 {
		t.Errorf("http_requests_total = %v, want 2", got)
	}
	if got := gaugeValue(t, mfs, "dataset_rows"); got != 25000 {
		t.Errorf("dataset_rows = %v, want 25000", got)
	}
	if got := gaugeValue(t, mfs, "dataset_dropped_rows"); got != 3 {
		t.Errorf("dataset_dropped_rows = %v, want 3", got)
	}
	if got := counterValue(t, mfs, "dataset_generations_total"); got != 1 {
		t.Errorf("dataset_generations_total = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.SetDataset(1, 0)
	m.IncGeneration()

	NewMetrics(nil).IncAggregation("x")
}

func findFamily(t *testing.T, mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %q not found", name)
	return nil
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	var sum float64
	for _, m := range findFamily(t, mfs, name).GetMetric() {
		sum += m.GetCounter().GetValue()
	}
	return sum
}

func gaugeValue(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	metrics := findFamily(t, mfs, name).GetMetric()
	if len(metrics) != 1 {
		panic(fmt.Sprintf("gauge %s has %d series", name, len(metrics)))
	}
	return metrics[0].GetGauge().GetValue()
}
