package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work inside a trace. Spans are logged, not exported.
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string
	Name     string
	Start    time.Time
	Duration time.Duration
	Err      error

	attrs []slog.Attr
}

type spanKey struct{}

// remoteParent is the caller's span taken from an inbound traceparent header.
type remoteParent struct {
	traceID string
	spanID  string
}

type remoteKey struct{}

func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{
		SpanID: newID()[:16],
		Name:   name,
		Start:  time.Now(),
	}

	switch {
	case SpanFromContext(ctx) != nil:
		parent := SpanFromContext(ctx)
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	case ctx.Value(remoteKey{}) != nil:
		remote := ctx.Value(remoteKey{}).(remoteParent)
		span.TraceID = remote.traceID
		span.ParentID = remote.spanID
	default:
		span.TraceID = newID()
	}

	return context.WithValue(ctx, spanKey{}, span), span
}

// ContinueTrace makes the next root span join the trace named by a W3C
// traceparent header. Malformed headers are ignored.
func ContinueTrace(ctx context.Context, traceparent string) context.Context {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 || len(parts[1]) != 32 || len(parts[2]) != 16 {
		return ctx
	}
	if !isHex(parts[1]) || !isHex(parts[2]) || strings.Trim(parts[1], "0") == "" {
		return ctx
	}
	return context.WithValue(ctx, remoteKey{}, remoteParent{traceID: parts[1], spanID: parts[2]})
}

func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

func (s *Span) SetAttr(key string, value any) {
	s.attrs = append(s.attrs, slog.Any(key, value))
}

func (s *Span) SetError(err error) {
	s.Err = err
}

func (s *Span) Failed() bool {
	return s.Err != nil
}

func (s *Span) End() {
	s.Duration = time.Since(s.Start)
}

// Traceparent renders the span as an outbound W3C traceparent header.
func (s *Span) Traceparent() string {
	return "00-" + s.TraceID + "-" + s.SpanID + "-01"
}

func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.Duration("duration", s.Duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.Err != nil {
		attrs = append(attrs, slog.String("error", s.Err.Error()))
	}
	attrs = append(attrs, s.attrs...)
	return slog.GroupValue(attrs...)
}

// newID returns 32 lowercase hex characters.
func newID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
