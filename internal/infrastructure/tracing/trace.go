package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/id"
	"go.uber.org/zap"
)

// Span records a single traced operation.
type Span struct {
	TraceID    id.TraceID
	SpanID     id.SpanID
	ParentID   id.SpanID
	Name       string
	Service    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Tags       map[string]string
	Error      error
	StatusCode int
}

// Tracer collects finished spans and emits them as log lines.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
	done    chan struct{}
	once    sync.Once
}

// New creates a tracer and starts its collector goroutine.
func New(service string, logger *zap.Logger) *Tracer {
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 1000),
		done:    make(chan struct{}),
	}

	go t.collect()

	return t
}

// Close stops the collector. Spans submitted afterwards are dropped.
func (t *Tracer) Close() {
	t.once.Do(func() {
		close(t.done)
	})
}

// StartSpan opens a span, inheriting the trace id from ctx or minting a
// new one, and returns a context carrying the span's identity.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(id.TraceID)
	if traceID == "" {
		traceID = id.NewTraceID()
	}

	parentID, _ := ctx.Value(spanIDKey).(id.SpanID)

	span := &Span{
		TraceID:   traceID,
		SpanID:    id.NewSpanID(),
		ParentID:  parentID,
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, spanIDKey, span.SpanID)

	return span, newCtx
}

// Finish stamps the span's end time and duration.
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetTag adds a tag to the span.
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records an error outcome.
func (s *Span) SetError(err error) {
	s.Error = err
	if s.StatusCode == 0 {
		s.StatusCode = 500
	}
}

// SetStatus records the HTTP status code.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Submit hands a finished span to the collector, dropping it if the
// buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	select {
	case <-t.done:
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

func (t *Tracer) collect() {
	for {
		select {
		case span := <-t.spans:
			t.emit(span)
		case <-t.done:
			return
		}
	}
}

func (t *Tracer) emit(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
		zap.String("service", span.Service),
	}

	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		t.logger.Error("span completed with error", fields...)
	} else {
		t.logger.Info("span completed", fields...)
	}
}

// ExtractTraceContext reads trace identity from transport headers.
func ExtractTraceContext(headers map[string]string) (id.TraceID, id.SpanID) {
	return id.TraceID(headers["X-Trace-ID"]), id.SpanID(headers["X-Span-ID"])
}

// InjectTraceContext writes the context's trace identity into headers for
// outbound requests.
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	if traceID, ok := ctx.Value(traceIDKey).(id.TraceID); ok {
		headers["X-Trace-ID"] = string(traceID)
	}
	if spanID, ok := ctx.Value(spanIDKey).(id.SpanID); ok {
		headers["X-Span-ID"] = string(spanID)
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// GetTraceID retrieves the trace id from context, or "" when untraced.
func GetTraceID(ctx context.Context) id.TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(id.TraceID); ok {
		return traceID
	}
	return ""
}

// GetSpanID retrieves the current span id from context.
func GetSpanID(ctx context.Context) id.SpanID {
	if spanID, ok := ctx.Value(spanIDKey).(id.SpanID); ok {
		return spanID
	}
	return ""
}

// FormatTrace renders a trace reference for log messages.
func FormatTrace(traceID id.TraceID, spanID id.SpanID) string {
	return fmt.Sprintf("[trace:%s span:%s]", traceID, spanID)
}
