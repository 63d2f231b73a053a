package output

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/mrzor/nblog/internal/analysis"
	"github.com/mrzor/nblog/internal/attributes"
	"github.com/mrzor/nblog/internal/merger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Span and attribute names.
const (
	MergeSpanName  = "nblog.merge"
	ReportSpanName = "nblog.report"
	LossEventName  = "loss"
)

// SpanOption configures a SpanFormatter.
type SpanOption func(*SpanFormatter)

// WithCustomAttributes adds expression-computed attributes to merge spans.
func WithCustomAttributes(e *attributes.Evaluator) SpanOption {
	return func(f *SpanFormatter) {
		f.evaluator = e
	}
}

// WithTraceID selects the trace of spans started without a parent.
func WithTraceID(e *attributes.TraceIDEvaluator) SpanOption {
	return func(f *SpanFormatter) {
		f.traceIDs = e
	}
}

// WithParentID selects the parent span of spans started without a parent.
func WithParentID(e *attributes.ParentIDEvaluator) SpanOption {
	return func(f *SpanFormatter) {
		f.parentIDs = e
	}
}

// WithSourceNames provides the merger's reader names to expressions.
func WithSourceNames(names func() []string) SpanOption {
	return func(f *SpanFormatter) {
		f.names = names
	}
}

// WithEnviron sets the env map seen by expressions.
func WithEnviron(environ map[string]string) SpanOption {
	return func(f *SpanFormatter) {
		f.environ = environ
	}
}

// WithSpanClock replaces the clock used to place spans.
func WithSpanClock(now func() time.Time) SpanOption {
	return func(f *SpanFormatter) {
		f.now = now
	}
}

// WithSpanLogger sets the logger for evaluation failures.
func WithSpanLogger(logger *zap.Logger) SpanOption {
	return func(f *SpanFormatter) {
		f.logger = logger
	}
}

// SpanFormatter exports merge passes and performance summaries as spans.
type SpanFormatter struct {
	tracer    trace.Tracer
	evaluator *attributes.Evaluator
	traceIDs  *attributes.TraceIDEvaluator
	parentIDs *attributes.ParentIDEvaluator
	names     func() []string
	environ   map[string]string
	now       func() time.Time
	logger    *zap.Logger

	// sessionParent stands in for the parent span when a trace ID is
	// chosen without a parent ID.
	sessionParent trace.SpanID
}

var _ merger.Observer = (*SpanFormatter)(nil)

// NewSpanFormatter creates a SpanFormatter using tracer.
func NewSpanFormatter(tracer trace.Tracer, opts ...SpanOption) *SpanFormatter {
	f := &SpanFormatter{
		tracer: tracer,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	_, _ = rand.Read(f.sessionParent[:])
	return f
}

func (f *SpanFormatter) evalContext(s merger.Stats) *attributes.Context {
	c := &attributes.Context{Stats: s, Environ: f.environ}
	if f.names != nil {
		c.Names = f.names()
	}
	return c
}

// parentContext attaches the configured trace and parent to ctx unless ctx
// already carries a span.
func (f *SpanFormatter) parentContext(ctx context.Context, c *attributes.Context) (context.Context, []attribute.KeyValue) {
	if trace.SpanContextFromContext(ctx).IsValid() || f.traceIDs == nil {
		return ctx, nil
	}
	traceID, warnings, err := f.traceIDs.EvaluateAndValidate(c)
	if err != nil {
		f.logger.Warn("trace id expression failed", zap.Error(err))
		return ctx, nil
	}
	if !traceID.IsValid() {
		return ctx, warnings
	}

	spanID := f.sessionParent
	if f.parentIDs != nil {
		parentID, parentWarnings, err := f.parentIDs.EvaluateAndValidate(c)
		if err != nil {
			f.logger.Warn("parent id expression failed", zap.Error(err))
		}
		warnings = append(warnings, parentWarnings...)
		if parentID.IsValid() {
			spanID = parentID
		}
	}

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, parent), warnings
}

// StatsAttributes returns the nblog.* attributes of a merge pass.
func StatsAttributes(s merger.Stats) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("nblog.sources", s.Sources),
		attribute.Int("nblog.records", s.Records),
		attribute.Int("nblog.loss_markers", s.LossMarkers),
		//nolint:gosec // byte counts fit in int64
		attribute.Int64("nblog.lost_bytes", int64(s.Lost)),
		attribute.Int("nblog.skipped_bytes", s.Skipped),
		attribute.Int("nblog.faults", s.Faults),
	}
}

// ObserveMerge exports one merge pass as a span ending now.
func (f *SpanFormatter) ObserveMerge(ctx context.Context, s merger.Stats) error {
	c := f.evalContext(s)
	ctx, warnings := f.parentContext(ctx, c)

	attrs := StatsAttributes(s)
	attrs = append(attrs, warnings...)
	if f.evaluator != nil {
		attrs = append(attrs, f.evaluator.EvaluateCustomAttributes(c)...)
	}

	end := f.now()
	_, span := f.tracer.Start(ctx, MergeSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-s.Duration)),
		trace.WithAttributes(attrs...),
	)
	if s.Lost > 0 || s.Skipped > 0 {
		span.AddEvent(LossEventName, trace.WithTimestamp(end), trace.WithAttributes(
			//nolint:gosec // byte counts fit in int64
			attribute.Int64("nblog.lost_bytes", int64(s.Lost)),
			attribute.Int("nblog.skipped_bytes", s.Skipped),
		))
		span.SetStatus(codes.Error, "events lost to buffer overrun")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
	return nil
}

// ExportSummary exports the performance summary of one sample stream.
func (f *SpanFormatter) ExportSummary(ctx context.Context, source, hash string, s analysis.Summary) {
	end := f.now()
	_, span := f.tracer.Start(ctx, ReportSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end),
		trace.WithAttributes(
			attribute.String("nblog.source", source),
			attribute.String("nblog.hash", hash),
			attribute.Int64("nblog.samples", s.Samples),
			attribute.Float64("nblog.mean_ms", ms(s.Mean)),
			attribute.Float64("nblog.p50_ms", ms(s.P50)),
			attribute.Float64("nblog.p90_ms", ms(s.P90)),
			attribute.Float64("nblog.p99_ms", ms(s.P99)),
			attribute.Float64("nblog.max_ms", ms(s.Max)),
			attribute.Float64("nblog.rate_hz", s.Rate),
			attribute.Int("nblog.outliers", s.Outliers),
			attribute.Int("nblog.peaks", s.Peaks),
		),
	)
	span.End(trace.WithTimestamp(end))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
