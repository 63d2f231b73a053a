package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mrzor/nblog/internal/attributes"
	"github.com/mrzor/nblog/internal/config"
	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/merger"
	"github.com/mrzor/nblog/internal/metrics"
	"github.com/mrzor/nblog/internal/otel"
	"github.com/mrzor/nblog/internal/output"
	"github.com/mrzor/nblog/internal/procmeta"
	"github.com/mrzor/nblog/internal/reader"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/writer"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Hashes of the demo's log sites.
var (
	wakeHash   = entry.HashOf("demo.go", 1)
	cycleHash  = entry.HashOf("demo.go", 2)
	glitchHash = entry.HashOf("demo.go", 3)
)

type demoOptions struct {
	writers     int
	duration    time.Duration
	period      time.Duration
	jitter      time.Duration
	glitchEvery int
	metricsAddr string
	attributes  []string
}

func newDemoCmd(a *app) *cobra.Command {
	o := demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run simulated writers, merge them and report their timing",
		Long: `Start in-process writers that wake up periodically with jitter, each
logging to its own timeline. A merge thread interleaves them into one
timeline, which is dumped at the end together with a performance report
per writer.

Merge passes are exported as spans when OTEL_EXPORTER_OTLP_ENDPOINT is set,
and as Prometheus metrics when --metrics-addr is given.`,
		Example: `  # Four writers for ten seconds, metrics on :9090
  nblog demo --writers 4 --duration 10s --metrics-addr :9090

  # Tag merge spans with an expression
  nblog demo --attr 'lossy=lost > 0'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.demo(ctx, cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().IntVar(&o.writers, "writers", 2, "number of simulated writers")
	cmd.Flags().DurationVar(&o.duration, "duration", 5*time.Second, "how long the writers run")
	cmd.Flags().DurationVar(&o.period, "period", 4*time.Millisecond, "nominal wakeup period of a writer")
	cmd.Flags().DurationVar(&o.jitter, "jitter", 500*time.Microsecond, "maximum random delay added to each wakeup")
	cmd.Flags().IntVar(&o.glitchEvery, "glitch-every", 500, "average cycles between late wakeups, 0 disables them")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default NBLOG_METRICS_ADDR)")
	cmd.Flags().StringArrayVar(&o.attributes, "attr", nil, "custom span attribute NAME=EXPR, repeatable")
	return cmd
}

// newSpanFormatter builds the span exporter of merge passes from the
// attribute and trace expressions in cfg.
func newSpanFormatter(cfg *config.Config, cli []string, tracer trace.Tracer, names func() []string, logger *zap.Logger) (*output.SpanFormatter, error) {
	custom, err := cfg.CustomAttributes(cli)
	if err != nil {
		return nil, err
	}
	evaluator, err := attributes.NewEvaluator(custom, logger)
	if err != nil {
		return nil, err
	}
	traceIDs, err := attributes.NewTraceIDEvaluator(cfg.TraceID)
	if err != nil {
		return nil, err
	}
	parentIDs, err := attributes.NewParentIDEvaluator(cfg.ParentID)
	if err != nil {
		return nil, err
	}
	return output.NewSpanFormatter(tracer,
		output.WithCustomAttributes(evaluator),
		output.WithTraceID(traceIDs),
		output.WithParentID(parentIDs),
		output.WithSourceNames(names),
		output.WithEnviron(attributes.Environ()),
		output.WithSpanLogger(logger),
	), nil
}

// serveMetrics starts the metrics endpoint and returns its shutdown.
func serveMetrics(addr string, collector *metrics.Collector, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutting down metrics server", zap.Error(err))
		}
	}
}

// simulateWriter wakes up every period plus jitter until ctx is done,
// logging a histogram sample per wakeup and a record every so often.
func simulateWriter(ctx context.Context, w *writer.Writer, o demoOptions, thread *merger.MergeThread) {
	w.LogEventHistTS(entry.AudioState, wakeHash)
	w.LogFormat("started by %p, period %d us", cycleHash, o.period.Microseconds())

	timer := time.NewTimer(o.period)
	defer timer.Stop()
	for cycle := 1; ; cycle++ {
		select {
		case <-ctx.Done():
			w.LogFormat("stopped after %d cycles", cycleHash, cycle-1)
			return
		case <-timer.C:
		}
		w.LogEventHistTS(entry.HistogramTS, wakeHash)

		next := o.period
		if o.jitter > 0 {
			next += rand.N(o.jitter)
		}
		if o.glitchEvery > 0 && rand.IntN(o.glitchEvery) == 0 {
			late := 3 * o.period
			w.LogFormat("late wakeup, sleeping %f ms", glitchHash, float32(late.Seconds()*1000))
			next += late
		}
		if cycle%250 == 0 {
			w.LogFormat("cycle %d", cycleHash, cycle)
			thread.Wakeup()
		}
		timer.Reset(next)
	}
}

func (a *app) demo(ctx context.Context, out io.Writer, o demoOptions) error {
	if o.writers <= 0 {
		return fmt.Errorf("writers must be positive, got %d", o.writers)
	}
	if o.period <= 0 {
		return fmt.Errorf("period must be positive, got %v", o.period)
	}
	if o.metricsAddr == "" {
		o.metricsAddr = a.cfg.MetricsAddr
	}

	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	tracer, cleanupOTEL, err := otel.Setup(otelCfg, fmt.Sprintf("%s (%s)", version, commit), a.logger)
	if err != nil {
		return err
	}
	defer cleanupOTEL()

	merged, err := timeline.NewPrivate(a.cfg.MergedBufferSize)
	if err != nil {
		return fmt.Errorf("failed to create merged timeline: %w", err)
	}
	// The span exporter reads source names back from the merger it observes.
	var m *merger.Merger
	sourceNames := func() []string {
		readers := m.NamedReaders()
		names := make([]string, len(readers))
		for i, r := range readers {
			names[i] = r.Name
		}
		return names
	}
	spans, err := newSpanFormatter(a.cfg, o.attributes, tracer, sourceNames, a.logger)
	if err != nil {
		return err
	}
	collector := metrics.NewCollector()
	m, err = merger.New(merged,
		merger.WithLogger(a.logger),
		merger.WithObserver(output.NewLogObserver(a.logger, true)),
		merger.WithObserver(collector),
		merger.WithObserver(spans),
	)
	if err != nil {
		return err
	}

	writers := make([]*writer.Writer, o.writers)
	for i := range writers {
		name := fmt.Sprintf("writer-%d", i)
		tl, err := timeline.NewPrivate(a.cfg.BufferSize)
		if err != nil {
			return fmt.Errorf("failed to create timeline for %s: %w", name, err)
		}
		r, err := reader.New(tl, reader.WithLogger(a.logger))
		if err != nil {
			return err
		}
		m.AddReader(merger.NewNamedReader(r, name))
		//nolint:gosec // writer count is small
		writers[i] = writer.New(tl, writer.WithIdentity(procmeta.Identity{PID: int32(1000 + i), Name: name}))
	}

	if o.metricsAddr != "" {
		defer serveMetrics(o.metricsAddr, collector, a.logger)()
	}

	ctx, span := tracer.Start(ctx, "nblog.demo", trace.WithAttributes(
		attribute.Int("nblog.writers", o.writers),
		attribute.Int64("nblog.period_us", o.period.Microseconds()),
	))
	defer span.End()

	thread := merger.NewThread(m,
		merger.WithSleepPeriod(a.cfg.SleepPeriod),
		merger.WithWakeupWindow(a.cfg.WakeupWindow),
		merger.WithThreadLogger(a.logger),
	)
	if err := thread.Start(ctx); err != nil {
		return err
	}
	thread.Wakeup()

	runCtx, cancel := context.WithTimeout(ctx, o.duration)
	defer cancel()
	var wg sync.WaitGroup
	for _, w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			simulateWriter(runCtx, w, o, thread)
		}()
	}
	a.logger.Info("demo running",
		zap.Int("writers", o.writers),
		zap.Duration("duration", o.duration),
		zap.Duration("period", o.period),
	)
	wg.Wait()

	if err := thread.Stop(); err != nil {
		a.logger.Warn("stopping merge thread", zap.Error(err))
	}
	m.Merge(ctx)

	registry := procmeta.NewManager()
	r, err := m.NewReader(a.readerOptions(registry)...)
	if err != nil {
		return err
	}
	if err := r.DumpLatest(out, 0); err != nil {
		return err
	}
	a.report(ctx, out, r, m, spans, collector)

	totals := collector.Totals()
	a.logger.Info("demo finished",
		zap.Int64("passes", totals.Passes),
		zap.Int64("records", totals.Records),
		zap.Uint64("lost", totals.Lost),
		zap.Int("processes", len(registry.List())),
	)
	return nil
}

// report prints and exports one summary per analysed sample stream.
func (a *app) report(ctx context.Context, out io.Writer, r *reader.Reader, m *merger.Merger, spans *output.SpanFormatter, collector *metrics.Collector) {
	for _, key := range r.Analyses() {
		source := m.AuthorName(int(key.Author))
		var hash strings.Builder
		entry.AppendHash(&hash, key.Hash)
		summary := r.Analysis(key).Summary()

		fmt.Fprintf(out, "summary of %s hash %s: %s\n", source, hash.String(), summary)
		spans.ExportSummary(ctx, source, hash.String(), summary)
		collector.ObserveSummary(source, summary)
	}
}
