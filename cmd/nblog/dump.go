package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrzor/nblog/internal/eventstream"
	"github.com/mrzor/nblog/internal/merger"
	"github.com/mrzor/nblog/internal/output"
	"github.com/mrzor/nblog/internal/procmeta"
	"github.com/mrzor/nblog/internal/reader"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/timesync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type dumpOptions struct {
	names  []string
	follow bool
	indent int
	wall   bool
}

func newDumpCmd(a *app) *cobra.Command {
	o := dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the contents of one or more shared timelines",
		Long: `Print what was written to shared timelines since they were created.

With several --name flags the timelines are merged by timestamp and each
record is labelled with the name of the timeline it came from.`,
		Example: `  # Dump a single timeline
  nblog dump --name mixer

  # Merge two timelines and keep printing as they grow
  nblog dump --name mixer --name fast-mixer --follow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.dump(ctx, cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringArrayVar(&o.names, "name", nil, "timeline name, repeat to merge several")
	cmd.Flags().BoolVarP(&o.follow, "follow", "f", false, "keep printing new entries until interrupted")
	cmd.Flags().IntVar(&o.indent, "indent", 0, "spaces before every line")
	cmd.Flags().BoolVar(&o.wall, "wall", false, "label records with wall-clock time")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readerOptions returns the reader options derived from configuration.
func (a *app) readerOptions(registry *procmeta.Manager) []reader.Option {
	return []reader.Option{
		reader.WithLogger(a.logger),
		reader.WithAnalysisConfig(a.cfg.Analysis.AnalysisConfig()),
		reader.WithReportHeight(a.cfg.ReportHeight),
		reader.WithProcessRegistry(registry),
	}
}

// openRegions maps every named timeline, closing those already open on
// failure.
func (a *app) openRegions(names []string) ([]*timeline.Region, func(), error) {
	regions := make([]*timeline.Region, 0, len(names))
	closeAll := func() {
		var errs []error
		for _, r := range regions {
			errs = append(errs, r.Close())
		}
		if err := errors.Join(errs...); err != nil {
			a.logger.Warn("closing timelines", zap.Error(err))
		}
	}
	for _, name := range names {
		r, err := timeline.OpenRegion(a.dir, name)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		regions = append(regions, r)
	}
	return regions, closeAll, nil
}

func (a *app) dump(ctx context.Context, out io.Writer, o dumpOptions) error {
	regions, closeAll, err := a.openRegions(o.names)
	if err != nil {
		return err
	}
	defer closeAll()

	registry := procmeta.NewManager()
	opts := a.readerOptions(registry)
	if o.wall {
		clock, err := timesync.NewConverter()
		if err != nil {
			return err
		}
		opts = append(opts, reader.WithWallClock(clock))
	}
	var (
		r *reader.Reader
		m *merger.Merger
	)
	if len(regions) == 1 {
		r, err = reader.New(regions[0].Timeline, opts...)
		if err != nil {
			return err
		}
	} else {
		merged, err := timeline.NewPrivate(a.cfg.MergedBufferSize)
		if err != nil {
			return fmt.Errorf("failed to create merged timeline: %w", err)
		}
		m, err = merger.New(merged,
			merger.WithLogger(a.logger),
			merger.WithObserver(output.NewLogObserver(a.logger, true)),
		)
		if err != nil {
			return err
		}
		for i, region := range regions {
			src, err := reader.New(region.Timeline, reader.WithLogger(a.logger))
			if err != nil {
				return err
			}
			m.AddReader(merger.NewNamedReader(src, o.names[i]))
		}
		r, err = m.NewReader(opts...)
		if err != nil {
			return err
		}
	}

	if !o.follow {
		if m != nil {
			m.Merge(ctx)
		}
		return r.DumpLatest(out, o.indent)
	}
	return a.follow(ctx, out, r, m, o.indent)
}

// follow dumps new entries until ctx is done. A merger, when given, is
// kept awake for as long as the command runs.
func (a *app) follow(ctx context.Context, out io.Writer, r *reader.Reader, m *merger.Merger, indent int) error {
	if m != nil {
		thread := merger.NewThread(m,
			merger.WithSleepPeriod(a.cfg.SleepPeriod),
			merger.WithWakeupWindow(a.cfg.WakeupWindow),
			merger.WithThreadLogger(a.logger),
		)
		if err := thread.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := thread.Stop(); err != nil {
				a.logger.Warn("stopping merge thread", zap.Error(err))
			}
			m.Merge(context.Background())
			if err := r.DumpLatest(out, indent); err != nil {
				a.logger.Warn("final dump", zap.Error(err))
			}
		}()
		thread.SetTimeout(time.Duration(math.MaxInt64))
	}

	handler := eventstream.SnapshotHandlerFunc(func(snap *reader.Snapshot) error {
		return r.Dump(out, indent, snap)
	})
	stream := eventstream.New(r, handler, a.cfg.SleepPeriod, a.logger)
	// Stop, not cancellation, ends the stream so the last poll happens.
	if err := stream.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	<-ctx.Done()
	return stream.Stop()
}
