package eventstream

import (
	"context"
	"time"

	"github.com/mrzor/nblog/internal/reader"

	"go.uber.org/zap"
)

// DefaultInterval is the polling period used when none is given.
const DefaultInterval = 100 * time.Millisecond

// SnapshotHandler consumes snapshots that carry data or report loss.
type SnapshotHandler interface {
	HandleSnapshot(snap *reader.Snapshot) error
}

// SnapshotHandlerFunc adapts a function to SnapshotHandler.
type SnapshotHandlerFunc func(snap *reader.Snapshot) error

// HandleSnapshot calls f.
func (f SnapshotHandlerFunc) HandleSnapshot(snap *reader.Snapshot) error {
	return f(snap)
}

// Stream polls a reader and dispatches its snapshots to a handler.
type Stream struct {
	reader   *reader.Reader
	handler  SnapshotHandler
	interval time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a new Stream with the given reader and snapshot handler.
func New(r *reader.Reader, handler SnapshotHandler, interval time.Duration, logger *zap.Logger) *Stream {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		reader:   r,
		handler:  handler,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling in a goroutine. It returns immediately and keeps
// dispatching until the context is cancelled or Stop is called.
func (s *Stream) Start(ctx context.Context) error {
	go s.processSnapshots(ctx)
	return nil
}

// Stop signals the polling goroutine to stop, waits for it, and hands
// over whatever was written in the meantime.
func (s *Stream) Stop() error {
	close(s.stopCh)
	<-s.done
	return nil
}

// Poll takes one snapshot and dispatches it when it is not empty.
func (s *Stream) Poll() {
	snap := s.reader.Snapshot()
	if snap.Empty() && snap.Lost() == 0 && snap.Skipped() == 0 {
		return
	}
	if err := s.handler.HandleSnapshot(snap); err != nil {
		s.logger.Warn("handling snapshot", zap.Error(err))
	}
}

// processSnapshots is the main polling loop.
func (s *Stream) processSnapshots(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			s.Poll()
			return
		case <-ticker.C:
			s.Poll()
		}
	}
}
