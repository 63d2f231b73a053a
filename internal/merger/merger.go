package merger

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/eventprocessor"
	"github.com/mrzor/nblog/internal/reader"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/writer"

	"go.uber.org/zap"
)

// LossMarkerHash identifies loss marker records in a merged stream.
const LossMarkerHash = uint64(0xFFFF_0000)

// LossMarkerFormat is the format string of loss marker records.
const LossMarkerFormat = "lost %d bytes"

// ErrNoTimeline is returned when a Merger is built without a timeline.
var ErrNoTimeline = errors.New("merger: no timeline")

// Stats describes one merge pass.
type Stats struct {
	Sources     int
	Records     int
	LossMarkers int
	Lost        uint64
	Skipped     int
	Faults      int
	Duration    time.Duration
}

// Observer is notified after every merge pass.
type Observer interface {
	ObserveMerge(ctx context.Context, s Stats) error
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Merger) {
		m.logger = logger
	}
}

// WithObserver adds an observer of merge passes.
func WithObserver(o Observer) Option {
	return func(m *Merger) {
		m.observers = append(m.observers, o)
	}
}

// WithClock replaces the clock used to time merge passes.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		m.now = now
	}
}

// Merger copies the records of its readers into one timeline.
type Merger struct {
	tl        *timeline.Timeline
	w         *writer.Writer
	logger    *zap.Logger
	observers []Observer
	now       func() time.Time

	mu      sync.Mutex
	readers []NamedReader

	// mergeMu serializes passes; snapshots of one reader must not overlap.
	mergeMu sync.Mutex
	scratch []byte
}

// New creates a merger writing into tl.
func New(tl *timeline.Timeline, opts ...Option) (*Merger, error) {
	if tl == nil {
		return nil, ErrNoTimeline
	}
	m := &Merger{
		tl:     tl,
		w:      writer.New(tl),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Timeline returns the merged timeline.
func (m *Merger) Timeline() *timeline.Timeline {
	return m.tl
}

// AddReader registers r and returns its author index.
func (m *Merger) AddReader(r NamedReader) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readers = append(m.readers, r)
	return len(m.readers) - 1
}

// NamedReaders returns a copy of the registered readers.
func (m *Merger) NamedReaders() []NamedReader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NamedReader(nil), m.readers...)
}

// AuthorName returns the name registered for an author index.
func (m *Merger) AuthorName(author int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if author < 0 || author >= len(m.readers) {
		return fmt.Sprintf("author %d", author)
	}
	return m.readers[author].Name
}

// NewReader returns a reader of the merged timeline that resolves author
// indices to reader names.
func (m *Merger) NewReader(opts ...reader.Option) (*reader.Reader, error) {
	return reader.New(m.tl, append([]reader.Option{reader.WithAuthorNames(m.AuthorName)}, opts...)...)
}

// tailMarker is the loss marker of a source that had no records.
type tailMarker struct {
	index  int
	marker pending
}

// Merge runs one pass over every registered reader.
func (m *Merger) Merge(ctx context.Context) Stats {
	m.mergeMu.Lock()
	defer m.mergeMu.Unlock()

	start := m.now()
	readers := m.NamedReaders()
	stats := Stats{Sources: len(readers)}

	sources := make([]*source, len(readers))
	h := make(cursorHeap, 0, len(readers))
	var tail []tailMarker
	for i, nr := range readers {
		snap := nr.Reader.Snapshot()
		src := &source{}
		// The source handler never returns errors.
		_ = eventprocessor.NewProcessor(src).Process(snap.Records())

		stats.Lost += snap.Lost()
		stats.Skipped += snap.Skipped()
		stats.Faults += src.faults
		if lost := snap.Lost() + uint64(snap.Skipped()); lost > 0 {
			marker := pending{kind: pendingLoss, lost: lost}
			if len(src.items) == 0 {
				tail = append(tail, tailMarker{index: i, marker: marker})
			} else {
				marker.ts = src.items[0].ts
				src.items = append([]pending{marker}, src.items...)
			}
		}
		sources[i] = src
		if len(src.items) > 0 {
			h = append(h, cursor{ts: src.items[0].ts, index: i})
		}
	}
	heap.Init(&h)

	var lastTS int64
	for h.Len() > 0 {
		c := heap.Pop(&h).(cursor)
		src := sources[c.index]
		item := src.items[0]
		src.items = src.items[1:]
		m.emit(c.index, item, &stats)
		lastTS = item.ts
		if len(src.items) > 0 {
			heap.Push(&h, cursor{ts: src.items[0].ts, index: c.index})
		}
	}
	for _, t := range tail {
		t.marker.ts = lastTS
		m.emit(t.index, t.marker, &stats)
	}

	stats.Duration = m.now().Sub(start)
	m.logger.Debug("merge pass",
		zap.Int("sources", stats.Sources),
		zap.Int("records", stats.Records),
		zap.Uint64("lost", stats.Lost),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("duration", stats.Duration),
	)
	for _, o := range m.observers {
		if err := o.ObserveMerge(ctx, stats); err != nil {
			m.logger.Warn("merge observer failed", zap.Error(err))
		}
	}
	return stats
}

// emit copies one pending record into the merged timeline as author.
func (m *Merger) emit(author int, p pending, stats *Stats) {
	//nolint:gosec // author indices are small
	idx := int32(author)
	switch p.kind {
	case pendingFormat:
		f := p.rec.Format
		m.w.LogEntry(entry.FormatStart, []byte(f.Format))
		// Records written without a Timestamp carry the source's last one.
		m.w.LogTimestampAt(p.ts)
		m.w.LogHash(f.Hash)
		m.logAuthor(idx)
		args := f.Args()
		for e, ok := args.Next(); ok; e, ok = args.Next() {
			m.w.LogEntry(e.Kind, e.Payload)
		}
		m.w.LogEnd()
		stats.Records++
	case pendingSample:
		sample := p.sample
		sample.Author = idx
		m.scratch = entry.AppendHistTS(m.scratch[:0], sample)
		m.w.LogEntry(p.sampleKind, m.scratch)
		stats.Records++
	case pendingWrapped:
		m.w.LogEntry(entry.FormatStart, []byte(p.spec))
		m.w.LogTimestampAt(p.ts)
		m.w.LogHash(0)
		m.logAuthor(idx)
		m.w.LogEntry(p.rec.Entry.Kind, p.rec.Entry.Payload)
		m.w.LogEnd()
		stats.Records++
	case pendingLoss:
		m.w.LogEntry(entry.FormatStart, []byte(LossMarkerFormat))
		m.w.LogTimestampAt(p.ts)
		m.w.LogHash(LossMarkerHash)
		m.logAuthor(idx)
		//nolint:gosec // bounded by min
		m.w.LogInteger(int32(min(p.lost, math.MaxInt32)))
		m.w.LogEnd()
		stats.LossMarkers++
	}
}

func (m *Merger) logAuthor(author int32) {
	m.scratch = entry.AppendInt32(m.scratch[:0], author)
	m.w.LogEntry(entry.Author, m.scratch)
}
