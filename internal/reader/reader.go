package reader

import (
	"errors"
	"sort"
	"sync"

	"github.com/mrzor/nblog/internal/analysis"
	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/procmeta"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/timesync"

	"go.uber.org/zap"
)

// ErrNoTimeline is returned when a Reader is built without a timeline.
var ErrNoTimeline = errors.New("reader: no timeline")

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the sink used when Dump is given no writer.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// WithAuthorNames resolves author indices of merged records to names.
func WithAuthorNames(name func(author int) string) Option {
	return func(r *Reader) {
		r.authorName = name
	}
}

// WithAnalysisConfig sets the configuration of per-source analyses.
func WithAnalysisConfig(cfg analysis.Config) Option {
	return func(r *Reader) {
		r.analysisCfg = cfg
	}
}

// WithProcessRegistry records every PID entry seen while dumping.
func WithProcessRegistry(m *procmeta.Manager) Option {
	return func(r *Reader) {
		r.registry = m
	}
}

// WithReportHeight sets the bar chart height of performance reports.
func WithReportHeight(height int) Option {
	return func(r *Reader) {
		if height > 0 {
			r.reportHeight = height
		}
	}
}

// WithWallClock labels dumped records with wall-clock time instead of
// seconds since boot.
func WithWallClock(c *timesync.Converter) Option {
	return func(r *Reader) {
		r.clock = c
	}
}

// AnalysisKey identifies one stream of histogram samples.
type AnalysisKey struct {
	Author int32
	Hash   uint64
}

// Reader holds the read cursor for one timeline. Snapshot and Dump must
// not be called concurrently.
type Reader struct {
	tl   *timeline.Timeline
	rear uint64

	logger       *zap.Logger
	authorName   func(int) string
	analysisCfg  analysis.Config
	registry     *procmeta.Manager
	reportHeight int
	clock        *timesync.Converter

	mu       sync.Mutex
	analyses map[AnalysisKey]*analysis.PerformanceAnalysis
}

// New creates a reader positioned at the start of tl's history.
func New(tl *timeline.Timeline, opts ...Option) (*Reader, error) {
	if tl == nil {
		return nil, ErrNoTimeline
	}
	r := &Reader{
		tl:           tl,
		logger:       zap.NewNop(),
		analysisCfg:  analysis.DefaultConfig(),
		reportHeight: DefaultReportHeight,
		analyses:     make(map[AnalysisKey]*analysis.PerformanceAnalysis),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Timeline returns the timeline being read.
func (r *Reader) Timeline() *timeline.Timeline {
	return r.tl
}

// Snapshot copies and aligns everything written since the previous call.
func (r *Reader) Snapshot() *Snapshot {
	w := r.tl.Read(r.rear)
	s := &Snapshot{data: w.Data, start: w.Start, lost: w.Lost, end: len(w.Data)}
	back := len(w.Data)

	if w.Lost > 0 {
		s.begin = skipOrphanTail(w.Data, earliestBoundary(w.Data, back), back)
		s.skipped = s.begin
	}
	last := entry.FindLastOfKinds(w.Data, s.begin, back, entry.FormatStart, entry.FormatEnd)
	if last >= 0 && entry.Kind(w.Data[last]) == entry.FormatStart {
		s.end = last
	}

	r.rear = w.Start + uint64(s.end)
	return s
}

// earliestBoundary walks backward from back for as long as entries are
// intact and returns the last offset reached.
func earliestBoundary(data []byte, back int) int {
	off := back
	for off > 0 {
		_, start, err := entry.DecodeBackward(data, off)
		if err != nil {
			break
		}
		off = start
	}
	return off
}

// skipOrphanTail moves begin past the remains of a record whose
// FormatStart was overwritten: everything up to a FormatEnd met before any
// FormatStart.
func skipOrphanTail(data []byte, begin, back int) int {
	for off := begin; off < back; {
		e, next, err := entry.Decode(data[:back], off)
		if next == off {
			return begin
		}
		if err == nil {
			switch e.Kind {
			case entry.FormatStart:
				return begin
			case entry.FormatEnd:
				return next
			}
		}
		off = next
	}
	return begin
}

// Analysis returns the analysis for one sample stream, creating it.
func (r *Reader) Analysis(key AnalysisKey) *analysis.PerformanceAnalysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[key]
	if !ok {
		a = analysis.New(r.analysisCfg)
		r.analyses[key] = a
	}
	return a
}

// Analyses returns the keys of every sample stream seen so far, ordered by
// author then hash.
func (r *Reader) Analyses() []AnalysisKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]AnalysisKey, 0, len(r.analyses))
	for k := range r.analyses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Author != keys[j].Author {
			return keys[i].Author < keys[j].Author
		}
		return keys[i].Hash < keys[j].Hash
	})
	return keys
}
