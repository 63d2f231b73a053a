package writer

import (
	"sync"

	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/timeline"
)

// LockedWriter is a Writer safe for use by several goroutines.
type LockedWriter struct {
	mu sync.Mutex
	w  *Writer
}

var _ Logger = (*LockedWriter)(nil)

func NewLocked(tl *timeline.Timeline, opts ...Option) *LockedWriter {
	return &LockedWriter{w: New(tl, opts...)}
}

func (l *LockedWriter) Log(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Log(s)
}

func (l *LockedWriter) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Logf(format, args...)
}

func (l *LockedWriter) LogTimestamp() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogTimestamp()
}

func (l *LockedWriter) LogTimestampAt(ts int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogTimestampAt(ts)
}

func (l *LockedWriter) LogInteger(v int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogInteger(v)
}

func (l *LockedWriter) LogFloat(v float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogFloat(v)
}

func (l *LockedWriter) LogPID() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogPID()
}

func (l *LockedWriter) LogHash(h uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogHash(h)
}

func (l *LockedWriter) LogStart(format string) Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.LogStart(format)
}

func (l *LockedWriter) LogEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogEnd()
}

func (l *LockedWriter) LogFormat(format string, hash uint64, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogFormat(format, hash, args...)
}

func (l *LockedWriter) LogEventHistTS(kind entry.Kind, hash uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogEventHistTS(kind, hash)
}

func (l *LockedWriter) LogEntry(kind entry.Kind, payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.LogEntry(kind, payload)
}

func (l *LockedWriter) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Enabled()
}

func (l *LockedWriter) SetEnabled(enabled bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.SetEnabled(enabled)
}
