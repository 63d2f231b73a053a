package writer

import (
	"fmt"

	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/procmeta"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/timesync"
)

// Logger is the API shared by Writer and LockedWriter.
type Logger interface {
	Log(s string)
	Logf(format string, args ...any)
	LogTimestamp()
	LogTimestampAt(ts int64)
	LogInteger(v int32)
	LogFloat(v float32)
	LogPID()
	LogHash(h uint64)
	LogStart(format string) Token
	LogEnd()
	LogFormat(format string, hash uint64, args ...any)
	LogEventHistTS(kind entry.Kind, hash uint64)
	LogEntry(kind entry.Kind, payload []byte)
	Enabled() bool
	SetEnabled(enabled bool) bool
}

// Token is the absolute buffer position of a FormatStart entry.
type Token uint64

// Option configures a Writer.
type Option func(*Writer)

// WithClock replaces the monotonic clock used for timestamps.
func WithClock(clock func() int64) Option {
	return func(w *Writer) {
		w.clock = clock
	}
}

// WithIdentity sets the pid and name written by LogPID and %p.
func WithIdentity(id procmeta.Identity) Option {
	return func(w *Writer) {
		w.pid = id.Payload()
	}
}

// Writer appends entries to one timeline.
type Writer struct {
	tl      *timeline.Timeline
	enabled bool
	clock   func() int64
	pid     []byte

	payload [24]byte
	scratch [entry.MaxLength + entry.Overhead]byte
}

var _ Logger = (*Writer)(nil)

// New returns an enabled writer for tl. A nil timeline yields a writer
// that stays disabled.
func New(tl *timeline.Timeline, opts ...Option) *Writer {
	w := &Writer{
		tl:      tl,
		enabled: tl != nil,
		clock:   timesync.Monotonic,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pid == nil {
		w.pid = procmeta.Self().Payload()
	}
	return w
}

func (w *Writer) emit(kind entry.Kind, payload []byte) {
	if !w.enabled {
		return
	}
	buf, err := entry.AppendEncoded(w.scratch[:0], kind, payload)
	if err != nil || len(buf) > w.tl.Capacity() {
		return
	}
	w.tl.Append(buf)
}

func (w *Writer) emitString(kind entry.Kind, s string) {
	if !w.enabled {
		return
	}
	buf, err := entry.AppendEncodedString(w.scratch[:0], kind, clip(s))
	if err != nil || len(buf) > w.tl.Capacity() {
		return
	}
	w.tl.Append(buf)
}

func clip(s string) string {
	if len(s) > entry.MaxLength {
		return s[:entry.MaxLength]
	}
	return s
}

// Log writes a standalone String entry.
func (w *Writer) Log(s string) {
	if !w.enabled {
		return
	}
	w.emitString(entry.String, s)
}

// Logf formats like fmt.Sprintf and writes the result as a String entry.
func (w *Writer) Logf(format string, args ...any) {
	if !w.enabled {
		return
	}
	w.Log(fmt.Sprintf(format, args...))
}

// LogTimestamp writes the current monotonic time.
func (w *Writer) LogTimestamp() {
	if !w.enabled {
		return
	}
	w.LogTimestampAt(w.clock())
}

func (w *Writer) LogTimestampAt(ts int64) {
	w.emit(entry.Timestamp, entry.AppendInt64(w.payload[:0], ts))
}

func (w *Writer) LogInteger(v int32) {
	w.emit(entry.Integer, entry.AppendInt32(w.payload[:0], v))
}

func (w *Writer) LogFloat(v float32) {
	w.emit(entry.Float, entry.AppendFloat32(w.payload[:0], v))
}

// LogPID writes the writer's pid and process name.
func (w *Writer) LogPID() {
	w.emit(entry.PID, w.pid)
}

func (w *Writer) LogHash(h uint64) {
	w.emit(entry.Hash, entry.AppendUint64(w.payload[:0], h))
}

// LogStart opens a formatted record. It returns the record's position, or
// the zero Token when disabled.
func (w *Writer) LogStart(format string) Token {
	if !w.enabled {
		return 0
	}
	pos := Token(w.tl.Rear())
	w.emitString(entry.FormatStart, format)
	return pos
}

// LogEnd closes a formatted record.
func (w *Writer) LogEnd() {
	w.emit(entry.FormatEnd, nil)
}

// LogFormat writes a complete formatted record: start, timestamp, hash,
// one entry per specifier, end. %p consumes no argument. Arguments whose
// type does not fit their specifier are skipped.
func (w *Writer) LogFormat(format string, hash uint64, args ...any) {
	if !w.enabled {
		return
	}
	w.LogStart(format)
	w.LogTimestamp()
	w.LogHash(hash)

	next := 0
	arg := func() (any, bool) {
		if next >= len(args) {
			return nil, false
		}
		next++
		return args[next-1], true
	}
	for i := 0; i < len(format)-1; i++ {
		if format[i] != '%' {
			continue
		}
		i++
		switch format[i] {
		case '%':
		case 'p':
			w.LogPID()
		case 's':
			if a, ok := arg(); ok {
				switch v := a.(type) {
				case string:
					w.Log(v)
				case []byte:
					w.Log(string(v))
				case fmt.Stringer:
					w.Log(v.String())
				}
			}
		case 't':
			if a, ok := arg(); ok {
				if ts, ok := toInt64(a); ok {
					w.LogTimestampAt(ts)
				}
			}
		case 'd':
			if a, ok := arg(); ok {
				if v, ok := toInt64(a); ok {
					//nolint:gosec // %d carries int32 on the wire
					w.LogInteger(int32(v))
				}
			}
		case 'f':
			if a, ok := arg(); ok {
				switch v := a.(type) {
				case float32:
					w.LogFloat(v)
				case float64:
					w.LogFloat(float32(v))
				}
			}
		}
	}
	w.LogEnd()
}

func toInt64(a any) (int64, bool) {
	switch v := a.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

// LogEventHistTS writes a histogram sample or state change stamped now.
func (w *Writer) LogEventHistTS(kind entry.Kind, hash uint64) {
	if !w.enabled || (kind != entry.HistogramTS && kind != entry.AudioState) {
		return
	}
	p := entry.AppendHistTS(w.payload[:0], entry.HistTS{Hash: hash, TS: w.clock(), Author: -1})
	w.emit(kind, p)
}

// LogEntry writes an arbitrary entry. Invalid kinds and oversize payloads
// are dropped.
func (w *Writer) LogEntry(kind entry.Kind, payload []byte) {
	w.emit(kind, payload)
}

func (w *Writer) Enabled() bool {
	return w.enabled
}

// SetEnabled switches logging on or off and returns the previous state. A
// writer without a timeline cannot be enabled.
func (w *Writer) SetEnabled(enabled bool) bool {
	prev := w.enabled
	w.enabled = enabled && w.tl != nil
	return prev
}
