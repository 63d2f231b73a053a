package reader

import (
	"iter"

	"github.com/mrzor/nblog/internal/entry"
)

// Snapshot is a private, entry-aligned copy of a timeline window.
type Snapshot struct {
	data    []byte
	start   uint64
	lost    uint64
	skipped int
	begin   int
	end     int
}

// Data returns the whole copied window, including any unaligned prefix.
func (s *Snapshot) Data() []byte { return s.data }

// Lost returns the number of bytes overwritten since the previous snapshot.
func (s *Snapshot) Lost() uint64 { return s.lost }

// Skipped returns the number of bytes dropped at the front because they
// could not be attributed to a whole record.
func (s *Snapshot) Skipped() int { return s.skipped }

// Begin is the offset in Data of the first whole record.
func (s *Snapshot) Begin() int { return s.begin }

// End is the offset in Data just past the last whole record.
func (s *Snapshot) End() int { return s.end }

// Len returns the number of aligned bytes.
func (s *Snapshot) Len() int { return s.end - s.begin }

// Empty reports whether the snapshot holds no aligned bytes.
func (s *Snapshot) Empty() bool { return s.end <= s.begin }

// Position returns the absolute timeline position of Data[off].
func (s *Snapshot) Position(off int) uint64 { return s.start + uint64(off) }

// Entries decodes every aligned entry. Decoding stops at the first entry
// whose framing is broken.
func (s *Snapshot) Entries() []entry.Entry {
	var out []entry.Entry
	for off := s.begin; off < s.end; {
		e, next, _ := entry.Decode(s.data[:s.end], off)
		if next == off {
			break
		}
		out = append(out, e)
		off = next
	}
	return out
}

// Records yields each record with its decode error. After an error the
// walk resumes at the next entry boundary when the failing entry's framing
// was intact and stops otherwise. A malformed formatted record is stepped
// over one entry at a time, so its arguments surface individually.
func (s *Snapshot) Records() iter.Seq2[entry.Record, error] {
	return func(yield func(entry.Record, error) bool) {
		for off := s.begin; off < s.end; {
			r, err := entry.NextRecord(s.data, off, s.end)
			if err != nil && r.End <= off {
				yield(r, err)
				return
			}
			if !yield(r, err) {
				return
			}
			off = r.End
		}
	}
}

// LastTimestampBefore returns the value of the last Timestamp entry in
// [Begin, off), if any.
func (s *Snapshot) LastTimestampBefore(off int) (int64, bool) {
	at := entry.FindLastOfKinds(s.data, s.begin, off, entry.Timestamp)
	if at < 0 {
		return 0, false
	}
	e, _, err := entry.Decode(s.data, at)
	if err != nil {
		return 0, false
	}
	ts, err := e.Int64()
	return ts, err == nil
}
