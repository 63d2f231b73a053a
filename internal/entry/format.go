package entry

import "errors"

// FormatEntry is a parsed formatted record. It references the buffer it was
// parsed from and must not outlive it.
type FormatEntry struct {
	buf []byte

	// Start is the offset of the FormatStart entry.
	Start int
	// End is the offset just past the FormatEnd entry.
	End int

	Format string
	TS     int64
	HasTS  bool
	Hash   uint64
	// Author is -1 for records that did not pass through a merger.
	Author int32

	argsOff int
	endOff  int
}

// ParseFormat parses the formatted record whose FormatStart is at off. The
// metadata entries are positional: a Timestamp, then a Hash, then an Author,
// each optional but only recognised in that order.
func ParseFormat(buf []byte, off int) (FormatEntry, error) {
	start, next, err := Decode(buf, off)
	if err != nil {
		return FormatEntry{}, err
	}
	if start.Kind != FormatStart {
		return FormatEntry{}, ErrMalformed
	}
	f := FormatEntry{buf: buf, Start: off, Format: string(start.Payload), Author: -1}

	meta := []Kind{Timestamp, Hash, Author}
	for _, want := range meta {
		e, n, err := Decode(buf, next)
		if err != nil {
			return FormatEntry{}, terminal(err)
		}
		if e.Kind != want {
			continue
		}
		switch want {
		case Timestamp:
			if f.TS, err = e.Int64(); err != nil {
				return FormatEntry{}, err
			}
			f.HasTS = true
		case Hash:
			if f.Hash, err = e.Uint64(); err != nil {
				return FormatEntry{}, err
			}
		case Author:
			if f.Author, err = e.Int32(); err != nil {
				return FormatEntry{}, err
			}
		}
		next = n
	}

	f.argsOff = next
	for {
		e, n, err := Decode(buf, next)
		if err != nil {
			return FormatEntry{}, terminal(err)
		}
		switch e.Kind {
		case FormatEnd:
			f.endOff = next
			f.End = n
			return f, nil
		case FormatStart:
			return FormatEntry{}, ErrMalformed
		}
		next = n
	}
}

// A record cut off by the end of the readable window is unterminated rather
// than corrupt.
func terminal(err error) error {
	if errors.Is(err, ErrTruncated) {
		return ErrUnterminated
	}
	return err
}

// Args returns a fresh iterator over the record's argument entries.
func (f FormatEntry) Args() *ArgIterator {
	return &ArgIterator{buf: f.buf, off: f.argsOff, end: f.endOff}
}

// ArgIterator walks argument entries forward only. Call Args again to
// restart.
type ArgIterator struct {
	buf []byte
	off int
	end int
}

// Next returns the next argument entry, or false when the record is
// exhausted.
func (it *ArgIterator) Next() (Entry, bool) {
	if it.off >= it.end {
		return Entry{}, false
	}
	e, next, err := Decode(it.buf, it.off)
	if err != nil {
		it.off = it.end
		return Entry{}, false
	}
	it.off = next
	return e, true
}

// Record is one logical unit of a buffer: a whole formatted record or a
// single standalone entry.
type Record struct {
	Offset int
	End    int
	// Entry is the leading entry. For formatted records it is FormatStart.
	Entry Entry
	// Format is populated when Entry.Kind is FormatStart.
	Format FormatEntry
}

// IsFormat reports whether r is a formatted record.
func (r Record) IsFormat() bool {
	return r.Entry.Kind == FormatStart
}

// NextRecord decodes the record starting at off within buf[:end]. On error
// the returned Record still carries the offset of the next entry boundary
// in End when the failing entry's framing was intact, and End == Offset
// otherwise.
func NextRecord(buf []byte, off, end int) (Record, error) {
	buf = buf[:end]
	e, next, err := Decode(buf, off)
	r := Record{Offset: off, End: next, Entry: e}
	if err != nil {
		return r, err
	}
	if e.Kind != FormatStart {
		return r, nil
	}
	f, err := ParseFormat(buf, off)
	if err != nil {
		return r, err
	}
	r.Format = f
	r.End = f.End
	return r, nil
}
