package entry

import (
	"errors"
	"fmt"
)

// Kind identifies the payload carried by an entry.
type Kind uint8

const (
	Reserved    Kind = iota // never written
	String                  // raw bytes
	Timestamp               // int64 monotonic nanoseconds
	Integer                 // int32
	Float                   // float32
	PID                     // int32 pid followed by the process name
	Author                  // int32 source index, set by the merger
	FormatStart             // format string, opens a formatted record
	Hash                    // uint64 content hash
	HistogramTS             // HistTS sample
	AudioState              // HistTS sample marking a state change
	FormatEnd               // closes a formatted record

	upperBound
)

const (
	kindOffset   = 0
	lengthOffset = 1
	dataOffset   = 2

	// Overhead is the number of framing bytes around every payload.
	Overhead = 3
	// MaxLength is the largest payload a single entry can carry.
	MaxLength = 255
)

var (
	ErrPayloadTooLong = errors.New("entry: payload exceeds 255 bytes")
	ErrInvalidKind    = errors.New("entry: invalid kind")
	ErrTruncated      = errors.New("entry: truncated")
	ErrInconsistent   = errors.New("entry: leading and trailing length disagree")
	ErrBadPayload     = errors.New("entry: payload has unexpected size")
	ErrUnterminated   = errors.New("entry: formatted record has no end")
	ErrMalformed      = errors.New("entry: malformed formatted record")
)

var kindNames = [...]string{
	Reserved:    "reserved",
	String:      "string",
	Timestamp:   "timestamp",
	Integer:     "integer",
	Float:       "float",
	PID:         "pid",
	Author:      "author",
	FormatStart: "format-start",
	Hash:        "hash",
	HistogramTS: "histogram-ts",
	AudioState:  "audio-state",
	FormatEnd:   "format-end",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k may appear in a buffer.
func (k Kind) Valid() bool {
	return k > Reserved && k < upperBound
}

// Entry is a decoded entry. Payload aliases the buffer it was decoded from.
type Entry struct {
	Kind    Kind
	Payload []byte
}

// Size returns the encoded size of e.
func (e Entry) Size() int {
	return len(e.Payload) + Overhead
}

// Encode returns the wire form of one entry.
func Encode(kind Kind, payload []byte) ([]byte, error) {
	return AppendEncoded(make([]byte, 0, len(payload)+Overhead), kind, payload)
}

// AppendEncoded appends the wire form of one entry to dst.
func AppendEncoded(dst []byte, kind Kind, payload []byte) ([]byte, error) {
	if !kind.Valid() {
		return dst, fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}
	if len(payload) > MaxLength {
		return dst, ErrPayloadTooLong
	}
	n := byte(len(payload))
	dst = append(dst, byte(kind), n)
	dst = append(dst, payload...)
	return append(dst, n), nil
}

// AppendEncodedString is AppendEncoded for a string payload, copying it
// without an intermediate byte slice.
func AppendEncodedString(dst []byte, kind Kind, payload string) ([]byte, error) {
	if !kind.Valid() {
		return dst, fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}
	if len(payload) > MaxLength {
		return dst, ErrPayloadTooLong
	}
	n := byte(len(payload))
	dst = append(dst, byte(kind), n)
	dst = append(dst, payload...)
	return append(dst, n), nil
}

// Decode reads the entry starting at off and returns it with the offset of
// the next entry. When the framing is intact but the kind is not, the entry
// and next offset are still returned together with ErrInvalidKind so the
// caller can step over it.
func Decode(buf []byte, off int) (Entry, int, error) {
	if off < 0 || off+dataOffset > len(buf) {
		return Entry{}, off, ErrTruncated
	}
	n := int(buf[off+lengthOffset])
	next := off + n + Overhead
	if next > len(buf) {
		return Entry{}, off, ErrTruncated
	}
	if int(buf[next-1]) != n {
		return Entry{}, off, ErrInconsistent
	}
	e := Entry{
		Kind:    Kind(buf[off+kindOffset]),
		Payload: buf[off+dataOffset : off+dataOffset+n],
	}
	if !e.Kind.Valid() {
		return e, next, fmt.Errorf("%w: %d", ErrInvalidKind, e.Kind)
	}
	return e, next, nil
}

// DecodeBackward reads the entry that ends at off and returns it with its
// starting offset.
func DecodeBackward(buf []byte, off int) (Entry, int, error) {
	if off > len(buf) || off < Overhead {
		return Entry{}, off, ErrTruncated
	}
	n := int(buf[off-1])
	start := off - n - Overhead
	if start < 0 {
		return Entry{}, off, ErrTruncated
	}
	e, next, err := Decode(buf, start)
	if err != nil && !errors.Is(err, ErrInvalidKind) {
		return Entry{}, off, err
	}
	if next != off {
		return Entry{}, off, ErrInconsistent
	}
	return e, start, err
}

// FindLastOfKinds walks backward from back and returns the offset of the
// last entry in [front, back) whose kind is one of kinds. It returns -1 if
// none is found or the walk hits an inconsistent entry.
func FindLastOfKinds(buf []byte, front, back int, kinds ...Kind) int {
	for back > front {
		e, start, err := DecodeBackward(buf, back)
		if err != nil || start < front {
			return -1
		}
		for _, k := range kinds {
			if e.Kind == k {
				return start
			}
		}
		back = start
	}
	return -1
}
