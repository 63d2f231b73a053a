package entry

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

const (
	histTSSize       = 16
	histTSAuthorSize = 20
)

// HistTS is the payload of HistogramTS and AudioState entries.
type HistTS struct {
	Hash uint64
	TS   int64
	// Author is -1 until the merger tags the sample with its source.
	Author int32
}

// AppendHistTS appends the payload form of h. The author field is only
// written when it is non-negative.
func AppendHistTS(dst []byte, h HistTS) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, h.Hash)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(h.TS))
	if h.Author >= 0 {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(h.Author))
	}
	return dst
}

// AppendPIDPayload appends a PID payload. The name is cut so the payload fits
// in one entry.
func AppendPIDPayload(dst []byte, pid int32, name string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(pid))
	if len(name) > MaxLength-4 {
		name = name[:MaxLength-4]
	}
	return append(dst, name...)
}

// AppendInt64 appends the payload form of a Timestamp entry.
func AppendInt64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

// AppendInt32 appends the payload form of an Integer or Author entry.
func AppendInt32(dst []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(dst, uint32(v))
}

// AppendUint64 appends the payload form of a Hash entry.
func AppendUint64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendFloat32 appends the payload form of a Float entry.
func AppendFloat32(dst []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
}

func (e Entry) Int64() (int64, error) {
	if len(e.Payload) != 8 {
		return 0, ErrBadPayload
	}
	return int64(binary.LittleEndian.Uint64(e.Payload)), nil
}

func (e Entry) Uint64() (uint64, error) {
	if len(e.Payload) != 8 {
		return 0, ErrBadPayload
	}
	return binary.LittleEndian.Uint64(e.Payload), nil
}

func (e Entry) Int32() (int32, error) {
	if len(e.Payload) != 4 {
		return 0, ErrBadPayload
	}
	return int32(binary.LittleEndian.Uint32(e.Payload)), nil
}

func (e Entry) Float32() (float32, error) {
	if len(e.Payload) != 4 {
		return 0, ErrBadPayload
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(e.Payload)), nil
}

// ProcessID decodes a PID payload.
func (e Entry) ProcessID() (pid int32, name string, err error) {
	if len(e.Payload) < 4 {
		return 0, "", ErrBadPayload
	}
	return int32(binary.LittleEndian.Uint32(e.Payload)), string(e.Payload[4:]), nil
}

// HistTS decodes a HistogramTS or AudioState payload.
func (e Entry) HistTS() (HistTS, error) {
	h := HistTS{Author: -1}
	switch len(e.Payload) {
	case histTSAuthorSize:
		h.Author = int32(binary.LittleEndian.Uint32(e.Payload[16:]))
	case histTSSize:
	default:
		return HistTS{}, ErrBadPayload
	}
	h.Hash = binary.LittleEndian.Uint64(e.Payload)
	h.TS = int64(binary.LittleEndian.Uint64(e.Payload[8:]))
	return h, nil
}

// HashOf derives a content hash from a source location: the FNV-1a hash of
// the file name in the upper 48 bits and the line number in the lower 16.
func HashOf(file string, line int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(file))
	return h.Sum64()<<16 | uint64(line)&0xFFFF
}
