package timeline

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// HeaderSize is the size of the control block preceding the storage.
const HeaderSize = 64

var (
	ErrSharedTooSmall = errors.New("timeline: shared memory smaller than required")
	ErrInvalidSize    = errors.New("timeline: size must be positive")
	ErrMisaligned     = errors.New("timeline: shared memory not 8-byte aligned")
)

// SharedSize returns the number of bytes a region must provide to host a
// buffer of at least size bytes.
func SharedSize(size int) int {
	return HeaderSize + roundUpPowerOfTwo(size)
}

func roundUpPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Timeline is a view over a header and storage area. Any number of
// Timelines in any number of processes may view the same region.
type Timeline struct {
	rear     *uint64
	data     []byte
	capacity uint64
	mask     uint64
}

// New attaches to mem, which must hold at least SharedSize(size) bytes.
// The header is not reset, so attaching to a live region picks up its
// position.
func New(mem []byte, size int) (*Timeline, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	capacity := roundUpPowerOfTwo(size)
	if len(mem) < HeaderSize+capacity {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrSharedTooSmall, len(mem), HeaderSize+capacity)
	}
	if uintptr(unsafe.Pointer(&mem[0]))%8 != 0 {
		return nil, ErrMisaligned
	}
	return &Timeline{
		rear:     (*uint64)(unsafe.Pointer(&mem[0])),
		data:     mem[HeaderSize : HeaderSize+capacity],
		capacity: uint64(capacity),
		mask:     uint64(capacity - 1),
	}, nil
}

// NewPrivate allocates a process-local region.
func NewPrivate(size int) (*Timeline, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	// Backed by uint64s so the header is aligned.
	words := make([]uint64, SharedSize(size)/8+1)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
	return New(mem, size)
}

// Capacity returns the storage size in bytes.
func (t *Timeline) Capacity() int {
	return int(t.capacity)
}

// Rear returns the total number of bytes ever appended.
func (t *Timeline) Rear() uint64 {
	return atomic.LoadUint64(t.rear)
}

// Append copies p at the rear and then publishes it. Input longer than the
// capacity is cut to its first Capacity bytes. Append must not be called
// concurrently on the same region.
func (t *Timeline) Append(p []byte) int {
	if uint64(len(p)) > t.capacity {
		p = p[:t.capacity]
	}
	rear := atomic.LoadUint64(t.rear)
	t.copyIn(rear, p)
	atomic.StoreUint64(t.rear, rear+uint64(len(p)))
	return len(p)
}

func (t *Timeline) copyIn(pos uint64, p []byte) {
	off := pos & t.mask
	n := copy(t.data[off:], p)
	if n < len(p) {
		copy(t.data, p[n:])
	}
}

func (t *Timeline) copyOut(dst []byte, pos uint64) {
	off := pos & t.mask
	n := copy(dst, t.data[off:])
	if n < len(dst) {
		copy(dst[n:], t.data)
	}
}

// Window is a private copy of the readable bytes.
type Window struct {
	Data []byte
	// Start is the absolute position of Data[0].
	Start uint64
	// Lost counts bytes between the requested position and Start that were
	// overwritten before they could be read.
	Lost uint64
}

// End returns the absolute position just past the window.
func (w Window) End() uint64 {
	return w.Start + uint64(len(w.Data))
}

// Read copies everything published since from. A from beyond the rear
// (for example after the region was recreated) restarts at the rear.
func (t *Timeline) Read(from uint64) Window {
	rear := atomic.LoadUint64(t.rear)
	if from > rear {
		from = rear
	}
	w := Window{Start: from}
	if rear-from > t.capacity {
		w.Start = rear - t.capacity
		w.Lost = w.Start - from
	}
	w.Data = make([]byte, rear-w.Start)
	t.copyOut(w.Data, w.Start)

	// Anything the writer reached while we copied may be torn.
	after := atomic.LoadUint64(t.rear)
	if after-w.Start > t.capacity {
		torn := after - t.capacity - w.Start
		if torn > uint64(len(w.Data)) {
			torn = uint64(len(w.Data))
		}
		w.Data = w.Data[torn:]
		w.Start += torn
		w.Lost += torn
	}
	return w
}
