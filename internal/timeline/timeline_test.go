package timeline

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSize(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, HeaderSize + 1},
		{64, HeaderSize + 64},
		{100, HeaderSize + 128},
		{4096, HeaderSize + 4096},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SharedSize(tt.size), "size %d", tt.size)
	}
}

func TestNew_TooSmall(t *testing.T) {
	mem := make([]byte, SharedSize(128)-1)
	_, err := New(mem, 128)
	assert.ErrorIs(t, err, ErrSharedTooSmall)

	_, err = NewPrivate(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestAppendRead_NoLoss(t *testing.T) {
	tl, err := NewPrivate(64)
	require.NoError(t, err)

	tl.Append([]byte("hello "))
	tl.Append([]byte("world"))

	w := tl.Read(0)
	assert.Equal(t, "hello world", string(w.Data))
	assert.Zero(t, w.Lost)
	assert.Equal(t, uint64(11), w.End())

	w = tl.Read(w.End())
	assert.Empty(t, w.Data)
}

func TestRead_Overrun(t *testing.T) {
	tl, err := NewPrivate(16)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tl.Append(bytes.Repeat([]byte{byte('a' + i)}, 5))
	}
	// 25 bytes written into 16.
	w := tl.Read(0)
	assert.Equal(t, uint64(9), w.Lost)
	assert.Equal(t, uint64(9), w.Start)
	assert.Equal(t, "bcccccdddddeeeee", string(w.Data))
}

func TestAppend_WrapsAndTruncates(t *testing.T) {
	tl, err := NewPrivate(8)
	require.NoError(t, err)

	tl.Append([]byte("123456"))
	w := tl.Read(tl.Rear())
	tl.Append([]byte("abcd"))
	w = tl.Read(w.End())
	assert.Equal(t, "abcd", string(w.Data))

	n := tl.Append([]byte("0123456789"))
	assert.Equal(t, 8, n)
	w = tl.Read(tl.Rear() - 8)
	assert.Equal(t, "01234567", string(w.Data))
}

func TestRead_FromBeyondRear(t *testing.T) {
	tl, err := NewPrivate(8)
	require.NoError(t, err)
	tl.Append([]byte("ab"))

	w := tl.Read(100)
	assert.Empty(t, w.Data)
	assert.Equal(t, uint64(2), w.Start)
}

func TestNew_ViewsShareRegion(t *testing.T) {
	words := make([]uint64, SharedSize(32)/8)
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)

	writerView, err := New(mem, 32)
	require.NoError(t, err)
	readerView, err := New(mem, 32)
	require.NoError(t, err)

	writerView.Append([]byte("xyz"))
	assert.Equal(t, uint64(3), readerView.Rear())
	assert.Equal(t, "xyz", string(readerView.Read(0).Data))

	_, err = New(mem[1:], 16)
	assert.ErrorIs(t, err, ErrMisaligned)
}
