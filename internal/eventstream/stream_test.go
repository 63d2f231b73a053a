package eventstream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mrzor/nblog/internal/reader"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/writer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type collector struct {
	mu      sync.Mutex
	entries int
	calls   int
	err     error
}

func (c *collector) HandleSnapshot(snap *reader.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.entries += len(snap.Entries())
	return c.err
}

func (c *collector) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries, c.calls
}

func newStreamFixture(t *testing.T) (*writer.LockedWriter, *reader.Reader) {
	t.Helper()
	tl, err := timeline.NewPrivate(4096)
	require.NoError(t, err)
	r, err := reader.New(tl)
	require.NoError(t, err)
	return writer.NewLocked(tl, writer.WithClock(func() int64 { return 1 })), r
}

func TestStream_DeliversWhileRunning(t *testing.T) {
	w, r := newStreamFixture(t)
	c := &collector{}
	s := New(r, c, time.Millisecond, nil)
	require.NoError(t, s.Start(context.Background()))

	w.Log("one")
	assert.Eventually(t, func() bool {
		n, _ := c.counts()
		return n == 1
	}, time.Second, time.Millisecond)

	w.Log("two")
	w.Log("three")
	require.NoError(t, s.Stop())

	n, _ := c.counts()
	assert.Equal(t, 3, n)
}

func TestStream_PollSkipsEmpty(t *testing.T) {
	w, r := newStreamFixture(t)
	c := &collector{}
	s := New(r, c, 0, nil)

	s.Poll()
	_, calls := c.counts()
	assert.Zero(t, calls)

	w.LogInteger(1)
	s.Poll()
	n, calls := c.counts()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

func TestStream_HandlerErrorIsLogged(t *testing.T) {
	w, r := newStreamFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	s := New(r, &collector{err: errors.New("sink full")}, 0, zap.New(core))

	w.Log("x")
	s.Poll()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "handling snapshot", logs.All()[0].Message)
}

func TestStream_StopsOnContext(t *testing.T) {
	_, r := newStreamFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	s := New(r, SnapshotHandlerFunc(func(*reader.Snapshot) error { return nil }), time.Millisecond, nil)
	require.NoError(t, s.Start(ctx))
	cancel()
	<-s.done
}
