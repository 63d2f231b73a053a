package reader

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/procmeta"
	"github.com/mrzor/nblog/internal/timeline"
	"github.com/mrzor/nblog/internal/timesync"
	"github.com/mrzor/nblog/internal/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testHash = uint64(0x0001_0002)

func newPair(t *testing.T, size int) (*writer.Writer, *Reader) {
	t.Helper()
	tl, err := timeline.NewPrivate(size)
	require.NoError(t, err)
	w := writer.New(tl,
		writer.WithClock(func() int64 { return 1_500_000_000 }),
		writer.WithIdentity(procmeta.Identity{PID: 42, Name: "mixer"}),
	)
	r, err := New(tl)
	require.NoError(t, err)
	return w, r
}

func TestNew_NoTimeline(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoTimeline)
}

func TestSnapshot_ReturnsNewEntriesOnce(t *testing.T) {
	w, r := newPair(t, 64)

	w.LogInteger(1)
	w.LogTimestampAt(100)
	w.LogFloat(2.5)

	snap := r.Snapshot()
	assert.Zero(t, snap.Lost())
	entries := snap.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []entry.Kind{entry.Integer, entry.Timestamp, entry.Float},
		[]entry.Kind{entries[0].Kind, entries[1].Kind, entries[2].Kind})
	ts, err := entries[1].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(100), ts)

	again := r.Snapshot()
	assert.True(t, again.Empty())
	assert.Empty(t, again.Entries())
}

func TestSnapshot_Overrun(t *testing.T) {
	w, r := newPair(t, 64)
	for i := 0; i < 10; i++ {
		w.LogInteger(int32(i))
	}

	snap := r.Snapshot()
	assert.Equal(t, uint64(6), snap.Lost())
	assert.Equal(t, 1, snap.Skipped())

	entries := snap.Entries()
	require.Len(t, entries, 9)
	first, err := entries[0].Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), first)
}

func TestSnapshot_DefersOpenRecord(t *testing.T) {
	w, r := newPair(t, 256)

	w.Log("before")
	w.LogStart("%d")
	w.LogInteger(5)

	snap := r.Snapshot()
	require.Len(t, snap.Entries(), 1)
	assert.Equal(t, entry.String, snap.Entries()[0].Kind)

	w.LogEnd()
	snap = r.Snapshot()
	var records []entry.Record
	for rec, err := range snap.Records() {
		require.NoError(t, err)
		records = append(records, rec)
	}
	require.Len(t, records, 1)
	assert.True(t, records[0].IsFormat())
	assert.Equal(t, "<5>", entry.Expand(records[0].Format))
}

func TestSnapshot_SkipsOrphanTail(t *testing.T) {
	w, r := newPair(t, 64)
	w.LogFormat("%d", testHash, 1)
	w.LogFormat("%d", testHash, 2)

	snap := r.Snapshot()
	assert.Equal(t, uint64(10), snap.Lost())
	assert.Equal(t, 27, snap.Skipped())

	var records []entry.Record
	for rec, err := range snap.Records() {
		require.NoError(t, err)
		records = append(records, rec)
	}
	require.Len(t, records, 1)
	assert.Equal(t, "<2>", entry.Expand(records[0].Format))
}

func TestDump(t *testing.T) {
	w, r := newPair(t, 1024)
	registry := procmeta.NewManager()
	r.registry = registry

	w.LogFormat("x=%d by %p", testHash, 5)
	w.LogInteger(7)
	w.LogEnd()
	w.LogHash(3)

	var out bytes.Buffer
	require.NoError(t, r.DumpLatest(&out, 2))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  [1.500] 0001-2 x=<5> by <PID: 42, name: mixer>", lines[0])
	assert.Equal(t, "  [1.500] <7>", lines[1])
	assert.Equal(t, "   warning: got to end format event", lines[2])
	assert.Equal(t, "   warning: unexpected event 8", lines[3])

	md := registry.Get(42)
	require.NotNil(t, md)
	assert.Equal(t, "mixer", md.Name)
}

func TestDump_ReportsLoss(t *testing.T) {
	w, r := newPair(t, 64)
	w.LogFormat("%d", testHash, 1)
	w.LogFormat("%d", testHash, 2)

	var out bytes.Buffer
	require.NoError(t, r.DumpLatest(&out, 0))
	assert.Contains(t, out.String(), " warning: lost 37 bytes worth of events\n")
	assert.Contains(t, out.String(), "[1.500] 0001-2 <2>\n")
}

func TestDump_AuthorNames(t *testing.T) {
	tl, err := timeline.NewPrivate(256)
	require.NoError(t, err)
	r, err := New(tl, WithAuthorNames(func(i int) string { return []string{"a", "b"}[i] }))
	require.NoError(t, err)

	var rec []byte
	rec, _ = entry.AppendEncoded(rec, entry.FormatStart, []byte("hi"))
	rec, _ = entry.AppendEncoded(rec, entry.Timestamp, entry.AppendInt64(nil, 2_000_000_000))
	rec, _ = entry.AppendEncoded(rec, entry.Hash, entry.AppendUint64(nil, testHash))
	rec, _ = entry.AppendEncoded(rec, entry.Author, entry.AppendInt32(nil, 1))
	rec, _ = entry.AppendEncoded(rec, entry.FormatEnd, nil)
	tl.Append(rec)

	var out bytes.Buffer
	require.NoError(t, r.DumpLatest(&out, 0))
	assert.Equal(t, "[2.000] 0001-2 b: hi\n", out.String())
}

func TestDump_FeedsAnalysis(t *testing.T) {
	tl, err := timeline.NewPrivate(4096)
	require.NoError(t, err)
	now := int64(time.Second)
	w := writer.New(tl, writer.WithClock(func() int64 {
		now += int64(4 * time.Millisecond)
		return now
	}))
	r, err := New(tl)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		w.LogEventHistTS(entry.HistogramTS, testHash)
	}

	var out bytes.Buffer
	require.NoError(t, r.DumpLatest(&out, 0))
	assert.Contains(t, out.String(), "performance of local hash 0001-2")
	assert.Contains(t, out.String(), "Occurrences")

	assert.Equal(t, []AnalysisKey{{Author: -1, Hash: testHash}}, r.Analyses())
	assert.Len(t, r.Analysis(AnalysisKey{Author: -1, Hash: testHash}).RecentHistograms(), 1)
}

func TestDump_ToLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tl, err := timeline.NewPrivate(256)
	require.NoError(t, err)
	r, err := New(tl, WithLogger(zap.New(core)))
	require.NoError(t, err)

	writer.New(tl, writer.WithClock(func() int64 { return 0 })).Log("hello")

	require.NoError(t, r.DumpLatest(nil, 0))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, " hello", entries[0].Message)
}

func TestDump_WallClock(t *testing.T) {
	tl, err := timeline.NewPrivate(256)
	require.NoError(t, err)
	epoch := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, err := New(tl, WithWallClock(timesync.FixedConverter(epoch)))
	require.NoError(t, err)

	w := writer.New(tl, writer.WithClock(func() int64 { return 1_500_000_000 }))
	w.LogFormat("x=%d", testHash, 5)

	var out bytes.Buffer
	require.NoError(t, r.DumpLatest(&out, 0))
	assert.Equal(t, "[2026-03-01 12:00:01.500] 0001-2 x=<5>\n", out.String())
}

func TestWithReportHeight(t *testing.T) {
	tl, err := timeline.NewPrivate(64)
	require.NoError(t, err)

	r, err := New(tl, WithReportHeight(3))
	require.NoError(t, err)
	assert.Equal(t, 3, r.reportHeight)

	r, err = New(tl, WithReportHeight(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultReportHeight, r.reportHeight)
}
