package analysis

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	base = int64(1_000_000_000)
	ms   = int64(time.Millisecond)
)

// series returns n timestamps where interval j (between sample j-1 and j)
// is given by interval(j).
func series(n int, interval func(j int) int64) []int64 {
	out := make([]int64, n)
	out[0] = base
	for j := 1; j < n; j++ {
		out[j] = out[j-1] + interval(j)
	}
	return out
}

func constant(d int64) func(int) int64 {
	return func(int) int64 { return d }
}

func feed(p *PerformanceAnalysis, ts []int64) {
	for _, t := range ts {
		p.LogTsEntry(t)
	}
}

func TestHistogram_Merge(t *testing.T) {
	a := Histogram{4: 10, 5: 2}
	b := Histogram{4: 3, 9: 1}

	a.Merge(b)
	assert.Equal(t, 13, a.Count(4))
	assert.Equal(t, 2, a.Count(5))
	assert.Equal(t, 1, a.Count(9))
	assert.Equal(t, 16, a.Total())
	assert.Equal(t, []int{4, 5, 9}, a.Keys())

	c := Histogram{4: 1}
	c.Merge(Histogram{})
	assert.Equal(t, Histogram{4: 1}, c)
}

func TestHistogram_Degenerate(t *testing.T) {
	assert.True(t, Histogram{0: 5}.Degenerate())
	assert.False(t, Histogram{0: 5, 1: 1}.Degenerate())
	assert.False(t, Histogram{}.Degenerate())
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(100, 0))
	assert.Equal(t, 0.0, Rate(100, -time.Second))
	assert.InDelta(t, 50.0, Rate(100, 2*time.Second), 1e-9)
}

func TestConstantSeries_NoPeaks(t *testing.T) {
	p := New(DefaultConfig())
	feed(p, series(500, constant(4*ms)))

	assert.Empty(t, p.Outliers())
	assert.Empty(t, p.Peaks())

	total := Histogram{}
	for _, th := range p.RecentHistograms() {
		total.Merge(th.Hist)
	}
	for _, th := range p.LongTermHistograms() {
		total.Merge(th.Hist)
	}
	assert.Equal(t, Histogram{4: 499}, total)

	_, _, n := p.Distribution()
	assert.Zero(t, n)
}

func TestInjectedGlitch_IsPeak(t *testing.T) {
	p := New(DefaultConfig())
	ts := series(500, func(j int) int64 {
		if j == 250 {
			return 40 * ms
		}
		return 4 * ms
	})

	meanBefore, _, nBefore := p.Distribution()
	feed(p, ts)

	outliers := p.Outliers()
	require.Len(t, outliers, 1)
	assert.Equal(t, OutlierRecord{ElapsedMs: 249*4 + 40, Timestamp: ts[250]}, outliers[0])

	assert.Equal(t, []int64{ts[250]}, p.Peaks())

	meanAfter, _, nAfter := p.Distribution()
	assert.NotEqual(t, meanBefore, meanAfter)
	assert.NotEqual(t, nBefore, nAfter)
}

func TestRegularGlitches_OnlyOnset(t *testing.T) {
	p := New(DefaultConfig())
	feed(p, series(500, func(j int) int64 {
		if j%100 == 0 {
			return 40 * ms
		}
		return 4 * ms
	}))

	assert.Len(t, p.Outliers(), 4)
	assert.Len(t, p.Peaks(), 1)

	mean, sd, n := p.Distribution()
	assert.Equal(t, 4, n)
	assert.InDelta(t, 99*4+40, mean, 1e-9)
	assert.Zero(t, sd)
}

func TestHandleStateChange_DropsIdleGap(t *testing.T) {
	p := New(DefaultConfig())
	feed(p, series(60, constant(4*ms)))
	p.HandleStateChange()

	resumed := series(50, constant(4*ms))
	for i := range resumed {
		resumed[i] += 5 * int64(time.Second)
	}
	feed(p, resumed)

	assert.Empty(t, p.Outliers())
	total := Histogram{}
	for _, th := range p.RecentHistograms() {
		total.Merge(th.Hist)
	}
	assert.Equal(t, []int{4}, total.Keys())
	assert.Equal(t, 49+49, total.Total())
}

func TestStoreOutlierData_Capacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutlierCapacity = 3
	p := New(cfg)

	ts := series(6, constant(10*ms))
	p.StoreOutlierData(ts)

	outliers := p.Outliers()
	require.Len(t, outliers, 3)
	assert.Equal(t, ts[3], outliers[0].Timestamp)
	assert.Equal(t, ts[5], outliers[2].Timestamp)
	assert.Equal(t, int64(10), outliers[2].ElapsedMs)
}

func TestProcessAndFlushRecentHists_SplitsBySpan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RecentCapacity = 100
	cfg.MaxHistTimespan = time.Second
	p := New(cfg)

	feed(p, series(2000, constant(4*ms)))
	require.Len(t, p.RecentHistograms(), 40)

	p.ProcessAndFlushRecentHists()
	assert.Empty(t, p.RecentHistograms())

	long := p.LongTermHistograms()
	require.Len(t, long, 7)
	total := 0
	for i, th := range long {
		total += th.Hist.Total()
		if i > 0 {
			assert.Greater(t, th.Start-long[i-1].Start, int64(time.Second))
		}
	}
	assert.Equal(t, 1999, total)
}

func TestLongTermCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeriesSize = 10
	cfg.RecentCapacity = 1
	cfg.LongTermCapacity = 2
	p := New(cfg)

	feed(p, series(100, constant(4*ms)))
	assert.Len(t, p.LongTermHistograms(), 2)
}

func TestReportPerformance(t *testing.T) {
	p := New(DefaultConfig())

	var empty bytes.Buffer
	require.NoError(t, p.ReportPerformance(&empty, 10))
	assert.Empty(t, empty.String())

	feed(p, series(500, func(j int) int64 {
		if j == 250 {
			return 40 * ms
		}
		return 4 * ms
	}))

	var out bytes.Buffer
	require.NoError(t, p.ReportPerformance(&out, 4))
	report := out.String()
	assert.Contains(t, report, "Occurrences")
	assert.Contains(t, report, " ms\n")
	assert.Contains(t, report, "|")
	assert.Contains(t, report, "time elapsed between glitches and glitch timestamps")
	assert.Contains(t, report, "1036: ")
	assert.Contains(t, report, "peak timestamps")
}

func TestReportPerformance_Degenerate(t *testing.T) {
	p := New(DefaultConfig())
	feed(p, series(50, constant(100)))

	var out bytes.Buffer
	require.NoError(t, p.ReportPerformance(&out, 10))
	assert.Contains(t, out.String(), "0 ms bucket")
}

func TestSummary(t *testing.T) {
	p := New(DefaultConfig())
	assert.Zero(t, p.Summary().Samples)

	feed(p, series(500, constant(4*ms)))
	s := p.Summary()
	assert.Equal(t, int64(499), s.Samples)
	assert.InDelta(t, float64(4*time.Millisecond), float64(s.P50), float64(10*time.Microsecond))
	assert.InDelta(t, 250.0, s.Rate, 1.0)
	assert.Contains(t, s.String(), "samples=499")
}

func TestHandleStateChange_ResetsOutlierSpacing(t *testing.T) {
	p := New(DefaultConfig())
	feed(p, series(60, constant(4*ms)))
	p.HandleStateChange()

	resumed := series(50, func(j int) int64 {
		if j == 20 {
			return 10 * ms
		}
		return 4 * ms
	})
	for i := range resumed {
		resumed[i] += 5 * int64(time.Second)
	}
	feed(p, resumed)

	outliers := p.Outliers()
	require.Len(t, outliers, 1)
	assert.Equal(t, int64(19*4+10), outliers[0].ElapsedMs)
	assert.Equal(t, resumed[20], outliers[0].Timestamp)
}
