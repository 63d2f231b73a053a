package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrzor/nblog/internal/analysis"
	"github.com/mrzor/nblog/internal/merger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveMerge(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	require.NoError(t, c.ObserveMerge(ctx, merger.Stats{Sources: 2, Records: 10, Duration: time.Millisecond}))
	require.NoError(t, c.ObserveMerge(ctx, merger.Stats{Sources: 3, Records: 5, Lost: 64, Skipped: 3, LossMarkers: 1, Faults: 2}))

	assert.InDelta(t, 2.0, testutil.ToFloat64(c.passes), 1e-9)
	assert.InDelta(t, 15.0, testutil.ToFloat64(c.records), 1e-9)
	assert.InDelta(t, 64.0, testutil.ToFloat64(c.lostBytes), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(c.skipped), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.lossMarkers), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(c.faults), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(c.sources), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(c.mergeDuration))

	assert.Equal(t, Totals{Passes: 2, Records: 15, Lost: 64}, c.Totals())
}

func TestCollector_ObserveSummary(t *testing.T) {
	c := NewCollector()
	c.ObserveSummary("mixer", analysis.Summary{P50: 4 * time.Millisecond, P99: 9 * time.Millisecond, Rate: 250, Peaks: 2})

	assert.InDelta(t, 0.004, testutil.ToFloat64(c.wakeupP50.WithLabelValues("mixer")), 1e-12)
	assert.InDelta(t, 0.009, testutil.ToFloat64(c.wakeupP99.WithLabelValues("mixer")), 1e-12)
	assert.InDelta(t, 250.0, testutil.ToFloat64(c.wakeupRate.WithLabelValues("mixer")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(c.peaks.WithLabelValues("mixer")), 1e-9)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.ObserveMerge(context.Background(), merger.Stats{Records: 7}))

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "nblog_merged_records_total 7")
	assert.True(t, strings.Contains(string(body), "nblog_merge_duration_seconds_bucket"))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	require.NoError(t, a.ObserveMerge(context.Background(), merger.Stats{Records: 1}))

	assert.InDelta(t, 1.0, testutil.ToFloat64(a.records), 1e-9)
	assert.Zero(t, testutil.ToFloat64(b.records))
}
