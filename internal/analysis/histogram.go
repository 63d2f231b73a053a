package analysis

import (
	"sort"
	"time"
)

// Histogram maps an inter-arrival time in milliseconds to its number of
// occurrences.
type Histogram map[int]int

func (h Histogram) Add(ms int) {
	h[ms]++
}

// Merge adds every bucket of o into h.
func (h Histogram) Merge(o Histogram) {
	for ms, n := range o {
		h[ms] += n
	}
}

func (h Histogram) Count(ms int) int {
	return h[ms]
}

func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Degenerate reports whether every sample landed in bucket 0, meaning the
// timestamps did not advance at millisecond resolution.
func (h Histogram) Degenerate() bool {
	return len(h) == 1 && h[0] > 0
}

// Keys returns the bucket keys in ascending order.
func (h Histogram) Keys() []int {
	keys := make([]int, 0, len(h))
	for ms := range h {
		keys = append(keys, ms)
	}
	sort.Ints(keys)
	return keys
}

// TimedHistogram is a histogram tagged with the timestamp of its first
// sample.
type TimedHistogram struct {
	Start int64
	Hist  Histogram
}

// OutlierRecord describes one late wakeup.
type OutlierRecord struct {
	// ElapsedMs is the time since the previous outlier, including this
	// outlier's own gap.
	ElapsedMs int64
	// Timestamp is the late sample.
	Timestamp int64
}

// Rate returns count per second over d, or 0 when d is not positive.
func Rate(count int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(count) / d.Seconds()
}
