package analysis

import (
	"fmt"
	"io"
	"math/bits"
	"strings"
	"time"
)

// ReportPerformance renders the long-term histograms, or the short-term
// ones before any roll-up has happened, as a text bar chart at most
// maxHeight rows tall, followed by the retained outliers. Bar heights are
// logarithmic: row r is filled when the bucket holds at least 2^(r*scale)
// samples. Nothing is written when there is no data.
func (p *PerformanceAnalysis) ReportPerformance(w io.Writer, maxHeight int) error {
	source := p.longTerm
	if len(source) == 0 {
		source = p.recent
	}
	hist := Histogram{}
	for _, th := range source {
		hist.Merge(th.Hist)
	}
	if len(hist) == 0 {
		return nil
	}
	if maxHeight < 1 {
		maxHeight = 1
	}

	keys := hist.Keys()
	maxCount := 0
	colWidth := 1
	for _, k := range keys {
		n := hist[k]
		if n > maxCount {
			maxCount = n
		}
		colWidth = max(colWidth, len(fmt.Sprint(n)), len(fmt.Sprint(k)))
	}
	colWidth++

	// Rows needed so the tallest bar fits at one doubling per row.
	height := bits.Len(uint(maxCount))
	scale := 1
	if height > maxHeight {
		scale = (height + maxHeight - 1) / maxHeight
		height = (height + scale - 1) / scale
	}

	const leftPadding = 12
	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s", leftPadding, "Occurrences")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%*d", colWidth, hist[k])
	}
	sb.WriteByte('\n')
	for row := height - 1; row >= 0; row-- {
		threshold := 1 << (row * scale)
		sb.WriteString(strings.Repeat(" ", leftPadding))
		for _, k := range keys {
			mark := " "
			if hist[k] >= threshold {
				mark = "|"
			}
			sb.WriteString(strings.Repeat(" ", colWidth-1))
			sb.WriteString(mark)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat(" ", leftPadding))
	sb.WriteString(strings.Repeat("_", colWidth*len(keys)))
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", leftPadding))
	for _, k := range keys {
		fmt.Fprintf(&sb, "%*d", colWidth, k)
	}
	sb.WriteString(" ms\n")
	if hist.Degenerate() {
		sb.WriteString("note: all samples fell in the 0 ms bucket; timestamps are not advancing\n")
	}

	if len(p.outliers) > 0 {
		sb.WriteString("\ntime elapsed between glitches and glitch timestamps\n")
		for _, rec := range p.outliers {
			fmt.Fprintf(&sb, "%d: %d\n", rec.ElapsedMs, rec.Timestamp)
		}
	}
	if len(p.peaks) > 0 {
		sb.WriteString("\npeak timestamps\n")
		for _, ts := range p.peaks {
			fmt.Fprintf(&sb, "%d\n", ts)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Summary condenses the inter-arrival distribution seen so far.
type Summary struct {
	Samples  int64
	Mean     time.Duration
	StdDev   time.Duration
	P50      time.Duration
	P90      time.Duration
	P99      time.Duration
	Max      time.Duration
	Rate     float64 // samples per second between the first and last sample
	Outliers int
	Peaks    int
}

// Summary returns percentile statistics over every processed interval.
func (p *PerformanceAnalysis) Summary() Summary {
	us := func(v float64) time.Duration { return time.Duration(v * float64(time.Microsecond)) }
	h := p.intervals
	s := Summary{
		Samples:  h.TotalCount(),
		Outliers: len(p.outliers),
		Peaks:    len(p.peaks),
	}
	if s.Samples == 0 {
		return s
	}
	s.Mean = us(h.Mean())
	s.StdDev = us(h.StdDev())
	s.P50 = us(float64(h.ValueAtQuantile(50)))
	s.P90 = us(float64(h.ValueAtQuantile(90)))
	s.P99 = us(float64(h.ValueAtQuantile(99)))
	s.Max = us(float64(h.Max()))
	s.Rate = Rate(s.Samples, time.Duration(p.lastTS-p.firstTS))
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("samples=%d mean=%v p50=%v p90=%v p99=%v max=%v rate=%.1f/s outliers=%d peaks=%d",
		s.Samples, s.Mean, s.P50, s.P90, s.P99, s.Max, s.Rate, s.Outliers, s.Peaks)
}
