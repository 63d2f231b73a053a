package analysis

import (
	"github.com/HdrHistogram/hdrhistogram-go"
)

// maxIntervalUs bounds the percentile histogram at one minute.
const maxIntervalUs = 60 * 1000 * 1000

// PerformanceAnalysis accumulates timing statistics for one stream of
// wakeup timestamps.
type PerformanceAnalysis struct {
	cfg Config

	series  []int64
	prevTS  int64
	hasPrev bool

	recent   []TimedHistogram
	longTerm []TimedHistogram

	outliers       []OutlierRecord
	unscanned      int
	outlierPrev    int64
	outlierHasPrev bool
	outlierElapsed int64

	peaks  []int64
	dist   runningStats
	seeded bool

	intervals *hdrhistogram.Histogram
	firstTS   int64
	lastTS    int64
}

// New returns an analysis using cfg; zero fields take their defaults.
func New(cfg Config) *PerformanceAnalysis {
	cfg = cfg.withDefaults()
	return &PerformanceAnalysis{
		cfg:       cfg,
		series:    make([]int64, 0, cfg.SeriesSize),
		intervals: hdrhistogram.New(1, maxIntervalUs, 3),
	}
}

// Config returns the effective configuration.
func (p *PerformanceAnalysis) Config() Config {
	return p.cfg
}

func deltaMs(from, to int64) int64 {
	return (to - from) / 1e6
}

// LogTsEntry records one wakeup timestamp.
func (p *PerformanceAnalysis) LogTsEntry(ts int64) {
	p.series = append(p.series, ts)
	if len(p.series) >= p.cfg.SeriesSize {
		p.ProcessAndFlushTimeStampSeries()
	}
}

// HandleStateChange discards the pending series. The next sample starts a
// new run with no predecessor.
func (p *PerformanceAnalysis) HandleStateChange() {
	p.series = p.series[:0]
	p.hasPrev = false
	p.outlierHasPrev = false
	p.outlierElapsed = 0
}

// ProcessAndFlushTimeStampSeries folds the pending series into outliers,
// peaks and a short-term histogram, then clears it.
func (p *PerformanceAnalysis) ProcessAndFlushTimeStampSeries() {
	if len(p.series) == 0 {
		return
	}
	p.StoreOutlierData(p.series)
	p.DetectPeaks()

	hist := Histogram{}
	for _, ts := range p.series {
		if p.hasPrev {
			d := ts - p.prevTS
			hist.Add(int(deltaMs(p.prevTS, ts)))
			us := d / 1e3
			if us < 1 {
				us = 1
			}
			// Values past the range are dropped.
			_ = p.intervals.RecordValue(us)
		} else if p.firstTS == 0 {
			p.firstTS = ts
		}
		p.prevTS = ts
		p.hasPrev = true
		p.lastTS = ts
	}
	if len(hist) > 0 {
		p.recent = append(p.recent, TimedHistogram{Start: p.series[0], Hist: hist})
	}
	p.series = p.series[:0]

	if len(p.recent) >= p.cfg.RecentCapacity {
		p.ProcessAndFlushRecentHists()
	}
}

// StoreOutlierData scans series for inter-arrival times at or above the
// outlier threshold.
func (p *PerformanceAnalysis) StoreOutlierData(series []int64) {
	for _, ts := range series {
		if !p.outlierHasPrev {
			p.outlierPrev = ts
			p.outlierHasPrev = true
			continue
		}
		d := deltaMs(p.outlierPrev, ts)
		p.outlierElapsed += d
		if d >= int64(p.cfg.OutlierMs) {
			p.pushOutlier(OutlierRecord{ElapsedMs: p.outlierElapsed, Timestamp: ts})
			p.outlierElapsed = 0
		}
		p.outlierPrev = ts
	}
}

func (p *PerformanceAnalysis) pushOutlier(rec OutlierRecord) {
	p.outliers = append(p.outliers, rec)
	if len(p.outliers) > p.cfg.OutlierCapacity {
		p.outliers = p.outliers[len(p.outliers)-p.cfg.OutlierCapacity:]
	}
	if p.unscanned < len(p.outliers) {
		p.unscanned++
	}
}

// ProcessAndFlushRecentHists rolls the short-term histograms into
// long-term ones, starting a new long-term histogram whenever the span
// since its first sample would exceed MaxHistTimespan.
func (p *PerformanceAnalysis) ProcessAndFlushRecentHists() {
	if len(p.recent) == 0 {
		return
	}
	span := p.cfg.MaxHistTimespan.Nanoseconds()
	current := TimedHistogram{Start: p.recent[0].Start, Hist: Histogram{}}
	for _, th := range p.recent {
		if th.Start-current.Start > span && len(current.Hist) > 0 {
			p.pushLongTerm(current)
			current = TimedHistogram{Start: th.Start, Hist: Histogram{}}
		}
		current.Hist.Merge(th.Hist)
	}
	p.pushLongTerm(current)
	p.recent = p.recent[:0]
}

func (p *PerformanceAnalysis) pushLongTerm(th TimedHistogram) {
	p.longTerm = append(p.longTerm, th)
	if len(p.longTerm) > p.cfg.LongTermCapacity {
		p.longTerm = p.longTerm[len(p.longTerm)-p.cfg.LongTermCapacity:]
	}
}

// Outliers returns the retained outliers, oldest first.
func (p *PerformanceAnalysis) Outliers() []OutlierRecord {
	return append([]OutlierRecord(nil), p.outliers...)
}

// Peaks returns the retained peak timestamps, oldest first.
func (p *PerformanceAnalysis) Peaks() []int64 {
	return append([]int64(nil), p.peaks...)
}

func (p *PerformanceAnalysis) RecentHistograms() []TimedHistogram {
	return append([]TimedHistogram(nil), p.recent...)
}

func (p *PerformanceAnalysis) LongTermHistograms() []TimedHistogram {
	return append([]TimedHistogram(nil), p.longTerm...)
}
