package analysis

import "math"

// runningStats is Welford's online mean and variance.
type runningStats struct {
	count   int
	mean, s float64
}

func (r *runningStats) add(v float64) {
	r.count++
	old := r.mean
	r.mean += (v - old) / float64(r.count)
	r.s += (v - old) * (v - r.mean)
}

func (r *runningStats) reset(v float64) {
	r.count, r.mean, r.s = 1, v, 0
}

func (r *runningStats) stddev() float64 {
	if r.count > 1 {
		return math.Sqrt(r.s / float64(r.count-1))
	}
	return 0
}

// DetectPeaks examines outliers added since the previous call. A spacing
// that departs from the running mean by more than StddevThreshold standard
// deviations is a peak; the estimate then restarts from that spacing. The
// first outlier ever seen marks the onset of outlier activity and is
// itself a peak.
func (p *PerformanceAnalysis) DetectPeaks() {
	if p.unscanned == 0 {
		return
	}
	var typical float64
	for _, rec := range p.outliers {
		typical += float64(rec.ElapsedMs)
	}
	typical /= float64(len(p.outliers))

	for _, rec := range p.outliers[len(p.outliers)-p.unscanned:] {
		v := float64(rec.ElapsedMs)
		if !p.seeded {
			p.dist.reset(v)
			p.seeded = true
			p.pushPeak(rec.Timestamp)
			continue
		}
		dev := math.Abs(v - p.dist.mean)
		sd := p.dist.stddev()
		var peak bool
		if p.dist.count < 2 || sd == 0 {
			peak = dev > 0 && dev >= typical
		} else {
			peak = dev > p.cfg.StddevThreshold*sd
		}
		if peak {
			p.pushPeak(rec.Timestamp)
			p.dist.reset(v)
		} else {
			p.dist.add(v)
		}
	}
	p.unscanned = 0
}

func (p *PerformanceAnalysis) pushPeak(ts int64) {
	p.peaks = append(p.peaks, ts)
	if len(p.peaks) > p.cfg.PeakCapacity {
		p.peaks = p.peaks[len(p.peaks)-p.cfg.PeakCapacity:]
	}
}

// Distribution returns the running estimate of outlier spacing.
func (p *PerformanceAnalysis) Distribution() (mean, stddev float64, n int) {
	return p.dist.mean, p.dist.stddev(), p.dist.count
}
