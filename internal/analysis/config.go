package analysis

import "time"

// Config holds the analysis thresholds and bounds.
type Config struct {
	// PeriodMs is the expected wakeup period.
	PeriodMs int
	// OutlierMs is the inter-arrival time at or above which a sample is an
	// outlier.
	OutlierMs int
	// SeriesSize is the number of samples collected before a flush.
	SeriesSize int
	// RecentCapacity is the number of short-term histograms kept before
	// they are rolled into a long-term one.
	RecentCapacity int
	// LongTermCapacity bounds the long-term histogram deque.
	LongTermCapacity int
	// MaxHistTimespan bounds the time covered by one long-term histogram.
	MaxHistTimespan time.Duration
	// OutlierCapacity and PeakCapacity bound their deques.
	OutlierCapacity int
	PeakCapacity    int
	// StddevThreshold is the deviation, in standard deviations, that makes
	// an outlier spacing a peak.
	StddevThreshold float64
}

// DefaultConfig matches a 4 ms fast-mixer period.
func DefaultConfig() Config {
	return Config{
		PeriodMs:         4,
		OutlierMs:        7,
		SeriesSize:       50,
		RecentCapacity:   20,
		LongTermCapacity: 20,
		MaxHistTimespan:  5 * time.Second,
		OutlierCapacity:  100,
		PeakCapacity:     100,
		StddevThreshold:  5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PeriodMs <= 0 {
		c.PeriodMs = d.PeriodMs
	}
	if c.OutlierMs <= 0 {
		c.OutlierMs = d.OutlierMs
	}
	if c.SeriesSize <= 0 {
		c.SeriesSize = d.SeriesSize
	}
	if c.RecentCapacity <= 0 {
		c.RecentCapacity = d.RecentCapacity
	}
	if c.LongTermCapacity <= 0 {
		c.LongTermCapacity = d.LongTermCapacity
	}
	if c.MaxHistTimespan <= 0 {
		c.MaxHistTimespan = d.MaxHistTimespan
	}
	if c.OutlierCapacity <= 0 {
		c.OutlierCapacity = d.OutlierCapacity
	}
	if c.PeakCapacity <= 0 {
		c.PeakCapacity = d.PeakCapacity
	}
	if c.StddevThreshold <= 0 {
		c.StddevThreshold = d.StddevThreshold
	}
	return c
}
