package timesync

import (
	"errors"
	"time"
)

// LabelLayout is the layout of wall-clock timestamp labels.
const LabelLayout = "[2006-01-02 15:04:05.000]"

var errNoClock = errors.New("timesync: monotonic clock unavailable")

// Converter maps log timestamps to wall-clock time.
type Converter struct {
	epoch time.Time
}

// NewConverter samples the monotonic and wall clocks together. Stamps
// taken before a system suspend convert to times that are early by the
// length of the suspend.
func NewConverter() (*Converter, error) {
	mono := Monotonic()
	if mono <= 0 {
		return nil, errNoClock
	}
	return &Converter{epoch: time.Now().Add(-time.Duration(mono))}, nil
}

// FixedConverter returns a converter whose monotonic zero is epoch.
func FixedConverter(epoch time.Time) *Converter {
	return &Converter{epoch: epoch}
}

// MonotonicToWallClock converts a log timestamp to wall-clock time.
func (c *Converter) MonotonicToWallClock(ts int64) time.Time {
	return c.epoch.Add(time.Duration(ts))
}

// BootTime returns the wall-clock time of monotonic zero.
func (c *Converter) BootTime() time.Time {
	return c.epoch
}

// Label renders ts with LabelLayout in the epoch's location.
func (c *Converter) Label(ts int64) string {
	return c.MonotonicToWallClock(ts).Format(LabelLayout)
}
