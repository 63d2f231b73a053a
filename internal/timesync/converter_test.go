package timesync

import (
	"testing"
	"time"
)

func TestConverter_MonotonicToWallClock(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := FixedConverter(epoch)

	tests := []struct {
		name string
		ts   int64
		want time.Time
	}{
		{"zero", 0, epoch},
		{"one second", 1_000_000_000, epoch.Add(time.Second)},
		{"sub-millisecond", 1_500_250, epoch.Add(1500250 * time.Nanosecond)},
		{"one day", 86_400_000_000_000, epoch.Add(24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.MonotonicToWallClock(tt.ts); !got.Equal(tt.want) {
				t.Errorf("MonotonicToWallClock(%d) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}

	if !c.BootTime().Equal(epoch) {
		t.Errorf("BootTime() = %v, want %v", c.BootTime(), epoch)
	}
}

func TestConverter_Label(t *testing.T) {
	c := FixedConverter(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if got, want := c.Label(2_345_000_000), "[2026-03-01 12:00:02.345]"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestNewConverter(t *testing.T) {
	before := time.Now()
	c, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	if c.BootTime().After(before) {
		t.Errorf("BootTime() = %v is after %v", c.BootTime(), before)
	}

	// A fresh stamp must convert to roughly now.
	now := c.MonotonicToWallClock(Monotonic())
	if d := time.Since(now); d < -time.Second || d > time.Second {
		t.Errorf("fresh stamp converts to %v, %v away from now", now, d)
	}
}

func TestMonotonic_Advances(t *testing.T) {
	a := Monotonic()
	time.Sleep(time.Millisecond)
	b := Monotonic()
	if b <= a {
		t.Errorf("Monotonic() did not advance: %d then %d", a, b)
	}
}
