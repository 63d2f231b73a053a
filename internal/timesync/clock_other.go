//go:build !linux

package timesync

import "time"

var epoch = time.Now()

// Monotonic returns nanoseconds since process start. It is only comparable
// within one process.
func Monotonic() int64 {
	return int64(time.Since(epoch))
}
