// Package timesync provides the clock event logs are stamped with and the
// conversion of those stamps to wall-clock time.
//
// Log timestamps are CLOCK_MONOTONIC nanoseconds on Linux, comparable across
// every process on the host. Converter pins monotonic zero to a wall-clock
// instant by sampling both clocks.
package timesync
