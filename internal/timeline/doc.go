// Package timeline implements the fixed-capacity circular byte buffer that
// writers append entries to and readers snapshot.
//
// Region layout:
//
//	┌──────────────────────────┬───────────────────────────────────────┐
//	│ header (64 bytes)        │ storage (capacity bytes, power of 2)  │
//	│  rear uint64 + padding   │                                       │
//	└──────────────────────────┴───────────────────────────────────────┘
//
// rear counts every byte ever appended and only grows. Writers copy the
// bytes first and publish the new rear second, so a reader that loads rear
// never sees a position whose bytes have not been written. A writer never
// waits for readers: when it laps them, the oldest bytes are overwritten
// and readers account for the difference as loss.
//
// The region may live in ordinary memory (NewPrivate) or in a file mapped
// MAP_SHARED into several processes (CreateRegion, OpenRegion).
package timeline
