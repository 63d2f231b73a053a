// Package writer appends entries to a timeline without blocking.
//
// A Writer is owned by a single goroutine. Every call encodes one or more
// entries and appends them; there is no error path, and a disabled writer
// (or one without a timeline) turns every call into a no-op. Oversized or
// invalid entries are dropped silently, strings and format strings are cut
// to fit one entry.
//
// LockedWriter serialises the same API behind a mutex for writers shared
// between goroutines. Readers never take that lock.
package writer
