// Package entry implements the self-delimiting wire format shared by writers
// and readers of an event log.
//
// Every entry is framed as
//
//	┌──────────┬────────────┬──────────────────────┬────────────┐
//	│ kind (1) │ length (1) │ payload (length)     │ length (1) │
//	└──────────┴────────────┴──────────────────────┴────────────┘
//
// so a buffer can be walked forward (leading length) and backward
// (trailing length). Both copies of the length must agree; a mismatch marks
// a torn or overwritten region.
//
// A formatted record is a run of entries:
//
//	FormatStart(fmt) Timestamp Hash [Author] arg* FormatEnd
//
// Payload integers are little-endian. NextRecord is the only place that
// turns raw bytes into typed records; everything downstream switches on
// the returned Record.
package entry
