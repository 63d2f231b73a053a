// Package reader consumes a timeline.
//
// A Reader remembers how far it has read. Snapshot copies everything
// written since, aligns the copy to entry boundaries and advances the
// cursor, so consecutive snapshots never overlap:
//
//	data:  [ torn | orphan tail | whole records ......... | open record ]
//	                ^skipped     ^Begin                    ^End
//
// Bytes overwritten before they could be copied are reported as Lost.
// Bytes at the front that belong to a record whose start was overwritten
// are reported as Skipped. A trailing record without its FormatEnd is left
// for the next snapshot.
//
// Dump renders a snapshot as text lines and feeds histogram samples into
// per-source performance analyses.
package reader
