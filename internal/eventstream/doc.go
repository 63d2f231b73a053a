// Package eventstream follows a timeline as it is written.
//
// A Stream takes a reader snapshot every interval and hands the non-empty
// ones to a SnapshotHandler. Stop performs one final poll so nothing
// written before it is missed.
package eventstream
