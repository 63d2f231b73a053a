// Package merger combines several timelines into one.
//
// A Merger owns a list of NamedReaders and a Writer on its own timeline.
// Each Merge pass takes a snapshot of every reader and copies their
// records into the merged timeline in timestamp order, tagging each record
// with the index of the reader it came from:
//
//	reader 0: [10 a] [30 c]          ┐
//	                                 ├──► merged: [10 a/0] [20 b/1] [30 c/0] [40 d/1]
//	reader 1: [20 b] [40 d]          ┘
//
// Standalone entries are wrapped into one-argument formatted records so
// they keep a timestamp and an author. Bytes a reader lost to overrun are
// recorded in the merged stream as a loss marker record.
//
// MergeThread runs Merge periodically while there is activity and parks
// otherwise.
package merger
