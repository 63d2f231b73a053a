package merger

import (
	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/eventprocessor"
)

type pendingKind int

const (
	pendingFormat pendingKind = iota
	pendingSample
	pendingWrapped
	pendingLoss
)

// pending is one record waiting to be copied into the merged timeline.
type pending struct {
	kind pendingKind
	ts   int64
	rec  entry.Record

	sampleKind entry.Kind
	sample     entry.HistTS
	spec       string
	lost       uint64
}

// source collects the records of one snapshot in write order.
type source struct {
	items  []pending
	lastTS int64
	faults int
}

var _ eventprocessor.Handler = (*source)(nil)

func (s *source) HandleFormat(rec entry.Record) error {
	ts := s.lastTS
	if rec.Format.HasTS {
		ts = rec.Format.TS
		s.lastTS = ts
	}
	s.items = append(s.items, pending{kind: pendingFormat, ts: ts, rec: rec})
	return nil
}

func (s *source) HandleSample(kind entry.Kind, sample entry.HistTS, rec entry.Record) error {
	s.lastTS = sample.TS
	s.items = append(s.items, pending{kind: pendingSample, ts: sample.TS, rec: rec, sampleKind: kind, sample: sample})
	return nil
}

func (s *source) HandleEntry(rec entry.Record) error {
	e := rec.Entry
	if e.Kind == entry.Timestamp {
		ts, err := e.Int64()
		if err != nil {
			return s.HandleFault(rec, err)
		}
		s.lastTS = ts
	}
	spec, ok := entry.SpecifierFor(e.Kind)
	if !ok {
		// Hash and Author carry no meaning outside a formatted record.
		return nil
	}
	s.items = append(s.items, pending{kind: pendingWrapped, ts: s.lastTS, rec: rec, spec: spec})
	return nil
}

func (s *source) HandleFault(entry.Record, error) error {
	s.faults++
	return nil
}
