package eventprocessor

import (
	"errors"
	"fmt"
	"iter"

	"github.com/mrzor/nblog/internal/entry"
)

// ErrOrphanEnd marks a FormatEnd seen without its FormatStart.
var ErrOrphanEnd = errors.New("format end without start")

// FormatHandler handles whole formatted records.
type FormatHandler interface {
	HandleFormat(rec entry.Record) error
}

// SampleHandler handles HistogramTS and AudioState entries.
type SampleHandler interface {
	HandleSample(kind entry.Kind, sample entry.HistTS, rec entry.Record) error
}

// EntryHandler handles entries that are not part of a formatted record.
type EntryHandler interface {
	HandleEntry(rec entry.Record) error
}

// FaultHandler handles records that could not be decoded or are out of
// place.
type FaultHandler interface {
	HandleFault(rec entry.Record, err error) error
}

// Handler is implemented by every record consumer.
type Handler interface {
	FormatHandler
	SampleHandler
	EntryHandler
	FaultHandler
}

// Processor dispatches records to a Handler.
type Processor struct {
	handler Handler
}

// NewProcessor creates a new record processor.
func NewProcessor(handler Handler) *Processor {
	return &Processor{handler: handler}
}

// Process routes every record. Handler errors do not stop the walk; they
// are joined and returned at the end.
func (p *Processor) Process(records iter.Seq2[entry.Record, error]) error {
	var errs []error
	for rec, err := range records {
		if herr := p.route(rec, err); herr != nil {
			errs = append(errs, fmt.Errorf("record at %d: %w", rec.Offset, herr))
		}
	}
	return errors.Join(errs...)
}

// route is the one place record kinds are switched on.
func (p *Processor) route(rec entry.Record, err error) error {
	if err != nil {
		return p.handler.HandleFault(rec, err)
	}
	switch rec.Entry.Kind {
	case entry.FormatStart:
		return p.handler.HandleFormat(rec)
	case entry.HistogramTS, entry.AudioState:
		sample, err := rec.Entry.HistTS()
		if err != nil {
			return p.handler.HandleFault(rec, err)
		}
		return p.handler.HandleSample(rec.Entry.Kind, sample, rec)
	case entry.FormatEnd:
		return p.handler.HandleFault(rec, ErrOrphanEnd)
	default:
		return p.handler.HandleEntry(rec)
	}
}
