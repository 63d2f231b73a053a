package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mrzor/nblog/internal/entry"
	"github.com/mrzor/nblog/internal/eventprocessor"
)

// DefaultReportHeight is the bar chart height used by Dump unless
// WithReportHeight says otherwise.
const DefaultReportHeight = 10

// Dump renders snap as text lines on w, or through the logger when w is
// nil. Histogram samples are fed to the per-source analyses, whose reports
// follow the records when the snapshot carried any samples.
func (r *Reader) Dump(w io.Writer, indent int, snap *Snapshot) error {
	d := &dumper{r: r, w: w, indent: indent, snap: snap}
	if lost := snap.Lost() + uint64(snap.Skipped()); lost > 0 {
		d.line("", fmt.Sprintf("warning: lost %d bytes worth of events", lost))
	}
	if err := eventprocessor.NewProcessor(d).Process(snap.Records()); err != nil {
		return err
	}
	for _, key := range d.sampled {
		var report bytes.Buffer
		if err := r.Analysis(key).ReportPerformance(&report, r.reportHeight); err != nil {
			return err
		}
		if report.Len() == 0 {
			continue
		}
		d.line("", fmt.Sprintf("performance of %s hash %s", d.authorLabel(key.Author), hashLabel(key.Hash)))
		for _, l := range strings.Split(strings.TrimRight(report.String(), "\n"), "\n") {
			d.line("", l)
		}
	}
	return d.err
}

// DumpLatest takes a snapshot and dumps it.
func (r *Reader) DumpLatest(w io.Writer, indent int) error {
	return r.Dump(w, indent, r.Snapshot())
}

func hashLabel(h uint64) string {
	var sb strings.Builder
	entry.AppendHash(&sb, h)
	return sb.String()
}

// dumper renders one snapshot.
type dumper struct {
	r      *Reader
	w      io.Writer
	indent int
	snap   *Snapshot

	sampled []AnalysisKey
	err     error
}

var _ eventprocessor.Handler = (*dumper)(nil)

func (d *dumper) line(timestamp, body string) {
	text := fmt.Sprintf("%*s%s %s", d.indent, "", timestamp, body)
	if d.w == nil {
		d.r.logger.Info(text)
		return
	}
	if _, err := io.WriteString(d.w, text+"\n"); err != nil && d.err == nil {
		d.err = err
	}
}

func (d *dumper) timestampLabel(ts int64) string {
	if d.r.clock != nil {
		return d.r.clock.Label(ts)
	}
	var sb strings.Builder
	entry.AppendTimestamp(&sb, ts)
	return sb.String()
}

func (d *dumper) authorLabel(author int32) string {
	if author < 0 {
		return "local"
	}
	if d.r.authorName != nil {
		return d.r.authorName(int(author))
	}
	return fmt.Sprintf("author %d", author)
}

func (d *dumper) observe(e entry.Entry, ts int64) {
	if d.r.registry == nil || e.Kind != entry.PID {
		return
	}
	if pid, name, err := e.ProcessID(); err == nil {
		d.r.registry.Observe(pid, name, ts)
	}
}

func (d *dumper) HandleFormat(rec entry.Record) error {
	f := rec.Format
	var body strings.Builder
	entry.AppendHash(&body, f.Hash)
	body.WriteByte(' ')
	if f.Author >= 0 {
		body.WriteString(d.authorLabel(f.Author))
		body.WriteString(": ")
	}
	body.WriteString(entry.Expand(f))

	args := f.Args()
	for e, ok := args.Next(); ok; e, ok = args.Next() {
		d.observe(e, f.TS)
	}
	d.line(d.timestampLabel(f.TS), body.String())
	return nil
}

func (d *dumper) HandleSample(kind entry.Kind, sample entry.HistTS, _ entry.Record) error {
	key := AnalysisKey{Author: sample.Author, Hash: sample.Hash}
	a := d.r.Analysis(key)
	if kind == entry.AudioState {
		a.HandleStateChange()
		return nil
	}
	a.LogTsEntry(sample.TS)
	for _, k := range d.sampled {
		if k == key {
			return nil
		}
	}
	d.sampled = append(d.sampled, key)
	return nil
}

func (d *dumper) HandleEntry(rec entry.Record) error {
	e := rec.Entry
	switch e.Kind {
	case entry.Timestamp:
		ts, err := e.Int64()
		if err != nil {
			return d.HandleFault(rec, err)
		}
		d.line(d.timestampLabel(ts), "timestamp")
	case entry.String, entry.Integer, entry.Float, entry.PID:
		ts, ok := d.snap.LastTimestampBefore(rec.Offset)
		label := ""
		if ok {
			label = d.timestampLabel(ts)
		}
		d.observe(e, ts)
		d.line(label, entry.Describe(e))
	default:
		return d.HandleFault(rec, fmt.Errorf("%w: %d", entry.ErrInvalidKind, e.Kind))
	}
	return nil
}

func (d *dumper) HandleFault(rec entry.Record, err error) error {
	switch {
	case errors.Is(err, eventprocessor.ErrOrphanEnd):
		d.line("", "warning: got to end format event")
	case errors.Is(err, entry.ErrInvalidKind):
		d.line("", fmt.Sprintf("warning: unexpected event %d", rec.Entry.Kind))
	default:
		d.line("", fmt.Sprintf("warning: unreadable entry at %d: %v", rec.Offset, err))
	}
	return nil
}
