package entry

import (
	"fmt"
	"strings"
)

// AppendTimestamp renders ts as [seconds.milliseconds].
func AppendTimestamp(sb *strings.Builder, ts int64) {
	fmt.Fprintf(sb, "[%d.%03d]", ts/1e9, (ts/1e6)%1000)
}

// AppendHash renders the upper and lower halves of the low 32 bits of h,
// which for HashOf values is a file tag and a line number.
func AppendHash(sb *strings.Builder, h uint64) {
	fmt.Fprintf(sb, "%04X-%d", (h>>16)&0xFFFF, h&0xFFFF)
}

func AppendInt(sb *strings.Builder, v int32) {
	fmt.Fprintf(sb, "<%d>", v)
}

func AppendFloat(sb *strings.Builder, v float32) {
	fmt.Fprintf(sb, "<%f>", v)
}

func AppendPID(sb *strings.Builder, pid int32, name string) {
	fmt.Fprintf(sb, "<PID: %d, name: %s>", pid, name)
}

// BufferDump renders raw bytes as "[ 1 2 3 ]" for diagnostics.
func BufferDump(data []byte) string {
	var sb strings.Builder
	sb.WriteString("[ ")
	for _, b := range data {
		fmt.Fprintf(&sb, "%d ", b)
	}
	sb.WriteString("]")
	return sb.String()
}

// Expand renders a formatted record's body: the format string with each
// specifier replaced by its argument. A specifier whose argument is missing
// or of the wrong kind renders as a placeholder and leaves the argument in
// place.
func Expand(f FormatEntry) string {
	var sb strings.Builder
	args := f.Args()
	pending, ok := args.Next()
	format := f.Format
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		spec := format[i]
		if spec == '%' {
			sb.WriteByte('%')
			continue
		}
		want, known := specKinds[spec]
		if !known {
			sb.WriteByte('%')
			sb.WriteByte(spec)
			continue
		}
		if !ok || pending.Kind != want {
			fmt.Fprintf(&sb, "<%%%c?>", spec)
			continue
		}
		appendArg(&sb, pending)
		pending, ok = args.Next()
	}
	return sb.String()
}

var specKinds = map[byte]Kind{
	's': String,
	't': Timestamp,
	'd': Integer,
	'f': Float,
	'p': PID,
}

// SpecifierFor returns the single-argument format string for a standalone
// entry kind, or false if the kind cannot be wrapped.
func SpecifierFor(k Kind) (string, bool) {
	switch k {
	case String:
		return "%s", true
	case Timestamp:
		return "%t", true
	case Integer:
		return "%d", true
	case Float:
		return "%f", true
	case PID:
		return "%p", true
	}
	return "", false
}

func appendArg(sb *strings.Builder, e Entry) {
	switch e.Kind {
	case String:
		sb.Write(e.Payload)
	case Timestamp:
		if ts, err := e.Int64(); err == nil {
			AppendTimestamp(sb, ts)
		}
	case Integer:
		if v, err := e.Int32(); err == nil {
			AppendInt(sb, v)
		}
	case Float:
		if v, err := e.Float32(); err == nil {
			AppendFloat(sb, v)
		}
	case PID:
		if pid, name, err := e.ProcessID(); err == nil {
			AppendPID(sb, pid, name)
		}
	}
}

// Describe renders a standalone entry the way it would appear as a format
// argument.
func Describe(e Entry) string {
	var sb strings.Builder
	appendArg(&sb, e)
	return sb.String()
}
