package procmeta

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/mrzor/nblog/internal/entry"
)

// commLen is the kernel's task name limit without the terminator.
const commLen = 15

// Identity is the pid and short name a writer tags its entries with.
type Identity struct {
	PID  int32
	Name string
}

// Payload returns the PID entry payload for id.
func (id Identity) Payload() []byte {
	return entry.AppendPIDPayload(nil, id.PID, id.Name)
}

// Self returns the identity of the calling process.
func Self() Identity {
	//nolint:gosec // pids fit in int32
	id := Identity{PID: int32(os.Getpid())}
	if raw, err := os.ReadFile("/proc/self/comm"); err == nil {
		id.Name = parseComm(raw)
	}
	if id.Name == "" && len(os.Args) > 0 {
		id.Name = parseComm([]byte(filepath.Base(os.Args[0])))
	}
	return id
}

// parseComm trims the trailing newline and applies the kernel length limit.
func parseComm(raw []byte) string {
	raw = bytes.TrimRight(raw, "\n\x00")
	if len(raw) > commLen {
		raw = raw[:commLen]
	}
	return string(raw)
}

// ProcessMetadata is what a reader has seen from one writer.
type ProcessMetadata struct {
	PID       int32
	Name      string
	FirstSeen int64 // monotonic ns of the first PID entry
	LastSeen  int64
	Entries   int
}
