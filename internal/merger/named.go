package merger

import "github.com/mrzor/nblog/internal/reader"

// MaxNameLength is the longest name kept for a NamedReader.
const MaxNameLength = 31

// NamedReader is a reader registered with a Merger under a short label.
type NamedReader struct {
	Reader *reader.Reader
	Name   string
}

// NewNamedReader labels r, truncating name to MaxNameLength bytes.
func NewNamedReader(r *reader.Reader, name string) NamedReader {
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return NamedReader{Reader: r, Name: name}
}
