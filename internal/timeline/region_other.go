//go:build !linux

package timeline

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("timeline: shared regions require linux")

// Region is unavailable on this platform; use NewPrivate.
type Region struct {
	Path     string
	Timeline *Timeline
}

func DefaultDir() string { return os.TempDir() }

func CreateRegion(dir, name string, size int) (*Region, error) { return nil, errUnsupported }

func OpenRegion(dir, name string) (*Region, error) { return nil, errUnsupported }

func (r *Region) Close() error { return nil }

func (r *Region) Remove() error { return errUnsupported }
