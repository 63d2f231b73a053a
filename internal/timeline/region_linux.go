//go:build linux

package timeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Region is a file-backed shared mapping hosting one Timeline.
type Region struct {
	Path     string
	Timeline *Timeline

	file *os.File
	mem  []byte
}

// DefaultDir returns /dev/shm when present and the temp directory otherwise.
func DefaultDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func regionPath(dir, name string) string {
	if dir == "" {
		dir = DefaultDir()
	}
	return filepath.Join(dir, "nblog-"+name)
}

// CreateRegion creates and maps a new region able to hold size bytes of
// storage. It fails if a region with that name already exists.
func CreateRegion(dir, name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	path := regionPath(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create region file %s: %w", path, err)
	}

	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(path)
	}

	total := SharedSize(size)
	if err := file.Truncate(int64(total)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to size region file: %w", err)
	}

	r, err := mapRegion(file, path, total)
	if err != nil {
		cleanup()
		return nil, err
	}
	return r, nil
}

// OpenRegion maps an existing region. The storage capacity is derived from
// the file size.
func OpenRegion(dir, name string) (*Region, error) {
	path := regionPath(dir, name)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open region file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat region file: %w", err)
	}
	if info.Size() <= HeaderSize {
		_ = file.Close()
		return nil, fmt.Errorf("region file too small: %d bytes", info.Size())
	}

	r, err := mapRegion(file, path, int(info.Size()))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func mapRegion(file *os.File, path string, total int) (*Region, error) {
	mem, err := unix.Mmap(int(file.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap region: %w", err)
	}

	// Largest power of two that fits after the header.
	capacity := 1
	for capacity*2 <= total-HeaderSize {
		capacity *= 2
	}
	tl, err := New(mem, capacity)
	if err != nil {
		_ = unix.Munmap(mem)
		return nil, err
	}
	return &Region{Path: path, Timeline: tl, file: file, mem: mem}, nil
}

// Close unmaps the region and closes its file. The file is kept.
func (r *Region) Close() error {
	var errs []error
	if r.mem != nil {
		if err := unix.Munmap(r.mem); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}
		r.mem = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		r.file = nil
	}
	return errors.Join(errs...)
}

// Remove closes the region and deletes its backing file.
func (r *Region) Remove() error {
	return errors.Join(r.Close(), os.Remove(r.Path))
}
