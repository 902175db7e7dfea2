package util

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MappedSource is a read-only view of a source file.
//
// Files are memory-mapped when possible so large bundles under
// node_modules don't get copied onto the heap just to be scanned for JSX.
// Callers must copy anything they keep (string(data[a:b]) does) and call
// Close once the file has been processed.
type MappedSource struct {
	Path string
	Data []byte

	mapped mmap.MMap
	file   *os.File
}

// MapSource opens path and maps it read-only. If mmap is not available the
// file is read into memory instead; the returned value behaves the same.
func MapSource(path string) (*MappedSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%q is a directory", path)
	}

	// Zero-length files can't be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &MappedSource{Path: path, Data: []byte{}}, nil
	}

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				path, err, readErr)
		}
		return &MappedSource{Path: path, Data: data}, nil
	}

	return &MappedSource{
		Path:   path,
		Data:   mapped,
		mapped: mapped,
		file:   file,
	}, nil
}

// Mapped reports whether the data is backed by a memory mapping.
func (m *MappedSource) Mapped() bool {
	return m.mapped != nil
}

// Close unmaps the file and releases its descriptor. Safe to call twice.
func (m *MappedSource) Close() error {
	var firstErr error
	if m.mapped != nil {
		if err := m.mapped.Unmap(); err != nil {
			firstErr = fmt.Errorf("unmap %q: %w", m.Path, err)
		}
		m.mapped = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %q: %w", m.Path, err)
		}
		m.file = nil
	}
	m.Data = nil
	return firstErr
}
