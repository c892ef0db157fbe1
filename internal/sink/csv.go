package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stairlog/agent/internal/fault"
)

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// CSV writes each destination to <dir>/<collection>/<base>.csv. Files are
// opened in append mode on first use and kept open; every record is flushed
// before Append returns.
type CSV struct {
	dir string

	mu    sync.Mutex
	files map[Destination]*csvFile
}

// NewCSV returns a CSV sink rooted at dir. Nothing is created until the
// first Append.
func NewCSV(dir string) *CSV {
	return &CSV{
		dir:   dir,
		files: make(map[Destination]*csvFile),
	}
}

// Path returns the file a destination is written to.
func (c *CSV) Path(dest Destination) string {
	return filepath.Join(c.dir, dest.Collection, dest.Base+".csv")
}

// Append writes one record. On failure the handle is dropped so the next
// Append reopens the file.
func (c *CSV) Append(dest Destination, s Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cf, err := c.openLocked(dest)
	if err != nil {
		return fault.New(fault.SinkWrite, "open "+dest.Key(), err)
	}

	err = cf.w.Write(s.Record())
	if err == nil {
		cf.w.Flush()
		err = cf.w.Error()
	}
	if err != nil {
		cf.f.Close()
		delete(c.files, dest)
		return fault.New(fault.SinkWrite, "append "+dest.Key(), err)
	}
	return nil
}

// openLocked returns the cached handle for dest, creating the directory and
// file if needed. Caller must hold c.mu.
func (c *CSV) openLocked(dest Destination) (*csvFile, error) {
	if cf, ok := c.files[dest]; ok {
		return cf, nil
	}
	path := c.Path(dest)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	w.UseCRLF = true
	cf := &csvFile{f: f, w: w}
	c.files[dest] = cf
	return cf, nil
}

// Close closes every open file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for dest, cf := range c.files {
		cf.w.Flush()
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", dest.Key(), err)
		}
		delete(c.files, dest)
	}
	return firstErr
}
