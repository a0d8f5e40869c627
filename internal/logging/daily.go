package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFile is a write syncer that appends to log-YYYY-MM-DD.txt and switches
// files when the date changes
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	day  string
	file *os.File
}

// OpenDaily creates dir if needed and opens today's file
func OpenDaily(dir string, now func() time.Time) (*DailyFile, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	d := &DailyFile{dir: dir, now: now}
	if err := d.rotate(d.now().Format(time.DateOnly)); err != nil {
		return nil, err
	}
	return d, nil
}

// FileName returns the log file name for the given day
func FileName(t time.Time) string {
	return "log-" + t.Format(time.DateOnly) + ".txt"
}

func (d *DailyFile) rotate(day string) error {
	path := filepath.Join(d.dir, "log-"+day+".txt")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if d.file != nil {
		d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if day := d.now().Format(time.DateOnly); day != d.day || d.file == nil {
		if err := d.rotate(day); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
