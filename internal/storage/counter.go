package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/atomic"
)

// FileCounter persists the failure count as a decimal number in a single file.
// An absent or unreadable file counts as zero.
type FileCounter struct {
	path   string
	logger *slog.Logger
}

func NewFileCounter(path string, logger *slog.Logger) *FileCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCounter{
		path:   path,
		logger: logger.With("component", "failure_counter", "backend", "file"),
	}
}

// Path returns the location of the counter file
func (c *FileCounter) Path() string {
	return c.path
}

// Current returns the persisted count without modifying it
func (c *FileCounter) Current() int {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (c *FileCounter) Increment(ctx context.Context) (int, error) {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create counter directory: %w", err)
		}
	}

	next := c.Current() + 1
	if err := os.WriteFile(c.path, []byte(strconv.Itoa(next)), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write failure count: %w", err)
	}
	return next, nil
}

func (c *FileCounter) Reset(ctx context.Context) {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Error("failed to remove failure count file", "path", c.path, "error", err)
	}
}

// MemoryCounter keeps the count in process memory only.
type MemoryCounter struct {
	count atomic.Int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{}
}

func (c *MemoryCounter) Increment(ctx context.Context) (int, error) {
	return int(c.count.Inc()), nil
}

func (c *MemoryCounter) Reset(ctx context.Context) {
	c.count.Store(0)
}

// Current returns the in-memory count
func (c *MemoryCounter) Current() int {
	return int(c.count.Load())
}
