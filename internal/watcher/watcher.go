package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new page was written.
	OpCreate Operation = iota
	// OpModify indicates an existing page was rewritten.
	OpModify
	// OpDelete indicates a page was removed.
	OpDelete
	// OpRename indicates a page was moved away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the slash-separated path relative to the watched root.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// IsDir indicates if the event is for a directory.
	IsDir bool

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher defines the interface for file system watching.
type Watcher interface {
	// Start begins watching the given directory recursively. It blocks
	// until Stop is called or ctx is cancelled.
	Start(ctx context.Context, path string) error

	// Stop stops the watcher and releases resources.
	// Safe to call multiple times.
	Stop() error

	// Events returns debounced batches of page events.
	// The channel is closed when the watcher stops.
	Events() <-chan []FileEvent

	// Errors returns a channel of watcher errors.
	// Non-fatal errors are sent here; the watcher continues running.
	// The channel is closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 500ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 100
	EventBufferSize int

	// Extensions are the file extensions that count as pages.
	// Default: .html
	Extensions []string

	// IgnoreDirs are directory names skipped at any depth, such as the
	// index output directory.
	IgnoreDirs []string

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    2 * time.Second,
		EventBufferSize: 100,
		Extensions:      []string{".html"},
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if len(o.Extensions) == 0 {
		o.Extensions = defaults.Extensions
	}
	return o
}

// ignoreDir reports whether a directory at relPath is not watched.
// Hidden directories are never watched.
func (o Options) ignoreDir(relPath string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if strings.HasPrefix(part, ".") || slices.Contains(o.IgnoreDirs, part) {
			return true
		}
	}
	return false
}

// isPage reports whether a file at relPath is a page worth reporting.
func (o Options) isPage(relPath string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	if dir := filepath.Dir(relPath); o.ignoreDir(dir) {
		return false
	}
	base := filepath.Base(relPath)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(o.Extensions, strings.ToLower(filepath.Ext(base)))
}
