// Package scanner discovers the HTML pages of a built documentation site.
// Asset and search-runtime directories, hidden directories and the index
// output directory are never descended into.
package scanner

import "time"

// PageFile is one discovered HTML page.
type PageFile struct {
	Path    string    // Slash-separated, relative to the root
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the built site directory to scan.
	RootDir string

	// SkipDirs lists directory names skipped at any depth. DefaultSkipDirs
	// is used when nil.
	SkipDirs []string

	// ExcludePatterns specifies additional patterns to exclude, matched
	// against the slash-separated relative path.
	ExcludePatterns []string

	// MaxFileSize is the maximum file size to include in bytes (0 = 10MB default).
	MaxFileSize int64

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *PageFile
	Error error
}

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultSkipDirs are build output directories that hold no pages.
var DefaultSkipDirs = []string{"_astro", "pagefind"}

// PageExtension is the file extension of a page.
const PageExtension = ".html"
