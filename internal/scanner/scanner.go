package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Scanner discovers pages in a built site directory.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan discovers all pages under the root directory.
// It returns a channel of ScanResult that streams pages as they are discovered.
// The channel is closed when scanning is complete.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	absRoot, err := resolveRoot(opts.RootDir)
	if err != nil {
		return nil, err
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	results := make(chan ScanResult, 64)
	go func() {
		defer close(results)
		s.scan(ctx, absRoot, opts, maxFileSize, results)
	}()

	return results, nil
}

// Collect scans the root directory and returns its pages sorted by
// relative path. The first walk error is returned.
func (s *Scanner) Collect(ctx context.Context, opts *ScanOptions) ([]*PageFile, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*PageFile
	var firstErr error
	for r := range results {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		files = append(files, r.File)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b *PageFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

func resolveRoot(rootDir string) (string, error) {
	if rootDir == "" {
		rootDir = "."
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root path is not a directory: %s", absRoot)
	}
	return absRoot, nil
}

func (s *Scanner) scan(ctx context.Context, absRoot string, opts *ScanOptions, maxFileSize int64, results chan<- ScanResult) {
	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}

	err := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		relPath, err := filepath.Rel(absRoot, p)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if shouldExcludeDir(relPath, skipDirs, opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		if !strings.EqualFold(path.Ext(relPath), PageExtension) {
			return nil
		}
		if matchesAnyPattern(relPath, opts.ExcludePatterns) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}

		select {
		case results <- ScanResult{File: &PageFile{
			Path:    relPath,
			AbsPath: p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// shouldExcludeDir checks if a directory should be skipped. Hidden
// directories hold build scratch space and are always skipped.
func shouldExcludeDir(relPath string, skipDirs, patterns []string) bool {
	name := path.Base(relPath)
	if strings.HasPrefix(name, ".") {
		return true
	}
	if slices.Contains(skipDirs, name) {
		return true
	}
	for _, pattern := range patterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// matchDirPattern checks if a directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	// **/name/** matches the directory at any depth
	if strings.HasPrefix(pattern, "**/") {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		return slices.Contains(strings.Split(relPath, "/"), name)
	}

	// dir/** matches the directory itself and everything below it
	prefix := strings.TrimSuffix(pattern, "/**")
	return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
}

// matchesAnyPattern checks if a file path matches any of the patterns.
func matchesAnyPattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchFilePattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// matchFilePattern matches a relative path against a glob. Patterns
// without a slash match the base name; "**/" matches any directory prefix.
func matchFilePattern(relPath, pattern string) bool {
	if strings.HasSuffix(pattern, "/**") {
		return matchDirPattern(path.Dir(relPath), pattern)
	}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		pattern = rest
		if !strings.Contains(pattern, "/") {
			matched, _ := path.Match(pattern, path.Base(relPath))
			return matched
		}
		parts := strings.Split(relPath, "/")
		for i := range parts {
			if matched, _ := path.Match(pattern, strings.Join(parts[i:], "/")); matched {
				return true
			}
		}
		return false
	}
	if !strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, path.Base(relPath))
		return matched
	}
	matched, _ := path.Match(pattern, relPath)
	return matched
}
