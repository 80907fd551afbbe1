package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/record"
	"github.com/Aman-CERP/docindex/internal/store"
)

const (
	// LocalBackend names the static index publisher.
	LocalBackend = "local"

	// DefaultOutputDir is the artifact directory name inside dist.
	DefaultOutputDir = "docindex"

	// RecordsFile holds every record as JSON.
	RecordsFile = "records.json"

	// DocumentsFile holds the weighted HTML document of every record.
	DocumentsFile = "documents.json"
)

// LocalConfig configures the static index publisher.
type LocalConfig struct {
	DistDir   string
	OutputDir string
	Engine    store.Engine
	Generator string
}

// LocalPublisher writes a self-contained static index into the dist
// directory next to the site it describes.
type LocalPublisher struct {
	cfg LocalConfig
	now func() time.Time
}

var _ Publisher = (*LocalPublisher)(nil)

// NewLocalPublisher creates a LocalPublisher.
func NewLocalPublisher(cfg LocalConfig) *LocalPublisher {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.Engine == "" {
		cfg.Engine = store.EngineSQLite
	}
	return &LocalPublisher{cfg: cfg, now: time.Now}
}

// Name implements Publisher.
func (p *LocalPublisher) Name() string { return LocalBackend }

// OutputPath is the final artifact directory.
func (p *LocalPublisher) OutputPath() string {
	return filepath.Join(p.cfg.DistDir, p.cfg.OutputDir)
}

// document is one entry of DocumentsFile.
type document struct {
	ObjectID string `json:"objectID"`
	URL      string `json:"url"`
	HTML     string `json:"html"`
}

// Publish builds the artifact set in a sibling temporary directory and
// renames it into place.
func (p *LocalPublisher) Publish(ctx context.Context, records []*record.SearchRecord) (*Result, error) {
	if info, err := os.Stat(p.cfg.DistDir); err != nil || !info.IsDir() {
		slog.Info("local_skip_missing_dist", slog.String("dist", p.cfg.DistDir))
		return skipped(LocalBackend, "dist directory not found"), nil
	}

	start := time.Now()

	lock := NewBuildLock(p.cfg.DistDir)
	if err := lock.Lock(ctx); err != nil {
		return nil, docerrors.New(docerrors.ErrCodeIndexLocked, "another build holds the index lock", err).
			WithDetail("lock", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.MkdirTemp(p.cfg.DistDir, "."+p.cfg.OutputDir+"-tmp-")
	if err != nil {
		return nil, docerrors.IOError("failed to create build directory", err)
	}
	keep := false
	defer func() {
		if !keep {
			_ = os.RemoveAll(tmp)
		}
	}()

	if err := p.build(ctx, tmp, records); err != nil {
		return nil, err
	}

	final := p.OutputPath()
	if err := swapDir(tmp, final); err != nil {
		return nil, docerrors.IOError("failed to install index", err).WithDetail("path", final)
	}
	keep = true

	pages := countPages(records)
	slog.Info("local_index_written",
		slog.String("path", final),
		slog.String("engine", string(p.cfg.Engine)),
		slog.Int("records", len(records)),
		slog.Int("pages", pages))

	return &Result{
		Backend:  LocalBackend,
		Records:  len(records),
		Pages:    pages,
		Location: final,
		Duration: time.Since(start),
	}, nil
}

func (p *LocalPublisher) build(ctx context.Context, dir string, records []*record.SearchRecord) error {
	idx, err := store.Create(dir, p.cfg.Engine)
	if err != nil {
		return docerrors.New(docerrors.ErrCodeIndexFailed, "failed to create index", err)
	}
	if err := idx.Index(ctx, records); err != nil {
		_ = idx.Close()
		return docerrors.New(docerrors.ErrCodeIndexFailed, "failed to index records", err)
	}
	if err := idx.Close(); err != nil {
		return docerrors.New(docerrors.ErrCodeIndexFailed, "failed to close index", err)
	}

	if records == nil {
		records = []*record.SearchRecord{}
	}
	if err := writeJSON(filepath.Join(dir, RecordsFile), records); err != nil {
		return err
	}

	docs := make([]document, len(records))
	for i, r := range records {
		docs[i] = document{ObjectID: r.ObjectID, URL: r.URL, HTML: record.Weighted(r).HTML()}
	}
	if err := writeJSON(filepath.Join(dir, DocumentsFile), docs); err != nil {
		return err
	}

	return store.WriteManifest(dir, store.Manifest{
		Version:   store.ManifestVersion,
		Engine:    p.cfg.Engine,
		Records:   len(records),
		Pages:     countPages(records),
		BuiltAt:   p.now().UTC(),
		Generator: p.cfg.Generator,
		BuildID:   uuid.NewString(),
	})
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return docerrors.InternalError(fmt.Sprintf("failed to encode %s", filepath.Base(path)), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return docerrors.IOError(fmt.Sprintf("failed to write %s", filepath.Base(path)), err)
	}
	return nil
}

// swapDir moves tmp to final, restoring the previous final on failure.
func swapDir(tmp, final string) error {
	old := filepath.Join(filepath.Dir(final), "."+filepath.Base(final)+"-old")
	_ = os.RemoveAll(old)

	if err := os.Rename(final, old); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Rename(old, final)
		return err
	}
	_ = os.RemoveAll(old)
	return nil
}
