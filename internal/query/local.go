package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/Aman-CERP/docindex/internal/store"
)

// DefaultBackendLimit caps how many hits a backend returns before dedup.
const DefaultBackendLimit = 100

// LocalBackend searches a static index built by the local publisher.
type LocalBackend struct {
	dir    string
	engine store.Engine
	limit  int

	mu  sync.Mutex
	idx store.RecordIndex
}

var _ Backend = (*LocalBackend)(nil)

// NewLocalBackend creates a backend over the artifact directory dir. An
// empty engine is detected from the directory.
func NewLocalBackend(dir string, engine store.Engine) *LocalBackend {
	return &LocalBackend{dir: dir, engine: engine, limit: DefaultBackendLimit}
}

// NewIndexBackend wraps an already open index.
func NewIndexBackend(idx store.RecordIndex) *LocalBackend {
	return &LocalBackend{idx: idx, limit: DefaultBackendLimit}
}

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Init opens the index. It is safe to call more than once.
func (b *LocalBackend) Init(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.idx != nil {
		return nil
	}
	idx, err := store.Open(b.dir, b.engine)
	if err != nil {
		return err
	}
	b.idx = idx
	return nil
}

// Search implements Backend.
func (b *LocalBackend) Search(ctx context.Context, q string) ([]ResultHandle, error) {
	b.mu.Lock()
	idx := b.idx
	b.mu.Unlock()

	if idx == nil {
		return nil, fmt.Errorf("local backend not initialized")
	}

	hits, err := idx.Search(ctx, q, b.limit)
	if err != nil {
		return nil, err
	}

	handles := make([]ResultHandle, len(hits))
	for i, h := range hits {
		handles[i] = resolved{data: ResultData{
			ID:      h.ID,
			URL:     h.URL,
			Excerpt: h.Excerpt,
			Meta: Meta{
				Title:       h.Title,
				PageTitle:   h.PageTitle,
				HeadingPath: h.HeadingPath,
			},
		}}
	}
	return handles, nil
}

// Close closes the index.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.idx == nil {
		return nil
	}
	err := b.idx.Close()
	b.idx = nil
	return err
}
