// Package publish replaces a search index with a freshly built set of
// records. Every backend publishes all-or-nothing: readers see either the
// previous index or the new one, never a mix.
package publish

import (
	"context"
	"time"

	"github.com/Aman-CERP/docindex/internal/objectid"
	"github.com/Aman-CERP/docindex/internal/record"
)

// Publisher replaces one backend's index with records.
type Publisher interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Publish replaces the index. A publisher that lacks what it needs
	// (credentials, a dist directory, any records) returns a skipped
	// Result and a nil error.
	Publish(ctx context.Context, records []*record.SearchRecord) (*Result, error)
}

// Result reports one publish.
type Result struct {
	Backend  string
	Skipped  bool
	Reason   string
	Records  int
	Pages    int
	Location string
	Duration time.Duration
}

func skipped(backend, reason string) *Result {
	return &Result{Backend: backend, Skipped: true, Reason: reason}
}

// countPages counts distinct pages among records.
func countPages(records []*record.SearchRecord) int {
	pages := make(map[string]struct{})
	for _, r := range records {
		pages[objectid.StripFragment(r.ObjectID)] = struct{}{}
	}
	return len(pages)
}

// Multi publishes to several backends in order, stopping at the first
// error.
type Multi []Publisher

// Name implements Publisher.
func (m Multi) Name() string { return "multi" }

// PublishAll runs every publisher and returns each result.
func (m Multi) PublishAll(ctx context.Context, records []*record.SearchRecord) ([]*Result, error) {
	results := make([]*Result, 0, len(m))
	for _, p := range m {
		res, err := p.Publish(ctx, records)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Publish implements Publisher, reporting the combined totals. The result
// is skipped only when every backend skipped.
func (m Multi) Publish(ctx context.Context, records []*record.SearchRecord) (*Result, error) {
	start := time.Now()
	results, err := m.PublishAll(ctx, records)
	if err != nil {
		return nil, err
	}

	out := &Result{Backend: m.Name(), Skipped: true}
	for _, r := range results {
		if !r.Skipped {
			out.Skipped = false
			out.Records = r.Records
			out.Pages = r.Pages
		}
	}
	out.Duration = time.Since(start)
	return out, nil
}
