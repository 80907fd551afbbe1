// Package query is the client side of the search index: it runs debounced
// searches against an injected backend, collapses sub-results to one per
// page, tracks keyboard focus over the result list and previews sections.
package query

import "context"

// Meta is the display metadata of one result.
type Meta struct {
	Title       string
	PageTitle   string
	HeadingPath string // Entries joined by " > "
}

// ResultData is the resolved form of a result handle.
type ResultData struct {
	ID      string
	URL     string
	Excerpt string
	Meta    Meta
}

// ResultHandle is a ranked search hit whose data may load lazily.
type ResultHandle interface {
	ID() string
	Data(ctx context.Context) (ResultData, error)
}

// Backend runs searches. It is created once at startup and injected into
// the Engine.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Init prepares the backend (opens an index, checks credentials).
	Init(ctx context.Context) error

	// Search returns handles ranked best first.
	Search(ctx context.Context, query string) ([]ResultHandle, error)
}

// resolved is a ResultHandle whose data is already in memory.
type resolved struct {
	data ResultData
}

func (r resolved) ID() string { return r.data.ID }

func (r resolved) Data(context.Context) (ResultData, error) { return r.data, nil }
