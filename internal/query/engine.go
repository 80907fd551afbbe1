package query

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/metrics"
	"github.com/Aman-CERP/docindex/internal/objectid"
	"github.com/Aman-CERP/docindex/internal/record"
)

const (
	// DefaultMinQueryLength is the shortest query that triggers a search.
	DefaultMinQueryLength = 2

	// DefaultMaxResults caps how many backend results are resolved.
	DefaultMaxResults = 30

	// BreadcrumbSeparator joins breadcrumb parts.
	BreadcrumbSeparator = " › "

	// dataConcurrency bounds parallel Data calls.
	dataConcurrency = 8
)

// Entry is one displayed search result.
type Entry struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	PageTitle  string `json:"pageTitle"`
	PageURL    string `json:"pageUrl"`
	Breadcrumb string `json:"breadcrumb"`
}

// Options configures an Engine.
type Options struct {
	MinQueryLength int
	MaxResults     int
	Metrics        *metrics.Metrics
}

// Engine turns queries into deduplicated entries.
type Engine struct {
	backend Backend
	opts    Options
}

// NewEngine creates an Engine over backend.
func NewEngine(backend Backend, opts Options) *Engine {
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Engine{backend: backend, opts: opts}
}

// Init initializes the backend.
func (e *Engine) Init(ctx context.Context) error {
	return e.backend.Init(ctx)
}

// Backend returns the injected backend.
func (e *Engine) Backend() Backend {
	return e.backend
}

// MinQueryLength returns the shortest query that triggers a search.
func (e *Engine) MinQueryLength() int {
	return e.opts.MinQueryLength
}

// Searchable reports whether q is long enough to search.
func (e *Engine) Searchable(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= e.opts.MinQueryLength
}

// Search runs q and returns at most one entry per page, in backend rank
// order. A query shorter than the minimum returns nil.
func (e *Engine) Search(ctx context.Context, q string) ([]Entry, error) {
	q = strings.TrimSpace(q)
	if !e.Searchable(q) {
		return nil, nil
	}

	start := time.Now()
	handles, err := e.backend.Search(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docerrors.New(docerrors.ErrCodeSearchFailed, "search failed", err).
			WithDetail("backend", e.backend.Name())
	}
	if len(handles) > e.opts.MaxResults {
		handles = handles[:e.opts.MaxResults]
	}

	data := make([]ResultData, len(handles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dataConcurrency)
	for i, h := range handles {
		g.Go(func() error {
			d, err := h.Data(gctx)
			if err != nil {
				return err
			}
			data[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docerrors.New(docerrors.ErrCodeSearchFailed, "failed to load results", err)
	}

	entries := make([]Entry, len(data))
	for i, d := range data {
		entries[i] = NewEntry(d)
	}
	entries = Dedup(entries)

	elapsed := time.Since(start)
	e.opts.Metrics.ObserveSearch(e.backend.Name(), elapsed, len(entries))
	slog.Debug("search_complete",
		slog.String("query", q),
		slog.Int("handles", len(handles)),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", elapsed))

	return entries, nil
}

// NewEntry builds the display entry of one result.
func NewEntry(d ResultData) Entry {
	pageTitle := d.Meta.PageTitle
	if pageTitle == "" {
		pageTitle = d.Meta.Title
	}
	return Entry{
		ID:         d.ID,
		URL:        d.URL,
		Title:      d.Meta.Title,
		Excerpt:    d.Excerpt,
		PageTitle:  pageTitle,
		PageURL:    objectid.StripFragment(d.URL),
		Breadcrumb: BuildBreadcrumb(d.URL, d.Meta.HeadingPath),
	}
}

// Dedup keeps the first entry per fragment-stripped URL, preserving order.
func Dedup(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		page := objectid.StripFragment(e.URL)
		if _, dup := seen[page]; dup {
			continue
		}
		seen[page] = struct{}{}
		out = append(out, e)
	}
	return out
}

// BuildBreadcrumb renders the URL path segments as titles, followed by the
// heading path without its last entry (the result's own title).
func BuildBreadcrumb(url, headingPath string) string {
	path := strings.Trim(objectid.StripFragment(url), "/")

	var parts []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			parts = append(parts, record.FormatSlugToTitle(seg))
		}
	}

	if headingPath != "" {
		headings := strings.Split(headingPath, record.HeadingPathSeparator)
		parts = append(parts, headings[:len(headings)-1]...)
	}
	return strings.Join(parts, BreadcrumbSeparator)
}

// NavigationTarget normalizes a result URL for navigation: fragment-only
// URLs stay as they are and everything else is made site-absolute.
func NavigationTarget(url string) string {
	switch {
	case url == "":
		return "/"
	case strings.HasPrefix(url, "/"), strings.HasPrefix(url, "#"):
		return url
	default:
		return "/" + url
	}
}
