package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/objectid"
)

// DefaultPreviewCacheSize is the number of sections kept per session.
const DefaultPreviewCacheSize = 128

// maxPageBytes bounds a fetched page.
const maxPageBytes = 8 << 20

// Fetcher loads the HTML of a page by its site-absolute URL.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error)
}

// HTTPFetcher fetches pages from a running site.
type HTTPFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(f.BaseURL, "/")+pageURL, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, docerrors.NetworkError("failed to fetch page", err).WithDetail("url", pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// DirFetcher reads pages from a built site directory.
type DirFetcher struct {
	Dir string
}

// Fetch implements Fetcher. "/a/b/" maps to a/b/index.html; "/a/b" tries
// a/b/index.html and then a/b.html.
func (f DirFetcher) Fetch(_ context.Context, pageURL string) (io.ReadCloser, error) {
	clean := filepath.FromSlash(strings.Trim(filepathClean(pageURL), "/"))

	candidates := []string{filepath.Join(f.Dir, clean, "index.html")}
	if clean != "" && !strings.HasSuffix(pageURL, "/") {
		candidates = append(candidates, filepath.Join(f.Dir, clean+".html"))
	}

	for _, p := range candidates {
		file, err := os.Open(p)
		if err == nil {
			return file, nil
		}
		if !os.IsNotExist(err) {
			return nil, docerrors.IOError("failed to open page", err).WithDetail("path", p)
		}
	}
	return nil, docerrors.New(docerrors.ErrCodeFileNotFound, "page not found", nil).WithDetail("url", pageURL)
}

// filepathClean resolves dot segments so a URL cannot leave the site root.
func filepathClean(u string) string {
	return filepath.ToSlash(filepath.Clean("/" + u))
}

// Preview is the content shown next to a focused result.
type Preview struct {
	URL  string
	HTML string
	Text string
	// Fallback is set when the section could not be loaded and the
	// indexed excerpt is shown instead.
	Fallback bool
}

// Previewer loads the section behind a result, caching it for the session.
type Previewer struct {
	fetcher Fetcher
	opts    extract.Options
	cache   *lru.Cache[string, Preview]
}

// NewPreviewer creates a Previewer. A non-positive size uses the default.
func NewPreviewer(fetcher Fetcher, opts extract.Options, size int) *Previewer {
	if size <= 0 {
		size = DefaultPreviewCacheSize
	}
	cache, _ := lru.New[string, Preview](size)
	return &Previewer{fetcher: fetcher, opts: opts, cache: cache}
}

// Preview returns the section for entry. Failures fall back to the
// excerpt and are not cached.
func (p *Previewer) Preview(ctx context.Context, entry Entry) Preview {
	if pv, ok := p.cache.Get(entry.URL); ok {
		return pv
	}

	html, err := p.load(ctx, entry.URL)
	if err != nil {
		slog.Debug("preview_fallback",
			slog.String("url", entry.URL),
			slog.String("error", err.Error()))
		return Preview{URL: entry.URL, Text: entry.Excerpt, Fallback: true}
	}

	pv := Preview{URL: entry.URL, HTML: html, Text: htmlText(html)}
	p.cache.Add(entry.URL, pv)
	return pv
}

// Section returns the section HTML for url without the excerpt fallback.
func (p *Previewer) Section(ctx context.Context, url string) (string, error) {
	if pv, ok := p.cache.Get(url); ok {
		return pv.HTML, nil
	}
	html, err := p.load(ctx, url)
	if err != nil {
		return "", err
	}
	p.cache.Add(url, Preview{URL: url, HTML: html, Text: htmlText(html)})
	return html, nil
}

func (p *Previewer) load(ctx context.Context, url string) (string, error) {
	page := objectid.StripFragment(NavigationTarget(url))
	anchor := objectid.Fragment(url)

	body, err := p.fetcher.Fetch(ctx, page)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	doc, err := extract.Parse(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return "", docerrors.ParseError("failed to parse page", err).WithDetail("url", page)
	}

	html, ok := extract.SectionHTML(doc, anchor, p.opts)
	if !ok {
		return "", docerrors.New(docerrors.ErrCodeSectionNotFound, "section not found", nil).
			WithDetail("url", page).
			WithDetail("anchor", anchor)
	}
	return html, nil
}

// Len returns the number of cached sections.
func (p *Previewer) Len() int {
	return p.cache.Len()
}

// Clear empties the cache.
func (p *Previewer) Clear() {
	p.cache.Purge()
}

func htmlText(fragment string) string {
	doc, err := extract.ParseString(fragment)
	if err != nil {
		return ""
	}
	return extract.CollapseText(doc.Root)
}
