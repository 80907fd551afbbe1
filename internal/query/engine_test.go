package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/objectid"
)

// fakeBackend returns canned results and records the queries it saw.
type fakeBackend struct {
	mu      sync.Mutex
	results []ResultData
	err     error
	dataErr error
	queries []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Init(context.Context) error { return nil }

func (f *fakeBackend) Search(_ context.Context, q string) ([]ResultHandle, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	handles := make([]ResultHandle, len(f.results))
	for i, d := range f.results {
		handles[i] = fakeHandle{data: d, err: f.dataErr}
	}
	return handles, nil
}

func (f *fakeBackend) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakeHandle struct {
	data ResultData
	err  error
}

func (h fakeHandle) ID() string { return h.data.ID }

func (h fakeHandle) Data(context.Context) (ResultData, error) {
	return h.data, h.err
}

func result(id, url, title, headingPath string) ResultData {
	return ResultData{
		ID:      id,
		URL:     url,
		Excerpt: "excerpt of " + id,
		Meta:    Meta{Title: title, PageTitle: "Rebase", HeadingPath: headingPath},
	}
}

func TestEngine_Search_ShortQueryReturnsNil(t *testing.T) {
	backend := &fakeBackend{results: []ResultData{result("a", "/a/", "A", "")}}
	e := NewEngine(backend, Options{})

	for _, q := range []string{"", "r", "  r  "} {
		entries, err := e.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Nil(t, entries, "query %q", q)
	}
	assert.Empty(t, backend.seen(), "backend must not be queried")
}

func TestEngine_Search_DedupsByPage(t *testing.T) {
	// Given: three hits, two of them sections of the same page
	backend := &fakeBackend{results: []ResultData{
		result("workflow/rebase#setup", "/workflow/rebase/#setup", "Setup", "Setup"),
		result("workflow/rebase#requirements", "/workflow/rebase/#requirements", "Requirements", "Setup > Requirements"),
		result("merge-queue", "/merge-queue/", "Merge queue", ""),
	}}
	e := NewEngine(backend, Options{})

	// When: searching
	entries, err := e.Search(context.Background(), " rebase ")

	// Then: one entry per page, in rank order
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "workflow/rebase#setup", entries[0].ID)
	assert.Equal(t, "/workflow/rebase/", entries[0].PageURL)
	assert.Equal(t, "Workflow › Rebase", entries[0].Breadcrumb)
	assert.Equal(t, "merge-queue", entries[1].ID)
	assert.Equal(t, []string{"rebase"}, backend.seen())
}

func TestEngine_Search_CapsResults(t *testing.T) {
	var results []ResultData
	for i := 0; i < 50; i++ {
		results = append(results, result(fmt.Sprint(i), fmt.Sprintf("/p%d/", i), "T", ""))
	}
	e := NewEngine(&fakeBackend{results: results}, Options{})

	entries, err := e.Search(context.Background(), "page")

	require.NoError(t, err)
	assert.Len(t, entries, DefaultMaxResults)
	assert.Equal(t, "0", entries[0].ID)
	assert.Equal(t, "29", entries[29].ID)
}

func TestEngine_Search_BackendError(t *testing.T) {
	e := NewEngine(&fakeBackend{err: errors.New("boom")}, Options{})

	_, err := e.Search(context.Background(), "rebase")

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeSearchFailed, docerrors.GetCode(err))
}

func TestEngine_Search_DataError(t *testing.T) {
	e := NewEngine(&fakeBackend{
		results: []ResultData{result("a", "/a/", "A", "")},
		dataErr: errors.New("fragment missing"),
	}, Options{})

	_, err := e.Search(context.Background(), "rebase")

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeSearchFailed, docerrors.GetCode(err))
}

func TestEngine_Search_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(&fakeBackend{err: context.Canceled}, Options{})

	_, err := e.Search(ctx, "rebase")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEntry_PageTitleFallsBackToTitle(t *testing.T) {
	e := NewEntry(ResultData{ID: "faq", URL: "/faq/", Meta: Meta{Title: "FAQ"}})

	assert.Equal(t, "FAQ", e.PageTitle)
	assert.Equal(t, "/faq/", e.PageURL)
}

func TestBuildBreadcrumb(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		headingPath string
		want        string
	}{
		{"page", "/workflow/rebase/", "", "Workflow › Rebase"},
		{"top level section", "/workflow/rebase/#setup", "Setup", "Workflow › Rebase"},
		{"nested section", "/workflow/rebase/#requirements", "Setup > Requirements", "Workflow › Rebase › Setup"},
		{"acronyms", "/rest-api/", "", "Rest API"},
		{"root", "/", "", ""},
		{"root section", "/#install", "Install", ""},
		{"relative", "configuration/file-format", "", "Configuration › File Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildBreadcrumb(tt.url, tt.headingPath))
		})
	}
}

func TestNavigationTarget(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"", "/"},
		{"/workflow/rebase/", "/workflow/rebase/"},
		{"#setup", "#setup"},
		{"workflow/rebase/", "/workflow/rebase/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NavigationTarget(tt.url), "url %q", tt.url)
	}
}

func TestDedup_OnePerPagePreservingOrder(t *testing.T) {
	page := rapid.SampledFrom([]string{"/a/", "/b/", "/c/d/", "/"})
	anchor := rapid.SampledFrom([]string{"", "#x", "#y"})

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		entries := make([]Entry, n)
		for i := range entries {
			entries[i] = Entry{ID: fmt.Sprint(i), URL: page.Draw(t, "page") + anchor.Draw(t, "anchor")}
		}

		out := Dedup(entries)

		seen := map[string]bool{}
		last := -1
		for _, e := range out {
			p := objectid.StripFragment(e.URL)
			if seen[p] {
				t.Fatalf("page %q appears twice", p)
			}
			seen[p] = true

			var idx int
			_, _ = fmt.Sscan(e.ID, &idx)
			if idx <= last {
				t.Fatalf("order not preserved: %d after %d", idx, last)
			}
			last = idx
		}
		for _, e := range entries {
			if !seen[objectid.StripFragment(e.URL)] {
				t.Fatalf("page of %q missing", e.URL)
			}
		}
	})
}
