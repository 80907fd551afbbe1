package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/publish"
	"github.com/Aman-CERP/docindex/internal/record"
)

// AlgoliaConfig configures the Algolia search backend. SearchKey is the
// public search-only key, never the write key.
type AlgoliaConfig struct {
	AppID     string
	SearchKey string
	IndexName string

	HitsPerPage int
	BaseURL     string
}

// AlgoliaBackend queries a published Algolia index.
type AlgoliaBackend struct {
	cfg    AlgoliaConfig
	client *search.APIClient
}

var _ Backend = (*AlgoliaBackend)(nil)

// NewAlgoliaBackend creates an AlgoliaBackend.
func NewAlgoliaBackend(cfg AlgoliaConfig) *AlgoliaBackend {
	if cfg.HitsPerPage <= 0 {
		cfg.HitsPerPage = DefaultBackendLimit
	}
	return &AlgoliaBackend{cfg: cfg}
}

// Name implements Backend.
func (b *AlgoliaBackend) Name() string { return "algolia" }

// Init implements Backend.
func (b *AlgoliaBackend) Init(context.Context) error {
	if b.client != nil {
		return nil
	}
	if b.cfg.IndexName == "" {
		return fmt.Errorf("algolia index name is required")
	}
	client, err := publish.NewAlgoliaClient(b.cfg.AppID, b.cfg.SearchKey, b.cfg.BaseURL)
	if err != nil {
		return err
	}
	b.client = client
	return nil
}

var retrievedAttributes = []string{"objectID", "url", "title", "text", "pageTitle", "headingPath"}

// algoliaHit is the subset of a published record the backend displays.
type algoliaHit struct {
	ObjectID    string   `json:"objectID"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Text        string   `json:"text"`
	PageTitle   string   `json:"pageTitle"`
	HeadingPath []string `json:"headingPath"`
}

// Search implements Backend.
func (b *AlgoliaBackend) Search(ctx context.Context, q string) ([]ResultHandle, error) {
	if b.client == nil {
		return nil, fmt.Errorf("algolia backend not initialized")
	}

	params := search.NewEmptySearchParamsObject().
		SetQuery(q).
		SetHitsPerPage(int32(b.cfg.HitsPerPage)).
		SetAttributesToRetrieve(retrievedAttributes)
	resp, err := b.client.SearchSingleIndex(
		b.client.NewApiSearchSingleIndexRequest(b.cfg.IndexName).
			WithSearchParams(search.SearchParamsObjectAsSearchParams(params)),
		search.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docerrors.New(docerrors.ErrCodeBackendRejected, "algolia search failed", err).
			WithDetail("index", b.cfg.IndexName)
	}

	// Hits carry the record fields as additional properties; a JSON round
	// trip maps them onto algoliaHit.
	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hits: %w", err)
	}
	var hits []algoliaHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode hits: %w", err)
	}

	handles := make([]ResultHandle, 0, len(hits))
	for _, h := range hits {
		handles = append(handles, resolved{data: ResultData{
			ID:      h.ObjectID,
			URL:     h.URL,
			Excerpt: record.Excerpt(h.Text, record.ExcerptLen),
			Meta: Meta{
				Title:       h.Title,
				PageTitle:   h.PageTitle,
				HeadingPath: strings.Join(h.HeadingPath, record.HeadingPathSeparator),
			},
		}})
	}
	return handles, nil
}
