package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/call"
	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
	"github.com/algolia/algoliasearch-client-go/v4/algolia/transport"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/record"
)

const (
	// AlgoliaBackend names the Algolia publisher.
	AlgoliaBackend = "algolia"

	// DefaultBatchSize is the number of records per batch request.
	DefaultBatchSize = 1000

	// DefaultMaxRecordBytes is the encoded size above which a record is
	// trimmed before upload. Algolia's smallest plan rejects records over
	// 10KB.
	DefaultMaxRecordBytes = 10_000
)

// AlgoliaConfig configures the Algolia publisher.
type AlgoliaConfig struct {
	AppID     string
	WriteKey  string
	IndexName string

	BatchSize      int
	MaxRecordBytes int

	// BaseURL overrides the write host.
	BaseURL string
}

// Configured reports whether every credential is present.
func (c AlgoliaConfig) Configured() bool {
	return c.AppID != "" && c.WriteKey != "" && c.IndexName != ""
}

// AlgoliaPublisher replaces a live Algolia index with the SDK's safe
// replace-all.
//
// The live index keeps serving until the final move. The temporary index
// inherits settings, synonyms and rules from the live one, receives every
// record, then is moved over the live index in one operation.
type AlgoliaPublisher struct {
	cfg AlgoliaConfig
}

var _ Publisher = (*AlgoliaPublisher)(nil)

// NewAlgoliaPublisher creates an AlgoliaPublisher.
func NewAlgoliaPublisher(cfg AlgoliaConfig) *AlgoliaPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRecordBytes <= 0 {
		cfg.MaxRecordBytes = DefaultMaxRecordBytes
	}
	return &AlgoliaPublisher{cfg: cfg}
}

// Name implements Publisher.
func (p *AlgoliaPublisher) Name() string { return AlgoliaBackend }

// Publish implements Publisher.
func (p *AlgoliaPublisher) Publish(ctx context.Context, records []*record.SearchRecord) (*Result, error) {
	if !p.cfg.Configured() {
		slog.Info("algolia_skip_missing_env",
			slog.Bool("app_id", p.cfg.AppID != ""),
			slog.Bool("write_key", p.cfg.WriteKey != ""),
			slog.Bool("index_name", p.cfg.IndexName != ""))
		return skipped(AlgoliaBackend, "missing credentials"), nil
	}

	pages := countPages(records)
	slog.Info("algolia_collected_pages", slog.Int("pages", pages), slog.Int("records", len(records)))
	if len(records) == 0 {
		return skipped(AlgoliaBackend, "no records"), nil
	}

	client, err := NewAlgoliaClient(p.cfg.AppID, p.cfg.WriteKey, p.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	objects, err := p.objects(records)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	live := p.cfg.IndexName
	if _, err := client.ReplaceAllObjects(live, objects, search.WithBatchSize(p.cfg.BatchSize)); err != nil {
		return nil, docerrors.New(docerrors.ErrCodePublishFailed, "algolia replace failed", err).
			WithDetail("index", live)
	}

	slog.Info("algolia_index_updated",
		slog.String("index", live),
		slog.Int("records", len(records)),
		slog.Duration("duration", time.Since(start)))

	return &Result{
		Backend:  AlgoliaBackend,
		Records:  len(records),
		Pages:    pages,
		Location: live,
		Duration: time.Since(start),
	}, nil
}

// objects converts records to upload payloads, trimming oversized ones.
func (p *AlgoliaPublisher) objects(records []*record.SearchRecord) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		obj, err := fitRecord(r, p.cfg.MaxRecordBytes)
		if err != nil {
			return nil, docerrors.InternalError("failed to encode record", err).
				WithDetail("object_id", r.ObjectID)
		}
		out = append(out, obj)
	}
	return out, nil
}

// fitRecord encodes r as a JSON object no larger than limit bytes. The html
// field goes first, then text is shortened. Search still matches the
// trimmed text prefix and the excerpt is unaffected.
func fitRecord(r *record.SearchRecord, limit int) (map[string]any, error) {
	size, err := encodedSize(r)
	if err != nil {
		return nil, err
	}
	if size > limit {
		trimmed := *r
		trimmed.HTML = ""
		if size, err = encodedSize(&trimmed); err != nil {
			return nil, err
		}
		if over := size - limit; over > 0 {
			// Room for the ellipsis Excerpt appends.
			trimmed.Text = record.Excerpt(trimmed.Text, max(len(trimmed.Text)-over-len("…"), 0))
		}
		slog.Warn("algolia_record_trimmed",
			slog.String("object_id", r.ObjectID),
			slog.Int("limit", limit))
		r = &trimmed
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func encodedSize(r *record.SearchRecord) (int, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// NewAlgoliaClient creates an SDK client pinned to one host. With a single
// host the SDK's retry strategy has nothing to fall back to, so a failed
// request fails the call. baseURL overrides the application's write host.
func NewAlgoliaClient(appID, apiKey, baseURL string) (*search.APIClient, error) {
	scheme, host := "https", appID+".algolia.net"
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Host == "" {
			return nil, docerrors.ConfigError(fmt.Sprintf("invalid algolia base URL %q", baseURL), err)
		}
		scheme, host = u.Scheme, u.Host
	}

	client, err := search.NewClientWithConfig(search.SearchConfiguration{
		Configuration: transport.Configuration{
			AppID:  appID,
			ApiKey: apiKey,
			Hosts:  []transport.StatefulHost{transport.NewStatefulHost(scheme, host, call.IsReadWrite)},
		},
	})
	if err != nil {
		return nil, docerrors.ConfigError("failed to create algolia client", err)
	}
	return client, nil
}
