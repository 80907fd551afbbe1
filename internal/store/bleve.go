package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/record"
)

const (
	// CodeTokenizerName is the name of the code-aware tokenizer.
	CodeTokenizerName = "docindex_code_tokenizer"

	// CodeStopFilterName is the name of the stop word filter.
	CodeStopFilterName = "docindex_stop"

	// CodeAnalyzerName is the analyzer applied to every searchable field.
	CodeAnalyzerName = "docindex_code"
)

// Stored-only fields returned with each hit.
const (
	storedURL         = "url"
	storedTitle       = "display_title"
	storedPageTitle   = "page_title"
	storedHeadingPath = "heading_path"
	storedExcerpt     = "excerpt"
	storedDemoted     = "demoted"
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(CodeStopFilterName, codeStopFilterConstructor)
}

// BleveIndex is a RecordIndex backed by Bleve v2.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ RecordIndex = (*BleveIndex)(nil)

// bleveDocument is the indexed form of a record's weighted document.
type bleveDocument struct {
	Title       string `json:"title"`
	Properties  string `json:"properties"`
	Body        string `json:"body"`
	DemotedBody string `json:"demoted_body"`

	URL          string `json:"url"`
	DisplayTitle string `json:"display_title"`
	PageTitle    string `json:"page_title"`
	HeadingPath  string `json:"heading_path"`
	Excerpt      string `json:"excerpt"`
	Demoted      bool   `json:"demoted"`
}

// validateIndexIntegrity checks a Bleve directory before opening it.
// A missing or unparseable index_meta.json means the build that wrote it
// was interrupted.
func validateIndexIntegrity(path string) error {
	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// NewBleveIndex creates a new index at path, which must not exist yet.
// An empty path creates an in-memory index.
func NewBleveIndex(path string, _ Config) (*BleveIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		idx, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BleveIndex{index: idx, path: path}, nil
}

// OpenBleveIndex opens an existing index read-write.
func OpenBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, docerrors.New(docerrors.ErrCodeFileNotFound, "search index not found", err).
			WithDetail("path", path).
			WithSuggestion("Run 'docindex index' to build the local index")
	}
	if err := validateIndexIntegrity(path); err != nil {
		return nil, docerrors.New(docerrors.ErrCodeCorruptIndex, "search index is corrupt", err).
			WithDetail("path", path).
			WithSuggestion("Run 'docindex index' to rebuild the local index")
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeCorruptIndex, "failed to open search index", err).
			WithDetail("path", path)
	}
	return &BleveIndex{index: idx, path: path}, nil
}

// createIndexMapping maps the four weighted fields through the code
// analyzer and stores the display fields without indexing them.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(CodeAnalyzerName, map[string]any{
		"type":      custom.Name,
		"tokenizer": CodeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			CodeStopFilterName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = CodeAnalyzerName

	doc := bleve.NewDocumentMapping()
	for _, f := range weightedFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = CodeAnalyzerName
		fm.Store = false
		fm.IncludeInAll = false
		fm.IncludeTermVectors = true
		doc.AddFieldMappingsAt(f.name, fm)
	}
	for _, name := range []string{storedURL, storedTitle, storedPageTitle, storedHeadingPath, storedExcerpt} {
		fm := bleve.NewTextFieldMapping()
		fm.Index = false
		fm.Store = true
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		doc.AddFieldMappingsAt(name, fm)
	}
	demoted := bleve.NewBooleanFieldMapping()
	demoted.Index = false
	demoted.Store = true
	demoted.IncludeInAll = false
	doc.AddFieldMappingsAt(storedDemoted, demoted)

	indexMapping.DefaultMapping = doc
	return indexMapping, nil
}

// Index adds records to the index, replacing any with the same object ID.
func (b *BleveIndex) Index(ctx context.Context, records []*record.SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := record.Weighted(r)
		doc := bleveDocument{
			Title:        w.Title,
			Properties:   w.Properties,
			Body:         w.Body,
			DemotedBody:  w.DemotedBody,
			URL:          w.URL,
			DisplayTitle: w.Title,
			PageTitle:    r.PageTitle,
			HeadingPath:  w.HeadingPath,
			Excerpt:      w.Excerpt,
			Demoted:      r.Demoted,
		}
		if err := batch.Index(r.ObjectID, doc); err != nil {
			return fmt.Errorf("failed to index record %s: %w", r.ObjectID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search runs a disjunction of per-field match queries, each boosted by its
// field weight.
func (b *BleveIndex) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(queryStr) == "" || limit <= 0 {
		return nil, nil
	}

	disjuncts := make([]query.Query, 0, len(weightedFields))
	for _, f := range weightedFields {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		disjuncts = append(disjuncts, mq)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(disjuncts...), limit, 0, false)
	req.Fields = []string{storedURL, storedTitle, storedPageTitle, storedHeadingPath, storedExcerpt, storedDemoted}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeSearchFailed, "search failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, hitFromMatch(h))
	}
	return hits, nil
}

func hitFromMatch(h *search.DocumentMatch) Hit {
	demoted, _ := h.Fields[storedDemoted].(bool)
	return Hit{
		ID:          h.ID,
		Score:       h.Score,
		URL:         storedString(h.Fields, storedURL),
		Title:       storedString(h.Fields, storedTitle),
		PageTitle:   storedString(h.Fields, storedPageTitle),
		HeadingPath: storedString(h.Fields, storedHeadingPath),
		Excerpt:     storedString(h.Fields, storedExcerpt),
		Demoted:     demoted,
	}
}

func storedString(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// Count returns the number of indexed records.
func (b *BleveIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

func codeTokenizerConstructor(_ map[string]any, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveCodeTokenizer{}, nil
}

// bleveCodeTokenizer adapts TokenizeCode to Bleve.
type bleveCodeTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *bleveCodeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	lowerText := strings.ToLower(text)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		start := strings.Index(lowerText[offset:], token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return result
}

func codeStopFilterConstructor(_ map[string]any, _ *registry.Cache) (analysis.TokenFilter, error) {
	return &bleveCodeStopFilter{
		stopWords: BuildStopWordMap(DefaultStopWords),
	}, nil
}

// bleveCodeStopFilter drops stop words from a token stream.
type bleveCodeStopFilter struct {
	stopWords map[string]struct{}
}

// Filter implements analysis.TokenFilter.
func (f *bleveCodeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
