// Package store provides the local search engines behind the static index:
// a Bleve index and a SQLite FTS5 index over the same weighted record
// fields. Both rank title matches above property matches above body text.
package store

import (
	"context"

	"github.com/Aman-CERP/docindex/internal/record"
)

// Engine names a local engine implementation.
type Engine string

const (
	// EngineBleve stores the index in a Bleve directory (index.bleve).
	EngineBleve Engine = "bleve"

	// EngineSQLite stores the index in a single SQLite FTS5 file (index.db).
	// Readers may open it while another process holds it, via WAL mode.
	EngineSQLite Engine = "sqlite"
)

// Searchable fields and their boosts.
const (
	FieldTitle       = "title"
	FieldProperties  = "properties"
	FieldBody        = "body"
	FieldDemotedBody = "demoted_body"
)

type weightedField struct {
	name  string
	boost float64
}

// weightedFields is the ranking order shared by both engines. The SQLite
// column order must match.
var weightedFields = []weightedField{
	{FieldTitle, record.WeightTitle},
	{FieldProperties, record.WeightProperties},
	{FieldBody, record.WeightBody},
	{FieldDemotedBody, record.WeightDemotedBody},
}

// Hit is one ranked search result.
type Hit struct {
	ID          string
	Score       float64 // Higher is better for both engines
	URL         string
	Title       string
	PageTitle   string
	HeadingPath string
	Excerpt     string
	Demoted     bool
}

// RecordIndex is a searchable store of search records.
type RecordIndex interface {
	// Index adds or replaces records by object ID.
	Index(ctx context.Context, records []*record.SearchRecord) error

	// Search returns up to limit hits ranked best first. An empty or
	// stop-word-only query returns no hits and no error.
	Search(ctx context.Context, query string, limit int) ([]Hit, error)

	// Count returns the number of indexed records.
	Count() (int, error)

	// Close releases the index. It is idempotent.
	Close() error
}

// Config tunes tokenization.
type Config struct {
	// StopWords are dropped at index and query time.
	StopWords []string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{StopWords: DefaultStopWords}
}

// DefaultStopWords are English filler words that carry no signal in
// documentation queries.
var DefaultStopWords = []string{
	"an", "and", "are", "as", "at", "be", "by", "for", "from", "how",
	"in", "is", "it", "of", "on", "or", "that", "the", "this", "to",
	"was", "what", "with",
}
