package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/record"
)

// SQLiteIndex is a RecordIndex backed by a SQLite FTS5 table. Field text
// is pre-tokenized with TokenizeCode, so FTS5 only sees lowercase words.
type SQLiteIndex struct {
	mu        sync.RWMutex
	db        *sql.DB
	path      string
	closed    bool
	stopWords map[string]struct{}
}

var _ RecordIndex = (*SQLiteIndex)(nil)

// validateSQLiteIntegrity checks an index file before opening it.
func validateSQLiteIntegrity(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name IN ('records', 'record_meta')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count != 2 {
		return fmt.Errorf("index tables missing")
	}
	return nil
}

// NewSQLiteIndex creates or opens an index at path. An empty path creates
// an in-memory index.
func NewSQLiteIndex(path string, config Config) (*SQLiteIndex, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; an in-memory database also lives on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores most DSN parameters, so set them again.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &SQLiteIndex{
		db:        db,
		path:      path,
		stopWords: BuildStopWordMap(config.StopWords),
	}
	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return idx, nil
}

// OpenSQLiteIndex opens an existing index file.
func OpenSQLiteIndex(path string, config Config) (*SQLiteIndex, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, docerrors.New(docerrors.ErrCodeFileNotFound, "search index not found", err).
			WithDetail("path", path).
			WithSuggestion("Run 'docindex index' to build the local index")
	}
	if err := validateSQLiteIntegrity(path); err != nil {
		slog.Warn("sqlite_index_corrupted",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, docerrors.New(docerrors.ErrCodeCorruptIndex, "search index is corrupt", err).
			WithDetail("path", path).
			WithSuggestion("Run 'docindex index' to rebuild the local index")
	}
	return NewSQLiteIndex(path, config)
}

// initSchema creates the FTS5 table and the metadata table joined to it by
// rowid. The FTS5 column order matches weightedFields.
func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS records USING fts5(
		title,
		properties,
		body,
		demoted_body,
		tokenize='unicode61'
	);

	CREATE TABLE IF NOT EXISTS record_meta (
		rowid        INTEGER PRIMARY KEY,
		object_id    TEXT NOT NULL UNIQUE,
		url          TEXT NOT NULL,
		title        TEXT NOT NULL,
		page_title   TEXT NOT NULL,
		heading_path TEXT NOT NULL,
		excerpt      TEXT NOT NULL,
		demoted      INTEGER NOT NULL DEFAULT 0
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// analyzed joins the analyzed tokens of text with single spaces.
func (s *SQLiteIndex) analyzed(text string) string {
	return strings.Join(Analyze(text, s.stopWords), " ")
}

// Index adds records, replacing any with the same object ID.
func (s *SQLiteIndex) Index(ctx context.Context, records []*record.SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lookupStmt, err := tx.PrepareContext(ctx, `SELECT rowid FROM record_meta WHERE object_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare lookup statement: %w", err)
	}
	defer lookupStmt.Close()

	metaStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO record_meta(object_id, url, title, page_title, heading_path, excerpt, demoted)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare metadata statement: %w", err)
	}
	defer metaStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records(rowid, title, properties, body, demoted_body)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare FTS statement: %w", err)
	}
	defer ftsStmt.Close()

	for _, r := range records {
		// FTS5 tables don't support REPLACE, so delete first.
		var rowid int64
		switch err := lookupStmt.QueryRowContext(ctx, r.ObjectID).Scan(&rowid); err {
		case nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE rowid = ?`, rowid); err != nil {
				return fmt.Errorf("failed to replace record %s: %w", r.ObjectID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM record_meta WHERE rowid = ?`, rowid); err != nil {
				return fmt.Errorf("failed to replace record %s: %w", r.ObjectID, err)
			}
		case sql.ErrNoRows:
		default:
			return fmt.Errorf("failed to look up record %s: %w", r.ObjectID, err)
		}

		w := record.Weighted(r)
		demoted := 0
		if r.Demoted {
			demoted = 1
		}
		res, err := metaStmt.ExecContext(ctx, r.ObjectID, w.URL, w.Title, r.PageTitle, w.HeadingPath, w.Excerpt, demoted)
		if err != nil {
			return fmt.Errorf("failed to index record %s: %w", r.ObjectID, err)
		}
		rowid, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to index record %s: %w", r.ObjectID, err)
		}
		if _, err := ftsStmt.ExecContext(ctx, rowid,
			s.analyzed(w.Title),
			s.analyzed(w.Properties),
			s.analyzed(w.Body),
			s.analyzed(w.DemotedBody),
		); err != nil {
			return fmt.Errorf("failed to index record %s: %w", r.ObjectID, err)
		}
	}

	return tx.Commit()
}

// matchExpression quotes each token so FTS5 never parses one as an
// operator. Tokens are ANDed.
func matchExpression(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// Search ranks matches with bm25 weighted per column.
func (s *SQLiteIndex) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if limit <= 0 {
		return nil, nil
	}

	tokens := Analyze(queryStr, s.stopWords)
	if len(tokens) == 0 {
		return nil, nil
	}

	// bm25() is negative; lower is better.
	q := fmt.Sprintf(`
		SELECT m.object_id, m.url, m.title, m.page_title, m.heading_path, m.excerpt, m.demoted,
		       bm25(records, %s) AS score
		FROM records
		JOIN record_meta m ON m.rowid = records.rowid
		WHERE records MATCH ?
		ORDER BY score
		LIMIT ?`, bm25Weights())

	rows, err := s.db.QueryContext(ctx, q, matchExpression(tokens), limit)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeSearchFailed, "search failed", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var demoted int
		var score float64
		if err := rows.Scan(&h.ID, &h.URL, &h.Title, &h.PageTitle, &h.HeadingPath, &h.Excerpt, &demoted, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		h.Score = -score
		h.Demoted = demoted != 0
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// bm25Weights renders the per-column weights as bm25() arguments.
func bm25Weights() string {
	parts := make([]string, len(weightedFields))
	for i, f := range weightedFields {
		parts[i] = fmt.Sprintf("%g", f.boost)
	}
	return strings.Join(parts, ", ")
}

// Count returns the number of indexed records.
func (s *SQLiteIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("index is closed")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM record_meta`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
