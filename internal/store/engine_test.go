package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/record"
)

type engineCase struct {
	name string
	open func(t *testing.T) RecordIndex
}

func engines() []engineCase {
	return []engineCase{
		{
			name: "bleve",
			open: func(t *testing.T) RecordIndex {
				idx, err := NewBleveIndex("", DefaultConfig())
				require.NoError(t, err)
				return idx
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) RecordIndex {
				idx, err := NewSQLiteIndex("", DefaultConfig())
				require.NoError(t, err)
				return idx
			},
		},
	}
}

func heading(id, title, text string, props ...string) *record.SearchRecord {
	return &record.SearchRecord{
		ObjectID:    id,
		URL:         "/" + id,
		Type:        record.TypeH1,
		Title:       title,
		Text:        text,
		Properties:  props,
		PageTitle:   "Merge Queue",
		HeadingPath: []string{title},
	}
}

func forEachEngine(t *testing.T, fn func(t *testing.T, idx RecordIndex)) {
	for _, e := range engines() {
		t.Run(e.name, func(t *testing.T) {
			idx := e.open(t)
			defer func() { _ = idx.Close() }()
			fn(t, idx)
		})
	}
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestRecordIndex_PropertyMatchesWordQuery(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		// Given: a section whose only mention of the option is a property
		ctx := context.Background()
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{
			heading("merge-queue#setup", "Setup", "Setup Turn it on first.", "merge_queue.enabled"),
			heading("merge-queue#usage", "Usage", "Usage Run it."),
		}))

		// When: searching with plain words
		hits, err := idx.Search(ctx, "merge queue", 10)
		require.NoError(t, err)

		// Then: the property section is found
		require.NotEmpty(t, hits)
		assert.Equal(t, "merge-queue#setup", hits[0].ID)
		assert.NotContains(t, hitIDs(hits), "merge-queue#usage")
	})
}

func TestRecordIndex_TitleOutranksBody(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{
			heading("a#other", "Other", "Other notes mention batch size once."),
			heading("a#batch-size", "Batch size", "Tune it."),
		}))

		hits, err := idx.Search(ctx, "batch size", 10)
		require.NoError(t, err)

		assert.Equal(t, []string{"a#batch-size", "a#other"}, hitIDs(hits))
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})
}

func TestRecordIndex_DemotedRanksBelow(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		demoted := heading("changelog#x", "Release", "Priority rules shipped.")
		demoted.Demoted = true
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{
			demoted,
			heading("queue#x", "Rules", "Priority rules shipped."),
		}))

		hits, err := idx.Search(ctx, "priority shipped", 10)
		require.NoError(t, err)

		require.Len(t, hits, 2)
		assert.Equal(t, "queue#x", hits[0].ID)
		assert.True(t, hits[1].Demoted)
	})
}

func TestRecordIndex_ReturnsStoredFields(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		r := heading("merge-queue/setup#requirements", "Requirements", "Requirements Needs a bot account.")
		r.URL = "/merge-queue/setup/#requirements"
		r.HeadingPath = []string{"Setup", "Requirements"}
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{r}))

		hits, err := idx.Search(ctx, "bot account", 5)
		require.NoError(t, err)

		require.Len(t, hits, 1)
		h := hits[0]
		assert.Equal(t, "/merge-queue/setup/#requirements", h.URL)
		assert.Equal(t, "Requirements", h.Title)
		assert.Equal(t, "Merge Queue", h.PageTitle)
		assert.Equal(t, "Setup > Requirements", h.HeadingPath)
		assert.Equal(t, "Requirements Needs a bot account.", h.Excerpt)
		assert.False(t, h.Demoted)
	})
}

func TestRecordIndex_ReplacesByObjectID(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{heading("p#a", "Old", "stale words")}))
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{heading("p#a", "New", "fresh words")}))

		n, err := idx.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		hits, err := idx.Search(ctx, "stale", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = idx.Search(ctx, "fresh", 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "New", hits[0].Title)
	})
}

func TestRecordIndex_EmptyQueries(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		require.NoError(t, idx.Index(ctx, []*record.SearchRecord{heading("p#a", "Setup", "text")}))

		for _, q := range []string{"", "   ", "the and"} {
			hits, err := idx.Search(ctx, q, 5)
			require.NoError(t, err, q)
			assert.Empty(t, hits, q)
		}
	})
}

func TestRecordIndex_Limit(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		ctx := context.Background()
		var recs []*record.SearchRecord
		for _, id := range []string{"a", "b", "c", "d"} {
			recs = append(recs, heading(id, "Queue "+id, "queue"))
		}
		require.NoError(t, idx.Index(ctx, recs))

		hits, err := idx.Search(ctx, "queue", 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})
}

func TestRecordIndex_Closed(t *testing.T) {
	forEachEngine(t, func(t *testing.T, idx RecordIndex) {
		require.NoError(t, idx.Close())
		require.NoError(t, idx.Close(), "close is idempotent")

		_, err := idx.Search(context.Background(), "queue", 5)
		assert.Error(t, err)
		assert.Error(t, idx.Index(context.Background(), []*record.SearchRecord{heading("x", "X", "x")}))
		_, err = idx.Count()
		assert.Error(t, err)
	})
}

func TestCreateOpen_Persists(t *testing.T) {
	for _, engine := range []Engine{EngineBleve, EngineSQLite} {
		t.Run(string(engine), func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			// Given: a built index with a manifest
			idx, err := Create(dir, engine)
			require.NoError(t, err)
			require.NoError(t, idx.Index(ctx, []*record.SearchRecord{
				heading("merge-queue#setup", "Setup", "Setup text", "merge_queue.enabled"),
			}))
			require.NoError(t, idx.Close())
			require.NoError(t, WriteManifest(dir, Manifest{Version: ManifestVersion, Engine: engine, Records: 1}))

			// When: reopening with engine detection
			assert.Equal(t, engine, DetectEngine(dir))
			reopened, err := Open(dir, "")
			require.NoError(t, err)
			defer func() { _ = reopened.Close() }()

			// Then: the records are still searchable
			n, err := reopened.Count()
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			hits, err := reopened.Search(ctx, "merge queue", 5)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "merge-queue#setup", hits[0].ID)
		})
	}
}

func TestOpen_MissingIndex(t *testing.T) {
	for _, engine := range []Engine{EngineBleve, EngineSQLite} {
		t.Run(string(engine), func(t *testing.T) {
			_, err := Open(t.TempDir(), engine)
			require.Error(t, err)
			assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
		})
	}
}

func TestOpen_CorruptIndex(t *testing.T) {
	t.Run("bleve without meta", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(IndexPath(dir, EngineBleve), 0o755))

		_, err := Open(dir, EngineBleve)
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeCorruptIndex, docerrors.GetCode(err))
	})

	t.Run("sqlite garbage", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.db"), []byte("not a database at all, just text padding it out"), 0o644))

		_, err := Open(dir, EngineSQLite)
		require.Error(t, err)
		assert.Equal(t, docerrors.ErrCodeCorruptIndex, docerrors.GetCode(err))
	})
}

func TestParseEngine(t *testing.T) {
	e, err := ParseEngine("")
	require.NoError(t, err)
	assert.Equal(t, EngineSQLite, e)

	e, err = ParseEngine("bleve")
	require.NoError(t, err)
	assert.Equal(t, EngineBleve, e)

	_, err = ParseEngine("lucene")
	assert.Error(t, err)
}

func TestManifest_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadManifest(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, WriteManifest(dir, Manifest{Version: 1, Engine: EngineBleve, Records: 3, Pages: 2}))
	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, EngineBleve, m.Engine)
	assert.Equal(t, 3, m.Records)
}
