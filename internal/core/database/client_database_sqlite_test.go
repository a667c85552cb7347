package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*SQLiteStore, string, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "mosaic-test-*")
	require.NoError(t, err)

	store, err := NewSQLiteStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}
	return store, tempDir, cleanup
}

func testChunk(collection, text string, emb ...float32) models.Chunk {
	return models.Chunk{
		ID:         uuid.NewString(),
		RecordID:   uuid.NewString(),
		Collection: collection,
		Text:       text,
		Metadata:   map[string]any{models.MetaFileName: "a.txt"},
		Embedding:  emb,
		TokenCount: 3,
	}
}

func TestSQLiteStore_InsertCountSearch(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", "hash-3"))
	require.NoError(t, store.EnsureCollection(ctx, "docs", "hash-3"))

	n, err := store.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.InsertChunks(ctx, []models.Chunk{
		testChunk("docs", "north", 1, 0, 0),
		testChunk("docs", "east", 0, 1, 0),
		testChunk("docs", "mostly north", 0.9, 0.1, 0),
	}))

	n, err = store.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := store.Search(ctx, "docs", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "north", hits[0].Text)
	assert.Equal(t, "mostly north", hits[1].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "a.txt", hits[0].Metadata[models.MetaFileName])
	assert.Equal(t, []float32{1, 0, 0}, hits[0].Embedding)
}

func TestSQLiteStore_CollectionEmbedderKeepsFirstTag(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tag, err := store.CollectionEmbedder(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, tag)

	require.NoError(t, store.EnsureCollection(ctx, "docs", "hash-3"))
	require.NoError(t, store.EnsureCollection(ctx, "docs", "gemini/text-embedding-004"))

	tag, err = store.CollectionEmbedder(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "hash-3", tag)

	require.NoError(t, store.DropCollection(ctx, "docs"))
	require.NoError(t, store.EnsureCollection(ctx, "docs", "gemini/text-embedding-004"))
	tag, err = store.CollectionEmbedder(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "gemini/text-embedding-004", tag)
}

func TestSQLiteStore_CollectionsAreIsolated(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "a", "hash-3"))
	require.NoError(t, store.EnsureCollection(ctx, "b", "hash-3"))
	require.NoError(t, store.InsertChunks(ctx, []models.Chunk{testChunk("a", "only in a", 1, 1)}))

	hits, err := store.Search(ctx, "b", []float32{1, 1}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSQLiteStore_DropCollection(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", "hash-3"))
	require.NoError(t, store.InsertChunks(ctx, []models.Chunk{testChunk("docs", "x", 1)}))

	require.NoError(t, store.DropCollection(ctx, "docs"))
	require.NoError(t, store.DropCollection(ctx, "docs"))

	n, err := store.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	store, dir, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "docs", "hash-3"))
	require.NoError(t, store.InsertChunks(ctx, []models.Chunk{testChunk("docs", "kept", 1, 2)}))

	reopened, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewSQLiteStore_EmptyDir(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}
