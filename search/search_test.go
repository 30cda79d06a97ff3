package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xquti/mdb-backend/forum"
	"github.com/xquti/mdb-backend/search"
)

func newTestIndex(t *testing.T) *search.Index {
	t.Helper()
	idx, err := search.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSearchThreadsMatchesTitleAndContent(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexThread(&forum.Thread{
		ID: 1, Title: "Getting started with goroutines", Content: "channels and select", Category: "go",
	}))
	require.NoError(t, idx.IndexThread(&forum.Thread{
		ID: 2, Title: "Database migrations", Content: "postgres schema changes", Category: "databases",
	}))

	hits, err := idx.SearchThreads("goroutines", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, int64(1), hits[0].ID)
	require.Equal(t, int64(1), hits[0].ThreadID)
	require.Equal(t, "Getting started with goroutines", hits[0].Title)

	hits, err = idx.SearchThreads("postgres", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, int64(2), hits[0].ID)
}

func TestSearchPostsAreSeparateFromThreads(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexThread(&forum.Thread{ID: 1, Title: "deployment talk", Content: "kubernetes"}))
	require.NoError(t, idx.IndexPost(&forum.Post{ID: 10, ThreadID: 1, Content: "kubernetes rollout strategies"}))

	threadHits, err := idx.SearchThreads("kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, threadHits, 1)
	require.Equal(t, int64(1), threadHits[0].ID)

	postHits, err := idx.SearchPosts("kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, postHits, 1)
	require.Equal(t, int64(10), postHits[0].ID)
	require.Equal(t, int64(1), postHits[0].ThreadID)
}

func TestRemoveThreadDropsItFromResults(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexThread(&forum.Thread{ID: 1, Title: "ephemeral thread", Content: "short lived"}))

	hits, err := idx.SearchThreads("ephemeral", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, idx.RemoveThread(1))

	hits, err = idx.SearchThreads("ephemeral", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestIndexThreadUpdatesExistingDocument(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.IndexThread(&forum.Thread{ID: 1, Title: "old title", Content: "body"}))
	require.NoError(t, idx.IndexThread(&forum.Thread{ID: 1, Title: "new title", Content: "body"}))

	hits, err := idx.SearchThreads("old", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = idx.SearchThreads("new", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
