// Package search maintains an embedded full-text index over forum
// content and answers keyword queries against it.
package search

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/pkg/errors"

	"github.com/xquti/mdb-backend/forum"
)

const (
	kindThread = "thread"
	kindPost   = "post"
)

// document is the indexed shape of both threads and posts.
type document struct {
	Kind     string `json:"kind"`
	ThreadID int64  `json:"thread_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Hit is one search result. ThreadID always points at the containing
// thread so the client can navigate to it for post hits too.
type Hit struct {
	ID       int64   `json:"id"`
	ThreadID int64   `json:"threadId"`
	Title    string  `json:"title,omitempty"`
	Content  string  `json:"content,omitempty"`
	Score    float64 `json:"score"`
}

// Index wraps a bleve index. It satisfies forum.Indexer.
type Index struct {
	idx bleve.Index
}

var _ forum.Indexer = (*Index)(nil)

// Open opens the index at path, creating it on first run.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) || errors.Is(err, os.ErrNotExist) {
		idx, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return nil, errors.Wrap(err, "[search.Open]")
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a throwaway index, used in tests.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, errors.Wrap(err, "[search.OpenInMemory]")
	}
	return &Index{idx: idx}, nil
}

func indexMapping() mapping.IndexMapping {
	return bleve.NewIndexMapping()
}

func (i *Index) Close() error {
	return i.idx.Close()
}

func (i *Index) IndexThread(thread *forum.Thread) error {
	doc := document{
		Kind:     kindThread,
		ThreadID: thread.ID,
		Title:    thread.Title,
		Content:  thread.Content,
		Category: thread.Category,
	}
	if err := i.idx.Index(docID(kindThread, thread.ID), doc); err != nil {
		return errors.Wrap(err, "[Index.IndexThread]")
	}
	return nil
}

func (i *Index) IndexPost(post *forum.Post) error {
	doc := document{
		Kind:     kindPost,
		ThreadID: post.ThreadID,
		Content:  post.Content,
	}
	if err := i.idx.Index(docID(kindPost, post.ID), doc); err != nil {
		return errors.Wrap(err, "[Index.IndexPost]")
	}
	return nil
}

// RemoveThread drops the thread's own document. Post documents keep
// their thread_id so they can be cleaned up by a reindex; the read path
// tolerates hits on deleted threads.
func (i *Index) RemoveThread(threadID int64) error {
	if err := i.idx.Delete(docID(kindThread, threadID)); err != nil {
		return errors.Wrap(err, "[Index.RemoveThread]")
	}
	return nil
}

// SearchThreads answers a keyword query over thread titles and bodies.
func (i *Index) SearchThreads(q string, limit int) ([]Hit, error) {
	return i.search(q, kindThread, limit)
}

// SearchPosts answers a keyword query over post bodies.
func (i *Index) SearchPosts(q string, limit int) ([]Hit, error) {
	return i.search(q, kindPost, limit)
}

func (i *Index) search(q, kind string, limit int) ([]Hit, error) {
	match := bleve.NewMatchQuery(q)

	kindQuery := bleve.NewTermQuery(kind)
	kindQuery.SetField("kind")

	request := bleve.NewSearchRequest(bleve.NewConjunctionQuery(match, kindQuery))
	request.Size = limit
	request.Fields = []string{"thread_id", "title", "content"}

	result, err := i.idx.Search(request)
	if err != nil {
		return nil, errors.Wrap(err, "[Index.search]")
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := Hit{Score: h.Score}
		if id, ok := parseDocID(h.ID); ok {
			hit.ID = id
		}
		if threadID, ok := h.Fields["thread_id"].(float64); ok {
			hit.ThreadID = int64(threadID)
		}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if content, ok := h.Fields["content"].(string); ok {
			hit.Content = content
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func docID(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func parseDocID(docID string) (int64, bool) {
	_, raw, found := strings.Cut(docID, ":")
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
