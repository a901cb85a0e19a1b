package tools

import (
	"errors"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
)

var errIndexClosed = errors.New("index closed")

// mockIndex answers every search with a fixed set of hits.
type mockIndex struct {
	hits        []*search.DocumentMatch
	docCount    uint64
	searchError error
	closed      atomic.Bool
	closeCalls  atomic.Int32
}

func newMockIndex(names ...string) *mockIndex {
	m := &mockIndex{docCount: uint64(len(names))}
	for i, name := range names {
		m.hits = append(m.hits, &search.DocumentMatch{
			ID:    name,
			Score: float64(len(names) - i),
			Fields: map[string]interface{}{
				"name":   name,
				"number": float64(i + 1),
				"types":  "normal",
			},
		})
	}
	return m
}

func (m *mockIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if m.closed.Load() {
		return nil, errIndexClosed
	}
	if m.searchError != nil {
		return nil, m.searchError
	}
	hits := m.hits
	if req.Size < len(hits) {
		hits = hits[:req.Size]
	}
	return &bleve.SearchResult{
		Request: req,
		Hits:    hits,
		Total:   uint64(len(m.hits)),
	}, nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, errIndexClosed
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	m.closeCalls.Add(1)
	if m.closed.Swap(true) {
		return errors.New("already closed")
	}
	return nil
}

func (m *mockIndex) IsClosed() bool {
	return m.closed.Load()
}
