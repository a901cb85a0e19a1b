package tools

import "github.com/blevesearch/bleve/v2"

// Index is the part of a bleve catalog the tools use. Tests substitute a mock.
type Index interface {
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// bleveIndex adapts bleve.Index to Index.
type bleveIndex struct {
	index bleve.Index
}

// NewBleveIndex wraps a bleve index.
func NewBleveIndex(index bleve.Index) Index {
	return &bleveIndex{index: index}
}

func (b *bleveIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return b.index.Search(req)
}

func (b *bleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *bleveIndex) Close() error {
	return b.index.Close()
}
