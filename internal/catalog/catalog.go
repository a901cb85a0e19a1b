// Package catalog indexes creature records in bleve so they can be found by
// name or type with full-text search.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/krakend/dex-mcp-server/internal/dataset"
)

// SchemaVersion increments when Document or the mapping changes.
// v1: name, number, types, stats
const SchemaVersion = 1

// DefaultBatchSize is how many documents are sent to bleve per batch.
const DefaultBatchSize = 100

// Document is the indexed form of a creature.
type Document struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Number int                `json:"number"`
	Types  []string           `json:"types"`
	Stats  map[string]float64 `json:"stats"`
}

// NewDocument converts a creature.
func NewDocument(c dataset.Creature) Document {
	return Document{
		ID:     DocumentID(c),
		Name:   c.Name,
		Number: c.Number,
		Types:  c.Types,
		Stats:  c.Stats,
	}
}

// DocumentID prefixes the name with the zero-padded pokedex number so ids sort
// in pokedex order.
func DocumentID(c dataset.Creature) string {
	return fmt.Sprintf("%04d-%s", c.Number, c.Name)
}

// NewMapping returns the index mapping for Document: name is analysed for
// full-text matching, types are exact keywords, and every attribute under
// stats is numeric.
func NewMapping(attributes []string) mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	doc.AddFieldMappingsAt("name", name)

	types := bleve.NewTextFieldMapping()
	types.Analyzer = keyword.Name
	doc.AddFieldMappingsAt("types", types)

	doc.AddFieldMappingsAt("number", bleve.NewNumericFieldMapping())

	stats := bleve.NewDocumentMapping()
	for _, attr := range attributes {
		stats.AddFieldMappingsAt(attr, bleve.NewNumericFieldMapping())
	}
	doc.AddSubDocumentMapping("stats", stats)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// VersionFile is where the schema version of the index at indexPath is kept:
// next to the index directory, so removing the index leaves it in place.
func VersionFile(indexPath string) string {
	return filepath.Join(filepath.Dir(indexPath), ".catalog_version")
}

// ReadVersion returns the schema version recorded for indexPath, or 0 when
// none is recorded.
func ReadVersion(indexPath string) int {
	data, err := os.ReadFile(VersionFile(indexPath))
	if err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return v
}

// WriteVersion records SchemaVersion for indexPath.
func WriteVersion(indexPath string) error {
	path := VersionFile(indexPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(SchemaVersion)), 0644)
}

// Batcher is the subset of bleve.Index used for batch indexing.
type Batcher interface {
	NewBatch() *bleve.Batch
	Batch(b *bleve.Batch) error
}

// IndexCreatures adds every creature to index, flushing every batchSize
// documents. progress, when non-nil, is called after each flush.
func IndexCreatures(index Batcher, creatures []dataset.Creature, batchSize int, progress func(done, total int)) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	batch := index.NewBatch()
	for i, c := range creatures {
		doc := NewDocument(c)
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", doc.ID, err)
		}

		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			if progress != nil {
				progress(i+1, len(creatures))
			}
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
		if progress != nil {
			progress(len(creatures), len(creatures))
		}
	}

	return nil
}

// NewMemIndex builds an in-memory index holding creatures.
func NewMemIndex(creatures []dataset.Creature, attributes []string, batchSize int) (bleve.Index, error) {
	index, err := bleve.NewMemOnly(NewMapping(attributes))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	if err := IndexCreatures(index, creatures, batchSize, nil); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}

// Hit is one search result.
type Hit struct {
	Name   string   `json:"name"`
	Number int      `json:"number"`
	Types  []string `json:"types"`
	Score  float64  `json:"score"`
}

// NewSearchRequest builds a match query over name and types.
func NewSearchRequest(text string, size int) *bleve.SearchRequest {
	nameQuery := bleve.NewMatchQuery(text)
	nameQuery.SetField("name")
	nameQuery.Fuzziness = 1

	typeQuery := bleve.NewTermQuery(strings.ToLower(strings.TrimSpace(text)))
	typeQuery.SetField("types")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(nameQuery, typeQuery))
	req.Size = size
	req.Fields = []string{"name", "number", "types"}
	return req
}

// HitsFromResult converts a bleve result into hits.
func HitsFromResult(res *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if name, ok := h.Fields["name"].(string); ok {
			hit.Name = name
		}
		if number, ok := h.Fields["number"].(float64); ok {
			hit.Number = int(number)
		}
		switch types := h.Fields["types"].(type) {
		case string:
			hit.Types = []string{types}
		case []interface{}:
			for _, t := range types {
				if s, ok := t.(string); ok {
					hit.Types = append(hit.Types, s)
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits
}
