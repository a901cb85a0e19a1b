package router

import (
	"strings"

	"github.com/krakend/dex-mcp-server/internal/rangeindex"
)

// Entry is one (category, attribute, value, name) tuple handed over by ingestion.
type Entry struct {
	Category  string
	Attribute string
	Value     float64
	Name      string
}

type buildOptions struct {
	index []rangeindex.Option
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithIndexOptions forwards options to every range index Build creates.
func WithIndexOptions(opts ...rangeindex.Option) BuildOption {
	return func(o *buildOptions) {
		o.index = append(o.index, opts...)
	}
}

// Build assembles the router for entries. The root is an unlabelled dispatch
// node; below it sits one dispatch node per category and below each of those
// one leaf per attribute, both in order of first appearance. Each leaf gets the
// subset of ranges whose key ends in " <attribute>". Entries are inserted into
// the leaf indexes in input order.
//
// Input is assumed to be well formed; nothing is validated.
func Build(entries []Entry, ranges BucketTable, opts ...BuildOption) *Node {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	tables := make(map[string]BucketTable)
	tableFor := func(attribute string) BucketTable {
		if t, ok := tables[attribute]; ok {
			return t
		}
		t := BucketTable{}
		suffix := " " + attribute
		for key, r := range ranges {
			if strings.HasSuffix(key, suffix) {
				t[key] = r
			}
		}
		tables[attribute] = t
		return t
	}

	root := NewDispatch("")
	for _, e := range entries {
		category, ok := root.Child(e.Category)
		if !ok {
			category = NewDispatch(e.Category)
			root.AddChild(category)
		}

		attribute, ok := category.Child(e.Attribute)
		if !ok {
			attribute = NewLeaf(e.Attribute, tableFor(e.Attribute), rangeindex.New(o.index...))
			category.AddChild(attribute)
		}

		attribute.index.Insert(e.Value, e.Name)
	}

	return root
}

// Stats summarises a built router for logging.
type Stats struct {
	Categories int
	Leaves     int
	Entries    int
	MaxHeight  int
}

// Summarize walks the tree and counts its parts.
func Summarize(root *Node) Stats {
	var s Stats
	for _, category := range root.Children() {
		s.Categories++
		for _, attribute := range category.Children() {
			if !attribute.IsLeaf() {
				continue
			}
			s.Leaves++
			s.Entries += attribute.index.Len()
			if h := attribute.index.Height(); h > s.MaxHeight {
				s.MaxHeight = h
			}
		}
	}
	return s
}
