// Package router dispatches a short token query (category, attribute, bucket)
// through a fixed-depth tree to the range index that owns the
// (category, attribute) pair.
package router

import (
	"github.com/krakend/dex-mcp-server/internal/rangeindex"
)

// Range is a numeric interval with optionally open ends.
type Range struct {
	Lower rangeindex.Bound `json:"lower"`
	Upper rangeindex.Bound `json:"upper"`
}

// BucketTable translates a composed bucket label ("high attack") into a range.
type BucketTable map[string]Range

type kind uint8

const (
	dispatch kind = iota
	leaf
)

// Node is either a dispatch node whose children are further nodes, or a leaf
// that owns exactly one range index and the bucket table for its attribute.
type Node struct {
	label    string
	kind     kind
	table    BucketTable
	index    *rangeindex.Tree
	children []*Node
	byLabel  map[string]*Node
}

// NewDispatch returns a node that routes on its children's labels.
func NewDispatch(label string) *Node {
	return &Node{label: label, kind: dispatch}
}

// NewLeaf returns a node owning index. A leaf always carries a table.
func NewLeaf(label string, table BucketTable, index *rangeindex.Tree) *Node {
	if table == nil || index == nil {
		panic("router: leaf " + label + " needs both a bucket table and an index")
	}
	return &Node{label: label, kind: leaf, table: table, index: index}
}

// Label returns the token this node matches.
func (n *Node) Label() string { return n.label }

// IsLeaf reports whether the node owns a range index.
func (n *Node) IsLeaf() bool { return n.kind == leaf }

// Index returns the owned range index, or nil for dispatch nodes.
func (n *Node) Index() *rangeindex.Tree { return n.index }

// Buckets returns the leaf's bucket table, or nil for dispatch nodes.
func (n *Node) Buckets() BucketTable { return n.table }

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node { return n.children }

// Child returns the first child labelled label.
func (n *Node) Child(label string) (*Node, bool) {
	c, ok := n.byLabel[label]
	return c, ok
}

// AddChild appends child. Labels are not deduplicated; when two children share
// a label the first one added keeps receiving queries.
func (n *Node) AddChild(child *Node) {
	if n.kind == leaf {
		panic("router: leaf " + n.label + " cannot have children")
	}
	n.children = append(n.children, child)
	if n.byLabel == nil {
		n.byLabel = make(map[string]*Node)
	}
	if _, exists := n.byLabel[child.label]; !exists {
		n.byLabel[child.label] = child
	}
}

// Evaluate routes tokens to a leaf and returns the names whose value falls in
// the bucket named by the final token. An empty result is not an error.
func (n *Node) Evaluate(tokens []string) ([]string, error) {
	index, r, err := n.Resolve(tokens)
	if err != nil {
		return nil, err
	}
	return index.QueryRange(r.Lower, r.Upper), nil
}

// Resolve performs the routing half of Evaluate and returns the leaf's index
// together with the translated bucket range.
func (n *Node) Resolve(tokens []string) (*rangeindex.Tree, Range, error) {
	return n.resolve(nil, tokens)
}

func (n *Node) resolve(path, tokens []string) (*rangeindex.Tree, Range, error) {
	if n.kind == leaf {
		if len(tokens) != 1 {
			return nil, Range{}, &RoutingError{Path: path, Tokens: tokens, Err: ErrMalformedQuery}
		}
		r, ok := n.table[tokens[0]]
		if !ok {
			return nil, Range{}, &RoutingError{Path: path, Token: tokens[0], Err: ErrUnknownBucket}
		}
		return n.index, r, nil
	}

	if len(tokens) == 0 {
		return nil, Range{}, &RoutingError{Path: path, Err: ErrMalformedQuery}
	}

	child, ok := n.Child(tokens[0])
	if !ok {
		return nil, Range{}, &RoutingError{Path: path, Token: tokens[0], Err: ErrUnknownToken}
	}
	return child.resolve(append(path, tokens[0]), tokens[1:])
}
