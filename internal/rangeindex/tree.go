// Package rangeindex implements an unbalanced binary search tree that maps a
// numeric attribute value to creature names and answers inclusive range
// queries with open-ended bounds.
//
// Nodes live in an arena and are addressed by index. A child link that points
// nowhere holds the empty sentinel, so an empty subtree is a value, not a nil
// field on a half-initialised node.
package rangeindex

const empty = -1

// DefaultBounds are the implicit domain limits used for open query bounds.
// Every attribute value in the creature dataset is non-negative and below 500.
var DefaultBounds = Bounds{Min: 0, Max: 500}

// Bounds holds the values substituted for an open lower or upper bound.
type Bounds struct {
	Min float64
	Max float64
}

// Bound is one end of a query range. The zero value is an open bound.
type Bound struct {
	Value float64 `json:"value"`
	Set   bool    `json:"set"`
}

// Open returns an absent bound.
func Open() Bound { return Bound{} }

// At returns a bound fixed at v.
func At(v float64) Bound { return Bound{Value: v, Set: true} }

// Or returns the bound's value, or fallback when the bound is open.
func (b Bound) Or(fallback float64) float64 {
	if !b.Set {
		return fallback
	}
	return b.Value
}

type node struct {
	key   float64
	name  string
	left  int
	right int
}

// Tree is a range index over a single (category, attribute) pair.
type Tree struct {
	nodes  []node
	root   int
	bounds Bounds
}

// Option configures a Tree.
type Option func(*Tree)

// WithBounds overrides the implicit domain limits used for open bounds.
func WithBounds(b Bounds) Option {
	return func(t *Tree) {
		t.bounds = b
	}
}

// New returns an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{root: empty, bounds: DefaultBounds}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Bounds returns the implicit domain limits of the tree.
func (t *Tree) Bounds() Bounds {
	return t.bounds
}

// Empty reports whether nothing has been inserted.
func (t *Tree) Empty() bool {
	return t.root == empty
}

// Len returns the number of stored entries.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Insert places (key, name) at the leaf the comparison path leads to.
// Keys less than or equal to a node's key go left, so equal keys chain down
// the left side and every insertion gets its own node.
func (t *Tree) Insert(key float64, name string) {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{key: key, name: name, left: empty, right: empty})

	if t.root == empty {
		t.root = id
		return
	}

	cur := t.root
	for {
		n := &t.nodes[cur]
		if key <= n.key {
			if n.left == empty {
				n.left = id
				return
			}
			cur = n.left
		} else {
			if n.right == empty {
				n.right = id
				return
			}
			cur = n.right
		}
	}
}

// QueryRange returns the names whose key k satisfies lower <= k <= upper, in
// ascending key order. Open bounds are replaced by the tree's domain limits.
// The result is never nil.
func (t *Tree) QueryRange(lower, upper Bound) []string {
	lo := lower.Or(t.bounds.Min)
	hi := upper.Or(t.bounds.Max)

	out := []string{}
	if t.root == empty {
		return out
	}
	return t.collect(t.root, lo, hi, out)
}

// collect walks the subtree rooted at id in order. The left side can only hold
// keys <= n.key and the right side only keys > n.key, so a side is skipped
// once n.key has passed the matching bound.
func (t *Tree) collect(id int, lo, hi float64, out []string) []string {
	n := t.nodes[id]

	if n.left != empty && n.key >= lo {
		out = t.collect(n.left, lo, hi, out)
	}

	if lo <= n.key && n.key <= hi {
		out = append(out, n.name)
	}

	if n.right != empty && n.key <= hi {
		out = t.collect(n.right, lo, hi, out)
	}

	return out
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	return t.height(t.root)
}

func (t *Tree) height(id int) int {
	if id == empty {
		return 0
	}
	l := t.height(t.nodes[id].left)
	r := t.height(t.nodes[id].right)
	if l > r {
		return l + 1
	}
	return r + 1
}
