// Package query parses the four-word text queries users type, such as
// "find fire high attack", into the token path the router evaluates.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/krakend/dex-mcp-server/internal/dataset"
)

// Actions.
const (
	Find = "find"
	Plot = "plot"
)

// ErrInvalidQuery is wrapped by every parse failure.
var ErrInvalidQuery = errors.New("invalid query")

// Vocabulary lists the words accepted in each position.
type Vocabulary struct {
	Categories []string `json:"categories"`
	Degrees    []string `json:"degrees"`
	Attributes []string `json:"attributes"`
}

// Query is a parsed "<action> <category> <degree> <attribute>" request.
type Query struct {
	Action    string `json:"action"`
	Category  string `json:"category"`
	Degree    string `json:"degree"`
	Attribute string `json:"attribute"`
}

// Parse validates text against vocab. Words are matched case-insensitively.
func Parse(text string, vocab Vocabulary) (Query, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) != 4 {
		return Query{}, fmt.Errorf("%w: want \"<find|plot> <category> <degree> <attribute>\", got %d words", ErrInvalidQuery, len(words))
	}

	q := Query{Action: words[0], Category: words[1], Degree: words[2], Attribute: words[3]}

	if q.Action != Find && q.Action != Plot {
		return Query{}, fmt.Errorf("%w: unknown action %q", ErrInvalidQuery, q.Action)
	}
	if !slices.Contains(vocab.Categories, q.Category) {
		return Query{}, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, q.Category)
	}
	if !slices.Contains(vocab.Degrees, q.Degree) {
		return Query{}, fmt.Errorf("%w: unknown degree %q", ErrInvalidQuery, q.Degree)
	}
	if !slices.Contains(vocab.Attributes, q.Attribute) {
		return Query{}, fmt.Errorf("%w: unknown attribute %q", ErrInvalidQuery, q.Attribute)
	}

	return q, nil
}

// Tokens returns the router path [category, attribute, "<degree> <attribute>"].
func (q Query) Tokens() []string {
	return []string{q.Category, q.Attribute, dataset.BucketKey(q.Degree, q.Attribute)}
}

// String renders the query back to its text form.
func (q Query) String() string {
	return strings.Join([]string{q.Action, q.Category, q.Degree, q.Attribute}, " ")
}
