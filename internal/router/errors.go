package router

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownToken means no child of a dispatch node carries the token.
	ErrUnknownToken = errors.New("no such category or attribute")

	// ErrUnknownBucket means the leaf's bucket table has no entry for the token.
	ErrUnknownBucket = errors.New("no such bucket")

	// ErrMalformedQuery means the query has the wrong number of tokens for the
	// depth of the tree.
	ErrMalformedQuery = errors.New("malformed query")
)

// RoutingError reports where in the tree a query could not be routed.
type RoutingError struct {
	Path   []string // tokens consumed before the failure
	Token  string   // token that did not match, if any
	Tokens []string // remaining tokens on arity failures
	Err    error
}

func (e *RoutingError) Error() string {
	at := "root"
	if len(e.Path) > 0 {
		at = strings.Join(e.Path, "/")
	}
	switch {
	case e.Token != "":
		return fmt.Sprintf("%v: %q at %s", e.Err, e.Token, at)
	case len(e.Tokens) > 0:
		return fmt.Sprintf("%v: %d tokens left at %s, want 1", e.Err, len(e.Tokens), at)
	default:
		return fmt.Sprintf("%v: query ended at %s", e.Err, at)
	}
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}
