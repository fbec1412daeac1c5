//go:build !cgo

package equivalence

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when the tree-sitter extractor is unavailable.
var ErrNoCGO = errors.New("tree-sitter inventories require CGO")

// TreeSitterExtractor is a stub for non-CGO builds.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor always fails without CGO.
func NewTreeSitterExtractor() (*TreeSitterExtractor, error) {
	return nil, ErrNoCGO
}

// TreeSitterAvailable reports whether this build carries the tree-sitter grammars.
func TreeSitterAvailable() bool { return false }

func (e *TreeSitterExtractor) Extract(context.Context, string, Language) (Inventory, error) {
	return Inventory{}, ErrNoCGO
}
