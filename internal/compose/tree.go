// Package compose assembles a single composite text document from a root
// document and the documents linked to and from it.
//
// Traverse walks the link graph into a tree of Nodes: backlinks are explored
// from the root only, forward links from every visited document, down to a
// maximum depth. Render flattens that tree into depth-annotated markdown
// suitable for an LLM prompt.
package compose

import (
	"context"
	"fmt"

	"github.com/dpshade22/recursive-context-copy/internal/links"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// Source is the read-only view of the document store and its link index
// that a traversal needs.
type Source interface {
	ReadContent(ctx context.Context, doc vault.Document) (string, error)
	ListBacklinks(ctx context.Context, doc vault.Document) ([]vault.Document, error)
	ListForwardReferences(ctx context.Context, doc vault.Document) ([]links.Reference, error)
	ResolveReference(ctx context.Context, raw links.Reference, from vault.Document) (vault.Document, bool)
}

// Node is one document visited by a traversal.
type Node struct {
	Document     vault.Document
	Content      string // snapshot taken when the node was visited
	Depth        int
	Backlinks    []*Node // only ever populated on the root
	ForwardLinks []*Node
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Backlinks {
		total += c.Count()
	}
	for _, c := range n.ForwardLinks {
		total += c.Count()
	}
	return total
}

// ReadError reports a document whose content could not be read.
type ReadError struct {
	Document vault.Document
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Document.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ResolutionError reports a failed backlink or forward-link lookup.
type ResolutionError struct {
	Document vault.Document
	Op       string // "backlinks" or "forward links"
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s of %s: %v", e.Op, e.Document.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
