package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// Options configures a traversal.
type Options struct {
	MaxDepth int          // deepest level explored; the root is depth 0
	Logger   *slog.Logger // may be nil
	OnError  func(error)  // receives every *ReadError and *ResolutionError, may be nil
}

type skipReason int

const (
	notSkipped skipReason = iota
	skipTooDeep
	skipVisited
	skipUnreadable
)

func (r skipReason) String() string {
	switch r {
	case skipTooDeep:
		return "too deep"
	case skipVisited:
		return "visited"
	case skipUnreadable:
		return "unreadable"
	default:
		return "none"
	}
}

// outcome is the result of visiting one candidate document: a node, or the
// reason no node was produced.
type outcome struct {
	node   *Node
	reason skipReason
	err    error // set when reason is skipUnreadable
}

type traversal struct {
	src    Source
	opts   Options
	logger *slog.Logger
}

// Traverse builds the link tree rooted at root.
//
// Backlinks are enumerated for the root only; each backlink branch gets its
// own copy of the visited set. Forward links are enumerated at every depth
// and share the visited set of their branch. A document whose content or
// link metadata cannot be read truncates only its own branch: the failure is
// passed to opts.OnError and the traversal continues. Only an unreadable
// root fails the whole traversal, with a *ReadError.
func Traverse(ctx context.Context, src Source, root vault.Document, opts Options) (*Node, error) {
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative (got %d)", opts.MaxDepth)
	}
	t := &traversal{src: src, opts: opts, logger: opts.Logger}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	out, err := t.visit(ctx, root, 0, newLineage())
	if err != nil {
		return nil, err
	}
	if out.node == nil {
		return nil, out.err
	}
	return out.node, nil
}

// BuildComposite traverses from root and renders the resulting tree.
func BuildComposite(ctx context.Context, src Source, root vault.Document, opts Options) (string, error) {
	tree, err := Traverse(ctx, src, root, opts)
	if err != nil {
		return "", err
	}
	return Render(tree), nil
}

// visit produces the node for doc at depth, marking it in lin. The returned
// error is non-nil only when ctx is done.
func (t *traversal) visit(ctx context.Context, doc vault.Document, depth int, lin *lineage) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}
	if depth > t.opts.MaxDepth {
		return t.skip(doc, skipTooDeep, nil), nil
	}
	if lin.has(doc.Path) {
		return t.skip(doc, skipVisited, nil), nil
	}
	lin.add(doc.Path)

	content, err := t.src.ReadContent(ctx, doc)
	if err != nil {
		rerr := &ReadError{Document: doc, Err: err}
		if depth > 0 {
			t.report(rerr)
		}
		return t.skip(doc, skipUnreadable, rerr), nil
	}

	node := &Node{Document: doc, Content: content, Depth: depth}
	if depth == t.opts.MaxDepth {
		return outcome{node: node}, nil
	}

	if depth == 0 {
		if err := t.expandBacklinks(ctx, node, lin.snapshot()); err != nil {
			return outcome{}, err
		}
	}
	if err := t.expandForwardLinks(ctx, node, lin); err != nil {
		return outcome{}, err
	}
	return outcome{node: node}, nil
}

func (t *traversal) expandBacklinks(ctx context.Context, node *Node, snap snapshot) error {
	backlinks, err := t.src.ListBacklinks(ctx, node.Document)
	if err != nil {
		t.report(&ResolutionError{Document: node.Document, Op: "backlinks", Err: err})
		return nil
	}
	for _, b := range backlinks {
		if snap.has(b.Path) {
			continue
		}
		out, err := t.visit(ctx, b, node.Depth+1, snap.fork())
		if err != nil {
			return err
		}
		if out.node != nil {
			node.Backlinks = append(node.Backlinks, out.node)
		}
	}
	return nil
}

func (t *traversal) expandForwardLinks(ctx context.Context, node *Node, lin *lineage) error {
	targets, err := t.forwardTargets(ctx, node.Document)
	if err != nil {
		t.report(&ResolutionError{Document: node.Document, Op: "forward links", Err: err})
		return nil
	}
	for _, target := range targets {
		if lin.has(target.Path) {
			continue
		}
		out, err := t.visit(ctx, target, node.Depth+1, lin)
		if err != nil {
			return err
		}
		if out.node != nil {
			node.ForwardLinks = append(node.ForwardLinks, out.node)
		}
	}
	return nil
}

// forwardTargets resolves the links and embeds of doc to distinct documents
// in order of first reference. Unresolvable references are dropped.
func (t *traversal) forwardTargets(ctx context.Context, doc vault.Document) ([]vault.Document, error) {
	refs, err := t.src.ListForwardReferences(ctx, doc)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(refs))
	var targets []vault.Document
	for _, r := range refs {
		target, ok := t.src.ResolveReference(ctx, r, doc)
		if !ok {
			continue
		}
		if _, dup := seen[target.Path]; dup {
			continue
		}
		seen[target.Path] = struct{}{}
		targets = append(targets, target)
	}
	return targets, nil
}

func (t *traversal) skip(doc vault.Document, reason skipReason, err error) outcome {
	t.logger.Debug("compose: skipped", "path", doc.Path, "reason", reason.String())
	return outcome{reason: reason, err: err}
}

func (t *traversal) report(err error) {
	t.logger.Warn("compose: branch truncated", "err", err)
	if t.opts.OnError != nil {
		t.opts.OnError(err)
	}
}
