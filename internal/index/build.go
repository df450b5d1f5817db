package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dpshade22/recursive-context-copy/internal/links"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// Options configures index construction.
type Options struct {
	Workers int          // concurrent document parsers (default: 8)
	Logger  *slog.Logger // may be nil
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 8
	}
}

type parsed struct {
	doc     vault.Document
	refs    []links.Reference
	aliases []string
	err     error
}

// Build reads and parses every document in v and returns the resulting
// index. A document that cannot be read is still indexed, but has no
// references; listing its references reports the read error.
func Build(ctx context.Context, v *vault.Vault, opts Options) (*Index, error) {
	opts.applyDefaults()
	ix := newIndex(v, opts.Logger)

	docs, err := v.List()
	if err != nil {
		return nil, err
	}

	results := make([]parsed, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ix.parse(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	ix.mu.Lock()
	for _, r := range results {
		ix.store(r)
	}
	ix.rebuild()
	ix.mu.Unlock()

	ix.logger.Info("index built", "root", v.Root(), "documents", len(docs), "links", ix.EdgeCount())
	return ix, nil
}

// Refresh re-reads the document at path p, or drops it from the index if it
// no longer exists.
func (ix *Index) Refresh(p string) error {
	ix.vault.Forget(p)
	doc, err := ix.vault.Lookup(p)
	if errors.Is(err, os.ErrNotExist) {
		ix.Remove(p)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", p, err)
	}

	r := ix.parse(doc)
	ix.mu.Lock()
	ix.store(r)
	ix.rebuild()
	ix.mu.Unlock()
	ix.logger.Debug("index refreshed", "path", doc.Path)
	return nil
}

// Remove drops the document at path p from the index.
func (ix *Index) Remove(p string) {
	key := vault.NewDocument(p).Path
	ix.vault.Forget(key)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[key]; !ok {
		return
	}
	delete(ix.docs, key)
	delete(ix.refs, key)
	delete(ix.aliases, key)
	delete(ix.failed, key)
	ix.rebuild()
	ix.logger.Debug("index removed", "path", key)
}

// RemoveTree drops every document below the folder dir and returns how
// many were removed.
func (ix *Index) RemoveTree(dir string) int {
	prefix := strings.Trim(path.Clean("/"+dir), "/") + "/"
	if prefix == "/" {
		return 0
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var removed []string
	for p := range ix.docs {
		if strings.HasPrefix(p, prefix) {
			removed = append(removed, p)
		}
	}
	if len(removed) == 0 {
		return 0
	}
	for _, p := range removed {
		ix.vault.Forget(p)
		delete(ix.docs, p)
		delete(ix.refs, p)
		delete(ix.aliases, p)
		delete(ix.failed, p)
	}
	ix.rebuild()
	ix.logger.Debug("index removed folder", "dir", strings.TrimSuffix(prefix, "/"), "documents", len(removed))
	return len(removed)
}

func (ix *Index) parse(d vault.Document) parsed {
	content, err := ix.vault.Read(d)
	if err != nil {
		ix.logger.Warn("index: read failed", "path", d.Path, "err", err)
		return parsed{doc: d, err: err}
	}
	fm, _, err := links.ParseFrontmatter(content)
	if err != nil {
		ix.logger.Debug("index: frontmatter ignored", "path", d.Path, "err", err)
	}
	return parsed{doc: d, refs: links.Extract(content), aliases: fm.Aliases}
}

// store records a parse result. The caller holds mu for writing.
func (ix *Index) store(r parsed) {
	ix.docs[r.doc.Path] = r.doc
	ix.refs[r.doc.Path] = r.refs
	ix.aliases[r.doc.Path] = r.aliases
	if r.err != nil {
		ix.failed[r.doc.Path] = r.err
	} else {
		delete(ix.failed, r.doc.Path)
	}
}
