// Package index maintains the link metadata of a vault: the forward
// references of every document, the backlinks between documents, and the
// resolution of raw link targets to concrete documents.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/dpshade22/recursive-context-copy/internal/links"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

// ErrNotIndexed is returned for documents the index has never seen.
var ErrNotIndexed = errors.New("document not indexed")

// Index is a concurrency-safe link index over a vault. It satisfies the
// source interface consumed by the compose package.
type Index struct {
	vault  *vault.Vault
	logger *slog.Logger

	mu      sync.RWMutex
	docs    map[string]vault.Document
	refs    map[string][]links.Reference
	aliases map[string][]string // path → frontmatter aliases
	failed  map[string]error    // path → read error at index time

	byName  map[string][]string // lower(name) → paths
	byAlias map[string][]string // lower(alias) → paths
	out     map[string][]string // path → resolved targets, first occurrence order
	in      map[string]map[string]struct{}
	edges   int
}

func newIndex(v *vault.Vault, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Index{
		vault:   v,
		logger:  logger,
		docs:    make(map[string]vault.Document),
		refs:    make(map[string][]links.Reference),
		aliases: make(map[string][]string),
		failed:  make(map[string]error),
	}
}

// Vault returns the vault the index was built from.
func (ix *Index) Vault() *vault.Vault {
	return ix.vault
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// EdgeCount returns the number of distinct resolved document-to-document links.
func (ix *Index) EdgeCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.edges
}

// Documents returns all indexed documents sorted by path.
func (ix *Index) Documents() []vault.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	docs := make([]vault.Document, 0, len(ix.docs))
	for _, d := range ix.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}

// Lookup returns the indexed document at path p.
func (ix *Index) Lookup(p string) (vault.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	d, ok := ix.docs[vault.NewDocument(p).Path]
	return d, ok
}

// ReadContent returns the document's current content from the vault.
func (ix *Index) ReadContent(_ context.Context, doc vault.Document) (string, error) {
	return ix.vault.Read(doc)
}

// ListBacklinks returns the documents that reference doc, sorted by path.
func (ix *Index) ListBacklinks(_ context.Context, doc vault.Document) ([]vault.Document, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if _, ok := ix.docs[doc.Path]; !ok {
		return nil, fmt.Errorf("backlinks of %s: %w", doc.Path, ErrNotIndexed)
	}
	sources := ix.in[doc.Path]
	result := make([]vault.Document, 0, len(sources))
	for p := range sources {
		result = append(result, ix.docs[p])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// ListForwardReferences returns the raw references written in doc, in
// document order.
func (ix *Index) ListForwardReferences(_ context.Context, doc vault.Document) ([]links.Reference, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if _, ok := ix.docs[doc.Path]; !ok {
		return nil, fmt.Errorf("forward references of %s: %w", doc.Path, ErrNotIndexed)
	}
	if err := ix.failed[doc.Path]; err != nil {
		return nil, fmt.Errorf("forward references of %s: %w", doc.Path, err)
	}
	refs := make([]links.Reference, len(ix.refs[doc.Path]))
	copy(refs, ix.refs[doc.Path])
	return refs, nil
}

// ResolveReference resolves raw as written in from to an indexed document.
func (ix *Index) ResolveReference(_ context.Context, raw links.Reference, from vault.Document) (vault.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.resolve(raw, from.Path)
	if !ok {
		return vault.Document{}, false
	}
	return ix.docs[p], true
}

// Forward returns the resolved, deduplicated targets of doc.
func (ix *Index) Forward(doc vault.Document) []vault.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	targets := ix.out[doc.Path]
	result := make([]vault.Document, 0, len(targets))
	for _, p := range targets {
		result = append(result, ix.docs[p])
	}
	return result
}

// resolve maps a raw reference to a document path. The caller holds mu.
//
// Order of preference:
//  1. the path from the vault root,
//  2. the path relative to the source document's folder,
//  3. a document whose name matches the final path element,
//  4. a document declaring the target as a frontmatter alias.
//
// Linkpaths starting with ./ or ../ swap 1 and 2.
//
// Ties in 3 and 4 go to the source's folder, then the shortest path.
func (ix *Index) resolve(raw links.Reference, from string) (string, bool) {
	if raw.IsExternal() {
		return "", false
	}
	lp := raw.Linkpath()
	if lp == "" {
		return "", false
	}

	candidates := []string{path.Clean(strings.TrimLeft(lp, "/"))}
	if !strings.HasPrefix(lp, "/") {
		rel := path.Join(path.Dir(from), lp)
		if strings.HasPrefix(lp, "./") || strings.HasPrefix(lp, "../") {
			candidates = []string{rel, candidates[0]}
		} else {
			candidates = append(candidates, rel)
		}
	}
	for _, c := range candidates {
		if _, ok := ix.docs[c]; ok {
			return c, true
		}
		if _, ok := ix.docs[c+".md"]; ok {
			return c + ".md", true
		}
	}

	key := strings.TrimLeft(lp, "/")
	base := path.Base(key)
	if vault.IsMarkdown(base) {
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	var matches []string
	for _, p := range ix.byName[strings.ToLower(base)] {
		if strings.Contains(key, "/") && !pathHasSuffix(p, key) {
			continue
		}
		matches = append(matches, p)
	}
	if best := closest(matches, from); best != "" {
		return best, true
	}

	if best := closest(ix.byAlias[strings.ToLower(key)], from); best != "" {
		return best, true
	}
	return "", false
}

// pathHasSuffix reports whether document path p ends with the
// slash-separated linkpath key, with or without the .md extension.
func pathHasSuffix(p, key string) bool {
	lp, lk := strings.ToLower(p), strings.ToLower(key)
	trimmed := strings.TrimSuffix(lp, path.Ext(lp))
	for _, s := range []string{lp, trimmed} {
		if s == lk || strings.HasSuffix(s, "/"+lk) {
			return true
		}
	}
	return false
}

// closest picks the candidate nearest to the source document.
func closest(paths []string, from string) string {
	dir := path.Dir(from)
	best := ""
	for _, p := range paths {
		if best == "" || nearer(p, best, dir) {
			best = p
		}
	}
	return best
}

func nearer(a, b, dir string) bool {
	aSame, bSame := path.Dir(a) == dir, path.Dir(b) == dir
	if aSame != bSame {
		return aSame
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// rebuild recomputes name tables and edges from the parsed documents.
// The caller holds mu for writing.
func (ix *Index) rebuild() {
	ix.byName = make(map[string][]string, len(ix.docs))
	ix.byAlias = make(map[string][]string)
	for p, d := range ix.docs {
		key := strings.ToLower(d.Name)
		ix.byName[key] = append(ix.byName[key], p)
		for _, a := range ix.aliases[p] {
			ak := strings.ToLower(a)
			ix.byAlias[ak] = append(ix.byAlias[ak], p)
		}
	}

	ix.out = make(map[string][]string, len(ix.docs))
	ix.in = make(map[string]map[string]struct{}, len(ix.docs))
	ix.edges = 0
	for p := range ix.docs {
		seen := make(map[string]struct{})
		for _, r := range ix.refs[p] {
			target, ok := ix.resolve(r, p)
			if !ok {
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			ix.out[p] = append(ix.out[p], target)
			if ix.in[target] == nil {
				ix.in[target] = make(map[string]struct{})
			}
			ix.in[target][p] = struct{}{}
			ix.edges++
		}
	}
}
