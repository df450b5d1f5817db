// Package session wires a vault, its link index and the composer together
// for the rcc commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dpshade22/recursive-context-copy/internal/compose"
	"github.com/dpshade22/recursive-context-copy/internal/config"
	"github.com/dpshade22/recursive-context-copy/internal/index"
	"github.com/dpshade22/recursive-context-copy/internal/links"
	"github.com/dpshade22/recursive-context-copy/internal/prompt"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
	"github.com/dpshade22/recursive-context-copy/internal/watch"
)

// ErrNotFound is returned when a requested document cannot be resolved.
var ErrNotFound = errors.New("document not found")

// Session is an opened vault with a built link index.
type Session struct {
	Vault  *vault.Vault
	Index  *index.Index
	logger *slog.Logger
}

// Open builds the index for the vault named in cfg.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v, err := vault.New(cfg.VaultDir, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ix, err := index.Build(ctx, v, index.Options{Workers: cfg.Workers, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Debug("session opened", "root", v.Root(), "documents", ix.Len(), "elapsed", time.Since(start))
	return &Session{Vault: v, Index: ix, logger: logger}, nil
}

// Resolve finds the document a user means by p: an exact vault path, or
// anything a link to p from the vault root would resolve to.
func (s *Session) Resolve(ctx context.Context, p string) (vault.Document, error) {
	if doc, ok := s.Index.Lookup(p); ok {
		return doc, nil
	}
	if doc, ok := s.Index.ResolveReference(ctx, links.Reference{Target: p}, vault.Document{}); ok {
		return doc, nil
	}
	return vault.Document{}, fmt.Errorf("%s: %w", p, ErrNotFound)
}

// Read returns the resolved document and its content.
func (s *Session) Read(ctx context.Context, p string) (vault.Document, string, error) {
	doc, err := s.Resolve(ctx, p)
	if err != nil {
		return vault.Document{}, "", err
	}
	content, err := s.Vault.Read(doc)
	if err != nil {
		return doc, "", err
	}
	return doc, content, nil
}

// Templates lists the indexed template documents, sorted by path.
func (s *Session) Templates() []vault.Document {
	return vault.Templates(s.Index.Documents())
}

// Watch keeps the index current until ctx is done.
func (s *Session) Watch(ctx context.Context) error {
	w, err := watch.New(s.Vault, s.Index, watch.Options{Logger: s.logger})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Request describes one composition.
type Request struct {
	Path           string // document to start from
	Depth          int
	PromptTemplate string // empty means prompt.DefaultTemplate
	TemplatePath   string // optional note template appended to the prompt
	Raw            bool   // return the composite document without a prompt
}

// Result is a composed prompt or composite document.
type Result struct {
	Root     vault.Document
	Depth    int
	Nodes    int
	Template string // path of the note template used, if any
	Text     string
	Skipped  []error // node-local failures encountered during traversal
}

// Compose traverses from req.Path and renders the prompt.
func (s *Session) Compose(ctx context.Context, req Request) (*Result, error) {
	root, err := s.Resolve(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	res := &Result{Root: root, Depth: req.Depth}
	tree, err := compose.Traverse(ctx, s.Index, root, compose.Options{
		MaxDepth: req.Depth,
		Logger:   s.logger,
		OnError:  func(err error) { res.Skipped = append(res.Skipped, err) },
	})
	if err != nil {
		return nil, err
	}
	res.Nodes = tree.Count()
	composite := compose.Render(tree)

	if req.Raw {
		res.Text = composite
		return res, nil
	}

	var templateContent string
	if req.TemplatePath != "" {
		tdoc, content, err := s.Read(ctx, req.TemplatePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("template %s: %w", req.TemplatePath, ErrNotFound)
			}
			return nil, fmt.Errorf("read template %s: %w", req.TemplatePath, err)
		}
		templateContent = content
		res.Template = tdoc.Path
	}

	tmpl := req.PromptTemplate
	if tmpl == "" {
		tmpl = prompt.DefaultTemplate
	}
	res.Text = prompt.Generate(tmpl, prompt.Params{
		Filename:        root.Name,
		Depth:           req.Depth,
		Content:         composite,
		TemplateContent: templateContent,
	})
	s.logger.Info("composed", "root", root.Path, "depth", req.Depth, "nodes", res.Nodes, "skipped", len(res.Skipped))
	return res, nil
}
