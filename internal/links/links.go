// Package links extracts link and embed references from markdown documents.
//
// Both standard markdown links and wikilinks are recognized:
//
//	[text](other.md)      link
//	![alt](diagram.md)    embed
//	[[Other Note]]        link
//	[[Other|shown text]]  link, display text dropped
//	![[Other#Section]]    embed with a subpath
package links

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Reference is a link or embed target as written in a document.
type Reference struct {
	Target string // e.g. "Other Note#Section" or "../a.md"
	Embed  bool
}

// Linkpath returns the target without its subpath (#heading, #^block) and,
// for markdown links, with percent-escapes decoded.
func (r Reference) Linkpath() string {
	p := r.Target
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return strings.TrimSpace(p)
}

// IsExternal reports whether the target carries a URL scheme.
func (r Reference) IsExternal() bool {
	return strings.Contains(r.Target, "://") || strings.HasPrefix(r.Target, "mailto:")
}

var md = goldmark.New(
	goldmark.WithParserOptions(
		// Ahead of the standard link parser (200) so "[[" is not taken as a label.
		parser.WithInlineParsers(util.Prioritized(&wikilinkParser{}, 199)),
	),
)

// Extract parses body as markdown and returns all link and embed references
// in document order. Fragment-only targets and frontmatter are skipped.
func Extract(body string) []Reference {
	_, content, _ := ParseFrontmatter(body)
	src := []byte(content)
	doc := md.Parser().Parse(text.NewReader(src))

	var refs []Reference
	add := func(dest string, embed bool) {
		if dest == "" || strings.HasPrefix(dest, "#") {
			return
		}
		refs = append(refs, Reference{Target: dest, Embed: embed})
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			add(string(node.Destination), false)
		case *ast.Image:
			add(string(node.Destination), true)
		case *Wikilink:
			add(string(node.Target), node.Embed)
		}
		return ast.WalkContinue, nil
	})
	return refs
}
