package links

import (
	"bytes"
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// KindWikilink is the node kind of a [[wikilink]].
var KindWikilink = ast.NewNodeKind("Wikilink")

// Wikilink is an inline [[target]] or ![[target]] reference.
type Wikilink struct {
	ast.BaseInline

	Target []byte
	Embed  bool
}

// Kind implements ast.Node.
func (n *Wikilink) Kind() ast.NodeKind {
	return KindWikilink
}

// Dump implements ast.Node.
func (n *Wikilink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": string(n.Target),
		"Embed":  strconv.FormatBool(n.Embed),
	}, nil)
}

var (
	openWiki  = []byte("[[")
	closeWiki = []byte("]]")
)

type wikilinkParser struct{}

func (p *wikilinkParser) Trigger() []byte {
	return []byte{'!', '['}
}

func (p *wikilinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()

	start := 0
	embed := false
	if len(line) > 0 && line[0] == '!' {
		embed = true
		start = 1
	}
	if !bytes.HasPrefix(line[start:], openWiki) {
		return nil
	}

	rest := line[start+len(openWiki):]
	end := bytes.Index(rest, closeWiki)
	if end <= 0 {
		return nil
	}
	inner := rest[:end]
	if bytes.IndexByte(inner, '[') >= 0 {
		return nil
	}

	target := inner
	if i := bytes.IndexByte(target, '|'); i >= 0 {
		target = target[:i]
	}
	// Pipes are escaped inside tables: [[Note\|alias]].
	target = bytes.TrimSuffix(target, []byte{'\\'})
	target = bytes.TrimSpace(target)
	if len(target) == 0 {
		return nil
	}

	block.Advance(start + len(openWiki) + end + len(closeWiki))
	return &Wikilink{Target: bytes.Clone(target), Embed: embed}
}
