package compose

import (
	"fmt"
	"io"
	"strings"
)

const separator = "\n\n---\n\n"

// Render flattens the tree into markdown, depth first. Each document is a
// level-one heading with its content and a horizontal rule, followed by a
// "Backlinks to" section and then a "Forward Links from" section holding its
// children. Headings below the root carry a " (Depth N)" suffix.
func Render(n *Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

// RenderTo writes the rendered tree to w.
func RenderTo(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, Render(n))
	return err
}

func writeNode(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	suffix := depthSuffix(n.Depth)

	fmt.Fprintf(b, "# %s%s\n\n", n.Document.Name, suffix)
	b.WriteString(n.Content)
	b.WriteString(separator)

	if len(n.Backlinks) > 0 {
		fmt.Fprintf(b, "# Backlinks to %s%s\n\n", n.Document.Name, suffix)
		for _, c := range n.Backlinks {
			writeNode(b, c)
		}
	}

	if len(n.ForwardLinks) > 0 {
		fmt.Fprintf(b, "# Forward Links from %s%s\n\n", n.Document.Name, suffix)
		for _, c := range n.ForwardLinks {
			writeNode(b, c)
		}
	}
}

func depthSuffix(depth int) string {
	if depth == 0 {
		return ""
	}
	return fmt.Sprintf(" (Depth %d)", depth)
}
