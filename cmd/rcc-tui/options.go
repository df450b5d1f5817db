package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/dpshade22/recursive-context-copy/internal/settings"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

const noTemplate = "No template"

// options are the composition choices offered before copying: how deep to
// follow links and which note template, if any, to append.
type options struct {
	depth     int
	templates []string // vault paths; "" is "No template"
	selected  int
}

// newOptions starts at depth with current preselected when it is one of
// the vault's templates.
func newOptions(depth int, templates []vault.Document, current string) options {
	o := options{depth: clampDepth(depth), templates: []string{""}}
	for _, t := range templates {
		o.templates = append(o.templates, t.Path)
		if t.Path == current {
			o.selected = len(o.templates) - 1
		}
	}
	return o
}

func clampDepth(d int) int {
	return max(settings.MinDepth, min(d, settings.MaxDepth))
}

func (o options) withDepth(delta int) options {
	o.depth = clampDepth(o.depth + delta)
	return o
}

// cycleTemplate moves the selection by delta, wrapping around.
func (o options) cycleTemplate(delta int) options {
	n := len(o.templates)
	o.selected = ((o.selected+delta)%n + n) % n
	return o
}

func (o options) template() string {
	return o.templates[o.selected]
}

func (o options) templateLabel() string {
	t := o.template()
	if t == "" {
		return noTemplate
	}
	return strings.TrimSuffix(path.Base(t), path.Ext(t))
}

// depthGauge draws the depth as a row of filled and empty cells.
func (o options) depthGauge() string {
	return strings.Repeat("●", o.depth) + strings.Repeat("○", settings.MaxDepth-o.depth)
}

func (o options) String() string {
	return fmt.Sprintf("Depth %s %d   Template: %s", o.depthGauge(), o.depth, o.templateLabel())
}
