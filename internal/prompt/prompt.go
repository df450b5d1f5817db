// Package prompt turns a composite document into an LLM prompt.
//
// A prompt template may contain the placeholders {filename}, {depth} and
// {content}. Only the first occurrence of each is substituted.
package prompt

import (
	"strconv"
	"strings"
)

// Placeholders recognized in a prompt template.
const (
	PlaceholderFilename = "{filename}"
	PlaceholderDepth    = "{depth}"
	PlaceholderContent  = "{content}"
)

// Params holds the values substituted into a prompt template.
type Params struct {
	Filename string // display name of the root document
	Depth    int
	Content  string // rendered composite document

	// TemplateContent is the body of a note template the LLM should follow.
	// Empty means no template was chosen.
	TemplateContent string
}

const templateIntro = "\n\nPlease follow this template structure when creating the new note:\n\n"

// Generate fills tmpl with p.
func Generate(tmpl string, p Params) string {
	out := strings.Replace(tmpl, PlaceholderFilename, p.Filename, 1)
	out = strings.Replace(out, PlaceholderDepth, strconv.Itoa(p.Depth), 1)
	out = strings.Replace(out, PlaceholderContent, p.Content, 1)

	if p.TemplateContent != "" {
		out += templateIntro + p.TemplateContent
	}
	return out
}

// DefaultTemplate is used when no prompt template has been configured.
const DefaultTemplate = `Based on the following content from "{filename}", its backlinks, and forward links (recursion depth: {depth}), analyze and synthesize the information to create an enhanced Obsidian note. Consider the following aspects:

1. Key Concepts:
   - Identify and explain main ideas
   - Highlight important relationships between concepts
   - Suggest potential connections to other topics

2. Knowledge Structure:
   - Create a hierarchical organization of information
   - Identify gaps in the current content
   - Propose areas for further research

3. Obsidian-Specific Features:
   - Suggest relevant internal links ([[link]])
   - Recommend appropriate tags (#tag)
   - Identify opportunities for MOCs (Maps of Content)

Here's the source content:

{content}

Please provide a comprehensive response that includes:
1. A structured summary of the key points
2. Suggested connections and relationships
3. Potential areas for expansion
4. Recommended tags and links
5. Any additional insights or patterns you've identified

Format the response in an Obsidian-flavored Markdown codeblock, utilizing appropriate syntax for links, tags, and other Obsidian features.`
