package links

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds the YAML metadata block at the top of a document.
type Frontmatter struct {
	Aliases stringList `yaml:"aliases"`
}

// stringList accepts either a single scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value != "" {
			*l = stringList{value.Value}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected string or list", value.Line)
}

// ParseFrontmatter splits body into its YAML frontmatter and the markdown
// that follows. A body without frontmatter yields a zero Frontmatter and
// the body unchanged.
//
// Expected format:
//
//	---
//	aliases: [Plan, Roadmap]
//	---
//	# Markdown content here
func ParseFrontmatter(body string) (Frontmatter, string, error) {
	var fm Frontmatter
	if !strings.HasPrefix(body, "---\n") && !strings.HasPrefix(body, "---\r\n") {
		return fm, body, nil
	}

	lines := strings.SplitAfter(body, "\n")
	closing := 0
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing == 0 {
		return fm, body, errors.New("missing closing frontmatter delimiter '---'")
	}

	raw := strings.Join(lines[1:closing], "")
	rest := strings.Join(lines[closing+1:], "")
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return Frontmatter{}, rest, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	return fm, rest, nil
}
