package links

import (
	"testing"
)

func TestParseFrontmatter(t *testing.T) {
	body := "---\naliases: [Plan, Roadmap]\ntags: project\n---\n# Title\n\nText\n"

	fm, rest, err := ParseFrontmatter(body)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if len(fm.Aliases) != 2 || fm.Aliases[0] != "Plan" || fm.Aliases[1] != "Roadmap" {
		t.Errorf("Aliases = %v, want [Plan Roadmap]", fm.Aliases)
	}
	if rest != "# Title\n\nText\n" {
		t.Errorf("rest = %q", rest)
	}
}

func TestParseFrontmatter_ScalarAlias(t *testing.T) {
	fm, _, err := ParseFrontmatter("---\naliases: Single\n---\nbody")
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if len(fm.Aliases) != 1 || fm.Aliases[0] != "Single" {
		t.Errorf("Aliases = %v, want [Single]", fm.Aliases)
	}
}

func TestParseFrontmatter_None(t *testing.T) {
	body := "# No frontmatter\n"
	fm, rest, err := ParseFrontmatter(body)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if len(fm.Aliases) != 0 {
		t.Errorf("Aliases = %v, want none", fm.Aliases)
	}
	if rest != body {
		t.Errorf("rest = %q, want body unchanged", rest)
	}
}

func TestParseFrontmatter_Unclosed(t *testing.T) {
	body := "---\naliases: [a]\nno closing"
	_, rest, err := ParseFrontmatter(body)
	if err == nil {
		t.Fatal("expected error for unclosed frontmatter")
	}
	if rest != body {
		t.Errorf("rest = %q, want body unchanged", rest)
	}
}

func TestParseFrontmatter_InvalidYAML(t *testing.T) {
	_, rest, err := ParseFrontmatter("---\naliases: [unterminated\n---\nbody")
	if err == nil {
		t.Fatal("expected YAML error")
	}
	if rest != "body" {
		t.Errorf("rest = %q, want %q", rest, "body")
	}
}

func TestParseFrontmatter_CRLF(t *testing.T) {
	fm, rest, err := ParseFrontmatter("---\r\naliases: [x]\r\n---\r\nbody")
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if len(fm.Aliases) != 1 || fm.Aliases[0] != "x" {
		t.Errorf("Aliases = %v, want [x]", fm.Aliases)
	}
	if rest != "body" {
		t.Errorf("rest = %q, want %q", rest, "body")
	}
}
