package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpshade22/recursive-context-copy/internal/prompt"
)

func TestLoad_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Settings.PromptTemplate != prompt.DefaultTemplate {
		t.Error("expected default prompt template")
	}
	if s.Settings.DefaultDepth != MinDepth {
		t.Errorf("DefaultDepth = %d, want %d", s.Settings.DefaultDepth, MinDepth)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := `prompt_template = "Summarize {filename}: {content}"
default_depth = 3
template_path = "Templates/Summary.md"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Settings.PromptTemplate; got != "Summarize {filename}: {content}" {
		t.Errorf("PromptTemplate = %q", got)
	}
	if s.Settings.DefaultDepth != 3 {
		t.Errorf("DefaultDepth = %d, want 3", s.Settings.DefaultDepth)
	}
	if s.Settings.TemplatePath != "Templates/Summary.md" {
		t.Errorf("TemplatePath = %q", s.Settings.TemplatePath)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("default_depth = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Settings.PromptTemplate != prompt.DefaultTemplate {
		t.Error("missing prompt_template should keep the default")
	}
	if s.Settings.DefaultDepth != 2 {
		t.Errorf("DefaultDepth = %d, want 2", s.Settings.DefaultDepth)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid TOML", data: "not valid {{{"},
		{name: "depth too high", data: "default_depth = 9\n"},
		{name: "depth too low", data: "default_depth = -1\n"},
		{name: "empty prompt", data: "prompt_template = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Settings.PromptTemplate = "Review {filename}\n\n{content}"
	s.Settings.DefaultDepth = 4
	s.Settings.TemplatePath = "_templates/Review.md"
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file permissions = %o, want 600", perm)
	}

	s2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if s2.Settings != s.Settings {
		t.Errorf("reloaded settings = %+v, want %+v", s2.Settings, s.Settings)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	s, _ := Load(path)
	s.Settings.DefaultDepth = MaxDepth + 1

	err := s.Save()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "DefaultDepth") {
		t.Errorf("error %q should name the field", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("invalid settings should not be written")
	}
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath()
	if p == "" {
		t.Skip("no home directory")
	}
	if filepath.Base(p) != "settings.toml" || filepath.Base(filepath.Dir(p)) != ".rcc" {
		t.Errorf("DefaultPath() = %q", p)
	}
}
