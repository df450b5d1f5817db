// Package settings persists user preferences for composing prompts.
//
// Settings are stored in a TOML file (default ~/.rcc/settings.toml):
//
//	prompt_template = """
//	Summarize "{filename}" (depth {depth}):
//
//	{content}
//	"""
//	default_depth = 2
//	template_path = "Templates/Summary.md"
//
// Keys missing from the file keep their default values.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dpshade22/recursive-context-copy/internal/prompt"
)

// Depth bounds offered to users when choosing how far to follow links.
const (
	MinDepth = 1
	MaxDepth = 4
)

// Settings are the persisted user preferences.
type Settings struct {
	PromptTemplate string `toml:"prompt_template"`
	DefaultDepth   int    `toml:"default_depth"`
	TemplatePath   string `toml:"template_path,omitempty"` // vault path of the note template last used
}

// Defaults returns the settings used before anything has been saved.
func Defaults() Settings {
	return Settings{
		PromptTemplate: prompt.DefaultTemplate,
		DefaultDepth:   MinDepth,
	}
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.PromptTemplate, validation.Required),
		validation.Field(&s.DefaultDepth, validation.Required, validation.Min(MinDepth), validation.Max(MaxDepth)),
	)
}

// Store is a settings file on disk.
type Store struct {
	path     string
	Settings Settings
}

// DefaultPath returns the default settings file path (~/.rcc/settings.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rcc", "settings.toml")
}

// Load reads a settings file from disk. Returns defaults if the file does
// not exist yet. Returns an error if path is empty.
func Load(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("settings file path is empty (could not determine home directory)")
	}
	s := &Store{path: path, Settings: Defaults()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings file %q: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &s.Settings); err != nil {
		return nil, fmt.Errorf("parse settings file %q: %w", path, err)
	}
	if err := s.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file %q: %w", path, err)
	}
	return s, nil
}

// Path returns the file the store reads from and writes to.
func (s *Store) Path() string {
	return s.path
}

// Save validates the settings and writes them to disk.
func (s *Store) Save() error {
	if err := s.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open settings file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s.Settings); err != nil {
		_ = f.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	return f.Close()
}
