// Package export delivers composed prompts to the system clipboard or to
// files on disk.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/atotto/clipboard"
)

// Kinds of exported text.
const (
	KindPrompt    = "prompt"
	KindComposite = "composite"
)

// ErrClipboardUnavailable is returned when no clipboard utility is present
// (for example a headless Linux box without xclip, xsel or wl-copy).
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Meta describes how an exported text was produced. It is written next to
// the exported file as a TOML sidecar with a .meta suffix.
type Meta struct {
	Root        string    `toml:"root"`
	Depth       int       `toml:"depth"`
	Nodes       int       `toml:"nodes"`
	Kind        string    `toml:"kind"`
	Template    string    `toml:"template,omitempty"`
	GeneratedAt time.Time `toml:"generated_at"`
}

// Entry is an exported text with its metadata.
type Entry struct {
	Body string
	Meta Meta
}

// clipboard access is swapped out in tests.
var (
	writeClipboard = clipboard.WriteAll
	clipboardOff   = func() bool { return clipboard.Unsupported }
)

// Clipboard copies text to the system clipboard.
func Clipboard(text string) error {
	if clipboardOff() {
		return ErrClipboardUnavailable
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// Notice is the confirmation shown after a prompt was copied.
func Notice(depth int) string {
	return fmt.Sprintf("Copied LLM prompt to clipboard (depth: %d)", depth)
}

// WriteFile writes body to path and m to path + ".meta". A zero
// GeneratedAt is set to the current time.
func WriteFile(path, body string, m Meta) error {
	if path == "" {
		return errors.New("export path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return err
	}

	if m.GeneratedAt.IsZero() {
		m.GeneratedAt = time.Now().UTC()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return err
	}
	return os.WriteFile(path+".meta", buf.Bytes(), 0o644)
}

// ReadFile reads an exported file and its sidecar. Returns nil if the file
// does not exist. A missing or corrupt sidecar yields a zero Meta.
func ReadFile(path string) (*Entry, error) {
	body, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e := &Entry{Body: string(body)}
	if _, err := toml.DecodeFile(path+".meta", &e.Meta); err != nil {
		e.Meta = Meta{}
	}
	return e, nil
}
