package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Plan.prompt.md")
	at := time.Date(2025, 2, 14, 10, 30, 0, 0, time.UTC)

	m := Meta{Root: "Projects/Plan.md", Depth: 2, Nodes: 5, Kind: KindPrompt, Template: "Templates/Summary.md", GeneratedAt: at}
	if err := WriteFile(path, "# Plan\n\nbody", m); err != nil {
		t.Fatalf("write: %v", err)
	}

	e, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if e == nil {
		t.Fatal("expected entry, got nil")
	}
	if e.Body != "# Plan\n\nbody" {
		t.Errorf("body: got %q", e.Body)
	}
	if e.Meta.Root != "Projects/Plan.md" || e.Meta.Depth != 2 || e.Meta.Nodes != 5 {
		t.Errorf("meta: got %+v", e.Meta)
	}
	if e.Meta.Kind != KindPrompt || e.Meta.Template != "Templates/Summary.md" {
		t.Errorf("meta: got %+v", e.Meta)
	}
	if !e.Meta.GeneratedAt.Equal(at) {
		t.Errorf("generated_at: got %v, want %v", e.Meta.GeneratedAt, at)
	}
}

func TestWriteFile_StampsTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.md")
	if err := WriteFile(path, "x", Meta{Kind: KindComposite}); err != nil {
		t.Fatal(err)
	}
	e, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Meta.GeneratedAt.IsZero() {
		t.Error("generated_at should be set")
	}
}

func TestWriteFile_EmptyPath(t *testing.T) {
	if err := WriteFile("", "x", Meta{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReadFile_Missing(t *testing.T) {
	e, err := ReadFile(filepath.Join(t.TempDir(), "nope.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if e != nil {
		t.Error("expected nil for missing file")
	}
}

func TestReadFile_CorruptMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.md")
	if err := os.WriteFile(path, []byte("body"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".meta", []byte("not valid {{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if e.Body != "body" {
		t.Errorf("body: got %q", e.Body)
	}
	if e.Meta != (Meta{}) {
		t.Errorf("expected zero meta, got %+v", e.Meta)
	}
}

func stubClipboard(t *testing.T, off bool, err error) *string {
	t.Helper()
	var got string
	origWrite, origOff := writeClipboard, clipboardOff
	writeClipboard = func(s string) error {
		got = s
		return err
	}
	clipboardOff = func() bool { return off }
	t.Cleanup(func() { writeClipboard, clipboardOff = origWrite, origOff })
	return &got
}

func TestClipboard(t *testing.T) {
	got := stubClipboard(t, false, nil)
	if err := Clipboard("prompt text"); err != nil {
		t.Fatalf("clipboard: %v", err)
	}
	if *got != "prompt text" {
		t.Errorf("copied %q", *got)
	}
}

func TestClipboard_Unsupported(t *testing.T) {
	got := stubClipboard(t, true, nil)
	if err := Clipboard("x"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Fatalf("expected ErrClipboardUnavailable, got %v", err)
	}
	if *got != "" {
		t.Error("nothing should be written when unsupported")
	}
}

func TestClipboard_WriteError(t *testing.T) {
	boom := errors.New("xclip failed")
	stubClipboard(t, false, boom)
	if err := Clipboard("x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNotice(t *testing.T) {
	if got := Notice(3); got != "Copied LLM prompt to clipboard (depth: 3)" {
		t.Errorf("Notice(3) = %q", got)
	}
}
