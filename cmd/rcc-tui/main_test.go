package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dpshade22/recursive-context-copy/internal/config"
	"github.com/dpshade22/recursive-context-copy/internal/session"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Plan.md":              "See [[Tasks]]",
		"Tasks.md":             "todo [[Later]]",
		"Later.md":             "someday",
		"Templates/Summary.md": "## Summary",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sess, err := session.Open(context.Background(), &config.Config{VaultDir: root, Workers: 2, CacheSize: 16}, nil)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	store, err := settings.Load(filepath.Join(t.TempDir(), "settings.toml"))
	if err != nil {
		t.Fatal(err)
	}
	return initialModel("Plan", sess, store, newOptions(1, sess.Templates(), ""))
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds the resulting message back into m.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(model)
}

func TestComposeOnEnter(t *testing.T) {
	m := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if !m.loading {
		t.Error("expected loading after Enter")
	}
	m = run(t, m, cmd)

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if m.result == nil || m.result.Root.Path != "Plan.md" {
		t.Fatalf("result = %+v", m.result)
	}
	if m.result.Nodes != 2 {
		t.Errorf("nodes = %d, want 2 at depth 1", m.result.Nodes)
	}
	if m.focus != focusViewport {
		t.Error("focus should move to the preview")
	}
	if !strings.HasPrefix(m.pendingBody, "# Plan\n\n") {
		t.Errorf("preview = %q", m.pendingBody)
	}
}

func TestDepthKeysRecompose(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusViewport

	next, cmd := m.Update(keyRunes("+"))
	m = next.(model)
	if m.opts.depth != 2 {
		t.Fatalf("depth = %d, want 2", m.opts.depth)
	}
	m = run(t, m, cmd)
	if m.result == nil || m.result.Nodes != 3 {
		t.Fatalf("result at depth 2 = %+v", m.result)
	}

	next, _ = m.Update(keyRunes("-"))
	m = next.(model)
	next, _ = m.Update(keyRunes("-"))
	m = next.(model)
	if m.opts.depth != settings.MinDepth {
		t.Errorf("depth = %d, want %d", m.opts.depth, settings.MinDepth)
	}
}

func TestStaleComposeIgnored(t *testing.T) {
	m := newTestModel(t)
	m.seq = 5

	next, _ := m.Update(composeResult{err: errors.New("old"), seq: 4})
	m = next.(model)
	if m.err != nil {
		t.Error("stale result should be ignored")
	}
}

func TestComposeError(t *testing.T) {
	m := newTestModel(t)
	m.addressBar.SetValue("Nowhere")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, next.(model), cmd)
	if !errors.Is(m.err, session.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", m.err)
	}
	if m.result != nil {
		t.Error("result should be cleared on error")
	}
}

func TestTemplateCycleKey(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusViewport

	next, _ := m.Update(keyRunes("t"))
	m = next.(model)
	if got := m.opts.template(); got != "Templates/Summary.md" {
		t.Errorf("template = %q", got)
	}
	next, _ = m.Update(keyRunes("t"))
	m = next.(model)
	if got := m.opts.template(); got != "" {
		t.Errorf("template = %q, want none", got)
	}
}

func TestCopyResult(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(copyResult{depth: 3})
	m = next.(model)
	if m.notice != "Copied LLM prompt to clipboard (depth: 3)" {
		t.Errorf("notice = %q", m.notice)
	}

	next, _ = m.Update(copyResult{err: errors.New("no clipboard")})
	m = next.(model)
	if m.err == nil {
		t.Error("expected copy error to be shown")
	}
}

func TestCopyRequiresResult(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusViewport

	_, cmd := m.Update(keyRunes("c"))
	if cmd != nil {
		t.Error("copy without a composed preview should do nothing")
	}
}

func TestSaveDefaults(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusViewport
	m.opts = m.opts.withDepth(2).cycleTemplate(1)

	next, _ := m.Update(keyRunes("s"))
	m = next.(model)
	if m.err != nil {
		t.Fatalf("save: %v", m.err)
	}

	reloaded, err := settings.Load(m.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Settings.DefaultDepth != 3 || reloaded.Settings.TemplatePath != "Templates/Summary.md" {
		t.Errorf("saved settings = %+v", reloaded.Settings)
	}
}

func TestEditPrompt(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusViewport

	next, _ := m.Update(keyRunes("e"))
	m = next.(model)
	if m.focus != focusEditor {
		t.Fatal("expected editor focus")
	}

	m.editor.SetValue("Explain {filename}\n\n{content}")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(model)
	if m.focus != focusViewport {
		t.Error("focus should return to the preview after saving")
	}

	reloaded, err := settings.Load(m.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Settings.PromptTemplate != "Explain {filename}\n\n{content}" {
		t.Errorf("saved prompt = %q", reloaded.Settings.PromptTemplate)
	}
}

func TestEditPrompt_EmptyRejected(t *testing.T) {
	m := newTestModel(t)
	m.focus = focusEditor
	m.editor.SetValue("")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(model)
	if m.err == nil {
		t.Fatal("expected validation error")
	}
	if m.focus != focusEditor {
		t.Error("editor should stay open on error")
	}
	if m.store.Settings.PromptTemplate == "" {
		t.Error("failed save should restore the previous prompt")
	}
}
