package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dpshade22/recursive-context-copy/internal/export"
	"github.com/dpshade22/recursive-context-copy/internal/session"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
	"github.com/dpshade22/recursive-context-copy/internal/vault"
)

func TestChooseDepth(t *testing.T) {
	tests := []struct {
		name      string
		flagDepth int
		envSet    bool
		envDepth  int
		saved     int
		want      int
	}{
		{name: "flag wins", flagDepth: 3, envSet: true, envDepth: 2, saved: 1, want: 3},
		{name: "flag zero is explicit", flagDepth: 0, envSet: true, envDepth: 2, saved: 1, want: 0},
		{name: "env over saved", flagDepth: -1, envSet: true, envDepth: 2, saved: 4, want: 2},
		{name: "saved default", flagDepth: -1, envDepth: 1, saved: 4, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseDepth(tt.flagDepth, tt.envSet, tt.envDepth, tt.saved); got != tt.want {
				t.Errorf("chooseDepth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplySetting(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		check   func(settings.Settings) bool
		wantErr bool
	}{
		{name: "depth", key: "default_depth", value: "3", check: func(s settings.Settings) bool { return s.DefaultDepth == 3 }},
		{name: "template", key: "template_path", value: "Templates/A.md", check: func(s settings.Settings) bool { return s.TemplatePath == "Templates/A.md" }},
		{name: "prompt", key: "prompt_template", value: "{content}", check: func(s settings.Settings) bool { return s.PromptTemplate == "{content}" }},
		{name: "depth not a number", key: "default_depth", value: "deep", wantErr: true},
		{name: "depth out of range", key: "default_depth", value: "7", wantErr: true},
		{name: "empty prompt", key: "prompt_template", value: "", wantErr: true},
		{name: "unknown key", key: "colour", value: "blue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			err := applySetting(&s, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applySetting() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(s) {
				t.Errorf("setting not applied: %+v", s)
			}
		})
	}
}

func TestSettingKeys(t *testing.T) {
	got := settingKeys()
	want := []string{"default_depth", "prompt_template", "template_path"}
	if len(got) != len(want) {
		t.Fatalf("settingKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("settingKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResultMeta(t *testing.T) {
	res := &session.Result{Root: vault.NewDocument("Plan.md"), Depth: 2, Nodes: 4, Template: "Templates/S.md"}

	m := resultMeta(res, false)
	if m.Kind != export.KindPrompt || m.Root != "Plan.md" || m.Depth != 2 || m.Nodes != 4 || m.Template != "Templates/S.md" {
		t.Errorf("resultMeta(prompt) = %+v", m)
	}
	if got := resultMeta(res, true).Kind; got != export.KindComposite {
		t.Errorf("resultMeta(raw).Kind = %q", got)
	}
}

func TestReplacing(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	exported := filepath.Join(dir, "plan.txt")
	if err := export.WriteFile(exported, "body", export.Meta{Root: "Plan.md", Depth: 2, Nodes: 3, Kind: export.KindPrompt, GeneratedAt: at}); err != nil {
		t.Fatal(err)
	}
	bare := filepath.Join(dir, "bare.txt")
	if err := os.WriteFile(bare, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "missing", path: filepath.Join(dir, "none.txt"), want: ""},
		{name: "with sidecar", path: exported, want: "Replacing " + exported + " (prompt of Plan.md, depth: 2, generated 2026-03-01T09:30:00Z)"},
		{name: "without sidecar", path: bare, want: "Replacing " + bare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := replacing(tt.path)
			if err != nil {
				t.Fatalf("replacing: %v", err)
			}
			if got != tt.want {
				t.Errorf("replacing(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
