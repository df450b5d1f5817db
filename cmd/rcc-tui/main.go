package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade22/recursive-context-copy/internal/config"
	"github.com/dpshade22/recursive-context-copy/internal/export"
	"github.com/dpshade22/recursive-context-copy/internal/logging"
	"github.com/dpshade22/recursive-context-copy/internal/session"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
)

type focus int

const (
	focusAddressBar focus = iota
	focusViewport
	focusEditor
)

type model struct {
	sess  *session.Session
	store *settings.Store

	addressBar textinput.Model
	viewport   viewport.Model
	editor     textarea.Model
	focus      focus
	opts       options

	result      *session.Result
	notice      string
	err         error
	loading     bool
	seq         uint64
	pendingBody string
	width       int
	height      int
	ready       bool
}

// composeResult carries a preview composition back to the model.
type composeResult struct {
	result *session.Result
	err    error
	seq    uint64
}

// copyResult reports a prompt copied to the clipboard.
type copyResult struct {
	depth int
	err   error
}

func initialModel(doc string, sess *session.Session, store *settings.Store, opts options) model {
	ti := textinput.New()
	ti.Placeholder = "note path or name, e.g. Projects/Plan"
	ti.Prompt = " "
	ti.SetValue(doc)
	ti.Focus()

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(store.Settings.PromptTemplate)

	return model{
		sess:       sess,
		store:      store,
		addressBar: ti,
		editor:     ta,
		focus:      focusAddressBar,
		opts:       opts,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.addressBar.Value() != "" {
		cmds = append(cmds, m.doCompose())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.ready && m.focus == focusViewport {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3 // address bar + options + divider
		footerHeight := 1 // status bar
		bodyHeight := max(1, m.height-headerHeight-footerHeight)

		if !m.ready {
			m.viewport = viewport.New(m.width, bodyHeight)
			m.ready = true
			if m.pendingBody != "" {
				m.setPreview(m.pendingBody)
				m.pendingBody = ""
			}
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = bodyHeight
		}
		m.addressBar.Width = m.width - 2
		m.editor.SetWidth(m.width)
		m.editor.SetHeight(bodyHeight)
		return m, nil

	case composeResult:
		if msg.seq != m.seq {
			return m, nil // superseded by a newer request
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.result = nil
			if m.ready {
				m.viewport.SetContent(errorView(msg.err))
			}
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		if m.ready {
			m.setPreview(msg.result.Text)
			m.viewport.GotoTop()
		} else {
			m.pendingBody = msg.result.Text
		}
		if m.focus == focusAddressBar {
			m.focus = focusViewport
			m.addressBar.Blur()
		}
		return m, nil

	case copyResult:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = export.Notice(msg.depth)
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.focus {
	case focusEditor:
		return m.handleEditorKey(msg)
	case focusAddressBar:
		switch msg.Type {
		case tea.KeyEnter:
			if strings.TrimSpace(m.addressBar.Value()) == "" {
				return m, nil
			}
			cmd := m.recompose()
			return m, cmd
		case tea.KeyEscape, tea.KeyTab:
			m.focus = focusViewport
			m.addressBar.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.addressBar, cmd = m.addressBar.Update(msg)
		return m, cmd
	}

	// Viewport focused.
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "/":
		m.focus = focusAddressBar
		m.addressBar.Focus()
		return m, textinput.Blink
	case "+", "=", "right", "l":
		m.opts = m.opts.withDepth(1)
		cmd := m.recompose()
		return m, cmd
	case "-", "left", "h":
		m.opts = m.opts.withDepth(-1)
		cmd := m.recompose()
		return m, cmd
	case "t":
		m.opts = m.opts.cycleTemplate(1)
		m.notice = ""
		return m, nil
	case "T":
		m.opts = m.opts.cycleTemplate(-1)
		m.notice = ""
		return m, nil
	case "enter", "c", "y":
		if m.result == nil {
			return m, nil
		}
		m.loading = true
		return m, m.doCopy()
	case "e":
		m.focus = focusEditor
		m.editor.SetValue(m.store.Settings.PromptTemplate)
		cmd := m.editor.Focus()
		return m, cmd
	case "s":
		m.saveDefaults()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.focus = focusViewport
		m.editor.Blur()
		m.notice = "Prompt template unchanged"
		return m, nil
	case tea.KeyCtrlS:
		m.savePrompt(m.editor.Value())
		if m.err == nil {
			m.focus = focusViewport
			m.editor.Blur()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// recompose starts a fresh preview, discarding any in flight.
func (m *model) recompose() tea.Cmd {
	m.seq++
	m.loading = true
	m.notice = ""
	return m.doCompose()
}

func (m *model) savePrompt(text string) {
	prev := m.store.Settings.PromptTemplate
	m.store.Settings.PromptTemplate = text
	if err := m.store.Save(); err != nil {
		m.store.Settings.PromptTemplate = prev
		m.err = err
		return
	}
	m.err = nil
	m.notice = "Prompt template saved"
}

func (m *model) saveDefaults() {
	prev := m.store.Settings
	m.store.Settings.DefaultDepth = m.opts.depth
	m.store.Settings.TemplatePath = m.opts.template()
	if err := m.store.Save(); err != nil {
		m.store.Settings = prev
		m.err = err
		return
	}
	m.err = nil
	m.notice = fmt.Sprintf("Saved depth %d and %s as defaults", m.opts.depth, m.opts.templateLabel())
}

func (m *model) setPreview(body string) {
	rendered, err := renderMarkdown(body, m.width)
	if err != nil {
		m.viewport.SetContent(body)
		return
	}
	m.viewport.SetContent(rendered)
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	barStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Width(m.width)
	if m.focus == focusAddressBar {
		barStyle = barStyle.Bold(true)
	}
	b.WriteString(barStyle.Render(m.addressBar.View()))
	b.WriteByte('\n')

	optStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Width(m.width).
		Foreground(lipgloss.Color("12"))
	b.WriteString(optStyle.Render(m.opts.String()))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat("─", m.width))
	b.WriteByte('\n')

	if m.focus == focusEditor {
		b.WriteString(m.editor.View())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteByte('\n')

	b.WriteString(m.statusBarView())

	return b.String()
}

func (m model) statusBarView() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1)

	switch {
	case m.loading:
		return style.Render("Composing...")
	case m.err != nil:
		return style.Foreground(lipgloss.Color("9")).Render("Error: " + m.err.Error())
	case m.focus == focusEditor:
		return style.Faint(true).Render("Editing prompt template: {filename} {depth} {content}   [Ctrl+S] save  [Esc] cancel")
	case m.notice != "":
		return style.Foreground(lipgloss.Color("10")).Render(m.notice)
	case m.result == nil:
		return style.Faint(true).Render("Enter a note path and press Enter")
	}

	parts := []string{
		m.result.Root.Path,
		fmt.Sprintf("%d notes", m.result.Nodes),
	}
	if n := len(m.result.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	parts = append(parts,
		fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100)),
		"[+/-] depth  [t] template  [Enter] copy  [e] prompt  [s] save defaults  [q] quit",
	)
	return style.Render(strings.Join(parts, "  "))
}

// doCompose renders the composite document shown in the preview.
func (m model) doCompose() tea.Cmd {
	sess, seq := m.sess, m.seq
	req := session.Request{Path: strings.TrimSpace(m.addressBar.Value()), Depth: m.opts.depth, Raw: true}
	return func() tea.Msg {
		res, err := sess.Compose(context.Background(), req)
		return composeResult{result: res, err: err, seq: seq}
	}
}

// doCopy builds the full prompt and copies it to the clipboard.
func (m model) doCopy() tea.Cmd {
	sess := m.sess
	req := session.Request{
		Path:           m.result.Root.Path,
		Depth:          m.opts.depth,
		PromptTemplate: m.store.Settings.PromptTemplate,
		TemplatePath:   m.opts.template(),
	}
	return func() tea.Msg {
		res, err := sess.Compose(context.Background(), req)
		if err != nil {
			return copyResult{err: err}
		}
		if err := export.Clipboard(res.Text); err != nil {
			return copyResult{err: err}
		}
		return copyResult{depth: res.Depth}
	}
}

func renderMarkdown(body string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %s\n", err.Error())
}

func main() {
	vaultDir := flag.String("vault", "", "vault directory (overrides RCC_VAULT)")
	depth := flag.Int("depth", 0, "initial link depth, 1-4 (default: default_depth from settings)")
	watchVault := flag.Bool("watch", true, "re-index documents as they change")
	logFile := flag.String("log-file", "", "write logs to this file (the terminal belongs to the UI)")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil && *vaultDir == "" {
		log.Printf("[WARN] config: %v", err)
	}
	if *vaultDir != "" {
		cfg.VaultDir = *vaultDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[ERROR] config: %v", err)
	}

	logOut := os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("[ERROR] open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	} else {
		cfg.LogLevel = "error"
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)

	store, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("[ERROR] settings: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	if *watchVault {
		go func() {
			if err := sess.Watch(ctx); err != nil {
				logger.Warn("watcher stopped", "err", err)
			}
		}()
	}

	templates := sess.Templates()
	startDepth := store.Settings.DefaultDepth
	if *depth > 0 {
		startDepth = *depth
	}

	initialDoc := ""
	if flag.NArg() > 0 {
		initialDoc = flag.Arg(0)
	}

	p := tea.NewProgram(
		initialModel(initialDoc, sess, store, newOptions(startDepth, templates, store.Settings.TemplatePath)),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
