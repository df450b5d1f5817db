// Command rcc-mcp is an MCP server that exposes a markdown vault to LLM
// agents. It composes a document with its backlinks and forward links into a
// single context block, reads documents, and lists note templates via stdio
// transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dpshade22/recursive-context-copy/internal/config"
	"github.com/dpshade22/recursive-context-copy/internal/logging"
	"github.com/dpshade22/recursive-context-copy/internal/session"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
)

func main() {
	vaultDir := flag.String("vault", "", "vault directory (overrides RCC_VAULT)")
	watchVault := flag.Bool("watch", true, "re-index documents as they change")
	logLevel := flag.String("log-level", "", "log level (overrides RCC_LOG_LEVEL)")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil && *vaultDir == "" {
		log.Printf("[WARN] config: %v", err)
	}
	if *vaultDir != "" {
		cfg.VaultDir = *vaultDir
	}
	if *logLevel != "" {
		cfg.LogLevel = strings.ToLower(*logLevel)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[ERROR] config: %v", err)
	}

	// stdout carries the MCP protocol.
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	st, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Warn("settings unavailable, using defaults", "err", err)
		st = &settings.Store{Settings: settings.Defaults()}
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

	s := server.NewMCPServer("rcc-mcp", "0.1.0")

	h := &handler{sess: sess, settings: st.Settings}
	startSettingsReloader(h, cfg.SettingsPath, logger)
	s.AddTool(composeContextTool(), h.composeContext)
	s.AddTool(readDocumentTool(), h.readDocument)
	s.AddTool(documentLinksTool(), h.documentLinks)
	s.AddTool(listTemplatesTool(), h.listTemplates)

	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

type handler struct {
	sess *session.Session

	mu       sync.RWMutex
	settings settings.Settings
}

func (h *handler) currentSettings() settings.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// reloadSettings replaces the settings with those in the file at path.
// The current settings are kept if the file cannot be loaded.
func (h *handler) reloadSettings(path string) error {
	st, err := settings.Load(path)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.settings = st.Settings
	h.mu.Unlock()
	return nil
}

// Tool definitions.

const pathDesc = "vault path or note name, e.g. Projects/Plan.md or Plan"

func composeContextTool() mcp.Tool {
	return mcp.NewTool("compose_context",
		mcp.WithDescription(
			"Compose a note, the notes linking to it, and the notes it links to "+
				"(recursively, up to depth) into a single markdown document. "+
				"Returns an LLM prompt built from it unless raw is true.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description(pathDesc),
		),
		mcp.WithNumber("depth",
			mcp.Description(fmt.Sprintf("link depth to follow (0-%d, default from settings)", settings.MaxDepth)),
		),
		mcp.WithString("template",
			mcp.Description("vault path of a note template the prompt should ask to follow"),
		),
		mcp.WithBoolean("raw",
			mcp.Description("return the composite document without the prompt"),
		),
	)
}

func readDocumentTool() mcp.Tool {
	return mcp.NewTool("read_document",
		mcp.WithDescription("Read a single note from the vault. Returns its markdown content."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description(pathDesc),
		),
	)
}

func documentLinksTool() mcp.Tool {
	return mcp.NewTool("document_links",
		mcp.WithDescription(
			"List the notes linking to a note (backlinks) and the notes it links to. "+
				"Use this to decide how deep to compose.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description(pathDesc),
		),
	)
}

func listTemplatesTool() mcp.Tool {
	return mcp.NewTool("list_templates",
		mcp.WithDescription("List note templates in the vault, for use with compose_context."),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) composeContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	st := h.currentSettings()
	depth := clampDepth(req.GetInt("depth", st.DefaultDepth))
	template := req.GetString("template", st.TemplatePath)

	res, err := h.sess.Compose(ctx, session.Request{
		Path:           p,
		Depth:          depth,
		PromptTemplate: st.PromptTemplate,
		TemplatePath:   template,
		Raw:            req.GetBool("raw", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compose failed: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(res.Text)
	if len(res.Skipped) > 0 {
		b.WriteString("\n\n<!-- skipped:\n")
		for _, e := range res.Skipped {
			fmt.Fprintf(&b, "  %v\n", e)
		}
		b.WriteString("-->\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handler) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	doc, content, err := h.sess.Read(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("path: %s\n\n%s", doc.Path, content)), nil
}

func (h *handler) documentLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	doc, err := h.sess.Resolve(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	back, err := h.sess.Index.ListBacklinks(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("backlinks failed: %v", err)), nil
	}
	fwd := h.sess.Index.Forward(doc)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d backlinks, %d forward links\n", doc.Path, len(back), len(fwd))
	if len(back) > 0 {
		b.WriteString("\nBacklinks:\n")
		for _, d := range back {
			fmt.Fprintf(&b, "  <- %s\n", d.Path)
		}
	}
	if len(fwd) > 0 {
		b.WriteString("\nForward links:\n")
		for _, d := range fwd {
			fmt.Fprintf(&b, "  -> %s\n", d.Path)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handler) listTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	docs := h.sess.Templates()
	if len(docs) == 0 {
		return mcp.NewToolResultText("No templates found."), nil
	}
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Path)
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func clampDepth(d int) int {
	return max(0, min(d, settings.MaxDepth))
}
