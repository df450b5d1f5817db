// Command rcc composes a markdown document, its backlinks and the documents
// it links to into a single LLM prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dpshade22/recursive-context-copy/internal/config"
	"github.com/dpshade22/recursive-context-copy/internal/export"
	"github.com/dpshade22/recursive-context-copy/internal/logging"
	"github.com/dpshade22/recursive-context-copy/internal/session"
	"github.com/dpshade22/recursive-context-copy/internal/settings"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "templates":
			templatesMain(os.Args[2:])
			return
		case "links":
			linksMain(os.Args[2:])
			return
		case "settings":
			settingsMain(os.Args[2:])
			return
		}
	}
	composeMain()
}

// commonFlags are shared by every subcommand that opens a vault.
type commonFlags struct {
	vault     *string
	logLevel  *string
	logFormat *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		vault:     fs.String("vault", "", "vault directory (overrides RCC_VAULT)"),
		logLevel:  fs.String("log-level", "", "log level: debug, info, warn, error (overrides RCC_LOG_LEVEL)"),
		logFormat: fs.String("log-format", "", "log format: text, json (overrides RCC_LOG_FORMAT)"),
	}
}

// load reads the environment configuration and applies flag overrides.
func (c commonFlags) load() *config.Config {
	cfg, err := config.NewConfig()
	if err != nil && *c.vault == "" {
		log.Printf("[WARN] config: %v", err)
	}
	if *c.vault != "" {
		cfg.VaultDir = *c.vault
	}
	if *c.logLevel != "" {
		cfg.LogLevel = strings.ToLower(*c.logLevel)
	}
	if *c.logFormat != "" {
		cfg.LogFormat = strings.ToLower(*c.logFormat)
	}
	return cfg
}

func open(ctx context.Context, cfg *config.Config) *session.Session {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[ERROR] config: %v", err)
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	s, err := session.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	return s
}

func composeMain() {
	common := addCommonFlags(flag.CommandLine)
	depth := flag.Int("depth", -1, "link depth to follow, 0-4 (default: RCC_DEPTH, then default_depth from settings)")
	template := flag.String("template", "", "vault path of a note template to append to the prompt")
	promptFile := flag.String("prompt", "", "file holding a prompt template (default: prompt_template from settings)")
	raw := flag.Bool("raw", false, "output the composite document without a prompt")
	copyOut := flag.Bool("copy", false, "copy the result to the clipboard instead of printing it")
	outFile := flag.String("o", "", "write the result to a file (with a .meta sidecar)")
	settingsPath := flag.String("settings", "", "settings file (overrides RCC_SETTINGS)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: rcc [-vault DIR] [-depth N] [-template PATH] [-copy | -o FILE] DOCUMENT\n")
		fmt.Fprintf(os.Stderr, "       rcc templates [-vault DIR]\n")
		fmt.Fprintf(os.Stderr, "       rcc links [-vault DIR] DOCUMENT\n")
		fmt.Fprintf(os.Stderr, "       rcc settings <show|set|reset>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := common.load()
	if *settingsPath != "" {
		cfg.SettingsPath = *settingsPath
	}
	st, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Printf("[WARN] settings: %v (using defaults)", err)
		st = &settings.Store{Settings: settings.Defaults()}
	}

	_, envDepth := os.LookupEnv("RCC_DEPTH")
	cfg.Depth = chooseDepth(*depth, envDepth, cfg.Depth, st.Settings.DefaultDepth)

	promptTemplate := st.Settings.PromptTemplate
	if *promptFile != "" {
		data, err := os.ReadFile(*promptFile)
		if err != nil {
			log.Fatalf("[ERROR] read prompt template: %v", err)
		}
		promptTemplate = string(data)
	}

	templatePath := *template
	if templatePath == "" {
		templatePath = st.Settings.TemplatePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := open(ctx, cfg)
	res, err := s.Compose(ctx, session.Request{
		Path:           flag.Arg(0),
		Depth:          cfg.Depth,
		PromptTemplate: promptTemplate,
		TemplatePath:   templatePath,
		Raw:            *raw,
	})
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	for _, e := range res.Skipped {
		log.Printf("[WARN] skipped: %v", e)
	}

	switch {
	case *outFile != "":
		note, err := replacing(*outFile)
		if err != nil {
			log.Fatalf("[ERROR] read %s: %v", *outFile, err)
		}
		if note != "" {
			fmt.Fprintln(os.Stderr, note)
		}
		if err := export.WriteFile(*outFile, res.Text, resultMeta(res, *raw)); err != nil {
			log.Fatalf("[ERROR] write %s: %v", *outFile, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d documents, depth: %d)\n", *outFile, res.Nodes, res.Depth)
	case *copyOut:
		if err := export.Clipboard(res.Text); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		fmt.Fprintln(os.Stderr, export.Notice(res.Depth))
	default:
		fmt.Print(res.Text)
	}
}

// chooseDepth picks the traversal depth: the flag when given, then the
// environment, then the saved default.
func chooseDepth(flagDepth int, envSet bool, envDepth, savedDepth int) int {
	switch {
	case flagDepth >= 0:
		return flagDepth
	case envSet:
		return envDepth
	default:
		return savedDepth
	}
}

// replacing describes the export already at path, or returns "" if there
// is none.
func replacing(path string) (string, error) {
	e, err := export.ReadFile(path)
	if err != nil || e == nil {
		return "", err
	}
	if e.Meta.Root == "" {
		return fmt.Sprintf("Replacing %s", path), nil
	}
	return fmt.Sprintf("Replacing %s (%s of %s, depth: %d, generated %s)",
		path, e.Meta.Kind, e.Meta.Root, e.Meta.Depth, e.Meta.GeneratedAt.Format(time.RFC3339)), nil
}

func resultMeta(res *session.Result, raw bool) export.Meta {
	kind := export.KindPrompt
	if raw {
		kind = export.KindComposite
	}
	return export.Meta{
		Root:     res.Root.Path,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		Kind:     kind,
		Template: res.Template,
	}
}

func templatesMain(args []string) {
	fs := flag.NewFlagSet("templates", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: rcc templates [-vault DIR]\n\n")
		fmt.Fprintf(os.Stderr, "List the note templates found in the vault.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	s := open(context.Background(), common.load())
	docs := s.Templates()
	if len(docs) == 0 {
		fmt.Println("No templates found.")
		return
	}
	for _, d := range docs {
		fmt.Println(d.Path)
	}
}

func linksMain(args []string) {
	fs := flag.NewFlagSet("links", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: rcc links [-vault DIR] DOCUMENT\n\n")
		fmt.Fprintf(os.Stderr, "Show the backlinks and resolved forward links of a document.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	s := open(ctx, common.load())
	doc, err := s.Resolve(ctx, fs.Arg(0))
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
	back, err := s.Index.ListBacklinks(ctx, doc)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	fmt.Printf("%s\n", doc.Path)
	fmt.Printf("\nBacklinks (%d):\n", len(back))
	for _, d := range back {
		fmt.Printf("  <- %s\n", d.Path)
	}
	fwd := s.Index.Forward(doc)
	fmt.Printf("\nForward links (%d):\n", len(fwd))
	for _, d := range fwd {
		fmt.Printf("  -> %s\n", d.Path)
	}
}

func settingsMain(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: rcc settings <show|set|reset>\n")
		fmt.Fprintf(os.Stderr, "  show                Print the current settings\n")
		fmt.Fprintf(os.Stderr, "  set KEY VALUE       Change a setting (%s)\n", strings.Join(settingKeys(), ", "))
		fmt.Fprintf(os.Stderr, "  reset               Restore the default settings\n")
		os.Exit(1)
	}

	cfg, _ := config.NewConfig()
	st, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("[ERROR] load settings: %v", err)
	}

	switch args[0] {
	case "show":
		fmt.Printf("# %s\n", st.Path())
		fmt.Printf("default_depth = %d\n", st.Settings.DefaultDepth)
		fmt.Printf("template_path = %q\n", st.Settings.TemplatePath)
		fmt.Printf("prompt_template = \"\"\"\n%s\n\"\"\"\n", st.Settings.PromptTemplate)

	case "set":
		if len(args) < 3 {
			log.Fatal("usage: rcc settings set KEY VALUE")
		}
		if err := applySetting(&st.Settings, args[1], args[2]); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		if err := st.Save(); err != nil {
			log.Fatalf("[ERROR] save settings: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %s\n", args[1])

	case "reset":
		st.Settings = settings.Defaults()
		if err := st.Save(); err != nil {
			log.Fatalf("[ERROR] save settings: %v", err)
		}
		fmt.Fprintln(os.Stderr, "Settings reset to defaults")

	default:
		log.Fatalf("unknown settings command: %s", args[0])
	}
}

var settingSetters = map[string]func(*settings.Settings, string) error{
	"default_depth": func(s *settings.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("default_depth must be a number: %q", v)
		}
		s.DefaultDepth = n
		return nil
	},
	"template_path": func(s *settings.Settings, v string) error {
		s.TemplatePath = v
		return nil
	},
	"prompt_template": func(s *settings.Settings, v string) error {
		s.PromptTemplate = v
		return nil
	},
}

func settingKeys() []string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// applySetting sets key to value and validates the result.
func applySetting(s *settings.Settings, key, value string) error {
	set, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(settingKeys(), ", "))
	}
	if err := set(s, value); err != nil {
		return err
	}
	return s.Validate()
}
