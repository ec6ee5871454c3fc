package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/config"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/logging"
	"github.com/hpungsan/intake/internal/mcp"
	"github.com/hpungsan/intake/internal/metrics"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/session"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "export": true, "import": true,
	"concepts": true, "faq": true, "simulate": true,
	"web": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _       _        _
  (_)_ __ | |_ __ _| | _____
  | | '_ \| __/ _' | |/ / _ \
  | | | | | || (_| |   <  __/
  |_|_| |_|\__\__,_|_|\_\___|

  Conversational record-filling agents

  Usage: intake <command> [options]
         intake --help

  MCP server mode requires piped input.`)
}

// deps is everything a command needs once configuration is loaded.
type deps struct {
	baseDir  string
	cfg      *config.Config
	logger   *zap.Logger
	journal  journal.Journal
	registry *persona.Registry
	metrics  *metrics.Collector
	manager  *session.Manager
}

// buildRegistry loads tutor content when configured and brands the personas.
// A relative concepts path is resolved against baseDir.
func buildRegistry(cfg *config.Config, baseDir string) (*persona.Registry, error) {
	opts := persona.Options{ShopName: cfg.ShopName, CompanyName: cfg.CompanyName}
	if cfg.ConceptsFile != "" {
		path := cfg.ConceptsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		catalog, err := persona.LoadConcepts(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load concepts: %w", err)
		}
		opts.Concepts = catalog
	}
	return persona.NewRegistry(opts), nil
}

// setup loads configuration and opens the journal. The caller closes d.journal.
func setup(ctx context.Context, baseDir, workDir string) (*deps, error) {
	cfg, err := config.LoadWithRepo(baseDir, workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel})
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}

	registry, err := buildRegistry(cfg, baseDir)
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(ctx, cfg, baseDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	collector := metrics.NewCollector("intake")
	manager, err := session.NewManager(session.Options{
		Registry: registry,
		Journal:  j,
		Logger:   logger,
		Metrics:  collector,
		SaveDir:  filepath.Join(baseDir, "saves"),
	})
	if err != nil {
		j.Close()
		return nil, err
	}

	return &deps{
		baseDir:  baseDir,
		cfg:      cfg,
		logger:   logger,
		journal:  j,
		registry: registry,
		metrics:  collector,
		manager:  manager,
	}, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup (no journal needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'intake --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".intake")

	workDir, err := os.Getwd()
	if err != nil {
		workDir = baseDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := setup(ctx, baseDir, workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := d.journal.Close(); err != nil {
			d.logger.Warn("failed to close journal", zap.Error(err))
		}
		_ = d.logger.Sync()
	}()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(d)
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	idle := time.Duration(d.cfg.SessionIdleMinutes) * time.Minute
	go d.manager.RunSweeper(ctx, idle, time.Minute)

	d.logger.Info("mcp server starting", zap.String("version", Version), zap.String("backend", d.cfg.JournalBackend))
	if err := mcp.Run(d.manager, d.cfg, Version, d.logger); err != nil {
		d.logger.Error("mcp server stopped", zap.Error(err))
		os.Exit(1)
	}
}
