// Package main is the entry point for the file repository console.
// It loads configuration, starts the services and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/filerepo-console/internal/app"
	"github.com/j-veylop/filerepo-console/internal/config"
	"github.com/j-veylop/filerepo-console/internal/logger"
	"github.com/j-veylop/filerepo-console/internal/services"
	"github.com/j-veylop/filerepo-console/internal/ui/tabs/console"
	"github.com/j-veylop/filerepo-console/internal/ui/tabs/health"
	"github.com/j-veylop/filerepo-console/internal/ui/tabs/requests"
	"github.com/j-veylop/filerepo-console/internal/ui/tabs/settings"
	"github.com/j-veylop/filerepo-console/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the TUI; logs only go to a file.
	if cfg.LogDir != "" && cfg.LogDir != config.DisabledValue {
		flush, err := logger.Init(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer flush()
	}
	logger.Info("starting", "version", version.GetVersion(), "base_url", cfg.BaseURL)

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	if err := svcManager.Start(); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		console.New(state, svcManager),  // 1: file operations
		requests.New(state, svcManager), // 2: request ledger and history
		health.New(state, svcManager),   // 3: health and metrics
		settings.New(state, svcManager), // 4: preferences and build info
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	logger.Info("stopped")
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`filerepo-console - terminal console for a file repository API

Usage:
  frc [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-4             Switch between tabs (Console, Requests, Health, Settings)
  Tab/Shift+Tab   Navigate between tabs
  u/d/p/x         Upload, download, new version, delete (Console)
  Enter           Open request details (Requests)
  y / D           Check readiness / toggle drain (Health)
  e               Edit preferences (Settings)
  r               Refresh ledger and history
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  BASE_URL          Remote API base URL (default: http://localhost:8000)
  API_KEY           Sent as X-API-Key
  ADMIN_KEY         Sent as X-Admin-Key for drain mode
  DOWNLOAD_DIR      Where downloads are saved (default: working directory)
  DATABASE_PATH     SQLite audit log path, "off" to disable
  PREFERENCES_PATH  Preferences JSON file path
  LOG_DIR           Log directory, "off" to disable
  LOG_LEVEL         debug, info, warn or error (default: info)
  TELEMETRY_ADDR    Serve Prometheus metrics on this address
  POLL_INTERVAL     Health and metrics polling interval (default: 5s)
  REQUEST_TIMEOUT   Per-request timeout, 0 for none
  NOTIFICATIONS     Desktop alerts on health changes (default: true)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/filerepo-console/.env
  - ~/.filerepo/.env
  - Parent directory`)
}
