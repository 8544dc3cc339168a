package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/buckleypaul/adbdeck/internal/app"
	"github.com/buckleypaul/adbdeck/internal/config"
	"github.com/buckleypaul/adbdeck/internal/coordinator"
	"github.com/buckleypaul/adbdeck/internal/logging"
	"github.com/buckleypaul/adbdeck/internal/pages"
	"github.com/buckleypaul/adbdeck/internal/store"
	"github.com/buckleypaul/adbdeck/internal/tools"
)

var version = "dev"

// newExecutor builds the process runner. Tests swap it for a fake.
var newExecutor = func(cfg config.Config) tools.Executor {
	return tools.NewExecRunner(tools.DetectEnv(cfg.ToolPaths()))
}

// session is the state every command starts from.
type session struct {
	dir   string
	cfg   config.Config
	store *store.Store
	deck  *coordinator.Coordinator
}

func openSession() (*session, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg := config.Load(dir)
	st := store.New(config.StateDir())
	deck := coordinator.New(newExecutor(cfg), st, coordinator.Options{
		Timeout:       cfg.CommandTimeout.Std(),
		RebootDelay:   cfg.RebootRefreshDelay.Std(),
		ProbeTimeout:  cfg.ProbeTimeout.Std(),
		ConfirmPhrase: cfg.ConfirmPhrase,
		ScreenshotDir: cfg.ScreenshotDir,
	})
	deck.Restore(cfg.LastDevice)
	return &session{dir: dir, cfg: cfg, store: st, deck: deck}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adbdeck",
		Short:         "Terminal deck for adb and fastboot devices",
		Long:          "adbdeck lists connected Android devices and runs adb, fastboot and scrcpy against the selected one. Without a subcommand it opens the interactive deck.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeck()
		},
	}
	root.AddCommand(
		newDevicesCmd(),
		newRunCmd(),
		newInfoCmd(),
		newScreenshotCmd(),
		newLogcatCmd(),
		newFlashingCmd("unlock"),
		newFlashingCmd("lock"),
	)
	return root
}

func runDeck() error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.deck.Close()

	logFile, err := logging.File(filepath.Join(config.StateDir(), "logs"), s.cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.Info().Str("version", version).Str("dir", s.dir).Msg("adbdeck starting")

	pageMap := map[app.PageID]app.Page{
		app.DevicesPage:  pages.NewDevicesPage(s.deck),
		app.ADBPage:      pages.NewADBPage(s.deck),
		app.FastbootPage: pages.NewFastbootPage(s.deck),
		app.ShellPage:    pages.NewShellPage(s.deck),
		app.InfoPage:     pages.NewInfoPage(s.deck),
		app.LogcatPage:   pages.NewLogcatPage(s.deck),
		app.HistoryPage:  pages.NewHistoryPage(s.deck),
		app.SettingsPage: pages.NewSettingsPage(&s.cfg, s.dir),
	}

	model := app.New(pageMap, s.deck, &s.cfg, s.dir)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info().Msg("adbdeck exiting")
	return nil
}

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
