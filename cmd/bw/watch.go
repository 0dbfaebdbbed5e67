package main

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
	"github.com/bmuenzenmeyer/buildwatch/internal/client"
	"github.com/bmuenzenmeyer/buildwatch/internal/config"
	"github.com/bmuenzenmeyer/buildwatch/internal/history"
	"github.com/bmuenzenmeyer/buildwatch/internal/logging"
)

var focusFlag string

var watchCmd = &cobra.Command{
	Use:   "watch [owner/repo] [build]",
	Short: "Watch builds in a terminal UI",
	Long: `Open the terminal UI for a repository.

With a build number the UI opens that build directly; otherwise it shows
the recent build list to pick from. With no arguments at all it resumes
the most recently watched repository.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&focusFlag, "focus", "", "open a step on load, e.g. 3 or 3:14-20")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var slug string
	if len(args) > 0 {
		slug = args[0]
	} else {
		// No repository given: resume the most recently watched one.
		slug, err = lastWatchedRepo(cmd, cfg)
		if err != nil {
			return err
		}
	}

	owner, name, err := client.SplitRepo(slug)
	if err != nil {
		return err
	}

	buildNumber := 0
	if len(args) == 2 {
		buildNumber, err = strconv.Atoi(args[1])
		if err != nil || buildNumber < 1 {
			return fmt.Errorf("invalid build number %q", args[1])
		}
	}
	if focusFlag != "" && buildNumber == 0 {
		return fmt.Errorf("--focus requires a build number")
	}

	if cfg.Server == "" {
		return fmt.Errorf("no server configured (use --server, BUILDWATCH_SERVER, or server: in %s)", config.File())
	}

	logger := logging.Nop()
	if cfg.Logging.Enabled {
		fileLogger, closeLog, err := logging.New(cfg.Logging.ResolveFile(), cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("set up logging: %w", err)
		}
		defer closeLog()
		logger = fileLogger
	}

	api, err := client.New(cfg.Server, cfg.Token, logger)
	if err != nil {
		return err
	}

	var hist *history.History
	if cfg.History.Enabled {
		hist, err = history.New(cfg.History.ResolvePath())
		if err != nil {
			logger.Warn("watch history unavailable", "error", err)
		}
	}

	m := newModel(api, logger, hist, owner, name, cfg)
	if buildNumber > 0 {
		m.activeView = viewBuild
		m.buildNumber = buildNumber
	}

	// A malformed focus degrades to no focus.
	if focusFlag != "" {
		hint, err := build.ParseFocus(focusFlag)
		if err != nil {
			logger.Warn("ignoring focus flag", "focus", focusFlag, "error", err)
		} else {
			m.pendingFocus = hint
		}
	}

	// Reload settings when the config file is rewritten on disk.
	var watcher *config.Watcher
	if path := viper.ConfigFileUsed(); path != "" {
		watcher, err = config.NewWatcher(path)
		if err != nil {
			logger.Warn("config watch unavailable", "error", err)
		} else {
			m.watcher = watcher
		}
	}

	logger.Info("watching repository", "repo", slug, "build", buildNumber, "server", cfg.Server)

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Feed config file changes into the TUI.
	if watcher != nil {
		go func() {
			for range watcher.Changes() {
				p.Send(configChangedMsg{})
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// lastWatchedRepo returns the repository of the most recent history
// record.
func lastWatchedRepo(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if !cfg.History.Enabled {
		return "", fmt.Errorf("no repository given and watch history is disabled")
	}
	h, err := history.New(cfg.History.ResolvePath())
	if err != nil {
		return "", err
	}
	defer h.Close()

	records, err := h.Recent(cmd.Context(), 1)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no repository given and nothing watched yet (try: bw watch owner/repo)")
	}
	return records[0].Repo, nil
}
