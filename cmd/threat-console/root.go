package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
)

var (
	configPath string
	apiURL     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "threat-console",
	Short:         "Terminal client for the threat-intelligence tracker.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(tuiCmd, alertsCmd, bookmarksCmd, settingsCmd, logoutCmd, usersCmd, configCmd,
		threatsCmd, reportsCmd, rulesCmd, whoamiCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(apiURL); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(logLevel); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

// openPrefs opens the configured medium and wraps it in a Prefs bound to
// a fresh bus.
func openPrefs(ctx context.Context, cfg *model.AppConfig, logger *zap.Logger) (*store.Prefs, *events.Bus, error) {
	medium, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	bus := events.NewBus()
	prefs := store.NewPrefs(medium, bus, logger,
		store.WithViewedRetention(cfg.Notifications.ViewedRetention))
	return prefs, bus, nil
}
