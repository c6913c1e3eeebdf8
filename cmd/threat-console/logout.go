package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/credential"
	"github.com/nhle/threat-console/internal/logging"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/session"
)

var logoutForget bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := logging.NewConsoleLogger(cfg.Log.Level)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx := cmd.Context()
		prefs, bus, err := openPrefs(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer prefs.Close()

		var creds credential.Store
		if ring, err := credential.Open(model.ConfigDir()); err != nil {
			logger.Warn("keyring unavailable", zap.Error(err))
		} else {
			creds = ring
		}

		client := api.New(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout(), Logger: logger})
		sessions := session.NewManager(client, prefs, bus, creds, logger)
		defer sessions.Close()

		s := sessions.Init(ctx)
		if s == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		if err := sessions.Logout(ctx, logoutForget); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s.\n", s.User.Email)
		if logoutForget && creds != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Remembered password removed.")
		}
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutForget, "forget", false, "also remove the remembered password")
}
