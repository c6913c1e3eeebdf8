package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/threat-console/internal/logging"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
)

// settingNames lists the flags accepted by "settings set". The category
// flags are phrased as "enabled" so that true means toasts are shown.
var settingNames = []string{"silent", "sigma", "reports", "threats"}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change notification settings.",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the notification settings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPrefs(cmd, func(prefs *store.Prefs) error {
			writeSettings(cmd.OutOrStdout(), prefs.NotificationSettings(cmd.Context()))
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <" + strings.Join(settingNames, "|") + "> <true|false>",
	Short: "Change one notification setting.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q: want true or false", args[1])
		}
		return withPrefs(cmd, func(prefs *store.Prefs) error {
			next, err := applySetting(prefs.NotificationSettings(cmd.Context()), args[0], value)
			if err != nil {
				return err
			}
			if err := prefs.SetNotificationSettings(cmd.Context(), next); err != nil {
				return err
			}
			writeSettings(cmd.OutOrStdout(), next)
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}

func applySetting(s model.NotificationSettings, name string, value bool) (model.NotificationSettings, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent":
		s.SilentMode = value
	case "sigma":
		s.DisableSigma = !value
	case "reports":
		s.DisableReports = !value
	case "threats":
		s.DisableThreats = !value
	default:
		return s, fmt.Errorf("unknown setting %q: want one of %s", name, strings.Join(settingNames, ", "))
	}
	return s, nil
}

func writeSettings(w io.Writer, s model.NotificationSettings) {
	fmt.Fprintf(w, "silent   %t\n", s.SilentMode)
	fmt.Fprintf(w, "sigma    %t\n", !s.DisableSigma)
	fmt.Fprintf(w, "reports  %t\n", !s.DisableReports)
	fmt.Fprintf(w, "threats  %t\n", !s.DisableThreats)
}

func withPrefs(cmd *cobra.Command, fn func(*store.Prefs) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewConsoleLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prefs, _, err := openPrefs(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer prefs.Close()

	return fn(prefs)
}
