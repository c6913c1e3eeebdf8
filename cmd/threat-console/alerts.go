package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/logging"
	"github.com/nhle/threat-console/internal/model"
)

var (
	alertsJSON        bool
	alertsResetViewed bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Print the alert feed once.",
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

		if alertsResetViewed {
			if err := resetViewed(cmd.Context(), cfg, logger); err != nil {
				return err
			}
		}
		return printAlerts(cmd.Context(), cmd.OutOrStdout(), cfg, logger, alertsJSON)
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "print the feed as JSON")
	alertsCmd.Flags().BoolVar(&alertsResetViewed, "reset-viewed", false, "forget which alerts were already seen")
}

func resetViewed(ctx context.Context, cfg *model.AppConfig, logger *zap.Logger) error {
	prefs, _, err := openPrefs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer prefs.Close()
	return prefs.ClearViewedAlerts(ctx)
}

type alertRow struct {
	model.Alert
	Viewed bool `json:"viewed"`
}

func printAlerts(ctx context.Context, w io.Writer, cfg *model.AppConfig, logger *zap.Logger, asJSON bool) error {
	prefs, _, err := openPrefs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer prefs.Close()

	client := api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout(),
		RetryCount: 2,
		Logger:     logger,
	})
	alerts, err := client.Alerts(ctx)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("fetching alerts: %w", err)}
	}

	viewed := prefs.ViewedAlerts(ctx)
	rows := make([]alertRow, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, alertRow{Alert: a, Viewed: viewed.Contains(a.ID)})
	}

	if asJSON {
		return writeJSON(w, rows)
	}
	return writeAlertTable(w, rows)
}

func writeAlertTable(w io.Writer, rows []alertRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No alerts.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tUSER\tMESSAGE\t")
	for _, r := range rows {
		created := "-"
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format("2006-01-02 15:04")
		}
		mark := ""
		if !r.Viewed {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n", r.ID, mark, r.Type, created, r.Username, r.Message)
	}
	return tw.Flush()
}
