package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/model"
)

var (
	threatAdd       api.NewMalware
	ruleName        string
	ruleDescription string
)

var threatsCmd = &cobra.Command{
	Use:   "threats",
	Short: "Inspect or record threats.",
}

var threatsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one threat record as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, false, func(ctx context.Context, client *api.Client, _ *model.Session) error {
			m, err := client.MalwareByID(ctx, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), m)
		})
	},
}

var threatsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Record a new threat. The backend raises a threat alert.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := threatAdd
		req.Name = strings.TrimSpace(args[0])
		return withBackend(cmd, false, func(ctx context.Context, client *api.Client, _ *model.Session) error {
			m, err := client.CreateMalware(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded threat %d (%s).\n", m.ID, m.Name)
			return nil
		})
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect or delete reports.",
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one report as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, false, func(ctx context.Context, client *api.Client, _ *model.Session) error {
			r, err := client.Report(ctx, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		})
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a report (administrators only).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
			if err := client.DeleteReport(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %d.\n", id)
			return nil
		})
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Import or delete Sigma rules.",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file.yml>",
	Short: "Upload a Sigma rule file. The backend raises a sigma alert.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRuleFile(args[0], ruleName, ruleDescription)
		if err != nil {
			return err
		}
		return withBackend(cmd, false, func(ctx context.Context, client *api.Client, _ *model.Session) error {
			r, err := client.CreateSigmaRule(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported rule %d (%s).\n", r.ID, r.Name)
			return nil
		})
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a Sigma rule (administrators only).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
			if err := client.DeleteSigmaRule(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %d.\n", id)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the logged-in account as the backend sees it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, false, func(ctx context.Context, client *api.Client, s *model.Session) error {
			u, err := client.User(ctx, s.User.ID)
			if err != nil {
				return err
			}
			return writeUserTable(cmd.OutOrStdout(), []model.User{u})
		})
	},
}

func init() {
	f := threatsAddCmd.Flags()
	f.StringVar(&threatAdd.Type, "type", "", "threat type, e.g. ransomware")
	f.StringVar(&threatAdd.Family, "family", "", "malware family")
	f.StringVar(&threatAdd.Description, "description", "", "free-text description")
	f.StringSliceVar(&threatAdd.Hashes, "hash", nil, "known file hash (repeatable)")
	f.StringSliceVar(&threatAdd.Sources, "source", nil, "reference URL (repeatable)")
	threatsCmd.AddCommand(threatsShowCmd, threatsAddCmd)

	reportsCmd.AddCommand(reportsShowCmd, reportsDeleteCmd)

	rulesImportCmd.Flags().StringVar(&ruleName, "name", "", "rule name (defaults to the rule's title)")
	rulesImportCmd.Flags().StringVar(&ruleDescription, "description", "", "rule description")
	rulesCmd.AddCommand(rulesImportCmd, rulesDeleteCmd)
}

// readRuleFile loads a rule upload from path. Without an explicit name the
// rule's top-level "title:" line is used, then the file name.
func readRuleFile(path, name, description string) (api.NewSigmaRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return api.NewSigmaRule{}, fmt.Errorf("reading rule: %w", err)
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return api.NewSigmaRule{}, fmt.Errorf("%s is empty", path)
	}

	filename := filepath.Base(path)
	if name == "" {
		name = ruleTitle(content)
	}
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return api.NewSigmaRule{
		Name:        name,
		Description: description,
		Filename:    filename,
		Content:     content,
	}, nil
}

func ruleTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if rest, ok := strings.CutPrefix(line, "title:"); ok {
			return strings.Trim(strings.TrimSpace(rest), `"'`)
		}
	}
	return ""
}

func parseRecordID(raw string) (int64, error) {
	id, err := parseUserID(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
