package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/logging"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
)

var (
	usersAddRole     string
	usersAddPassword string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts (administrators only).",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
			users, err := client.AdminUsers(ctx)
			if err != nil {
				return err
			}
			return writeUserTable(cmd.OutOrStdout(), users)
		})
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <email>",
	Short: "Create an account.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if usersAddPassword == "" {
			return errors.New("--password is required")
		}
		return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
			u, err := client.CreateAdminUser(ctx, api.NewUser{
				Username: args[0],
				Email:    args[1],
				Password: usersAddPassword,
				Role:     usersAddRole,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s).\n", u.ID, u.Username)
			return nil
		})
	},
}

var usersBlockCmd = &cobra.Command{
	Use:   "block <id>",
	Short: "Block an account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateUser(cmd, args[0], api.UserUpdate{IsBlocked: boolPtr(true)})
	},
}

var usersUnblockCmd = &cobra.Command{
	Use:   "unblock <id>",
	Short: "Unblock an account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateUser(cmd, args[0], api.UserUpdate{IsBlocked: boolPtr(false)})
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <id> <role>",
	Short: "Change an account's role.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := args[1]
		return updateUser(cmd, args[0], api.UserUpdate{Role: &role})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
			if err := client.DeleteAdminUser(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d.\n", id)
			return nil
		})
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&usersAddRole, "role", "user", "role of the new account")
	usersAddCmd.Flags().StringVar(&usersAddPassword, "password", "", "initial password")
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersBlockCmd, usersUnblockCmd, usersRoleCmd, usersDeleteCmd)
}

func updateUser(cmd *cobra.Command, rawID string, update api.UserUpdate) error {
	id, err := parseUserID(rawID)
	if err != nil {
		return err
	}
	return withAdmin(cmd, func(ctx context.Context, client *api.Client) error {
		u, err := client.UpdateAdminUser(ctx, id, update)
		if err != nil {
			return err
		}
		return writeUserTable(cmd.OutOrStdout(), []model.User{u})
	})
}

// withAdmin runs fn with a backend client once the stored session is
// known to belong to an administrator.
func withAdmin(cmd *cobra.Command, fn func(context.Context, *api.Client) error) error {
	return withBackend(cmd, true, func(ctx context.Context, client *api.Client, _ *model.Session) error {
		return fn(ctx, client)
	})
}

// withBackend runs fn with a backend client and the stored session. It
// fails with exit code 2 when nobody is logged in, or when adminOnly is
// set and the user is not an administrator.
func withBackend(
	cmd *cobra.Command,
	adminOnly bool,
	fn func(context.Context, *api.Client, *model.Session) error,
) error {
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
	prefs, _, err := openPrefs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer prefs.Close()

	s, err := requireSession(ctx, prefs, adminOnly)
	if err != nil {
		return err
	}

	client := api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout(),
		RetryCount: 2,
		Logger:     logger,
	})
	if err := fn(ctx, client, s); err != nil {
		return &exitError{code: 1, err: errors.New(api.UserMessage(err))}
	}
	return nil
}

func requireSession(ctx context.Context, prefs *store.Prefs, adminOnly bool) (*model.Session, error) {
	s := prefs.Session(ctx)
	if s == nil {
		return nil, &exitError{code: 2, err: errors.New("not logged in: start the console and log in first")}
	}
	if adminOnly && !s.User.IsAdmin() {
		return nil, &exitError{code: 2, err: fmt.Errorf("%s is not an administrator", s.User.Username)}
	}
	return s, nil
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func writeUserTable(w io.Writer, users []model.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tBLOCKED\t")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t\n", u.ID, u.Username, u.Email, u.Role, u.IsBlocked)
	}
	return tw.Flush()
}
