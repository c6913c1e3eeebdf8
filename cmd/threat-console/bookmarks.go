package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/threat-console/internal/bookmarks"
	"github.com/nhle/threat-console/internal/store"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List, remove or clear bookmarked Sigma rules.",
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBookmarks(cmd, func(s *bookmarks.Store) error {
			list := s.List(cmd.Context())
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No bookmarks.")
				return nil
			}
			for _, b := range list {
				fmt.Fprintf(out, "%d\t%s\n", b.ID, b.Name)
			}
			return nil
		})
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:   "remove <rule-id>",
	Short: "Remove the bookmark on one rule.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		return withBookmarks(cmd, func(s *bookmarks.Store) error {
			if !s.IsBookmarked(cmd.Context(), id) {
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %d is not bookmarked.\n", id)
				return nil
			}
			if _, err := s.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed bookmark on rule %d.\n", id)
			return nil
		})
	},
}

var bookmarksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all bookmarks.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBookmarks(cmd, func(s *bookmarks.Store) error {
			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bookmarks cleared.")
			return nil
		})
	},
}

func init() {
	bookmarksCmd.AddCommand(bookmarksListCmd, bookmarksRemoveCmd, bookmarksClearCmd)
}

func withBookmarks(cmd *cobra.Command, fn func(*bookmarks.Store) error) error {
	return withPrefs(cmd, func(prefs *store.Prefs) error {
		return fn(bookmarks.New(prefs))
	})
}
