package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clipfeed/notepress/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or reset the processed-URL history",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryResetCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List URLs processed in earlier runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := buildHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			switch s := store.(type) {
			case *history.FileStore:
				entries := s.Entries()
				urls := make([]string, 0, len(entries))
				for url := range entries {
					urls = append(urls, url)
				}
				sort.Strings(urls)
				for _, url := range urls {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entries[url].Format("2006-01-02"), url)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(urls))
			case *history.PostgresStore:
				urls := s.URLs()
				for _, url := range urls {
					fmt.Fprintln(cmd.OutOrStdout(), url)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(urls))
			}
			return nil
		},
	}
}

func newHistoryResetCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the processed-URL history",
		Long: `Clears the history so every URL in the next batch is treated as new.
Requires --yes; a cleared history means already-noted articles will be
fetched and summarized again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to reset history without --yes")
			}
			store, err := buildHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if err := store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset history: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
