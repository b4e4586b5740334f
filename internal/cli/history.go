package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/pactverify/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "View past verification runs",
		Long: `View a log of past verification runs with timestamp, provider, consumer,
result, mismatch count, provider revision and duration. Newest first.`,
		Example: `  pactverify history
  pactverify history --provider "Event API" --limit 10
  pactverify history --stats
  pactverify history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runHistoryWithStateDir(cmd, cfg.StateDir)
		},
	}
	cmd.GroupID = GroupConfiguration
	cmd.Flags().StringP("provider", "p", "", "Filter by provider name")
	cmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	cmd.Flags().BoolP("clear", "c", false, "Clear all history")
	cmd.Flags().Bool("stats", false, "Print pass/fail counts instead of entries")
	return cmd
}

// runHistoryWithStateDir runs the history command with a custom state directory.
func runHistoryWithStateDir(cmd *cobra.Command, stateDir string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	providerFilter, _ := cmd.Flags().GetString("provider")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
		return nil
	}

	histFile, err := history.LoadHistory(stateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	entries := history.FilterEntries(histFile.Entries, providerFilter, limit)
	if len(entries) == 0 {
		if providerFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No matching entries for provider '%s'.\n", providerFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No history available.")
		}
		return nil
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		s := history.Summarize(entries)
		fmt.Fprintf(cmd.OutOrStdout(), "%d runs, %d passed, %d failed, %d errored (%.0f%% pass rate)\n",
			s.Runs, s.Passed, s.Failed, s.Errored, 100*s.PassRate())
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// displayEntries formats and displays history entries.
func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Format("2006-01-02 15:04:05")

		status := fmt.Sprintf("%-6s", entry.Status)
		switch entry.Status {
		case history.StatusPassed:
			status = green(status)
		case history.StatusFailed:
			status = red(status)
		default:
			status = yellow(status)
		}

		version := entry.ProviderVersion
		if version == "" {
			version = "-"
		}
		duration := entry.Duration
		if duration == "" {
			duration = "-"
		}

		fmt.Fprintf(out, "%s  %s  %-20s  %-20s  mismatches=%-3d  %-14s  %s\n",
			cyan(timestamp),
			status,
			entry.Provider,
			entry.Consumer,
			entry.Mismatches,
			version,
			duration,
		)
	}
}
