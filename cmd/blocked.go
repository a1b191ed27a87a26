package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SHA256-news/studious-giggle-sub001/internal/audit"
	"github.com/SHA256-news/studious-giggle-sub001/internal/config"
)

func newBlockedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "Inspect the log of blocked articles",
	}
	cmd.AddCommand(newBlockedListCmd(opts), newBlockedStatsCmd(opts), newBlockedPruneCmd(opts))
	return cmd
}

func newBlockedListCmd(opts *rootOptions) *cobra.Command {
	var (
		since  string
		search string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently blocked articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			q := audit.QueryOpts{Search: search, Limit: limit}
			if since != "" {
				d, err := config.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since value: %w", err)
				}
				q.Since = time.Now().Add(-d)
			}

			db, err := a.openAudit()
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.List(q)
			if err != nil {
				return fmt.Errorf("listing blocked: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No blocked articles.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", e.BlockedAt.Local().Format("2006-01-02 15:04"), e.Title)
				fmt.Fprintf(out, "    %s: %s\n", e.Reason, strings.Join(e.Details.UnwantedCryptosFound, ", "))
				if e.URL != "" {
					fmt.Fprintf(out, "    %s\n", e.URL)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only entries from the last duration (e.g., 7d, 24h)")
	cmd.Flags().StringVar(&search, "search", "", "match title, URL or terms")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum entries to show")
	return cmd
}

func newBlockedStatsCmd(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show blocked-log statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			db, err := a.openAudit()
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := db.Stats(top)
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Blocked log: %s\n", db.Path())
			fmt.Fprintf(out, "Entries: %d\n", st.Count)
			fmt.Fprintf(out, "Size: %s\n", formatBytes(st.Size))
			if len(st.TopTerms) > 0 {
				fmt.Fprintln(out, "Top terms:")
				for _, tc := range st.TopTerms {
					fmt.Fprintf(out, "  %-20s %d\n", tc.Term, tc.Count)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of terms to show")
	return cmd
}

func newBlockedPruneCmd(opts *rootOptions) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old entries from the blocked log",
		Long: `Delete blocked-log entries older than the retention period and reclaim disk space.

Uses the retention value from config (default: 90d) unless overridden with --older-than.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			retention := a.cfg.RetentionDuration()
			if olderThan != "" {
				d, err := config.ParseDuration(olderThan)
				if err != nil {
					return fmt.Errorf("invalid --older-than value: %w", err)
				}
				retention = d
			}

			db, err := a.openAudit()
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := db.Prune(retention)
			if err != nil {
				return fmt.Errorf("pruning: %w", err)
			}

			out := cmd.OutOrStdout()
			if deleted == 0 {
				fmt.Fprintln(out, "Nothing to prune.")
			} else {
				fmt.Fprintf(out, "Pruned %d entry(s) older than %s.\n", deleted, formatDuration(retention))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
	return cmd
}

func formatDuration(d time.Duration) string {
	if days := int(d.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
