package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/SHA256-news/studious-giggle-sub001/internal/browser"
	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

const (
	maxReportDetails = 10
	titleColumn      = 60
	sourceColumn     = 18
	snippetRunes     = 200
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Report queued articles that mention other cryptocurrencies",
		Long:  "Classify every queued article without changing the queue file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			report, err := a.service(nil).Analyze()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queue: %s\n", a.store.Path())
			fmt.Fprintf(out, "Total: %d\n", report.Total)
			fmt.Fprintf(out, "Kept: %d\n", report.Kept)
			fmt.Fprintf(out, "Excluded: %d\n", report.Excluded)
			writeDetails(out, report.Details)
			return nil
		},
	}
}

func newCleanCmd(opts *rootOptions) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove queued articles that mention other cryptocurrencies",
		Long: `Drop every queued article whose title or body names an unwanted
cryptocurrency and rewrite the queue file atomically.

A timestamped backup of the full queue is written first unless --no-backup
is given. An already clean queue is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sink := a.newAuditSink(false)
			defer sink.Close()

			res, err := a.service(sink).Clean(ops.CleanOptions{Backup: !noBackup})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Saved {
				fmt.Fprintf(out, "Queue already clean (%d article(s)).\n", res.Total)
				return nil
			}
			fmt.Fprintf(out, "Removed %d of %d article(s); %d remain.\n", res.Excluded, res.Total, res.Kept)
			if res.BackupPath != "" {
				fmt.Fprintf(out, "Backup: %s\n", res.BackupPath)
			}
			writeDetails(out, res.Details)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip writing a backup before cleaning")
	return cmd
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var (
		limit    int
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List the next queued articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			articles, total, err := a.service(nil).Preview(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}
			fmt.Fprintf(out, "Showing %d of %d queued article(s)\n\n", len(articles), total)
			for i, art := range articles {
				if detailed {
					writeDetailed(out, i+1, art, a.filter)
					continue
				}
				fmt.Fprintf(out, "%3d  %s  %s  %s\n", i+1,
					column(art.Title, titleColumn),
					column(art.Source.Title, sourceColumn),
					art.URI)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of articles to show (0 for all)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show body snippets and filter verdicts")
	return cmd
}

func newNextCmd(opts *rootOptions) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the post for the next queued article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			art, ok, err := a.service(nil).Next()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}
			fmt.Fprintln(out, a.post.Format(art))
			fmt.Fprintf(out, "\nURI: %s\n", art.URI)
			if art.ImageURL != "" {
				fmt.Fprintf(out, "Image: %s\n", art.ImageURL)
			}
			if keep, inTitle, inBody := a.filter.Classify(art); !keep {
				fmt.Fprintf(out, "Warning: mentions %s; run clean before posting\n", joinTerms(inTitle, inBody))
			}
			if open {
				if err := browser.Open(art.URL); err != nil {
					return fmt.Errorf("opening article: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the article in the browser")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue and backup counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			st, err := a.service(nil).Status()
			if err != nil {
				return err
			}
			backups, err := a.store.Backups()
			if err != nil {
				return fmt.Errorf("listing backups: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queue: %s\n", st.Path)
			fmt.Fprintf(out, "Queued: %d\n", st.Queued)
			fmt.Fprintf(out, "Posted: %d\n", st.Posted)
			fmt.Fprintf(out, "Backups: %d in %s\n", len(backups), a.store.BackupDir())
			return nil
		},
	}
}

func newMarkPostedCmd(opts *rootOptions) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "mark-posted <uri>",
		Short: "Move a queued article into the posted history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			backup, err := a.service(nil).MarkPosted(args[0], !noBackup)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Marked %s as posted.\n", args[0])
			if backup != "" {
				fmt.Fprintf(out, "Backup: %s\n", backup)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip writing a backup first")
	return cmd
}

func writeDetails(out io.Writer, details []filter.ExclusionRecord) {
	for i, d := range details {
		if i == maxReportDetails {
			fmt.Fprintf(out, "  ... and %d more\n", len(details)-maxReportDetails)
			break
		}
		fmt.Fprintf(out, "  - %s\n", d.Title)
		if d.URL != "" {
			fmt.Fprintf(out, "    %s\n", d.URL)
		}
		if len(d.FoundInTitle) > 0 {
			fmt.Fprintf(out, "    title: %s\n", strings.Join(d.FoundInTitle, ", "))
		}
		if len(d.FoundInBody) > 0 {
			fmt.Fprintf(out, "    body: %s\n", strings.Join(d.FoundInBody, ", "))
		}
	}
}

func writeDetailed(out io.Writer, n int, art queue.Article, f *filter.Filter) {
	fmt.Fprintf(out, "%d. %s\n", n, art.Title)
	if art.Source.Title != "" {
		fmt.Fprintf(out, "   Source: %s\n", art.Source.Title)
	}
	fmt.Fprintf(out, "   URL: %s\n", art.URL)
	fmt.Fprintf(out, "   URI: %s\n", art.URI)
	if body := strings.Join(strings.Fields(art.Body), " "); body != "" {
		fmt.Fprintf(out, "   %s\n", runewidth.Truncate(body, snippetRunes, "..."))
	}
	if keep, inTitle, inBody := f.Classify(art); !keep {
		fmt.Fprintf(out, "   Blocked: %s\n", joinTerms(inTitle, inBody))
	} else {
		fmt.Fprintln(out, "   OK")
	}
	fmt.Fprintln(out)
}

// column pads or truncates s to exactly width terminal cells.
func column(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// joinTerms lists title terms then body terms, each once.
func joinTerms(inTitle, inBody []string) string {
	seen := make(map[string]bool, len(inTitle)+len(inBody))
	var terms []string
	for _, t := range append(append([]string{}, inTitle...), inBody...) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return strings.Join(terms, ", ")
}
