package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SHA256-news/studious-giggle-sub001/internal/config"
	"github.com/SHA256-news/studious-giggle-sub001/internal/feed"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var (
		runFilter bool
		sources   []string
		maxAge    string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch news feeds and queue new articles",
		Long: `Fetch every enabled source (or the ones named with --source) and append
articles that are neither queued nor already posted.

With --filter, articles that mention other cryptocurrencies are dropped
before they reach the queue and recorded in the blocked log, once per
article however many polls see it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			selected, err := selectSources(a.cfg, sources)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				return fmt.Errorf("no enabled sources")
			}

			fetcher := feed.NewRSSFetcher()
			if maxAge != "" {
				d, err := config.ParseDuration(maxAge)
				if err != nil {
					return fmt.Errorf("invalid --max-age value: %w", err)
				}
				fetcher = fetcher.WithMaxAge(d)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			result := feed.FetchAll(ctx, fetcher, selected)
			cancel()
			for _, e := range result.Errors {
				a.log.Warn("source failed", "err", e)
			}
			if len(result.Errors) == len(selected) {
				return fmt.Errorf("fetching feeds: all %d source(s) failed", len(selected))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetched %d article(s) from %d source(s).\n", len(result.Articles), len(selected)-len(result.Errors))

			sink := a.newAuditSink(true)
			defer sink.Close()
			res, err := a.service(sink).Ingest(result.Articles, runFilter)
			if err != nil {
				return err
			}
			if runFilter {
				fmt.Fprintf(out, "Blocked %d article(s) mentioning other cryptocurrencies.\n", res.Blocked)
			}
			fmt.Fprintf(out, "Queued %d new article(s).\n", res.Added)
			return nil
		},
	}
	cmd.Flags().BoolVar(&runFilter, "filter", false, "drop articles that mention other cryptocurrencies")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "fetch only the named source (repeatable)")
	cmd.Flags().StringVar(&maxAge, "max-age", "", "skip items older than this (e.g., 7d, 48h; 0 keeps all)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall fetch timeout")
	return cmd
}

// selectSources returns the enabled sources, or the named ones (enabled or
// not) when names is non-empty.
func selectSources(cfg *config.Config, names []string) ([]config.Source, error) {
	if len(names) == 0 {
		return cfg.EnabledSources(), nil
	}
	var selected []config.Source
	for _, name := range names {
		found := false
		for _, s := range cfg.Sources {
			if strings.EqualFold(s.Name, name) {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return selected, nil
}
