package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SHA256-news/studious-giggle-sub001/internal/audit"
	"github.com/SHA256-news/studious-giggle-sub001/internal/config"
	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/lexicon"
	"github.com/SHA256-news/studious-giggle-sub001/internal/logger"
	"github.com/SHA256-news/studious-giggle-sub001/internal/match"
	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
	"github.com/SHA256-news/studious-giggle-sub001/internal/post"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
	"github.com/SHA256-news/studious-giggle-sub001/internal/tui"
	"github.com/SHA256-news/studious-giggle-sub001/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath string
	queuePath  string
	logLevel   string
}

// app is everything a command needs once config is loaded.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *queue.Store
	engine *match.Engine
	filter *filter.Filter
	post   post.Formatter
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sha256news",
		Short: "Bitcoin-only news queue curator",
		Long: `sha256news keeps the SHA256 news posting queue Bitcoin-only.

It fetches articles from Bitcoin news feeds, removes queued articles that
mention other cryptocurrencies, and previews what will be posted next.
Run without a subcommand to open the queue dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, false)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.queuePath, "queue", "", "path to the queue JSON file (overrides config and "+config.QueueFileEnv+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newAnalyzeCmd(opts),
		newCleanCmd(opts),
		newPreviewCmd(opts),
		newNextCmd(opts),
		newStatusCmd(opts),
		newMarkPostedCmd(opts),
		newCheckCmd(opts),
		newFetchCmd(opts),
		newBlockedCmd(opts),
		newBrowseCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sha256news %s (commit: %s, built: %s)\n", version, commit, date)
			if !check {
				return nil
			}
			res, err := update.NewChecker().Check(cmd.Context(), version)
			if err != nil {
				return err
			}
			if res == nil {
				fmt.Fprintln(out, "Up to date.")
				return nil
			}
			fmt.Fprintf(out, "Update available: %s %s\n", res.LatestVersion, res.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	if _, err := logger.ParseLevel(level); err != nil {
		return nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), level)

	path := cfg.QueuePath()
	if o.queuePath != "" {
		path = o.queuePath
	}

	engine := match.New(lexicon.Default(cfg.ExtraTerms...))
	return &app{
		cfg:    cfg,
		log:    log,
		store:  queue.NewStore(path, queue.WithBackupDir(cfg.BackupPath())),
		engine: engine,
		filter: filter.New(engine, filter.WithLogger(log)),
		post:   post.New(cfg.Post.Hashtags, cfg.Post.MaxLength),
	}, nil
}

// service returns the queue operations bound to sink. A nil sink records
// nothing.
func (a *app) service(sink filter.AuditSink) *ops.Service {
	opts := []ops.Option{ops.WithLogger(a.log)}
	if sink != nil {
		opts = append(opts, ops.WithAuditSink(sink))
	}
	return ops.New(a.store, a.filter, opts...)
}

// openAudit opens the blocked-content log. Commands that only record into
// it keep going without one when it cannot be opened.
func (a *app) openAudit() (*audit.Log, error) {
	db, err := audit.Open(a.cfg.AuditPath())
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return db, nil
}

// auditSink opens the blocked log on its first entry, so a command that
// fails before recording anything leaves no database behind. If the log
// cannot be opened the command carries on and entries are dropped.
type auditSink struct {
	app    *app
	unique bool
	db     *audit.Log
	err    error
}

func (a *app) newAuditSink(unique bool) *auditSink {
	return &auditSink{app: a, unique: unique}
}

func (s *auditSink) Record(e filter.BlockedEntry) error {
	if s.db == nil && s.err == nil {
		if s.db, s.err = s.app.openAudit(); s.err != nil {
			s.app.log.Warn("audit log unavailable, exclusions will not be recorded", "err", s.err)
		}
	}
	if s.err != nil {
		return s.err
	}
	if s.unique {
		return s.db.RecordNew(e)
	}
	return s.db.Record(e)
}

func (s *auditSink) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions, browse bool) error {
	a, err := opts.load(cmd)
	if err != nil {
		return err
	}
	return tui.Run(tui.RunOpts{
		Service:    a.service(nil),
		Filter:     a.filter,
		Formatter:  a.post,
		BrowseMode: browse,
	})
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
