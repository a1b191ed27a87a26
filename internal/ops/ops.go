// Package ops runs the queue operations: analyze, clean, preview and the
// posting lifecycle. Every operation loads the whole document once, works on
// that copy, and saves the whole document back if it changed anything.
package ops

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

// ErrArticleNotQueued is returned by MarkPosted for a URI that is not queued.
var ErrArticleNotQueued = errors.New("article not in queue")

type Service struct {
	store  *queue.Store
	filter *filter.Filter
	sink   filter.AuditSink
	log    *slog.Logger
}

type Option func(*Service)

// WithAuditSink sets where Clean records exclusions.
func WithAuditSink(s filter.AuditSink) Option {
	return func(svc *Service) {
		if s != nil {
			svc.sink = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.log = l
		}
	}
}

func New(store *queue.Store, f *filter.Filter, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		filter: f,
		sink:   filter.NopSink{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Report is the outcome of classifying every queued article.
type Report struct {
	Total    int
	Kept     int
	Excluded int
	Details  []filter.ExclusionRecord
}

type CleanOptions struct {
	Backup bool
}

type CleanResult struct {
	Report
	BackupPath string
	Saved      bool
}

// Analyze classifies the queue without changing it. A missing queue file is
// an error.
func (s *Service) Analyze() (Report, error) {
	doc, err := s.store.LoadExisting()
	if err != nil {
		return Report{}, fmt.Errorf("analyzing queue: %w", err)
	}
	kept, n, details := s.filter.FilterArticles(doc.QueuedArticles)
	return Report{
		Total:    len(doc.QueuedArticles),
		Kept:     len(kept),
		Excluded: n,
		Details:  details,
	}, nil
}

// Clean drops every queued article that mentions an unwanted term. When
// nothing is excluded the file is left untouched. With opts.Backup set, a
// full copy of the pre-clean document is written first and a failed backup
// aborts the clean. Exclusions reach the audit sink only once the cleaned
// queue is saved.
func (s *Service) Clean(opts CleanOptions) (CleanResult, error) {
	doc, err := s.store.LoadExisting()
	if err != nil {
		return CleanResult{}, fmt.Errorf("cleaning queue: %w", err)
	}

	original := doc.QueuedArticles
	kept, n, details := s.filter.FilterArticles(original)
	res := CleanResult{Report: Report{
		Total:    len(original),
		Kept:     len(kept),
		Excluded: n,
		Details:  details,
	}}
	if n == 0 {
		s.log.Info("queue already clean", "total", res.Total)
		return res, nil
	}

	if opts.Backup {
		path, err := s.store.Backup(doc)
		if err != nil {
			return res, fmt.Errorf("cleaning queue: %w", err)
		}
		res.BackupPath = path
		s.log.Info("backup written", "path", path, "articles", len(original))
	}

	doc.QueuedArticles = kept
	if err := s.store.Save(doc); err != nil {
		return res, fmt.Errorf("cleaning queue: %w", err)
	}
	res.Saved = true
	s.log.Info("queue saved", "kept", res.Kept, "excluded", res.Excluded)
	s.filter.Record(s.sink, s.filter.Blocked(original))
	return res, nil
}

// Preview returns up to limit queued articles (all of them when limit <= 0)
// and the total queue length.
func (s *Service) Preview(limit int) ([]queue.Article, int, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("previewing queue: %w", err)
	}
	articles := doc.QueuedArticles
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, len(doc.QueuedArticles), nil
}

// Next returns the article that would be posted next.
func (s *Service) Next() (queue.Article, bool, error) {
	doc, err := s.store.Load()
	if err != nil {
		return queue.Article{}, false, fmt.Errorf("reading queue: %w", err)
	}
	if len(doc.QueuedArticles) == 0 {
		return queue.Article{}, false, nil
	}
	return doc.QueuedArticles[0], true, nil
}

type Status struct {
	Path   string
	Queued int
	Posted int
}

func (s *Service) Status() (Status, error) {
	doc, err := s.store.Load()
	if err != nil {
		return Status{}, fmt.Errorf("reading queue: %w", err)
	}
	return Status{
		Path:   s.store.Path(),
		Queued: len(doc.QueuedArticles),
		Posted: len(doc.PostedURIs),
	}, nil
}

// IngestResult counts what happened to a batch of incoming articles.
type IngestResult struct {
	Received int
	Known    int
	Blocked  int
	Added    int
}

// Enqueue appends articles whose URI is neither queued nor already posted.
// Articles without a URI are skipped. It returns how many were added and
// only writes when that is non-zero.
func (s *Service) Enqueue(articles []queue.Article) (int, error) {
	res, err := s.Ingest(articles, false)
	return res.Added, err
}

// Ingest is Enqueue with optional filtering. Articles already queued or
// posted are dropped first, so only new articles are classified. With
// filterFirst set, excluded articles are kept out of the queue and sent to the
// audit sink after the queue is saved.
func (s *Service) Ingest(articles []queue.Article, filterFirst bool) (IngestResult, error) {
	res := IngestResult{Received: len(articles)}
	doc, err := s.store.Load()
	if err != nil {
		return res, fmt.Errorf("enqueueing: %w", err)
	}

	seen := make(map[string]bool, len(doc.QueuedArticles)+len(doc.PostedURIs))
	for _, uri := range doc.PostedURIs {
		seen[uri] = true
	}
	for _, a := range doc.QueuedArticles {
		seen[a.URI] = true
	}

	fresh := make([]queue.Article, 0, len(articles))
	for _, a := range articles {
		if a.URI == "" || seen[a.URI] {
			continue
		}
		seen[a.URI] = true
		fresh = append(fresh, a)
	}
	res.Known = len(articles) - len(fresh)

	incoming := fresh
	if filterFirst {
		incoming, res.Blocked, _ = s.filter.FilterArticles(fresh)
	}

	if len(incoming) > 0 {
		doc.QueuedArticles = append(doc.QueuedArticles, incoming...)
		if err := s.store.Save(doc); err != nil {
			return res, fmt.Errorf("enqueueing: %w", err)
		}
		res.Added = len(incoming)
		s.log.Info("queue saved", "added", res.Added, "queued", len(doc.QueuedArticles))
	}
	if res.Blocked > 0 {
		s.filter.Record(s.sink, s.filter.Blocked(fresh))
	}
	return res, nil
}

// MarkPosted moves the queued article with uri into the posted history and
// returns the backup path when backup is set.
func (s *Service) MarkPosted(uri string, backup bool) (string, error) {
	doc, err := s.store.LoadExisting()
	if err != nil {
		return "", fmt.Errorf("marking posted: %w", err)
	}
	i := doc.IndexQueued(uri)
	if i < 0 {
		return "", fmt.Errorf("marking posted %q: %w", uri, ErrArticleNotQueued)
	}

	var backupPath string
	if backup {
		if backupPath, err = s.store.Backup(doc); err != nil {
			return "", fmt.Errorf("marking posted: %w", err)
		}
	}

	queued := make([]queue.Article, 0, len(doc.QueuedArticles)-1)
	queued = append(queued, doc.QueuedArticles[:i]...)
	queued = append(queued, doc.QueuedArticles[i+1:]...)
	doc.QueuedArticles = queued
	if !doc.IsPosted(uri) {
		doc.PostedURIs = append(doc.PostedURIs, uri)
	}

	if err := s.store.Save(doc); err != nil {
		return backupPath, fmt.Errorf("marking posted: %w", err)
	}
	s.log.Info("marked posted", "uri", uri)
	return backupPath, nil
}
