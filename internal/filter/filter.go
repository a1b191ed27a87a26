// Package filter decides which queued articles are Bitcoin-only.
package filter

import (
	"log/slog"
	"time"

	"github.com/SHA256-news/studious-giggle-sub001/internal/match"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

const (
	// ReasonCryptoFilter tags audit entries written for lexicon exclusions.
	ReasonCryptoFilter = "crypto_filter"

	maxTitleRunes   = 100
	maxBodyMatches  = 5
	truncatedSuffix = "..."
)

// ExclusionRecord summarizes why an article was dropped.
type ExclusionRecord struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	FoundInTitle []string `json:"found_in_title"`
	FoundInBody  []string `json:"found_in_body"`
}

// Filter classifies articles with a match engine. Its methods never modify
// their input. The zero value is not usable; call New.
type Filter struct {
	engine *match.Engine
	sink   AuditSink
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Filter)

func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

func New(engine *match.Engine, opts ...Option) *Filter {
	f := &Filter{
		engine: engine,
		sink:   NopSink{},
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithSink returns a copy of f that reports exclusions to s.
func (f *Filter) WithSink(s AuditSink) *Filter {
	cp := *f
	if s == nil {
		s = NopSink{}
	}
	cp.sink = s
	return &cp
}

// Classify reports whether a is Bitcoin-only, along with the terms found in
// its title and in its body (or content when the body is empty).
func (f *Filter) Classify(a queue.Article) (bool, []string, []string) {
	titleMatches := f.engine.FindMatches(a.Title)
	bodyMatches := f.engine.FindMatches(a.Text())
	return len(titleMatches) == 0 && len(bodyMatches) == 0, titleMatches, bodyMatches
}

// FilterArticles splits articles into those to keep and those to drop. It
// always returns non-nil slices, including for nil input.
func (f *Filter) FilterArticles(articles []queue.Article) ([]queue.Article, int, []ExclusionRecord) {
	kept := make([]queue.Article, 0, len(articles))
	details := []ExclusionRecord{}

	for _, a := range articles {
		ok, inTitle, inBody := f.Classify(a)
		if ok {
			kept = append(kept, a)
			continue
		}
		details = append(details, newExclusionRecord(a, inTitle, inBody))
		f.record(a, inTitle, inBody)
	}
	return kept, len(details), details
}

// Blocked returns the audit entry for every excluded article, in input
// order. Nothing is sent to the sink.
func (f *Filter) Blocked(articles []queue.Article) []BlockedEntry {
	entries := []BlockedEntry{}
	for _, a := range articles {
		if ok, inTitle, inBody := f.Classify(a); !ok {
			entries = append(entries, f.newBlockedEntry(a, inTitle, inBody))
		}
	}
	return entries
}

// Record sends entries to s. Failures are logged and skipped.
func (f *Filter) Record(s AuditSink, entries []BlockedEntry) {
	for _, e := range entries {
		f.log.Debug("excluded", "uri", e.URI, "terms", e.Details.UnwantedCryptosFound)
		if err := s.Record(e); err != nil {
			f.log.Debug("audit sink failed", "uri", e.URI, "err", err)
		}
	}
}

func (f *Filter) record(a queue.Article, inTitle, inBody []string) {
	f.Record(f.sink, []BlockedEntry{f.newBlockedEntry(a, inTitle, inBody)})
}

func (f *Filter) newBlockedEntry(a queue.Article, inTitle, inBody []string) BlockedEntry {
	return BlockedEntry{
		Reason: ReasonCryptoFilter,
		Title:  a.Title,
		URL:    a.URL,
		URI:    a.URI,
		Source: a.Source.Title,
		Details: BlockedDetails{
			UnwantedCryptosFound: union(inTitle, inBody),
		},
		BlockedAt: f.now().UTC(),
	}
}

func newExclusionRecord(a queue.Article, inTitle, inBody []string) ExclusionRecord {
	if len(inBody) > maxBodyMatches {
		inBody = inBody[:maxBodyMatches]
	}
	return ExclusionRecord{
		Title:        truncate(a.Title, maxTitleRunes),
		URL:          a.URL,
		FoundInTitle: append([]string{}, inTitle...),
		FoundInBody:  append([]string{}, inBody...),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + truncatedSuffix
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
