package filter

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SHA256-news/studious-giggle-sub001/internal/lexicon"
	"github.com/SHA256-news/studious-giggle-sub001/internal/match"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

func newTestFilter(opts ...Option) *Filter {
	return New(match.New(lexicon.Default()), opts...)
}

type recordingSink struct {
	entries []BlockedEntry
	err     error
}

func (s *recordingSink) Record(e BlockedEntry) error {
	s.entries = append(s.entries, e)
	return s.err
}

func TestFilterArticlesEmptyInput(t *testing.T) {
	f := newTestFilter()
	for _, in := range [][]queue.Article{nil, {}} {
		kept, n, details := f.FilterArticles(in)
		if kept == nil || details == nil {
			t.Errorf("FilterArticles(%v) returned nil slice", in)
		}
		if len(kept) != 0 || n != 0 || len(details) != 0 {
			t.Errorf("FilterArticles(%v) = (%v, %d, %v), want empty", in, kept, n, details)
		}
	}
}

func TestFilterArticlesTitleExample(t *testing.T) {
	f := newTestFilter()
	articles := []queue.Article{
		{Title: "Bitcoin Hashrate Reaches New High"},
		{Title: "Ethereum Mining Gets Harder"},
	}
	kept, n, details := f.FilterArticles(articles)
	if len(kept) != 1 || kept[0].Title != articles[0].Title {
		t.Errorf("kept = %v, want first article", kept)
	}
	if n != 1 || len(details) != 1 {
		t.Fatalf("excluded = %d (%d details), want 1", n, len(details))
	}
	if !contains(details[0].FoundInTitle, "ethereum") {
		t.Errorf("FoundInTitle = %v, want ethereum", details[0].FoundInTitle)
	}
}

func TestFilterArticlesMissingTitle(t *testing.T) {
	var a queue.Article
	if err := json.Unmarshal([]byte(`{"title": null, "body": "Bitcoin mining facility", "uri": "x"}`), &a); err != nil {
		t.Fatal(err)
	}
	kept, n, _ := newTestFilter().FilterArticles([]queue.Article{a})
	if n != 0 || len(kept) != 1 {
		t.Errorf("article with null title should be kept, got kept=%d excluded=%d", len(kept), n)
	}
}

func TestClassify(t *testing.T) {
	f := newTestFilter()
	tests := []struct {
		name      string
		article   queue.Article
		ok        bool
		wantTitle []string
		wantBody  []string
	}{
		{
			name:      "bitcoin only",
			article:   queue.NewArticle("Miners expand in Texas", "New sites for Bitcoin hashrate", "", ""),
			ok:        true,
			wantTitle: []string{},
			wantBody:  []string{},
		},
		{
			name:      "body match",
			article:   queue.NewArticle("Mining pools grow", "Pools now also support Litecoin and Dogecoin.", "", ""),
			wantTitle: []string{},
			wantBody:  []string{"litecoin", "dogecoin"},
		},
		{
			name:      "content fallback",
			article:   queue.Article{Title: "Weekly roundup", Content: "Solana outage again"},
			wantTitle: []string{},
			wantBody:  []string{"solana"},
		},
		{
			name:      "phrase over word",
			article:   queue.NewArticle("Firm mines Bitcoin and several altcoins", "", "", ""),
			wantTitle: []string{"several altcoins"},
			wantBody:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, inTitle, inBody := f.Classify(tt.article)
			if ok != tt.ok {
				t.Errorf("Classify ok = %v, want %v", ok, tt.ok)
			}
			if !reflect.DeepEqual(inTitle, tt.wantTitle) {
				t.Errorf("title matches = %v, want %v", inTitle, tt.wantTitle)
			}
			if !reflect.DeepEqual(inBody, tt.wantBody) {
				t.Errorf("body matches = %v, want %v", inBody, tt.wantBody)
			}
		})
	}
}

func TestExclusionRecordLimits(t *testing.T) {
	f := newTestFilter()
	long := "Ethereum " + strings.Repeat("x", 150)
	body := "solana cardano ripple dogecoin litecoin monero kaspa"
	_, _, details := f.FilterArticles([]queue.Article{queue.NewArticle(long, body, "https://e.test", "u")})
	if len(details) != 1 {
		t.Fatalf("got %d details", len(details))
	}
	d := details[0]
	if got := len([]rune(d.Title)); got != 103 {
		t.Errorf("title length = %d, want 103", got)
	}
	if !strings.HasSuffix(d.Title, "...") {
		t.Errorf("title %q missing ellipsis", d.Title)
	}
	if len(d.FoundInBody) != 5 {
		t.Errorf("FoundInBody = %v, want 5 entries", d.FoundInBody)
	}
	if d.URL != "https://e.test" {
		t.Errorf("URL = %q", d.URL)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"ünïcödé title", 5, "ünïcö..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	f := newTestFilter()
	in := []queue.Article{
		queue.NewArticle("Ethereum ETF", "", "u1", "1"),
		queue.NewArticle("Bitcoin ETF", "", "u2", "2"),
	}
	before := []string{in[0].Title, in[1].Title}
	f.FilterArticles(in)
	if in[0].Title != before[0] || in[1].Title != before[1] || len(in) != 2 {
		t.Error("input slice was modified")
	}
}

func TestSinkReceivesExclusions(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	f := newTestFilter(WithClock(func() time.Time { return fixed })).WithSink(sink)

	a := queue.NewArticle("Ethereum upgrade lands", "Also affects ETH stakers and Solana", "https://e.test/1", "uri-1")
	a.Source = queue.Source{Title: "CoinWire"}
	f.FilterArticles([]queue.Article{a, queue.NewArticle("Bitcoin only", "", "", "uri-2")})

	if len(sink.entries) != 1 {
		t.Fatalf("sink got %d entries, want 1", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Reason != ReasonCryptoFilter || e.URI != "uri-1" || e.Source != "CoinWire" {
		t.Errorf("entry = %+v", e)
	}
	want := []string{"ethereum", "eth", "solana"}
	if !reflect.DeepEqual(e.Details.UnwantedCryptosFound, want) {
		t.Errorf("UnwantedCryptosFound = %v, want %v", e.Details.UnwantedCryptosFound, want)
	}
	if !e.BlockedAt.Equal(fixed) {
		t.Errorf("BlockedAt = %v", e.BlockedAt)
	}
}

func TestSinkFailureIsIgnored(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	f := newTestFilter().WithSink(sink)
	kept, n, details := f.FilterArticles([]queue.Article{
		queue.NewArticle("Dogecoin rallies", "", "", "1"),
		queue.NewArticle("Cardano news", "", "", "2"),
	})
	if len(kept) != 0 || n != 2 || len(details) != 2 {
		t.Errorf("sink error changed result: kept=%d n=%d details=%d", len(kept), n, len(details))
	}
	if len(sink.entries) != 2 {
		t.Errorf("sink called %d times, want 2", len(sink.entries))
	}
}

func TestWithSinkLeavesOriginalUnbound(t *testing.T) {
	base := newTestFilter()
	calls := 0
	bound := base.WithSink(SinkFunc(func(BlockedEntry) error { calls++; return nil }))
	in := []queue.Article{queue.NewArticle("Tether prints", "", "", "1")}

	base.FilterArticles(in)
	if calls != 0 {
		t.Errorf("base filter wrote to sink")
	}
	bound.FilterArticles(in)
	if calls != 1 {
		t.Errorf("bound filter wrote %d entries, want 1", calls)
	}
	if nilBound := base.WithSink(nil); nilBound.sink == nil {
		t.Error("WithSink(nil) should fall back to NopSink")
	}
}

func TestBlockedBuildsEntriesWithoutRecording(t *testing.T) {
	sink := &recordingSink{}
	f := newTestFilter().WithSink(sink)

	entries := f.Blocked([]queue.Article{
		queue.NewArticle("Bitcoin only", "", "", "1"),
		queue.NewArticle("Litecoin halving", "", "", "2"),
		queue.NewArticle("Miners", "Some turn to Monero", "", "3"),
	})
	if len(sink.entries) != 0 {
		t.Fatalf("Blocked wrote %d entries to the sink", len(sink.entries))
	}
	if len(entries) != 2 || entries[0].URI != "2" || entries[1].URI != "3" {
		t.Fatalf("entries = %+v", entries)
	}
	if got := entries[1].Details.UnwantedCryptosFound; len(got) != 1 || got[0] != "monero" {
		t.Errorf("terms = %v", got)
	}

	f.Record(sink, entries)
	if len(sink.entries) != 2 {
		t.Errorf("Record sent %d entries, want 2", len(sink.entries))
	}
	if empty := f.Blocked(nil); empty == nil || len(empty) != 0 {
		t.Errorf("Blocked(nil) = %v, want empty non-nil", empty)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
