package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/SHA256-news/studious-giggle-sub001/internal/config"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

const (
	defaultMaxAge = 7 * 24 * time.Hour
	maxBodyRunes  = 2000
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]queue.Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	maxAge time.Duration
	now    func() time.Time
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), maxAge: defaultMaxAge, now: time.Now}
}

// WithMaxAge sets how old an item may be and still be returned. Zero or
// negative keeps everything.
func (f *RSSFetcher) WithMaxAge(d time.Duration) *RSSFetcher {
	f.maxAge = d
	return f
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]queue.Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	return f.articles(source, feed), nil
}

func (f *RSSFetcher) articles(source config.Source, feed *gofeed.Feed) []queue.Article {
	now := f.now()
	articles := make([]queue.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		// Skip stale items
		if f.maxAge > 0 && pub.Before(now.Add(-f.maxAge)) {
			continue
		}
		articles = append(articles, toArticle(source, item))
	}
	return articles
}

func toArticle(source config.Source, item *gofeed.Item) queue.Article {
	body := htmlToText(item.Description)
	content := htmlToText(item.Content)
	if content == body {
		content = ""
	}

	a := queue.NewArticle(
		strings.Join(strings.Fields(item.Title), " "),
		truncate(body, maxBodyRunes),
		item.Link,
		articleID(item.Link),
	)
	a.Content = truncate(content, maxBodyRunes)
	a.Source = queue.Source{Title: source.Name, URI: host(source.URL)}
	a.ImageURL = itemImage(item)
	return a
}

// itemImage prefers the feed's own image, then an image enclosure, then the
// first <img> in the item HTML.
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if src := firstImage(item.Content); src != "" {
		return src
	}
	return firstImage(item.Description)
}

func articleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

type FetchResult struct {
	Articles []queue.Article
	Errors   []error
}

// FetchAll fetches every source concurrently. Articles come back grouped in
// source order, with links repeated across sources kept once.
func FetchAll(ctx context.Context, fetcher Fetcher, sources []config.Source) FetchResult {
	var (
		wg       sync.WaitGroup
		perSrc   = make([][]queue.Article, len(sources))
		errs     = make([]error, len(sources))
		result   FetchResult
		seenURIs = make(map[string]bool)
	)

	for i, src := range sources {
		wg.Add(1)
		go func(i int, s config.Source) {
			defer wg.Done()
			perSrc[i], errs[i] = fetcher.Fetch(ctx, s)
		}(i, src)
	}
	wg.Wait()

	for i := range sources {
		if errs[i] != nil {
			result.Errors = append(result.Errors, errs[i])
			continue
		}
		for _, a := range perSrc[i] {
			if seenURIs[a.URI] {
				continue
			}
			seenURIs[a.URI] = true
			result.Articles = append(result.Articles, a)
		}
	}
	return result
}
