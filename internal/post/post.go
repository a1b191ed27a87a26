// Package post turns a queued article into the text of a social post.
package post

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

const (
	DefaultMaxLength  = 280
	DefaultLinkLength = 23

	minTitleRunes = 40
	ellipsis      = "…"
)

// Formatter lays a post out as title, link and hashtags separated by blank
// lines. Links count as LinkLength characters whatever their real length.
type Formatter struct {
	Hashtags   []string
	MaxLength  int
	LinkLength int
}

func New(hashtags []string, maxLength int) Formatter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return Formatter{Hashtags: hashtags, MaxLength: maxLength, LinkLength: DefaultLinkLength}
}

// Format returns the post text. The title is shortened with an ellipsis when
// the post would exceed MaxLength; hashtags are dropped first if keeping them
// would leave fewer than 40 characters of title.
func (f Formatter) Format(a queue.Article) string {
	title := headline(a)
	tags := f.tags()

	title = f.fit(title, a.URL, tags)
	if f.Length(title, a.URL, tags) > f.max() || (tags != "" && utf8.RuneCountInString(title) < min(minTitleRunes, utf8.RuneCountInString(headline(a)))) {
		tags = ""
		title = f.fit(headline(a), a.URL, tags)
	}

	parts := make([]string, 0, 3)
	if title != "" {
		parts = append(parts, title)
	}
	if a.URL != "" {
		parts = append(parts, a.URL)
	}
	if tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, "\n\n")
}

// Length is the counted length of a post built from the given parts.
func (f Formatter) Length(title, url, tags string) int {
	n := 0
	add := func(k int) {
		if n > 0 {
			n += 2
		}
		n += k
	}
	if title != "" {
		add(utf8.RuneCountInString(title))
	}
	if url != "" {
		add(f.linkLength())
	}
	if tags != "" {
		add(utf8.RuneCountInString(tags))
	}
	return n
}

func (f Formatter) fit(title, url, tags string) string {
	over := f.Length(title, url, tags) - f.max()
	if over <= 0 {
		return title
	}
	keep := utf8.RuneCountInString(title) - over - utf8.RuneCountInString(ellipsis)
	return shorten(title, keep)
}

func (f Formatter) tags() string {
	var b strings.Builder
	for _, t := range f.Hashtags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("#" + t)
	}
	return b.String()
}

func (f Formatter) max() int {
	if f.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return f.MaxLength
}

func (f Formatter) linkLength() int {
	if f.LinkLength <= 0 {
		return DefaultLinkLength
	}
	return f.LinkLength
}

// headline is the trimmed title, or the opening of the body for untitled
// articles.
func headline(a queue.Article) string {
	if t := strings.Join(strings.Fields(a.Title), " "); t != "" {
		return t
	}
	body := strings.Join(strings.Fields(a.Text()), " ")
	if i := strings.IndexAny(body, ".!?"); i > 0 {
		return body[:i+1]
	}
	return body
}

// shorten cuts s to at most keep runes, preferring a word boundary, and
// appends an ellipsis.
func shorten(s string, keep int) string {
	if keep <= 0 {
		return ""
	}
	r := []rune(s)
	if keep >= len(r) {
		return s
	}
	cut := keep
	for i := keep; i > keep/2; i-- {
		if unicode.IsSpace(r[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(r[:cut]), unicode.IsSpace) + ellipsis
}
