package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/post"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

// renderPostView shows the post that would be published for a, with its
// counted length and the filter's verdict.
func renderPostView(a queue.Article, index, total int, f *filter.Filter, fm post.Formatter, width, height int) string {
	cardWidth := width - 8
	if cardWidth < 30 {
		cardWidth = 30
	}

	text := fm.Format(a)
	var body []string
	for _, p := range strings.Split(text, "\n\n") {
		body = append(body, postTextStyle.Render(wrapText(p, cardWidth-2)), "")
	}
	if len(body) > 0 {
		body = body[:len(body)-1]
	}

	card := postCardStyle.Width(cardWidth).Render(strings.Join(body, "\n"))

	counter := postMetaStyle.Render(fmt.Sprintf("%d/%d", index+1, total))
	length := postMetaStyle.Render(fmt.Sprintf("%d/%d chars", postLength(fm, text, a.URL), fm.MaxLength))

	lines := []string{"", "  " + counter + "  " + length}
	for _, l := range strings.Split(card, "\n") {
		lines = append(lines, "  "+l)
	}
	lines = append(lines, "", "  "+verdict(f, a))

	content := strings.Join(lines, "\n")
	contentLines := strings.Count(content, "\n") + 1
	topPad := (height - contentLines) / 3
	if topPad < 0 {
		topPad = 0
	}

	return strings.Repeat("\n", topPad) + content
}

func postLength(fm post.Formatter, text, url string) int {
	n := utf8.RuneCountInString(text)
	if url != "" && strings.Contains(text, url) {
		n = n - utf8.RuneCountInString(url) + fm.LinkLength
	}
	return n
}

func verdict(f *filter.Filter, a queue.Article) string {
	if f == nil {
		return ""
	}
	ok, inTitle, inBody := f.Classify(a)
	if ok {
		return matchCleanStyle.Render("bitcoin-only")
	}
	var found []string
	found = append(found, inTitle...)
	for _, t := range inBody {
		if !contains(found, t) {
			found = append(found, t)
		}
	}
	return matchFoundStyle.Render("would be excluded: " + strings.Join(found, ", "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
