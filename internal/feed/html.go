package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToText flattens an HTML fragment to plain text, one paragraph per
// block element, with runs of whitespace collapsed.
func htmlToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if !strings.Contains(s, "<") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	doc.Find("script, style, figure figcaption").Remove()

	var paragraphs []string
	doc.Find("p, li, h1, h2, h3, h4, blockquote").Each(func(i int, sel *goquery.Selection) {
		if sel.ParentsFiltered("p, li, blockquote").Length() > 0 {
			return
		}
		if text := collapse(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return collapse(doc.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(s string) string {
	if !strings.Contains(s, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	var src string
	doc.Find("img").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if v, ok := sel.Attr("src"); ok && strings.HasPrefix(v, "http") {
			src = v
			return false
		}
		return true
	})
	return src
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
