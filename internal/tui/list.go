package tui

import (
	"net/url"
	"strings"

	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

func renderListItem(a queue.Article, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	title := displayTitle(a)
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(title, width-4))
	}

	source := a.Source.Title
	if source == "" {
		source = "unknown source"
	}
	meta := "  " + itemSourceStyle.Render(truncateStr(source, width/2)) + " " + itemHostStyle.Render("· "+hostOf(a.URL))

	return title + "\n" + meta
}

func displayTitle(a queue.Article) string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return "(untitled)"
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "no link"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(articles []queue.Article, cursor int, height int, width int) string {
	if len(articles) == 0 {
		return lipglossCenter("Queue is empty", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	// Calculate scroll offset
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(articles) {
		end = len(articles)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderListItem(articles[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
