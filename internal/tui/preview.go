package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

func renderPreview(article *queue.Article, width, height, scroll int) string {
	if article == nil {
		return lipglossCenter("Select an article", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(displayTitle(*article))
	meta := article.Source.Title
	if meta == "" {
		meta = hostOf(article.URL)
	}
	if article.URI != "" {
		meta += " · " + truncateStr(article.URI, 16)
	}
	source := previewSourceStyle.Render(meta)

	text := article.Text()
	if text == "" {
		text = "(No body available)"
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if w := wrapText(p, contentWidth); w != "" {
			paragraphs = append(paragraphs, w)
		}
	}
	body := previewBodyStyle.Width(contentWidth).Render(strings.Join(paragraphs, "\n\n"))

	parts := []string{title, source, "", body}
	if article.ImageURL != "" {
		parts = append(parts, "", previewLinkStyle.Width(contentWidth).Render("Image: "+article.ImageURL))
	}
	parts = append(parts, "", previewLinkStyle.Width(contentWidth).Render("Read more: "+article.URL))
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
