package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
)

var asciiLogo = []string{
	`┌─┐┬ ┬┌─┐┌─┐┌─┐┌─┐  ┌┐┌┌─┐┬ ┬┌─┐`,
	`└─┐├─┤├─┤┌─┘└─┐├─┐  │││├┤ │││└─┐`,
	`└─┘┴ ┴┴ ┴└─┘└─┘└─┘  ┘└┘└─┘└┴┘└─┘`,
}

func renderHomeScreen(width, height int, st ops.Status) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(colorText)

	var lines []string

	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "")
	lines = append(lines, "  "+helpDimStyle.Render(fmt.Sprintf("%d queued · %d posted", st.Queued, st.Posted)))
	if st.Path != "" {
		lines = append(lines, "  "+helpDimStyle.Render(st.Path))
	}
	lines = append(lines, "")

	lines = append(lines, "    "+keyStyle.Render("[e]")+"  "+labelStyle.Render("Browse queue"))
	if st.Queued > 0 {
		lines = append(lines, "    "+keyStyle.Render("[p]")+"  "+labelStyle.Render("Post previews"))
	}
	lines = append(lines, "")
	lines = append(lines, "    "+keyStyle.Render("[q]")+"  "+labelStyle.Render("Quit"))

	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1

	topPad := (height - contentHeight) / 3
	if topPad < 0 {
		topPad = 0
	}

	// Center horizontally
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}
