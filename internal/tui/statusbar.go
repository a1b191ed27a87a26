package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(shown, queued, posted int, filterLabel string, width int, searching bool, loading bool) string {
	postedStyle := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	left := fmt.Sprintf(" %d queued", queued)
	if shown != queued {
		left = fmt.Sprintf(" %d of %d queued", shown, queued)
	}
	if filterLabel != "All" {
		left += " · " + filterLabel
	}
	if posted > 0 {
		left += fmt.Sprintf(" · %s %d", postedStyle.Render("posted"), posted)
	}

	right := " h home  / search  f sources  p post  q quit "

	if searching {
		right = " esc cancel  enter done "
	}
	if loading {
		left += " (loading...)"
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderBottomBar(hints string, width int) string {
	right := " " + hints + " "

	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
