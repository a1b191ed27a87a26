package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

// sourceBar lets the user narrow the list to some outlets. No active
// source means all of them.
type sourceBar struct {
	sources   []string
	active    map[string]bool
	selecting bool
	cursor    int
}

func newSourceBar(sources []string) sourceBar {
	return sourceBar{
		sources: sources,
		active:  make(map[string]bool),
	}
}

// sourceNames lists the distinct outlet names in articles, sorted.
func sourceNames(articles []queue.Article) []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range articles {
		name := a.Source.Title
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withSources returns a bar over a new source list, keeping any selection
// that is still present.
func (f sourceBar) withSources(sources []string) sourceBar {
	next := newSourceBar(sources)
	for _, s := range sources {
		if f.active[s] {
			next.active[s] = true
		}
	}
	if f.cursor < len(sources) {
		next.cursor = f.cursor
	}
	next.selecting = f.selecting
	return next
}

func (f *sourceBar) toggle(source string) {
	if f.active[source] {
		delete(f.active, source)
	} else {
		f.active[source] = true
	}
}

func (f *sourceBar) toggleCurrent() {
	if f.cursor < len(f.sources) {
		f.toggle(f.sources[f.cursor])
	}
}

func (f *sourceBar) allows(source string) bool {
	return len(f.active) == 0 || f.active[source]
}

func (f *sourceBar) activeSources() []string {
	if len(f.active) == 0 {
		return nil // nil = all sources
	}
	var out []string
	for _, s := range f.sources {
		if f.active[s] {
			out = append(out, s)
		}
	}
	return out
}

func (f *sourceBar) activeLabel() string {
	active := f.activeSources()
	if active == nil {
		return "All"
	}
	return strings.Join(active, ", ")
}

func (f *sourceBar) render(width int) string {
	sep := tabSeparatorStyle.Render(" · ")
	var parts []string

	// "All" tab
	if len(f.active) == 0 {
		parts = append(parts, tabActiveStyle.Render("All"))
	} else {
		parts = append(parts, tabInactiveStyle.Render("All"))
	}

	for i, s := range f.sources {
		style := tabInactiveStyle
		if f.active[s] {
			style = tabActiveStyle
		}
		label := s
		if f.selecting && i == f.cursor {
			label = "[" + s + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Build row with · separators, stopping when we'd exceed width
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	barStyle := lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(row)
}
