package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SHA256-news/studious-giggle-sub001/internal/browser"
	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
	"github.com/SHA256-news/studious-giggle-sub001/internal/post"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeHome mode = iota
	modeNormal
	modeSearch
	modeSources
	modeHelp
	modePost
)

// App is a read-only browser over the queue document.
type App struct {
	svc       *ops.Service
	filter    *filter.Filter
	formatter post.Formatter

	all      []queue.Article
	articles []queue.Article
	status   ops.Status
	cursor   int
	focus    focusPane
	mode     mode

	width  int
	height int

	// Sub-components
	searchInput textinput.Model
	spinner     spinner.Model
	sourceBar   sourceBar

	// State
	loading       bool
	previewScroll int
	err           error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Service    *ops.Service
	Filter     *filter.Filter
	Formatter  post.Formatter
	BrowseMode bool
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Search queue..."
	ti.Prompt = searchPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	startMode := modeHome
	if opts.BrowseMode {
		startMode = modeNormal
	}

	return &App{
		svc:         opts.Service,
		filter:      opts.Filter,
		formatter:   opts.Formatter,
		sourceBar:   newSourceBar(nil),
		searchInput: ti,
		spinner:     sp,
		mode:        startMode,
	}
}

func (a *App) Init() tea.Cmd {
	a.loading = true
	return tea.Batch(a.loadQueueCmd(), a.spinner.Tick)
}

// loadQueueCmd reads the queue once; the document is never written from here.
func (a *App) loadQueueCmd() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		articles, _, err := svc.Preview(0)
		if err != nil {
			return queueErrMsg{err: err}
		}
		st, err := svc.Status()
		if err != nil {
			return queueErrMsg{err: err}
		}
		return queueLoadedMsg{articles: articles, status: st}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		err := browser.Open(url)
		if err != nil {
			return queueErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case queueLoadedMsg:
		a.loading = false
		a.all = msg.articles
		a.status = msg.status
		a.sourceBar = a.sourceBar.withSources(sourceNames(a.all))
		a.applyView()
		return a, nil

	case queueErrMsg:
		a.loading = false
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

// applyView recomputes the visible articles from the source selection and
// the search text.
func (a *App) applyView() {
	query := strings.ToLower(strings.TrimSpace(a.searchInput.Value()))
	visible := make([]queue.Article, 0, len(a.all))
	for _, art := range a.all {
		if !a.sourceBar.allows(art.Source.Title) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(art.Title), query) &&
			!strings.Contains(strings.ToLower(art.Text()), query) {
			continue
		}
		visible = append(visible, art)
	}
	a.articles = visible
	if a.cursor >= len(a.articles) {
		a.cursor = max(0, len(a.articles)-1)
	}
}

func (a *App) selected() *queue.Article {
	if len(a.articles) > 0 && a.cursor < len(a.articles) {
		return &a.articles[a.cursor]
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	// Mode-specific handling
	switch a.mode {
	case modeHome:
		return a.handleHomeKey(msg)
	case modePost:
		return a.handlePostKey(msg)
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeSources:
		return a.handleSourcesKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	// Normal mode
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList && a.cursor < len(a.articles)-1 {
			a.cursor++
			a.previewScroll = 0
		} else if a.focus == focusPreview {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && a.cursor > 0 {
			a.cursor--
			a.previewScroll = 0
		} else if a.focus == focusPreview && a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if art := a.selected(); art != nil && art.URL != "" {
			return a, openBrowserCmd(art.URL)
		}
		return a, nil
	case "p":
		if len(a.articles) > 0 {
			a.mode = modePost
		}
		return a, nil
	case "/":
		a.mode = modeSearch
		a.searchInput.Focus()
		return a, textinput.Blink
	case "f":
		a.mode = modeSources
		a.sourceBar.selecting = true
		return a, nil
	case "r":
		if !a.loading {
			a.loading = true
			return a, tea.Batch(a.loadQueueCmd(), a.spinner.Tick)
		}
		return a, nil
	case "h":
		a.mode = modeHome
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e", "1", "enter":
		a.mode = modeNormal
		return a, nil
	case "p", "2":
		if len(a.articles) > 0 {
			a.mode = modePost
		}
		return a, nil
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handlePostKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n", "j", "right":
		if a.cursor < len(a.articles)-1 {
			a.cursor++
		}
		return a, nil
	case "p", "k", "left":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "o", "enter":
		if art := a.selected(); art != nil && art.URL != "" {
			return a, openBrowserCmd(art.URL)
		}
		return a, nil
	case "e", "esc":
		a.mode = modeNormal
		return a, nil
	case "h":
		a.mode = modeHome
		return a, nil
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		a.applyView()
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	before := a.searchInput.Value()
	a.searchInput, cmd = a.searchInput.Update(msg)
	// Only re-filter on actual value changes, not cursor moves etc.
	if a.searchInput.Value() != before {
		a.cursor = 0
		a.applyView()
	}
	return a, cmd
}

func (a *App) handleSourcesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		a.mode = modeNormal
		a.sourceBar.selecting = false
		return a, nil
	case "left", "h":
		if a.sourceBar.cursor > 0 {
			a.sourceBar.cursor--
		}
		return a, nil
	case "right", "l":
		if a.sourceBar.cursor < len(a.sourceBar.sources)-1 {
			a.sourceBar.cursor++
		}
		return a, nil
	case " ", "enter":
		a.sourceBar.toggleCurrent()
		a.cursor = 0
		a.applyView()
		return a, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx < len(a.sourceBar.sources) {
			a.sourceBar.toggle(a.sourceBar.sources[idx])
			a.cursor = 0
			a.applyView()
		}
		return a, nil
	}
	return a, nil
}

func (a *App) withBottomBar(content string, hints string) string {
	bar := renderBottomBar(hints, a.width)
	lines := strings.Split(content, "\n")
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  sha256news")
	}

	if a.mode == modeHome {
		return a.withBottomBar(renderHomeScreen(a.width, a.height, a.status), "e browse  p posts  q quit")
	}

	if a.mode == modePost {
		if art := a.selected(); art != nil {
			return a.withBottomBar(
				renderPostView(*art, a.cursor, len(a.articles), a.filter, a.formatter, a.width, a.height),
				"n next  p prev  o open  e browse  h home  q quit",
			)
		}
	}

	if a.mode == modeHelp {
		return a.withBottomBar(a.renderHelp(), "? close  h home  q quit")
	}

	// Layout calculations
	headerHeight := 1
	sourcesHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - sourcesHeight - statusHeight - 4 // borders

	listWidth := int(float64(a.width) * 0.35)
	previewWidth := a.width - listWidth - 1 // gap

	if contentHeight < 3 {
		contentHeight = 3
	}

	// Header
	headerLeft := headerStyle.Render("sha256news")
	headerRight := headerCountStyle.Render(fmt.Sprintf("%d queued ", a.status.Queued))
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Source bar
	sources := a.sourceBar.render(a.width)

	// Search bar (replaces sources when searching)
	if a.mode == modeSearch {
		sources = a.searchInput.View()
	}

	// List pane
	innerListW := listWidth - 4 // border + padding
	listContent := renderList(a.articles, a.cursor, contentHeight, innerListW)

	var listPane string
	if a.focus == focusList {
		listPane = listPaneActiveStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	} else {
		listPane = listPaneStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)
	}

	// Preview pane
	innerPreviewW := previewWidth - 4
	previewContent := renderPreview(a.selected(), innerPreviewW, contentHeight, a.previewScroll)

	var previewPane string
	if a.focus == focusPreview {
		previewPane = previewPaneActiveStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	} else {
		previewPane = previewPaneStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)
	}

	// Join panes
	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	// Status bar
	status := renderStatusBar(
		len(a.articles),
		len(a.all),
		a.status.Posted,
		a.sourceBar.activeLabel(),
		a.width,
		a.mode == modeSearch,
		a.loading,
	)

	if a.loading {
		status = a.spinner.View() + " " + status
	}

	// Error display
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, sources, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("sha256news")
	dim := helpDimStyle

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Navigate queue\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open article in browser\n" +
		"  p             Preview formatted posts\n" +
		"  r             Reload queue file\n" +
		"  /             Search titles and bodies\n" +
		"  f             Toggle source selection\n\n" +
		dim.Render("Source Selection") + "\n" +
		"  ←/→, h/l     Move between sources\n" +
		"  space/enter   Toggle source\n" +
		"  1-9           Toggle source by number\n" +
		"  esc, f        Exit source selection\n\n" +
		dim.Render("General") + "\n" +
		"  h             Go to home screen\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
