package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
	"github.com/SHA256-news/studious-giggle-sub001/internal/lexicon"
	"github.com/SHA256-news/studious-giggle-sub001/internal/match"
	"github.com/SHA256-news/studious-giggle-sub001/internal/ops"
	"github.com/SHA256-news/studious-giggle-sub001/internal/post"
	"github.com/SHA256-news/studious-giggle-sub001/internal/queue"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedApp(t *testing.T) *App {
	t.Helper()
	app := NewApp(RunOpts{
		Filter:     filter.New(match.New(lexicon.Default())),
		Formatter:  post.New([]string{"Bitcoin"}, 280),
		BrowseMode: true,
	})
	a1 := queue.NewArticle("Hashrate record", "Miners add capacity in Texas.", "https://a.test/1", "1")
	a1.Source = queue.Source{Title: "Alpha"}
	a2 := queue.NewArticle("Difficulty adjustment", "Blocks slowed this week.", "https://b.test/2", "2")
	a2.Source = queue.Source{Title: "Beta"}
	a3 := queue.NewArticle("Pool fees drop", "Texas pools compete on fees.", "https://a.test/3", "3")
	a3.Source = queue.Source{Title: "Alpha"}

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Update(queueLoadedMsg{
		articles: []queue.Article{a1, a2, a3},
		status:   ops.Status{Queued: 3, Posted: 7},
	})
	return app
}

func send(app *App, keys ...string) {
	for _, k := range keys {
		app.Update(key(k))
	}
}

func TestAppLoadsQueue(t *testing.T) {
	app := loadedApp(t)
	if len(app.articles) != 3 || app.loading {
		t.Fatalf("articles = %d, loading = %v", len(app.articles), app.loading)
	}
	if got := strings.Join(app.sourceBar.sources, ","); got != "Alpha,Beta" {
		t.Errorf("sources = %s", got)
	}
	view := app.View()
	if !strings.Contains(view, "Hashrate record") || !strings.Contains(view, "3 queued") {
		t.Errorf("view missing content:\n%s", view)
	}
}

func TestAppNavigation(t *testing.T) {
	app := loadedApp(t)
	send(app, "j", "j", "j")
	if app.cursor != 2 {
		t.Errorf("cursor = %d, want 2", app.cursor)
	}
	send(app, "k")
	if app.cursor != 1 {
		t.Errorf("cursor = %d, want 1", app.cursor)
	}
}

func TestAppSearchFilters(t *testing.T) {
	app := loadedApp(t)
	send(app, "/")
	if app.mode != modeSearch {
		t.Fatalf("mode = %v, want search", app.mode)
	}
	send(app, "t", "e", "x", "a", "s")
	if len(app.articles) != 2 {
		t.Errorf("search matched %d articles, want 2", len(app.articles))
	}
	send(app, "esc")
	if app.mode != modeNormal || len(app.articles) != 3 {
		t.Errorf("esc should clear search: mode=%v articles=%d", app.mode, len(app.articles))
	}
}

func TestAppSourceSelection(t *testing.T) {
	app := loadedApp(t)
	send(app, "f", "2")
	if len(app.articles) != 1 || app.articles[0].URI != "2" {
		t.Errorf("source selection shows %d articles", len(app.articles))
	}
	send(app, "f")
	if app.mode != modeNormal || app.sourceBar.selecting {
		t.Error("f should leave source selection")
	}
}

func TestAppPostView(t *testing.T) {
	app := loadedApp(t)
	send(app, "p")
	if app.mode != modePost {
		t.Fatalf("mode = %v, want post", app.mode)
	}
	view := app.View()
	if !strings.Contains(view, "#Bitcoin") || !strings.Contains(view, "bitcoin-only") {
		t.Errorf("post view missing content:\n%s", view)
	}
	send(app, "n")
	if app.cursor != 1 {
		t.Errorf("cursor = %d after next", app.cursor)
	}
	send(app, "esc")
	if app.mode != modeNormal {
		t.Errorf("esc should return to list")
	}
}

func TestAppErrorShownAndCleared(t *testing.T) {
	app := loadedApp(t)
	app.Update(queueErrMsg{err: errors.New("queue file is malformed")})
	if !strings.Contains(app.View(), "queue file is malformed") {
		t.Error("error not displayed")
	}
	send(app, "j")
	if app.err != nil {
		t.Error("error should clear on keypress")
	}
}

func TestAppQuit(t *testing.T) {
	app := loadedApp(t)
	_, cmd := app.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
