package queue

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleQueue = `{
  "posted_uris": ["p-1"],
  "queued_articles": [
    {
      "title": null,
      "body": "Bitcoin mining facility",
      "url": "https://example.com/a",
      "uri": "a-1",
      "lang": "eng",
      "source": {"title": "Example", "uri": "example.com", "dataType": "news"}
    },
    {
      "title": "Ethereum Mining Gets Harder",
      "content": "GPU miners move on",
      "url": "https://example.com/b",
      "uri": "b-2",
      "image": "https://example.com/b.png"
    }
  ],
  "schema": 2
}`

func writeQueue(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeAny(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	return v
}

func TestLoadMissingReturnsEmptyDocument(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.PostedURIs == nil || doc.QueuedArticles == nil {
		t.Error("empty document should have non-nil slices")
	}
	if len(doc.PostedURIs) != 0 || len(doc.QueuedArticles) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestLoadExistingMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.LoadExisting()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadExisting error = %v, want ErrNotFound", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []string{
		`{"queued_articles": [`,
		``,
		`null`,
		`[]`,
		`{"posted_uris": "nope"}`,
		`{"posted_uris": [], "queued_articles": [null]}`,
		`{"posted_uris": [], "queued_articles": [{"uri": "a"}, null]}`,
		`{"queued_articles": ["a"]}`,
	}
	for _, content := range tests {
		path := writeQueue(t, content)
		_, err := NewStore(path).Load()
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("Load(%q) error = %v, want ErrMalformed", content, err)
		}
		got, _ := os.ReadFile(path)
		if string(got) != content {
			t.Errorf("Load(%q) modified the file", content)
		}
	}
}

func TestLoadNormalizesFields(t *testing.T) {
	doc, err := NewStore(writeQueue(t, sampleQueue)).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.QueuedArticles) != 2 {
		t.Fatalf("got %d articles, want 2", len(doc.QueuedArticles))
	}
	a, b := doc.QueuedArticles[0], doc.QueuedArticles[1]
	if a.Title != "" {
		t.Errorf("null title = %q, want empty", a.Title)
	}
	if a.Source.Title != "Example" || a.Source.URI != "example.com" {
		t.Errorf("source = %+v", a.Source)
	}
	if b.Text() != "GPU miners move on" {
		t.Errorf("Text() = %q, want content fallback", b.Text())
	}
	if b.ImageURL != "https://example.com/b.png" {
		t.Errorf("ImageURL = %q", b.ImageURL)
	}
	if !doc.IsPosted("p-1") || doc.IsPosted("a-1") {
		t.Error("IsPosted mismatch")
	}
	if doc.IndexQueued("b-2") != 1 || doc.IndexQueued("zzz") != -1 {
		t.Error("IndexQueued mismatch")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := writeQueue(t, sampleQueue)
	s := NewStore(path)
	doc, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decodeAny(t, got), decodeAny(t, []byte(sampleQueue))) {
		t.Errorf("round trip changed content:\n%s", got)
	}
}

func TestSaveKeepsUnknownKeysAfterEdit(t *testing.T) {
	path := writeQueue(t, sampleQueue)
	s := NewStore(path)
	doc, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	doc.QueuedArticles[0].Title = "Bitcoin miners expand"
	doc.QueuedArticles = append(doc.QueuedArticles, NewArticle("New", "", "https://example.com/c", "c-3"))
	if err := s.Save(doc); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var raw struct {
		Schema         int              `json:"schema"`
		QueuedArticles []map[string]any `json:"queued_articles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw.Schema != 2 {
		t.Errorf("schema = %d, want 2", raw.Schema)
	}
	first := raw.QueuedArticles[0]
	if first["title"] != "Bitcoin miners expand" {
		t.Errorf("title = %v", first["title"])
	}
	if first["lang"] != "eng" {
		t.Errorf("unknown key lost: %v", first)
	}
	src, _ := first["source"].(map[string]any)
	if src["dataType"] != "news" {
		t.Errorf("source extras lost: %v", src)
	}
	third := raw.QueuedArticles[2]
	for _, key := range []string{"title", "body", "url", "uri"} {
		if _, ok := third[key]; !ok {
			t.Errorf("new article missing %q: %v", key, third)
		}
	}
	if _, ok := third["image"]; ok {
		t.Errorf("empty optional field written: %v", third)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "queue.json"))
	if err := s.Save(NewDocument()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(NewDocument()); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "queue.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir contents = %v, want [queue.json]", names)
	}
}

func TestSaveEscapesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	s := NewStore(path)
	doc := NewDocument()
	doc.QueuedArticles = append(doc.QueuedArticles, NewArticle("Miners & <grid>", "", "https://x.test/?a=1&b=2", "u"))
	if err := s.Save(doc); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Miners & <grid>") {
		t.Errorf("expected unescaped text in:\n%s", data)
	}
}

func TestBackupWritesFullCopy(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	s := NewStore(filepath.Join(dir, "queue.json"),
		WithBackupDir(filepath.Join(dir, "backups")),
		WithClock(func() time.Time { return fixed }),
	)

	doc := NewDocument()
	doc.QueuedArticles = append(doc.QueuedArticles,
		NewArticle("one", "", "https://x.test/1", "1"),
		NewArticle("two", "", "https://x.test/2", "2"),
	)
	path, err := s.Backup(doc)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	want := filepath.Join(dir, "backups", "queue.20240309T140506.000Z.backup.json")
	if path != want {
		t.Errorf("backup path = %q, want %q", path, want)
	}

	restored, err := NewStore(path).LoadExisting()
	if err != nil {
		t.Fatal(err)
	}
	if len(restored.QueuedArticles) != 2 {
		t.Errorf("backup has %d articles, want 2", len(restored.QueuedArticles))
	}

	backups, err := s.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 || backups[0] != want {
		t.Errorf("Backups() = %v", backups)
	}
}

func TestBackupSameInstantKeepsEveryCopy(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	s := NewStore(filepath.Join(dir, "queue.json"), WithClock(func() time.Time { return fixed }))

	var paths []string
	for i := 1; i <= 3; i++ {
		doc := NewDocument()
		for j := 0; j < i; j++ {
			doc.QueuedArticles = append(doc.QueuedArticles, NewArticle("a", "", "", string(rune('a'+j))))
		}
		path, err := s.Backup(doc)
		if err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
		paths = append(paths, path)
	}

	want := []string{
		filepath.Join(dir, "queue.20240309T140506.000Z.backup.json"),
		filepath.Join(dir, "queue.20240309T140506.000Z_1.backup.json"),
		filepath.Join(dir, "queue.20240309T140506.000Z_2.backup.json"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
	for i, p := range paths {
		doc, err := NewStore(p).LoadExisting()
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.QueuedArticles) != i+1 {
			t.Errorf("%s has %d articles, want %d", filepath.Base(p), len(doc.QueuedArticles), i+1)
		}
	}
	backups, err := s.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(backups, want) {
		t.Errorf("Backups() = %v, want oldest first %v", backups, want)
	}
}

func TestBackupDefaultsToQueueDir(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "queue.json"), WithBackupDir(""))
	if s.BackupDir() != dir {
		t.Errorf("BackupDir() = %q, want %q", s.BackupDir(), dir)
	}
}
