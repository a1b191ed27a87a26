package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Source identifies the outlet an article came from.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri,omitempty"`
}

// UnmarshalJSON accepts an object, a bare string title, or null.
func (s *Source) UnmarshalJSON(data []byte) error {
	*s = Source{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case string:
		s.Title = v
	case map[string]any:
		s.Title, _ = v["title"].(string)
		s.URI, _ = v["uri"].(string)
	}
	return nil
}

// Article is a queued news item. Missing or null text fields decode to "".
// Keys the struct does not know about are kept and written back, and known
// fields that were not changed are written back exactly as they were read.
type Article struct {
	Title    string
	Body     string
	Content  string
	URL      string
	URI      string
	Source   Source
	ImageURL string

	raw  map[string]json.RawMessage
	orig *Article
}

// NewArticle builds an article in code.
func NewArticle(title, body, url, uri string) Article {
	return Article{Title: title, Body: body, URL: url, URI: uri}
}

// Text returns the article body, falling back to content.
func (a Article) Text() string {
	if a.Body != "" {
		return a.Body
	}
	return a.Content
}

type articleField struct {
	key      string
	cur, old any
	zero     any
	required bool
}

func (a Article) fields() []articleField {
	var o Article
	if a.orig != nil {
		o = *a.orig
	}
	return []articleField{
		{key: "title", cur: a.Title, old: o.Title, zero: "", required: true},
		{key: "body", cur: a.Body, old: o.Body, zero: "", required: true},
		{key: "content", cur: a.Content, old: o.Content, zero: ""},
		{key: "url", cur: a.URL, old: o.URL, zero: "", required: true},
		{key: "uri", cur: a.URI, old: o.URI, zero: "", required: true},
		{key: "source", cur: a.Source, old: o.Source, zero: Source{}},
		{key: "image", cur: a.ImageURL, old: o.ImageURL, zero: ""},
	}
}

func (a Article) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.raw)+7)
	for k, v := range a.raw {
		out[k] = v
	}
	for _, f := range a.fields() {
		_, present := a.raw[f.key]
		switch {
		case present && a.orig != nil && f.cur == f.old:
			continue
		case !present && f.cur == f.zero && (a.orig != nil || !f.required):
			continue
		}
		b, err := marshal(f.cur)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.key, err)
		}
		out[f.key] = b
	}
	return marshal(out)
}

func (a *Article) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("article: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("article is null")
	}
	decoded := Article{
		Title:    stringField(raw, "title"),
		Body:     stringField(raw, "body"),
		Content:  stringField(raw, "content"),
		URL:      stringField(raw, "url"),
		URI:      stringField(raw, "uri"),
		ImageURL: stringField(raw, "image"),
	}
	if v, ok := raw["source"]; ok {
		if err := json.Unmarshal(v, &decoded.Source); err != nil {
			return fmt.Errorf("article source: %w", err)
		}
	}
	orig := decoded
	decoded.raw = raw
	decoded.orig = &orig
	*a = decoded
	return nil
}

// stringField returns raw[key] as a string. Absent keys, null and
// non-string values all read as "".
func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// Document is the persisted queue: posted URI history plus pending articles.
// Unknown top-level keys survive a load and save.
type Document struct {
	PostedURIs     []string
	QueuedArticles []Article

	raw map[string]json.RawMessage
}

// NewDocument returns an empty queue document.
func NewDocument() Document {
	return Document{PostedURIs: []string{}, QueuedArticles: []Article{}}
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.raw)+2)
	for k, v := range d.raw {
		out[k] = v
	}
	posted := d.PostedURIs
	if posted == nil {
		posted = []string{}
	}
	queued := d.QueuedArticles
	if queued == nil {
		queued = []Article{}
	}
	b, err := marshal(posted)
	if err != nil {
		return nil, err
	}
	out["posted_uris"] = b
	if b, err = marshal(queued); err != nil {
		return nil, err
	}
	out["queued_articles"] = b
	return marshal(out)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("queue document is null")
	}
	doc := NewDocument()
	if v, ok := raw["posted_uris"]; ok {
		if err := json.Unmarshal(v, &doc.PostedURIs); err != nil {
			return fmt.Errorf("posted_uris: %w", err)
		}
	}
	if v, ok := raw["queued_articles"]; ok {
		if err := json.Unmarshal(v, &doc.QueuedArticles); err != nil {
			return fmt.Errorf("queued_articles: %w", err)
		}
	}
	if doc.PostedURIs == nil {
		doc.PostedURIs = []string{}
	}
	if doc.QueuedArticles == nil {
		doc.QueuedArticles = []Article{}
	}
	delete(raw, "posted_uris")
	delete(raw, "queued_articles")
	doc.raw = raw
	*d = doc
	return nil
}

// IsPosted reports whether uri is in the posted history.
func (d Document) IsPosted(uri string) bool {
	for _, u := range d.PostedURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// IndexQueued returns the position of the queued article with uri, or -1.
func (d Document) IndexQueued(uri string) int {
	for i, a := range d.QueuedArticles {
		if a.URI == uri {
			return i
		}
	}
	return -1
}

// marshal is json.Marshal without HTML escaping, so titles and URLs stay
// readable in the file.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
