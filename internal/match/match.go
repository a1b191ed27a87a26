// Package match finds lexicon terms in free text.
//
// Phrases match as literal substrings of the lowercased text. Single words
// match only on whole-word boundaries, so "ar" does not match inside "bar".
// When a shorter match lies entirely inside the span of a longer accepted
// match, the shorter one is suppressed for that occurrence only: "several
// altcoins" hides the "altcoins" inside it, but a second, standalone
// "altcoins" elsewhere in the text is still reported.
package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/SHA256-news/studious-giggle-sub001/internal/lexicon"
)

// Engine matches text against a fixed lexicon. It is safe for concurrent use.
type Engine struct {
	terms []term
}

type term struct {
	text   string
	phrase bool
}

type span struct {
	start, end int
	term       string
}

// New builds an engine over lex. Terms are visited longest first so that
// phrases claim their spans before the words they contain.
func New(lex *lexicon.Lexicon) *Engine {
	all := lex.Terms()
	terms := make([]term, 0, len(all))
	for _, t := range all {
		terms = append(terms, term{text: t, phrase: lexicon.IsPhrase(t)})
	}
	return &Engine{terms: terms}
}

// FindMatches returns the lexicon terms found in text, without duplicates,
// ordered by where each term first appears. Empty text yields an empty slice.
func (e *Engine) FindMatches(text string) []string {
	found := e.scan(text, false)
	if len(found) == 0 {
		return []string{}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].start < found[j].start
	})
	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, s := range found {
		if seen[s.term] {
			continue
		}
		seen[s.term] = true
		out = append(out, s.term)
	}
	return out
}

// Contains reports whether text mentions any lexicon term.
func (e *Engine) Contains(text string) bool {
	return len(e.scan(text, true)) > 0
}

func (e *Engine) scan(text string, first bool) []span {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var accepted []span
	for _, t := range e.terms {
		for _, start := range occurrences(lower, t) {
			end := start + len(t.text)
			if covered(accepted, start, end) {
				continue
			}
			accepted = append(accepted, span{start: start, end: end, term: t.text})
			if first {
				return accepted
			}
		}
	}
	return accepted
}

// occurrences returns the byte offsets of every match of t in s.
func occurrences(s string, t term) []int {
	var offsets []int
	for from := 0; from <= len(s)-len(t.text); {
		i := strings.Index(s[from:], t.text)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(t.text)
		if t.phrase || wholeWord(s, start, end) {
			offsets = append(offsets, start)
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return offsets
}

func covered(accepted []span, start, end int) bool {
	for _, s := range accepted {
		if start >= s.start && end <= s.end {
			return true
		}
	}
	return false
}

func wholeWord(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
