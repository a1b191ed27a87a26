package lexicon

import "testing"

func TestNewPartitionsWordsAndPhrases(t *testing.T) {
	l := New("Ethereum", "several altcoins", "proof-of-stake", "xrp")

	words := l.Words()
	if len(words) != 2 || words[0] != "ethereum" || words[1] != "xrp" {
		t.Errorf("unexpected words: %v", words)
	}
	phrases := l.Phrases()
	if len(phrases) != 2 {
		t.Fatalf("expected 2 phrases, got %v", phrases)
	}
	if phrases[0] != "proof-of-stake" || phrases[1] != "several altcoins" {
		t.Errorf("unexpected phrases: %v", phrases)
	}
}

func TestNewDropsDuplicatesAndBlanks(t *testing.T) {
	l := New("ETH", "eth", " eth ", "", "   ")
	if l.Len() != 1 {
		t.Errorf("expected 1 term, got %d: %v", l.Len(), l.Terms())
	}
}

func TestTermsLongestFirst(t *testing.T) {
	l := New("ada", "altcoins", "several altcoins", "eth")
	terms := l.Terms()
	want := []string{"several altcoins", "altcoins", "ada", "eth"}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %v", len(want), terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestIsPhrase(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"ethereum", false},
		{"shiba inu", true},
		{"proof-of-stake", true},
		{"usdt", false},
	}
	for _, tt := range tests {
		if got := IsPhrase(tt.term); got != tt.want {
			t.Errorf("IsPhrase(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestDefaultHasNoBitcoinTerms(t *testing.T) {
	l := Default()
	for _, term := range l.Terms() {
		if term == "bitcoin" || term == "btc" {
			t.Errorf("default lexicon must not contain %q", term)
		}
	}
	if l.Len() < 50 {
		t.Errorf("expected a populated default lexicon, got %d terms", l.Len())
	}
}

func TestDefaultWithExtraTerms(t *testing.T) {
	base := Default().Len()
	l := Default("Sui", "ethereum")
	if l.Len() != base+1 {
		t.Errorf("expected %d terms with one new extra, got %d", base+1, l.Len())
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	l := New("eth", "xrp")
	words := l.Words()
	words[0] = "mutated"
	if l.Words()[0] == "mutated" {
		t.Error("Words should return a copy")
	}
}
