// Package lexicon holds the fixed set of non-Bitcoin cryptocurrency terms
// used to exclude articles.
package lexicon

import (
	"sort"
	"strings"
	"unicode"
)

// Lexicon is an immutable set of lowercase terms split into single words and
// multi-word phrases. Build one with New or Default and share it by pointer.
type Lexicon struct {
	words   []string
	phrases []string
}

// defaultTerms covers coins, tickers, and generic altcoin phrasing that shows
// up in mining news. Tickers that collide with common English words ("dot",
// "sol", "link", "ton") are left out on purpose.
var defaultTerms = []string{
	// Ethereum and its forks
	"ethereum", "eth", "ether", "ethereum classic", "etc mining", "ethash",
	"ethereum merge", "proof of stake", "proof-of-stake",
	// Large caps
	"solana", "cardano", "ada", "ripple", "xrp", "binance coin", "bnb",
	"polkadot", "avalanche network", "avax", "tron", "trx", "chainlink",
	"polygon network", "matic", "toncoin", "near protocol", "cosmos network", "atom token",
	// Meme coins
	"dogecoin", "doge", "shiba inu", "shib", "pepe coin", "memecoin", "memecoins",
	"meme coin", "meme coins",
	// Stablecoins
	"tether", "usdt", "usdc", "stablecoin", "stablecoins", "dai stablecoin",
	// Bitcoin forks and other proof-of-work coins
	"bitcoin cash", "bch", "bitcoin sv", "bsv", "litecoin", "ltc", "monero", "xmr",
	"zcash", "zec", "kaspa", "ravencoin", "rvn", "ergo platform", "dash coin",
	"dogecoin mining", "litecoin mining", "kaspa mining", "alephium", "ironfish",
	"filecoin", "fil token", "chia network", "xch", "helium network", "hnt",
	"arweave", "ar", "conflux", "cfx",
	// Generic altcoin phrasing
	"altcoin", "altcoins", "several altcoins", "other altcoins",
	"other cryptocurrencies", "other cryptos", "alternative cryptocurrencies",
	"crypto tokens", "defi", "nft", "nfts", "web3",
}

// Default returns the built-in lexicon, optionally extended with extra terms
// read from configuration at startup.
func Default(extra ...string) *Lexicon {
	terms := make([]string, 0, len(defaultTerms)+len(extra))
	terms = append(terms, defaultTerms...)
	terms = append(terms, extra...)
	return New(terms...)
}

// New builds a lexicon from terms. Terms are trimmed and lowercased; blanks and
// duplicates are dropped.
func New(terms ...string) *Lexicon {
	seen := make(map[string]bool, len(terms))
	l := &Lexicon{}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if IsPhrase(t) {
			l.phrases = append(l.phrases, t)
		} else {
			l.words = append(l.words, t)
		}
	}
	sort.Strings(l.words)
	sort.Strings(l.phrases)
	return l
}

// IsPhrase reports whether term contains a separator, i.e. any rune that is
// not a letter or digit.
func IsPhrase(term string) bool {
	return strings.IndexFunc(term, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) >= 0
}

// Words returns a copy of the single-word terms.
func (l *Lexicon) Words() []string {
	return append([]string(nil), l.words...)
}

// Phrases returns a copy of the multi-word terms.
func (l *Lexicon) Phrases() []string {
	return append([]string(nil), l.phrases...)
}

// Terms returns every term, longest first. Ties are ordered alphabetically.
func (l *Lexicon) Terms() []string {
	all := make([]string, 0, len(l.words)+len(l.phrases))
	all = append(all, l.phrases...)
	all = append(all, l.words...)
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) > len(all[j])
		}
		return all[i] < all[j]
	})
	return all
}

// Len returns the number of terms.
func (l *Lexicon) Len() int {
	return len(l.words) + len(l.phrases)
}
