// Package novelty measures how different a user's latest turn is from their
// earlier turns in the same conversation, so a repeated argument cannot be
// credited more than once.
package novelty

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	ngramSize   = 3
	ngramWeight = 0.65
	tokenWeight = 0.35
	minTokenLen = 3
)

var tokenRx = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Stop-words across the supported debate languages; tokens this common say
// nothing about whether an argument is new.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"are": {}, "was": {}, "were": {}, "not": {}, "but": {}, "you": {},
	"your": {}, "have": {}, "has": {}, "they": {}, "them": {}, "its": {},
	"los": {}, "las": {}, "una": {}, "uno": {}, "que": {}, "por": {},
	"para": {}, "con": {}, "del": {}, "esta": {}, "este": {}, "son": {},
	"dos": {}, "das": {}, "uma": {}, "com": {}, "mais": {}, "não": {},
	"isso": {}, "essa": {}, "esse": {}, "são": {},
}

// Score returns novelty in [0,1]: 1 means entirely new, 0 means duplicate.
// Similarity against each prior text combines a character-trigram Jaccard
// with a token-overlap ratio; the most similar prior turn dominates.
// An empty current text scores 0 (cannot be credited); no priors scores 1.
func Score(current string, priors []string) float64 {
	if strings.TrimSpace(current) == "" {
		return 0.0
	}
	if len(priors) == 0 {
		return 1.0
	}

	curGrams := charNgrams(current)
	curTokens := tokenSet(current)

	maxSim := 0.0
	for _, prior := range priors {
		sim := ngramWeight*jaccard(curGrams, charNgrams(prior)) +
			tokenWeight*tokenOverlap(curTokens, tokenSet(prior))
		if sim > maxSim {
			maxSim = sim
		}
	}

	n := 1.0 - maxSim
	if n < 0 {
		return 0.0
	}
	if n > 1 {
		return 1.0
	}
	return n
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	if larger == 0 {
		return 1.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(larger)
}

// charNgrams builds the trigram set of s after lower-casing and stripping
// whitespace and punctuation.
func charNgrams(s string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	runes := []rune(b.String())
	grams := make(map[string]struct{})
	if len(runes) == 0 {
		return grams
	}
	if len(runes) < ngramSize {
		grams[string(runes)] = struct{}{}
		return grams
	}
	for i := 0; i+ngramSize <= len(runes); i++ {
		grams[string(runes[i:i+ngramSize])] = struct{}{}
	}
	return grams
}

// tokenSet collects lower-cased alphanumeric tokens of at least three
// characters, with stop-words removed.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenRx.FindAllString(strings.ToLower(s), -1) {
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}
