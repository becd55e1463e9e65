package nli

import (
	"context"
	"regexp"
	"strings"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

var offlineTokenRx = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Negation cues across the supported debate languages.
var negationCues = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "isn": {}, "aren": {}, "don": {},
	"doesn": {}, "wrong": {}, "false": {}, "cannot": {},
	"nunca": {}, "falso": {}, "não": {}, "jamais": {},
}

// Offline is a deterministic, dependency-free scorer used when no scoring
// service is configured. It approximates NLI with token overlap plus a
// negation cue: high overlap reads as entailment, high overlap with
// negation as contradiction, low overlap as neutral. Good enough to drive
// local runs and demos; never used in production.
type Offline struct{}

// NewOffline creates the offline scorer.
func NewOffline() *Offline { return &Offline{} }

// BidirectionalScores implements debate.NLIScorer and never fails.
func (o *Offline) BidirectionalScores(_ context.Context, premise, hypothesis string) (debate.BidirectionalScores, error) {
	t := o.score(premise, hypothesis)
	// Overlap is symmetric, so both directions carry the same triple.
	return debate.BidirectionalScores{PToH: t, HToP: t}, nil
}

func (o *Offline) score(premise, hypothesis string) debate.ScoreTriple {
	p := tokenize(premise)
	h := tokenize(hypothesis)
	if len(p) == 0 || len(h) == 0 {
		return debate.NeutralTriple()
	}

	inter := 0
	for tok := range h {
		if _, ok := p[tok]; ok {
			inter++
		}
	}
	smaller := len(p)
	if len(h) < smaller {
		smaller = len(h)
	}
	overlap := float64(inter) / float64(smaller)

	negated := hasNegation(hypothesis) != hasNegation(premise)
	switch {
	case overlap >= 0.5 && negated:
		return debate.ScoreTriple{Entailment: 0.05, Contradiction: 0.55 + 0.4*overlap, Neutral: 0.2}.Clamp()
	case overlap >= 0.5:
		return debate.ScoreTriple{Entailment: 0.45 + 0.4*overlap, Contradiction: 0.05, Neutral: 0.25}.Clamp()
	default:
		return debate.ScoreTriple{Entailment: 0.1 * overlap, Contradiction: 0.1 * overlap, Neutral: 0.9 - 0.2*overlap}.Clamp()
	}
}

func tokenize(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range offlineTokenRx.FindAllString(strings.ToLower(s), -1) {
		if len([]rune(tok)) >= 3 {
			set[tok] = struct{}{}
		}
	}
	return set
}

func hasNegation(s string) bool {
	for _, tok := range offlineTokenRx.FindAllString(strings.ToLower(s), -1) {
		if _, ok := negationCues[tok]; ok {
			return true
		}
	}
	return false
}
