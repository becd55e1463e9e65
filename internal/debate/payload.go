package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate/textmine"
)

// EvidenceConfig holds the thresholds used while assembling evidence.
type EvidenceConfig struct {
	// MinAssistantWords is the minimum word count for an assistant turn to
	// be worth pairing claims against.
	MinAssistantWords int
	// TopicSignalMin: either NLI direction with max(entailment,contradiction)
	// at or above this counts as topical signal.
	TopicSignalMin float64
	// TopicNeutralMax: either direction with neutral at or below this counts
	// as topical signal.
	TopicNeutralMax float64
}

// DefaultEvidenceConfig mirrors the tuned production thresholds.
func DefaultEvidenceConfig() EvidenceConfig {
	return EvidenceConfig{
		MinAssistantWords: 8,
		TopicSignalMin:    0.30,
		TopicNeutralMax:   0.72,
	}
}

// PayloadBuilder orchestrates the NLI scorer into one EvidencePayload per
// turn.
type PayloadBuilder struct {
	nli NLIScorer
	cfg EvidenceConfig
}

// NewPayloadBuilder creates a builder over the given scorer.
func NewPayloadBuilder(nli NLIScorer, cfg EvidenceConfig) *PayloadBuilder {
	if cfg.MinAssistantWords <= 0 {
		cfg.MinAssistantWords = DefaultEvidenceConfig().MinAssistantWords
	}
	return &PayloadBuilder{nli: nli, cfg: cfg}
}

// Build assembles the evidence for the latest user turn. A nil payload with
// a nil error means there was not enough context to judge this turn; that is
// a normal outcome, not a failure. A non-nil error means the scorer failed.
func (b *PayloadBuilder) Build(ctx context.Context, transcript []Turn, state *State) (*EvidencePayload, error) {
	userIdx := lastIndex(transcript, RoleUser, len(transcript), nil)
	if userIdx < 0 {
		return nil, nil
	}
	assistantIdx := lastIndex(transcript, RoleAssistant, userIdx, func(t Turn) bool {
		return textmine.WordCount(t.Text) >= b.cfg.MinAssistantWords
	})
	topic := strings.TrimSpace(state.Topic)
	if assistantIdx < 0 || topic == "" {
		return nil, nil
	}

	userText := transcript[userIdx].Text
	assistantText := transcript[assistantIdx].Text
	userClean := textmine.NormalizeSpaces(userText)

	thesisBidi, err := b.nli.BidirectionalScores(ctx, topic, userClean)
	if err != nil {
		return nil, fmt.Errorf("debate: thesis scoring: %w", err)
	}
	thesis := thesisBidi.AggMax().Clamp()
	onTopic := b.onTopic(thesisBidi)

	maxSentContra, err := b.sentenceScan(ctx, topic, userText)
	if err != nil {
		return nil, fmt.Errorf("debate: sentence scan: %w", err)
	}

	pairBest, err := b.bestClaimPair(ctx, assistantText, userClean)
	if err != nil {
		return nil, fmt.Errorf("debate: claim pairing: %w", err)
	}

	return &EvidencePayload{
		Topic:         topic,
		Stance:        state.Stance,
		Language:      state.Language,
		TurnIndex:     state.AssistantTurns,
		UserText:      userText,
		AssistantText: assistantText,

		ThesisScores:             thesis,
		PairBest:                 pairBest,
		MaxSentenceContradiction: clamp01(maxSentContra),
		OnTopic:                  onTopic,
		UserWordCount:            textmine.WordCount(userText),

		Policy: state.Policy,
		Progress: Progress{
			PositiveJudgements: state.PositiveJudgements,
			AssistantTurns:     state.AssistantTurns,
		},
	}, nil
}

// onTopic treats strong signal in either direction, or low neutrality, as
// evidence of topical relevance.
func (b *PayloadBuilder) onTopic(scores BidirectionalScores) bool {
	has := func(t ScoreTriple) bool {
		return max(t.Entailment, t.Contradiction) >= b.cfg.TopicSignalMin ||
			t.Neutral <= b.cfg.TopicNeutralMax
	}
	return has(scores.PToH) || has(scores.HToP)
}

// sentenceScan scores each user sentence against the thesis and keeps the
// maximum contradiction. Ties keep the first maximal value seen.
func (b *PayloadBuilder) sentenceScan(ctx context.Context, topic, userText string) (float64, error) {
	maxContra := 0.0
	for _, s := range textmine.SplitSentencesForScan(userText) {
		scores, err := b.nli.BidirectionalScores(ctx, topic, s)
		if err != nil {
			return 0, err
		}
		if c := scores.AggMax().Contradiction; c > maxContra {
			maxContra = c
		}
	}
	return maxContra, nil
}

// bestClaimPair scores every extracted assistant claim and keeps the
// bidirectional aggregate of the one with the highest contradiction against
// the user text. With no claims the neutral default is returned, never
// treated as evidence.
func (b *PayloadBuilder) bestClaimPair(ctx context.Context, assistantText, userClean string) (ScoreTriple, error) {
	claims := textmine.ExtractClaims(assistantText)
	if len(claims) == 0 {
		return NeutralTriple(), nil
	}

	best := NeutralTriple()
	bestContra := -1.0
	for _, claim := range claims {
		scores, err := b.nli.BidirectionalScores(ctx, claim, userClean)
		if err != nil {
			return ScoreTriple{}, err
		}
		agg := scores.AggMax().Clamp()
		if agg.Contradiction > bestContra {
			bestContra = agg.Contradiction
			best = agg
		}
	}
	return best, nil
}

// lastIndex finds the highest index below limit whose turn has the given
// role and passes the predicate.
func lastIndex(transcript []Turn, role Role, limit int, pred func(Turn) bool) int {
	if limit > len(transcript) {
		limit = len(transcript)
	}
	for i := limit - 1; i >= 0; i-- {
		if transcript[i].Role != role {
			continue
		}
		if pred != nil && !pred(transcript[i]) {
			continue
		}
		return i
	}
	return -1
}
