// Package verdict provides the VerdictJudge implementations: a
// deterministic, table-driven heuristic over the NLI evidence, and an LLM
// judge that consumes the serialized payload.
package verdict

import (
	"context"

	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

// Band thresholds for the deterministic judge. Each constant is a named
// guard so the decision table can be tested independently of any LLM.
const (
	// Full-strength thresholds.
	entailmentThreshold    = 0.70
	contradictionThreshold = 0.60
	strictContraThreshold  = 0.85

	// Slack bands below the full thresholds.
	thesisBand = 0.12
	pairBand   = 0.10

	// Accept the soft side only while the opposite signal stays weak.
	weakGuard = 0.60

	// Pairwise carry needs a minimally substantive user turn.
	minUserWordsForPair = 8

	// Confidence emitted per band.
	confStrict   = 0.92
	confFull     = 0.88
	confSoft     = 0.78
	confPairwise = 0.72
	confOffTopic = 0.80
	confFallback = 0.50
)

// Heuristic is a deterministic VerdictJudge over the evidence payload. It
// is stance-aware: a CON debater defends the negation of the topic, so
// entailment of the topic as stated is the rebuttal signal there.
type Heuristic struct {
	log *zap.Logger
}

// NewHeuristic creates the deterministic judge.
func NewHeuristic(log *zap.Logger) *Heuristic {
	if log == nil {
		log = zap.NewNop()
	}
	return &Heuristic{log: log}
}

// Decide implements debate.VerdictJudge. It never fails.
func (h *Heuristic) Decide(_ context.Context, p debate.EvidencePayload) (debate.VerdictDecision, error) {
	d := h.decide(p)
	h.log.Debug("heuristic verdict",
		zap.Bool("accepted", d.Accepted),
		zap.String("reason", d.Reason),
		zap.Float64("confidence", d.Confidence))
	return d, nil
}

func (h *Heuristic) decide(p debate.EvidencePayload) debate.VerdictDecision {
	// Rebuttal/support orientation depends on the defended stance.
	rebut := p.ThesisScores.Contradiction
	support := p.ThesisScores.Entailment
	softAcceptReason := debate.ReasonUserDefendsConThesis
	if p.Stance == debate.StanceCon {
		rebut, support = support, rebut
		softAcceptReason = debate.ReasonUserDefendsProThesis
	}

	metrics := map[string]float64{
		"thesis_entailment":    p.ThesisScores.Entailment,
		"thesis_contradiction": p.ThesisScores.Contradiction,
		"pair_entailment":      p.PairBest.Entailment,
		"pair_contradiction":   p.PairBest.Contradiction,
		"max_sent_contra":      p.MaxSentenceContradiction,
		"user_word_count":      float64(p.UserWordCount),
	}

	if !p.OnTopic {
		return reject(debate.ReasonOffTopic, confOffTopic, metrics)
	}

	// Strict thesis clash. The sentence-level scan only measures
	// contradiction of the topic as stated, so it reinforces PRO rebuttals
	// only.
	strictRebut := rebut
	if p.Stance == debate.StancePro && p.MaxSentenceContradiction > strictRebut {
		strictRebut = p.MaxSentenceContradiction
	}
	if strictRebut >= strictContraThreshold && support < weakGuard {
		return accept(debate.ReasonStrictThesisContradiction, confStrict, metrics)
	}

	// Soft thesis opposition: within the band, not worse than the opposite
	// side, opposite side weak.
	if rebut >= contradictionThreshold-thesisBand && rebut >= support && support < weakGuard {
		conf := confSoft
		if rebut >= contradictionThreshold {
			conf = confFull
		}
		return accept(softAcceptReason, conf, metrics)
	}

	// Soft same-stance: the user is arguing the defended side.
	if support >= entailmentThreshold-thesisBand && support >= rebut && rebut < weakGuard {
		conf := confSoft
		if support >= entailmentThreshold {
			conf = confFull
		}
		return reject(debate.ReasonSupportsDefendedStance, conf, metrics)
	}

	// Pairwise carry: the thesis was inconclusive but the user clashes with
	// a concrete assistant claim.
	if p.UserWordCount >= minUserWordsForPair && p.PairBest.Contradiction >= contradictionThreshold-pairBand {
		return accept(debate.ReasonStrongContradictionEvid, confPairwise, metrics)
	}

	return reject(debate.ReasonAmbiguousEvidence, confFallback, metrics)
}

func accept(reason string, conf float64, metrics map[string]float64) debate.VerdictDecision {
	return debate.VerdictDecision{Accepted: true, Confidence: conf, Reason: reason, Metrics: metrics}
}

func reject(reason string, conf float64, metrics map[string]float64) debate.VerdictDecision {
	return debate.VerdictDecision{Accepted: false, Confidence: conf, Reason: reason, Metrics: metrics}
}
