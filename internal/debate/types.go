package debate

import "context"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation transcript.
type Turn struct {
	Role Role
	Text string
}

// Stance is the side the assistant defends relative to the topic.
type Stance string

const (
	StancePro Stance = "pro"
	StanceCon Stance = "con"
)

// Opposite returns the other stance.
func (s Stance) Opposite() Stance {
	if s == StancePro {
		return StanceCon
	}
	return StancePro
}

// ScoreTriple holds NLI label probabilities, each in [0,1].
type ScoreTriple struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
}

// Clamp bounds every label into [0,1].
func (t ScoreTriple) Clamp() ScoreTriple {
	return ScoreTriple{
		Entailment:    clamp01(t.Entailment),
		Contradiction: clamp01(t.Contradiction),
		Neutral:       clamp01(t.Neutral),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NeutralTriple is the default used when no evidence could be paired; it is
// never treated as a signal by any judge.
func NeutralTriple() ScoreTriple {
	return ScoreTriple{Entailment: 0, Contradiction: 0, Neutral: 1}
}

// BidirectionalScores holds NLI scores for both premise/hypothesis orders.
type BidirectionalScores struct {
	PToH ScoreTriple `json:"p_to_h"`
	HToP ScoreTriple `json:"h_to_p"`
}

// AggMax aggregates both directions by taking the per-label maximum.
func (b BidirectionalScores) AggMax() ScoreTriple {
	return ScoreTriple{
		Entailment:    max(b.PToH.Entailment, b.HToP.Entailment),
		Contradiction: max(b.PToH.Contradiction, b.HToP.Contradiction),
		Neutral:       max(b.PToH.Neutral, b.HToP.Neutral),
	}
}

// Policy bounds how long a debate may run. Immutable once a debate starts.
type Policy struct {
	RequiredPositiveJudgements int `json:"required_positive_judgements"`
	MaxAssistantTurns          int `json:"max_assistant_turns"`
}

// Progress is a read-only snapshot of the state counters at payload build
// time.
type Progress struct {
	PositiveJudgements int `json:"positive_judgements"`
	AssistantTurns     int `json:"assistant_turns"`
}

// EvidencePayload is the structured evidence handed to the verdict judge.
// It is built fresh every turn and never mutated after construction.
type EvidencePayload struct {
	Topic     string `json:"topic"`
	Stance    Stance `json:"stance"`
	Language  string `json:"language"`
	TurnIndex int    `json:"turn_index"`

	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`

	ThesisScores ScoreTriple `json:"thesis_scores"`
	PairBest     ScoreTriple `json:"pair_best"`

	MaxSentenceContradiction float64 `json:"max_sentence_contradiction"`
	OnTopic                  bool    `json:"on_topic"`
	UserWordCount            int     `json:"user_word_count"`

	Policy   Policy   `json:"policy"`
	Progress Progress `json:"progress"`
}

// VerdictDecision is the judge's accept/reject call on one turn's evidence.
type VerdictDecision struct {
	Accepted   bool               `json:"accepted"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// JudgeRecord is the most recent verdict kept on the state for diagnostics
// and end rendering.
type JudgeRecord struct {
	Accepted   bool    `json:"accepted"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// NLIScorer scores a premise/hypothesis pair in both directions. The model
// behind it is external; a call may be network I/O and may fail.
type NLIScorer interface {
	BidirectionalScores(ctx context.Context, premise, hypothesis string) (BidirectionalScores, error)
}

// VerdictJudge decides whether the evidence shows a successful rebuttal.
// Implementations may be deterministic heuristics or LLM calls.
type VerdictJudge interface {
	Decide(ctx context.Context, payload EvidencePayload) (VerdictDecision, error)
}

// ReplyGenerator phrases the user-visible turns. It is external to this
// engine; the engine only selects which of the two renderings to request.
type ReplyGenerator interface {
	ContinueDebate(ctx context.Context, transcript []Turn, state *State) (string, error)
	RenderEnd(ctx context.Context, transcript []Turn, vars map[string]string) (string, error)
}
