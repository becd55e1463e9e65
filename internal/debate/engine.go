package debate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate/novelty"
	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate/textmine"
)

// GateConfig holds the thresholds guarding the positive-judgement counter.
type GateConfig struct {
	// ConfidenceThreshold suppresses accepted verdicts the judge itself is
	// not sure about.
	ConfidenceThreshold float64
	// NoveltyMin rejects accepted verdicts whose user turn repeats an
	// earlier argument.
	NoveltyMin float64
}

// DefaultGateConfig returns the tuned production gate thresholds.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		ConfidenceThreshold: 0.70,
		NoveltyMin:          0.25,
	}
}

// Engine drives one conversation's concession state machine. It owns all
// DebateState mutation; collaborators are injected and treated as fallible
// externals. An Engine is safe for use across conversations concurrently as
// long as each conversation's state is handed to one call at a time.
type Engine struct {
	builder *PayloadBuilder
	judge   VerdictJudge
	replies ReplyGenerator
	gates   GateConfig
	log     *zap.Logger
}

// NewEngine wires the engine with its collaborators. Client caching and
// construction belong to the composition root, not here.
func NewEngine(nli NLIScorer, judge VerdictJudge, replies ReplyGenerator, evidence EvidenceConfig, gates GateConfig, log *zap.Logger) *Engine {
	if gates.ConfidenceThreshold <= 0 {
		gates.ConfidenceThreshold = DefaultGateConfig().ConfidenceThreshold
	}
	if gates.NoveltyMin <= 0 {
		gates.NoveltyMin = DefaultGateConfig().NoveltyMin
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		builder: NewPayloadBuilder(nli, evidence),
		judge:   judge,
		replies: replies,
		gates:   gates,
		log:     log,
	}
}

// ProcessTurn runs the per-turn procedure: build evidence, obtain a verdict,
// apply the confidence and novelty gates, update counters, evaluate the
// termination policy, and produce the reply. The transcript must include the
// just-received user turn. The returned state is the same record, mutated.
func (e *Engine) ProcessTurn(ctx context.Context, conversationID string, transcript []Turn, state *State) (string, *State, error) {
	log := e.log.With(zap.String("conversation_id", conversationID))

	// A concluded debate never re-judges; any further turn renders the end.
	if state.Concluded {
		log.Debug("turn on ended debate, rendering end only",
			zap.String("end_reason", state.EndReason))
		return e.renderEnd(ctx, transcript, state, log), state, nil
	}

	// Resynchronize against the transcript; partial failures upstream can
	// leave the counter stale.
	turnsInTranscript := countAssistant(transcript)
	if state.AssistantTurns != turnsInTranscript {
		log.Debug("correcting assistant turn counter",
			zap.Int("state", state.AssistantTurns),
			zap.Int("transcript", turnsInTranscript))
		state.AssistantTurns = turnsInTranscript
	}

	e.judgeTurn(ctx, transcript, state, log)

	// Termination policy, projected as if this reply were already counted.
	projectedTurns := state.AssistantTurns + 1
	meetsPositives := state.PositiveJudgements >= state.Policy.RequiredPositiveJudgements
	hitsCap := projectedTurns >= state.Policy.MaxAssistantTurns

	if meetsPositives || hitsCap {
		reason := ""
		if state.LastJudge.Accepted && state.LastJudge.Reason != "" {
			reason = NormalizeReason(state.LastJudge.Reason)
		}
		if reason == "" {
			if meetsPositives {
				reason = ReasonPolicyThresholdReached
			} else {
				reason = ReasonMaxTurnsReached
			}
		}
		// The end rendering is itself an assistant turn; count it before
		// concluding so the terminal state satisfies its own policy.
		state.AssistantTurns = projectedTurns
		if err := state.MarkConcluded(reason); err != nil {
			return "", state, fmt.Errorf("debate: concluding: %w", err)
		}
		log.Debug("debate ended",
			zap.String("end_reason", state.EndReason),
			zap.Int("positive_judgements", state.PositiveJudgements),
			zap.Int("assistant_turns", state.AssistantTurns))
		return e.renderEnd(ctx, transcript, state, log), state, nil
	}

	// The generator must see the pre-increment turn index.
	reply, err := e.replies.ContinueDebate(ctx, transcript, state)
	if err != nil {
		return "", state, fmt.Errorf("debate: continuation reply: %w", err)
	}
	reply = e.lockLanguage(reply, state, log)
	state.AssistantTurns = turnsInTranscript + 1

	return textmine.SanitizeEndMarkers(reply), state, nil
}

// judgeTurn obtains and gates one verdict. Collaborator failures degrade to
// "no verdict this turn" and are never fatal to the conversation.
func (e *Engine) judgeTurn(ctx context.Context, transcript []Turn, state *State, log *zap.Logger) {
	payload, err := e.builder.Build(ctx, transcript, state)
	if err != nil {
		log.Warn("evidence build failed, skipping judgement", zap.Error(err))
		return
	}
	if payload == nil {
		log.Debug("insufficient context for evidence, skipping judgement")
		return
	}

	decision, err := e.judge.Decide(ctx, *payload)
	if err != nil {
		log.Warn("verdict judge failed, skipping judgement", zap.Error(err))
		return
	}
	// The raw verdict is always recorded, whatever the gates decide.
	state.RecordJudge(decision.Accepted, decision.Reason, decision.Confidence)

	if !decision.Accepted {
		return
	}
	if decision.Confidence < e.gates.ConfidenceThreshold {
		log.Debug("confidence gate suppressed acceptance",
			zap.Float64("confidence", decision.Confidence),
			zap.Float64("threshold", e.gates.ConfidenceThreshold))
		return
	}

	latest, priors := userTexts(transcript)
	score := novelty.Score(latest, priors)
	if score < e.gates.NoveltyMin {
		log.Debug("novelty gate rejected duplicate argument",
			zap.Float64("novelty", score),
			zap.String("user_text", textmine.Truncate(latest, 120)))
		state.RecordJudge(false, ReasonNoveltyRejectDuplicate, decision.Confidence)
		return
	}

	if err := state.CreditPositive(); err != nil {
		log.Warn("positive judgement not credited", zap.Error(err))
		return
	}
	log.Debug("positive judgement credited",
		zap.String("reason", decision.Reason),
		zap.Float64("confidence", decision.Confidence),
		zap.Int("positive_judgements", state.PositiveJudgements))
}

// renderEnd asks the generator for the final message; if the generator is
// down the user still gets a canned closing line, never an error.
func (e *Engine) renderEnd(ctx context.Context, transcript []Turn, state *State, log *zap.Logger) string {
	reply, err := e.replies.RenderEnd(ctx, transcript, EndVars(state))
	if err != nil {
		log.Warn("end rendering failed, using canned message", zap.Error(err))
		return AfterEndMessage(state)
	}
	return textmine.SanitizeEndMarkers(reply)
}

// lockLanguage strips a LANGUAGE header off the reply and locks the reply
// language the first time one is seen.
func (e *Engine) lockLanguage(reply string, state *State, log *zap.Logger) string {
	lang, cleaned := textmine.ParseLanguageLine(reply)
	if !state.LanguageLocked {
		if err := state.LockLanguage(lang); err == nil {
			log.Debug("language locked", zap.String("language", state.Language))
		}
	}
	return cleaned
}

func countAssistant(transcript []Turn) int {
	n := 0
	for _, t := range transcript {
		if t.Role == RoleAssistant {
			n++
		}
	}
	return n
}

// userTexts returns the latest user turn's text and all earlier user turns'
// texts, in order.
func userTexts(transcript []Turn) (string, []string) {
	idx := lastIndex(transcript, RoleUser, len(transcript), nil)
	if idx < 0 {
		return "", nil
	}
	var priors []string
	for i := 0; i < idx; i++ {
		if transcript[i].Role == RoleUser && transcript[i].Text != "" {
			priors = append(priors, transcript[i].Text)
		}
	}
	return transcript[idx].Text, priors
}
