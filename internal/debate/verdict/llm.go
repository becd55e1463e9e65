package verdict

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

const maxJudgeRetries = 3

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

const judgeSystemPrompt = `You are the verdict judge of a stance-locked debate.
The assistant defends the given topic with the given stance; the user tries to rebut it.
You receive one JSON evidence payload with NLI aggregates and progress counters.
Accept only when the user's latest turn is an on-topic, substantive rebuttal of the defended thesis.
Return ONLY valid JSON in this exact format:
{"accepted": bool, "confidence": 0.0-1.0, "reason": "user_defends_pro_thesis|user_defends_con_thesis|strict_thesis_contradiction|strong_contradiction_evidence|supports_defended_stance|ambiguous_evidence|off_topic"}
Do NOT include any other text, explanation, or markdown formatting.`

// TextCompleter is the minimal LLM surface the judge needs; the provider
// adapters in internal/llm satisfy it.
type TextCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMJudge asks an LLM for the accept/reject verdict on the serialized
// evidence payload.
type LLMJudge struct {
	llm TextCompleter
	log *zap.Logger
}

// NewLLMJudge creates an LLM-backed judge.
func NewLLMJudge(llm TextCompleter, log *zap.Logger) *LLMJudge {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMJudge{llm: llm, log: log}
}

// Decide implements debate.VerdictJudge. Garbage output is retried with a
// correction prompt; exhausted retries surface as an error for the engine to
// degrade on.
func (j *LLMJudge) Decide(ctx context.Context, payload debate.EvidencePayload) (debate.VerdictDecision, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return debate.VerdictDecision{}, fmt.Errorf("verdict: encoding payload: %w", err)
	}

	user := string(body)
	for attempt := 0; attempt < maxJudgeRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return debate.VerdictDecision{}, fmt.Errorf("verdict: %w", err)
		}
		if attempt > 0 {
			user = string(body) + "\nYour previous response was not valid JSON. Return ONLY a JSON object, no markdown, no explanation."
		}

		raw, err := j.llm.Complete(ctx, judgeSystemPrompt, user)
		if err != nil {
			return debate.VerdictDecision{}, fmt.Errorf("verdict: %w", err)
		}

		if d, ok := parseVerdictJSON(raw); ok {
			d.Reason = debate.NormalizeReason(d.Reason)
			if d.Confidence < 0 {
				d.Confidence = 0
			}
			if d.Confidence > 1 {
				d.Confidence = 1
			}
			return d, nil
		}
		j.log.Debug("judge returned unparseable verdict",
			zap.Int("attempt", attempt+1),
			zap.String("raw", truncateRaw(raw)))
	}

	return debate.VerdictDecision{}, fmt.Errorf("verdict: no parseable verdict after %d attempts", maxJudgeRetries)
}

// parseVerdictJSON tries direct JSON, a markdown code block, then the first
// '{' to last '}' span.
func parseVerdictJSON(raw string) (debate.VerdictDecision, bool) {
	var d debate.VerdictDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &d); err == nil {
		return d, true
	}
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &d); err == nil {
			return d, true
		}
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &d); err == nil {
			return d, true
		}
	}
	return debate.VerdictDecision{}, false
}

func truncateRaw(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "…"
}
