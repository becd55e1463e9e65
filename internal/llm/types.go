// Package llm holds the reply-generator implementations: Anthropic and
// OpenAI adapters over their raw HTTP APIs, a deterministic dummy, and a
// fallback combinator. All of them satisfy debate.ReplyGenerator; the
// provider adapters also expose Complete for the LLM verdict judge.
package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

var (
	// ErrTimeout marks a provider call that ran out of time.
	ErrTimeout = errors.New("llm: provider timed out")
	// ErrService marks a provider call that failed outright.
	ErrService = errors.New("llm: provider failed")
)

// Message is a provider-neutral chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const debateSystemPrompt = `You are a debate assistant locked into one side of one topic.
Topic: ${TOPIC}
Your stance: ${STANCE} (you defend this side and never switch).
Debate status: ${DEBATE_STATUS}. Assistant turns so far: ${TURN_INDEX}.
Reply in language "${LANGUAGE}". On your very first reply, start with a single header line "LANGUAGE: xx" naming the two-letter language the user wrote in, then continue on the next line.
Rebut the user's latest argument with one or two concrete points. Stay concise, stay on topic, never declare the debate over yourself.`

const endSystemPrompt = `You are a debate assistant. The debate has ended.
Topic: ${TOPIC}
Reply in language "${LANGUAGE}".
Outcome to convey: ${END_REASON}
Write one short, gracious closing message that states this outcome. Do not continue arguing and do not invite further debate turns.`

// renderTemplate substitutes ${KEY} placeholders.
func renderTemplate(tpl string, vars map[string]string) string {
	for k, v := range vars {
		tpl = strings.ReplaceAll(tpl, "${"+k+"}", v)
	}
	return tpl
}

// mapTranscript converts domain turns into chat messages, merging any
// leading assistant turn into Anthropic-safe alternation by prefixing a
// user opener when the transcript is empty or starts with the assistant.
func mapTranscript(transcript []debate.Turn) []Message {
	msgs := make([]Message, 0, len(transcript)+1)
	for _, t := range transcript {
		role := "user"
		if t.Role == debate.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: t.Text})
	}
	if len(msgs) == 0 || msgs[0].Role != "user" {
		msgs = append([]Message{{Role: "user", Content: "Begin the debate."}}, msgs...)
	}
	return msgs
}

func serviceError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrService, provider, err)
}
