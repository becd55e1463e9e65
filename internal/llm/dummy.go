package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

// Dummy is an offline ReplyGenerator for tests and local runs without API
// keys. Replies are deterministic.
type Dummy struct{}

// NewDummy creates the offline generator.
func NewDummy() *Dummy { return &Dummy{} }

// ContinueDebate implements debate.ReplyGenerator.
func (d *Dummy) ContinueDebate(_ context.Context, _ []debate.Turn, state *debate.State) (string, error) {
	if state.AssistantTurns == 0 {
		return fmt.Sprintf("LANGUAGE: en\nI defend the %s side of %q and I am ready for your arguments.",
			strings.ToUpper(string(state.Stance)), state.Topic), nil
	}
	return fmt.Sprintf("I still defend the %s side of %q; your point does not change that.",
		strings.ToUpper(string(state.Stance)), state.Topic), nil
}

// RenderEnd implements debate.ReplyGenerator.
func (d *Dummy) RenderEnd(_ context.Context, _ []debate.Turn, vars map[string]string) (string, error) {
	return "This debate has ended: " + vars["END_REASON"], nil
}

// CheckTopic accepts any topic with at least two words.
func (d *Dummy) CheckTopic(_ context.Context, topic, _ string) (bool, string, error) {
	if len(strings.Fields(topic)) < 2 {
		return false, "too trivial", nil
	}
	return true, "", nil
}
