package debate

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used until the first assistant reply locks a language.
const DefaultLanguage = "en"

var (
	// ErrConcluded is returned when a mutation is attempted on a state whose
	// debate already ended.
	ErrConcluded = errors.New("debate: state already concluded")
	// ErrLanguageLocked is returned when the language is set a second time.
	ErrLanguageLocked = errors.New("debate: language already locked")
	// ErrEmptyTopic is returned when a debate is created without a thesis.
	ErrEmptyTopic = errors.New("debate: empty topic")
)

// State is the authoritative per-conversation record. Topic and stance are
// fixed at creation; counters only grow; the concluded flag flips exactly
// once. All mutation goes through the engine's per-turn procedure.
type State struct {
	Topic  string `json:"topic"`
	Stance Stance `json:"stance"`

	Language       string `json:"language"`
	LanguageLocked bool   `json:"language_locked"`

	AssistantTurns     int `json:"assistant_turns"`
	PositiveJudgements int `json:"positive_judgements"`

	Policy Policy `json:"policy"`

	Concluded bool   `json:"concluded"`
	EndReason string `json:"end_reason"`

	LastJudge JudgeRecord `json:"last_judge"`
}

// NewState creates the state for a fresh debate. The policy is normalized so
// both bounds are at least 1.
func NewState(topic string, stance Stance, policy Policy) (*State, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if stance != StancePro && stance != StanceCon {
		return nil, fmt.Errorf("debate: invalid stance %q", stance)
	}
	if policy.RequiredPositiveJudgements < 1 {
		policy.RequiredPositiveJudgements = 1
	}
	if policy.MaxAssistantTurns < 1 {
		policy.MaxAssistantTurns = 1
	}
	return &State{
		Topic:    topic,
		Stance:   stance,
		Language: DefaultLanguage,
		Policy:   policy,
	}, nil
}

// LockLanguage sets the reply language exactly once. Tags that do not parse
// as a language fall back to the default rather than locking garbage.
func (s *State) LockLanguage(tag string) error {
	if s.LanguageLocked {
		return ErrLanguageLocked
	}
	s.Language = normalizeLanguage(tag)
	s.LanguageLocked = true
	return nil
}

func normalizeLanguage(tag string) string {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return DefaultLanguage
	}
	base, conf := t.Base()
	if conf == language.No {
		return DefaultLanguage
	}
	return base.String()
}

// RecordJudge overwrites the last-verdict record. Allowed on every turn,
// including the turn that concludes the debate.
func (s *State) RecordJudge(accepted bool, reason string, confidence float64) {
	s.LastJudge = JudgeRecord{
		Accepted:   accepted,
		Reason:     reason,
		Confidence: clamp01(confidence),
	}
}

// CreditPositive counts one accepted rebuttal.
func (s *State) CreditPositive() error {
	if s.Concluded {
		return ErrConcluded
	}
	s.PositiveJudgements++
	return nil
}

// MarkConcluded transitions the state to its terminal form. It fails loudly
// on a second call or on an attempt to rewrite a non-empty end reason: both
// indicate a caller bug, not a runtime condition.
func (s *State) MarkConcluded(reason string) error {
	if s.Concluded {
		return ErrConcluded
	}
	if s.EndReason != "" {
		return fmt.Errorf("debate: end reason already set to %q", s.EndReason)
	}
	if s.PositiveJudgements < s.Policy.RequiredPositiveJudgements &&
		s.AssistantTurns < s.Policy.MaxAssistantTurns {
		return fmt.Errorf("debate: conclusion without met policy (positives=%d/%d turns=%d/%d)",
			s.PositiveJudgements, s.Policy.RequiredPositiveJudgements,
			s.AssistantTurns, s.Policy.MaxAssistantTurns)
	}
	s.Concluded = true
	s.EndReason = reason
	return nil
}

// Status reports the state-machine position as a label.
func (s *State) Status() string {
	if s.Concluded {
		return "ENDED"
	}
	return "ONGOING"
}

// PromptVars maps the state to the placeholders consumed by the reply
// generator's debate-continuation prompt.
func (s *State) PromptVars() map[string]string {
	return map[string]string{
		"STANCE":        strings.ToUpper(string(s.Stance)),
		"DEBATE_STATUS": s.Status(),
		"TURN_INDEX":    fmt.Sprintf("%d", s.AssistantTurns),
		"LANGUAGE":      s.Language,
		"TOPIC":         s.Topic,
	}
}

// Clone returns a deep copy; stores hand copies out so no caller can mutate
// a shared record outside the engine.
func (s *State) Clone() *State {
	c := *s
	return &c
}
