package verdict

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

// scriptedCompleter replays canned responses in order.
type scriptedCompleter struct {
	responses []string
	err       error
	calls     int
	lastUser  string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	s.calls++
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func TestLLMJudgeParsesDirectJSON(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`{"accepted": true, "confidence": 0.87, "reason": "strict_thesis_contradiction"}`,
	}}
	j := NewLLMJudge(c, nil)

	d, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Equal(t, 0.87, d.Confidence)
	assert.Equal(t, debate.ReasonStrictThesisContradiction, d.Reason)
	assert.Equal(t, 1, c.calls)
}

func TestLLMJudgeSendsSerializedPayload(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`{"accepted": false, "confidence": 0.5, "reason": "ambiguous_evidence"}`,
	}}
	j := NewLLMJudge(c, nil)

	p := basePayload(debate.StanceCon)
	_, err := j.Decide(context.Background(), p)
	require.NoError(t, err)

	var sent debate.EvidencePayload
	require.NoError(t, json.Unmarshal([]byte(c.lastUser), &sent))
	assert.Equal(t, p.Topic, sent.Topic)
	assert.Equal(t, p.Stance, sent.Stance)
	assert.Equal(t, p.UserText, sent.UserText)
}

func TestLLMJudgeParsesCodeBlock(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		"Here is the verdict:\n```json\n{\"accepted\": true, \"confidence\": 0.8, \"reason\": \"strong_contradiction_evidence\"}\n```",
	}}
	j := NewLLMJudge(c, nil)

	d, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Equal(t, debate.ReasonStrongContradictionEvid, d.Reason)
}

func TestLLMJudgeParsesEmbeddedObject(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`The user made a strong point so {"accepted": true, "confidence": 0.75, "reason": "user_defends_con_thesis"} is my call.`,
	}}
	j := NewLLMJudge(c, nil)

	d, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Equal(t, debate.ReasonUserDefendsConThesis, d.Reason)
}

func TestLLMJudgeRetriesWithCorrection(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		"I think the user won!",
		`{"accepted": true, "confidence": 0.9, "reason": "strict_thesis_contradiction"}`,
	}}
	j := NewLLMJudge(c, nil)

	d, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.NoError(t, err)
	assert.True(t, d.Accepted)
	assert.Equal(t, 2, c.calls)
	assert.Contains(t, c.lastUser, "not valid JSON")
}

func TestLLMJudgeGivesUpAfterRetries(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"still not json"}}
	j := NewLLMJudge(c, nil)

	_, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.Error(t, err)
	assert.Equal(t, maxJudgeRetries, c.calls)
	assert.Contains(t, err.Error(), "no parseable verdict")
}

func TestLLMJudgePropagatesCompleterError(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("provider down")}
	j := NewLLMJudge(c, nil)

	_, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.Error(t, err)
	assert.Equal(t, 1, c.calls)
}

func TestLLMJudgeNormalizesReasonAndConfidence(t *testing.T) {
	c := &scriptedCompleter{responses: []string{
		`{"accepted": true, "confidence": 1.4, "reason": "thesis_opposition_soft"}`,
	}}
	j := NewLLMJudge(c, nil)

	d, err := j.Decide(context.Background(), basePayload(debate.StancePro))
	require.NoError(t, err)
	assert.Equal(t, debate.ReasonStrictThesisContradiction, d.Reason)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestLLMJudgeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &scriptedCompleter{responses: []string{"garbage"}}
	j := NewLLMJudge(c, nil)

	_, err := j.Decide(ctx, basePayload(debate.StancePro))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), context.Canceled.Error()))
	assert.Equal(t, 0, c.calls)
}
