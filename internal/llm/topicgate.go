package llm

import "strings"

const topicGateSystemPrompt = `You are a strict topic gate for a debate system. Classify if the proposed topic is debate-ready.
Debate-ready: a clear proposition one can argue for or against; not a greeting; not gibberish; not trivial.
Valid examples: 'God exists', 'Sports build character', 'Climate change is real'.
Invalid examples: 'hi', 'hello', 'asdf???', '!!!', 'ok'.
Output exactly one line:
- 'VALID'
- or 'INVALID: <short reason>'`

// parseTopicGate interprets the single-line gate output. Anything the model
// misphrases counts as invalid.
func parseTopicGate(out string) (bool, string, error) {
	up := strings.ToUpper(strings.TrimSpace(out))
	switch {
	case strings.HasPrefix(up, "VALID"):
		return true, "", nil
	case strings.HasPrefix(up, "INVALID"):
		reason := ""
		if _, after, ok := strings.Cut(out, ":"); ok {
			reason = strings.TrimSpace(after)
		}
		return false, reason, nil
	default:
		return false, "unrecognized", nil
	}
}
