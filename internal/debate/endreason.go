package debate

import (
	"fmt"
	"strings"
)

// Fixed verdict reason codes.
const (
	ReasonUserDefendsProThesis      = "user_defends_pro_thesis"
	ReasonUserDefendsConThesis      = "user_defends_con_thesis"
	ReasonStrictThesisContradiction = "strict_thesis_contradiction"
	ReasonStrongContradictionEvid   = "strong_contradiction_evidence"
	ReasonSupportsDefendedStance    = "supports_defended_stance"
	ReasonAmbiguousEvidence         = "ambiguous_evidence"
	ReasonOffTopic                  = "off_topic"
	ReasonNoveltyRejectDuplicate    = "novelty_reject_duplicate"
	ReasonPolicyThresholdReached    = "policy_threshold_reached"
	ReasonMaxTurnsReached           = "max_turns_reached"
	ReasonUnspecified               = "unspecified_reason"
)

// reasonAliases folds the labels older judge prompts emit into the fixed
// set.
var reasonAliases = map[string]string{
	"user_defending_same_stance": ReasonUserDefendsProThesis,
	"same_stance":                ReasonUserDefendsProThesis,
	"same_stance_soft":           ReasonUserDefendsProThesis,
	"opposite_stance":            ReasonUserDefendsConThesis,
	"thesis_opposition_soft":     ReasonStrictThesisContradiction,
	"pairwise_opposition_soft":   ReasonStrongContradictionEvid,
	"policy_turn_limit":          ReasonMaxTurnsReached,
}

var knownReasons = map[string]struct{}{
	ReasonUserDefendsProThesis:      {},
	ReasonUserDefendsConThesis:      {},
	ReasonStrictThesisContradiction: {},
	ReasonStrongContradictionEvid:   {},
	ReasonSupportsDefendedStance:    {},
	ReasonAmbiguousEvidence:         {},
	ReasonOffTopic:                  {},
	ReasonNoveltyRejectDuplicate:    {},
	ReasonPolicyThresholdReached:    {},
	ReasonMaxTurnsReached:           {},
	ReasonUnspecified:               {},
}

// NormalizeReason maps a raw judge label onto the fixed reason set.
// Unrecognized labels pass through untouched so diagnostics keep the raw
// value.
func NormalizeReason(raw string) string {
	r := strings.TrimSpace(strings.ToLower(raw))
	if r == "" {
		return ""
	}
	if alias, ok := reasonAliases[r]; ok {
		return alias
	}
	if _, ok := knownReasons[r]; ok {
		return r
	}
	return raw
}

// endReasonText maps reason codes to the human-readable explanation handed
// to the reply generator.
var endReasonText = map[string]string{
	ReasonStrictThesisContradiction: "Your arguments directly contradicted the thesis and prevailed. Congratulations, you won this debate.",
	ReasonStrongContradictionEvid:   "Compelling evidence strongly contradicted the defended thesis.",
	ReasonSupportsDefendedStance:    "The user's argument actually supported the defended thesis.",
	ReasonPolicyThresholdReached:    "Enough of your points were accepted. Well done, you convinced me.",
	ReasonMaxTurnsReached:           "Debate ended after reaching the maximum number of turns.",
	ReasonUnspecified:               "The debate concluded per policy.",
}

// afterEndMessage is the canned reply for turns arriving after conclusion
// when the generator itself is unavailable.
var afterEndMessage = map[string]string{
	"en": "The debate has already ended. Please start a new conversation if you want to debate another topic.",
	"es": "El debate ya terminó. Por favor inicia una nueva conversación si quieres debatir otro tema.",
	"pt": "O debate já terminou. Por favor, inicie uma nova conversa se quiser debater outro tema.",
}

// AfterEndMessage returns the canned post-conclusion reply for the state's
// language.
func AfterEndMessage(state *State) string {
	if msg, ok := afterEndMessage[state.Language]; ok {
		return msg
	}
	return afterEndMessage[DefaultLanguage]
}

// EndVars produces the substitution variables the reply generator needs to
// phrase the final turn. It is total: even an unrecognized reason code
// renders as readable text.
func EndVars(state *State) map[string]string {
	reasonCode := state.LastJudge.Reason
	if reasonCode == "" {
		reasonCode = ReasonUnspecified
	}

	endReason := endReasonText[NormalizeReason(reasonCode)]
	if endReason == "" {
		endReason = state.EndReason
	}
	if endReason == "" {
		endReason = strings.ReplaceAll(reasonCode, "_", " ")
	}

	return map[string]string{
		"LANGUAGE":           strings.ToLower(state.Language),
		"TOPIC":              state.Topic,
		"DEBATE_STATUS":      "ENDED",
		"END_REASON":         endReason,
		"JUDGE_REASON_LABEL": reasonCode,
		"JUDGE_CONFIDENCE":   fmt.Sprintf("%.2f", state.LastJudge.Confidence),
	}
}
