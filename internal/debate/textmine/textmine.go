// Package textmine turns raw debate turns into clean declarative sentences
// suitable for NLI scoring. It filters questions, acknowledgements and
// stance-announcement boilerplate, and guards against truncated output.
package textmine

import (
	"regexp"
	"strings"
	"unicode"
)

const minClaimWords = 3

var (
	wordRx       = regexp.MustCompile(`[\p{L}]+`)
	spaceRx      = regexp.MustCompile(`\s+`)
	endMarkersRx = regexp.MustCompile(`(?i)(match concluded\.?|debate concluded|debate is over)`)
	trailingDots = regexp.MustCompile(`\.\.+$`)
)

// Interrogative openers across the languages the system debates in.
var questionOpeners = []string{
	"who ", "what ", "when ", "where ", "why ", "how ", "which ",
	"do ", "does ", "did ", "can ", "could ", "would ", "should ",
	"is ", "are ", "will ", "isn't ", "aren't ",
	"qué ", "que ", "quién ", "cómo ", "cuándo ", "dónde ", "cuál ", "por qué ", "acaso ",
	"quem ", "como ", "quando ", "onde ", "qual ", "por que ",
}

// Soft acknowledgements that carry no argumentative content.
var ackPrefixes = []string{
	"thanks", "thank you", "i see", "i understand", "fair enough",
	"good point", "ok,", "okay,", "sure,", "right,",
	"gracias", "entiendo", "de acuerdo", "vale,",
	"obrigado", "obrigada", "entendo",
}

// Stance-announcement boilerplate the reply generator tends to open with.
var stanceBanners = []string{
	"gladly take the pro", "gladly take the con",
	"i will take the pro", "i will take the con",
	"i will defend the", "i am defending the",
	"take the pro stance", "take the con stance",
	"tomaré el lado", "con gusto tomaré", "defenderé la postura",
	"vou defender o lado", "com prazer vou defender",
}

// WordCount counts letter runs, so digits and punctuation never inflate it.
func WordCount(s string) int {
	return len(wordRx.FindAllString(s, -1))
}

// NormalizeSpaces collapses all whitespace runs into single spaces.
func NormalizeSpaces(s string) string {
	return strings.TrimSpace(spaceRx.ReplaceAllString(s, " "))
}

// SanitizeEndMarkers strips end-of-debate markers the generator may leak into
// a reply, so termination stays a state-machine decision rather than a string
// the user can see.
func SanitizeEndMarkers(s string) string {
	return NormalizeSpaces(endMarkersRx.ReplaceAllString(s, ""))
}

// Truncate shortens s for log lines.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// SplitSentences splits text on terminal punctuation followed by whitespace.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if isTerminal(r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func endsWithTerminal(s string) bool {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return false
	}
	return isTerminal(runes[len(runes)-1])
}

// LooksLikeQuestion reports whether s reads as interrogative, either by a
// trailing question mark or an interrogative opener.
func LooksLikeQuestion(s string) bool {
	t := strings.TrimSpace(s)
	if strings.HasSuffix(t, "?") || strings.HasPrefix(t, "¿") {
		return true
	}
	lower := strings.ToLower(t) + " "
	for _, op := range questionOpeners {
		if strings.HasPrefix(lower, op) {
			return true
		}
	}
	return false
}

func isAcknowledgement(lower string) bool {
	for _, p := range ackPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func hasStanceBanner(lower string) bool {
	for _, b := range stanceBanners {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

// ExtractClaims returns the declarative, substantive sentences of an
// assistant turn, in original order. Questions, acknowledgements and
// stance banners are excluded; if the source text does not end in terminal
// punctuation the trailing fragment is dropped as truncated output. Kept
// sentences get a terminal period when missing and must have at least three
// words.
func ExtractClaims(text string) []string {
	return filterSentences(text, true)
}

// SplitSentencesForScan applies the same filtering to user text for the
// sentence-level contradiction scan.
func SplitSentencesForScan(text string) []string {
	return filterSentences(text, false)
}

func filterSentences(text string, dropBanners bool) []string {
	parts := SplitSentences(text)
	if len(parts) == 0 {
		return nil
	}
	if !endsWithTerminal(text) && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}

	var kept []string
	for _, s := range parts {
		if LooksLikeQuestion(s) {
			continue
		}
		s = trailingDots.ReplaceAllString(strings.TrimSpace(s), ".")
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		if isAcknowledgement(lower) {
			continue
		}
		if dropBanners && hasStanceBanner(lower) {
			continue
		}
		if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") {
			s += "."
		}
		if WordCount(s) < minClaimWords {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
