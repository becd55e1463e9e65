package textmine

import (
	"regexp"
	"strings"
)

var languageLineRx = regexp.MustCompile(`(?i)^LANGUAGE:\s*([a-z]{2})\b`)

// ParseLanguageLine extracts the LANGUAGE header the reply generator is
// prompted to emit on its first turn, returning the tag and the reply with
// the header stripped. Without a header the tag defaults to "en" and the
// reply is returned trimmed.
func ParseLanguageLine(reply string) (string, string) {
	if strings.TrimSpace(reply) == "" {
		return "en", ""
	}
	lines := strings.Split(reply, "\n")
	if m := languageLineRx.FindStringSubmatch(strings.TrimSpace(lines[0])); m != nil {
		return strings.ToLower(m[1]), strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return "en", strings.TrimSpace(reply)
}
