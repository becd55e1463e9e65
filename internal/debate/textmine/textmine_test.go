package textmine

import (
	"reflect"
	"testing"
)

func TestWordCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"Dogs are the best companion", 5},
		{"numbers 123 and punctuation !!! don't count twice", 7},
		{"¿Cómo estás?", 2},
	}
	for _, c := range cases {
		if got := WordCount(c.in); got != c.want {
			t.Errorf("WordCount(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeSpaces(t *testing.T) {
	if got := NormalizeSpaces("  a\t b\n\nc  "); got != "a b c" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeEndMarkers(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"You make a fair point. MATCH CONCLUDED.", "You make a fair point."},
		{"The debate is over, I concede.", "The , I concede."},
		{"No markers here at all.", "No markers here at all."},
	}
	for _, c := range cases {
		if got := SanitizeEndMarkers(c.in); got != c.want {
			t.Errorf("SanitizeEndMarkers(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First point. Second point! Is this third? Trailing fragment")
	want := []string{"First point.", "Second point!", "Is this third?", "Trailing fragment"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentencesDoesNotBreakOnDecimals(t *testing.T) {
	got := SplitSentences("Roughly 3.5 million households own one. They seem content.")
	want := []string{"Roughly 3.5 million households own one.", "They seem content."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentencesInvertedMarksAreNotTerminals(t *testing.T) {
	got := SplitSentences("Pregunto ¿cuál es mejor? y sigo. ¡Qué lealtad la de los perros!")
	want := []string{"Pregunto ¿cuál es mejor?", "y sigo.", "¡Qué lealtad la de los perros!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Is that really true?", true},
		{"Why would anyone disagree", true},
		{"¿De verdad crees eso?", true},
		{"Dogs are loyal companions.", false},
		{"Which brings me to my point", true},
	}
	for _, c := range cases {
		if got := LooksLikeQuestion(c.in); got != c.want {
			t.Errorf("LooksLikeQuestion(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExtractClaimsFiltersNonClaims(t *testing.T) {
	text := "I will gladly take the PRO stance on this topic. " +
		"Dogs provide genuine companionship to their owners. " +
		"Why would anyone disagree? " +
		"Thanks for sharing. " +
		"Cats are more independent than dogs"
	got := ExtractClaims(text)
	want := []string{"Dogs provide genuine companionship to their owners."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractClaimsDropsTruncatedTail(t *testing.T) {
	got := ExtractClaims("A finished sentence stands on its own. This one was cut off mid")
	want := []string{"A finished sentence stands on its own."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractClaimsRequiresMinimumWords(t *testing.T) {
	if got := ExtractClaims("No. Yes indeed. Dogs love people."); len(got) != 1 || got[0] != "Dogs love people." {
		t.Errorf("got %v", got)
	}
}

func TestExtractClaimsNormalizesEllipsis(t *testing.T) {
	got := ExtractClaims("Dogs bring families together every single day... A trailing bit")
	want := []string{"Dogs bring families together every single day."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplitSentencesForScanKeepsDeclarativesOnly(t *testing.T) {
	got := SplitSentencesForScan("Dogs destroy furniture constantly. Have you owned one? They also bark at night.")
	want := []string{"Dogs destroy furniture constantly.", "They also bark at night."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseLanguageLine(t *testing.T) {
	cases := []struct {
		in        string
		wantLang  string
		wantReply string
	}{
		{"LANGUAGE: es\nHola, defenderé esta tesis.", "es", "Hola, defenderé esta tesis."},
		{"language: EN\nHello there.", "en", "Hello there."},
		{"No header at all.", "en", "No header at all."},
		{"", "en", ""},
		{"LANGUAGE: english\nHello.", "en", "LANGUAGE: english\nHello."},
	}
	for _, c := range cases {
		lang, reply := ParseLanguageLine(c.in)
		if lang != c.wantLang || reply != c.wantReply {
			t.Errorf("ParseLanguageLine(%q) = (%q, %q), want (%q, %q)",
				c.in, lang, reply, c.wantLang, c.wantReply)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc…" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("ab", 3); got != "ab" {
		t.Errorf("got %q", got)
	}
}
