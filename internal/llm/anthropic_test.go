package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

func anthropicReply(text string) string {
	return `{"content": [{"type": "text", "text": ` + mustJSON(text) + `}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newAnthropicServer(t *testing.T, reply string, captured *anthropicRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("unexpected version header %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		w.Write([]byte(reply))
	}))
}

func TestAnthropicContinueDebate(t *testing.T) {
	var captured anthropicRequest
	server := newAnthropicServer(t, anthropicReply("Dogs remain the better companion."), &captured)
	defer server.Close()

	state, _ := debate.NewState("Dogs are the best companion", debate.StancePro, debate.Policy{})
	client := NewAnthropicWithBaseURL("test-key", server.URL)

	out, err := client.ContinueDebate(context.Background(), []debate.Turn{
		{Role: debate.RoleUser, Text: "Cats are better."},
	}, state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Dogs remain the better companion." {
		t.Errorf("unexpected reply %q", out)
	}

	if !strings.Contains(captured.System, "Dogs are the best companion") {
		t.Errorf("system prompt missing the topic: %q", captured.System)
	}
	if !strings.Contains(captured.System, "PRO") {
		t.Errorf("system prompt missing the stance: %q", captured.System)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("unexpected messages %+v", captured.Messages)
	}
}

func TestAnthropicEmptyTranscriptGetsOpener(t *testing.T) {
	var captured anthropicRequest
	server := newAnthropicServer(t, anthropicReply("Opening statement."), &captured)
	defer server.Close()

	state, _ := debate.NewState("topic words", debate.StancePro, debate.Policy{})
	client := NewAnthropicWithBaseURL("test-key", server.URL)

	if _, err := client.ContinueDebate(context.Background(), nil, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Content != "Begin the debate." {
		t.Errorf("expected the synthetic opener, got %+v", captured.Messages)
	}
}

func TestAnthropicRenderEnd(t *testing.T) {
	var captured anthropicRequest
	server := newAnthropicServer(t, anthropicReply("Well argued; the debate is yours."), &captured)
	defer server.Close()

	client := NewAnthropicWithBaseURL("test-key", server.URL)
	out, err := client.RenderEnd(context.Background(), nil, map[string]string{
		"TOPIC":      "topic",
		"LANGUAGE":   "en",
		"END_REASON": "you convinced me",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Error("expected a closing message")
	}
	if !strings.Contains(captured.System, "you convinced me") {
		t.Errorf("system prompt missing the outcome: %q", captured.System)
	}
	if captured.MaxTokens != 80 {
		t.Errorf("unexpected max tokens %d", captured.MaxTokens)
	}
}

func TestAnthropicComplete(t *testing.T) {
	var captured anthropicRequest
	server := newAnthropicServer(t, anthropicReply(`{"accepted": true}`), &captured)
	defer server.Close()

	client := NewAnthropicWithBaseURL("test-key", server.URL)
	out, err := client.Complete(context.Background(), "system prompt", "user payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"accepted": true}` {
		t.Errorf("unexpected completion %q", out)
	}
	if captured.Temperature != 0.0 {
		t.Errorf("judge completions must be deterministic, got temperature %v", captured.Temperature)
	}
}

func TestAnthropicJoinsTextBlocks(t *testing.T) {
	server := newAnthropicServer(t,
		`{"content": [{"type": "text", "text": "part one "}, {"type": "tool_use", "text": "skip"}, {"type": "text", "text": "part two"}]}`,
		nil)
	defer server.Close()

	client := NewAnthropicWithBaseURL("test-key", server.URL)
	out, err := client.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "part one part two" {
		t.Errorf("unexpected completion %q", out)
	}
}

func TestAnthropicErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	client := NewAnthropicWithBaseURL("test-key", server.URL)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAnthropicCheckTopic(t *testing.T) {
	cases := []struct {
		reply      string
		wantOK     bool
		wantReason string
	}{
		{"VALID", true, ""},
		{"INVALID: just a greeting", false, "just a greeting"},
		{"something unexpected", false, "unrecognized"},
	}
	for _, c := range cases {
		server := newAnthropicServer(t, anthropicReply(c.reply), nil)
		client := NewAnthropicWithBaseURL("test-key", server.URL)
		ok, reason, err := client.CheckTopic(context.Background(), "Dogs are the best companion", "en")
		server.Close()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok != c.wantOK || reason != c.wantReason {
			t.Errorf("CheckTopic with %q = (%v, %q), want (%v, %q)",
				c.reply, ok, reason, c.wantOK, c.wantReason)
		}
	}
}
