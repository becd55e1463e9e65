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

func openAIReply(text string) string {
	return `{"choices": [{"message": {"role": "assistant", "content": ` + mustJSON(text) + `}}]}`
}

func newOpenAIServer(t *testing.T, reply string, captured *openAIRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		w.Write([]byte(reply))
	}))
}

func TestOpenAIContinueDebate(t *testing.T) {
	var captured openAIRequest
	server := newOpenAIServer(t, openAIReply("Dogs still win this argument."), &captured)
	defer server.Close()

	state, _ := debate.NewState("Dogs are the best companion", debate.StanceCon, debate.Policy{})
	client := NewOpenAIWithBaseURL("test-key", server.URL)

	out, err := client.ContinueDebate(context.Background(), []debate.Turn{
		{Role: debate.RoleAssistant, Text: "Opening statement."},
		{Role: debate.RoleUser, Text: "Dogs are loyal."},
	}, state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Dogs still win this argument." {
		t.Errorf("unexpected reply %q", out)
	}

	if len(captured.Messages) != 4 {
		t.Fatalf("expected system + opener + 2 turns, got %d messages", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || !strings.Contains(captured.Messages[0].Content, "CON") {
		t.Errorf("unexpected system message %+v", captured.Messages[0])
	}
	if captured.Messages[1].Content != "Begin the debate." {
		t.Errorf("assistant-first transcript must gain the synthetic opener, got %+v", captured.Messages[1])
	}
}

func TestOpenAIComplete(t *testing.T) {
	var captured openAIRequest
	server := newOpenAIServer(t, openAIReply(`{"accepted": false}`), &captured)
	defer server.Close()

	client := NewOpenAIWithBaseURL("test-key", server.URL)
	out, err := client.Complete(context.Background(), "judge instructions", "payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"accepted": false}` {
		t.Errorf("unexpected completion %q", out)
	}
	if captured.Messages[0].Content != "judge instructions" {
		t.Errorf("unexpected system message %+v", captured.Messages[0])
	}
}

func TestOpenAIEmptyChoices(t *testing.T) {
	server := newOpenAIServer(t, `{"choices": []}`, nil)
	defer server.Close()

	client := NewOpenAIWithBaseURL("test-key", server.URL)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenAIWithBaseURL("test-key", server.URL)
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected an error")
	}
}
