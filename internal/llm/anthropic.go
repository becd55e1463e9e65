package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

const (
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
)

// Anthropic generates replies via the Anthropic Messages API.
type Anthropic struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropic creates an adapter with the production API endpoint.
func NewAnthropic(apiKey string) *Anthropic {
	return NewAnthropicWithBaseURL(apiKey, "https://api.anthropic.com")
}

// NewAnthropicWithBaseURL creates an adapter against a custom endpoint (for
// testing).
func NewAnthropicWithBaseURL(apiKey, baseURL string) *Anthropic {
	return &Anthropic{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       defaultAnthropicModel,
		temperature: 0.3,
		maxTokens:   220,
	}
}

// SetModel overrides the model ID.
func (a *Anthropic) SetModel(model string) { a.model = model }

type anthropicRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) request(ctx context.Context, system string, messages []Message, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		System:      system,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", serviceError("anthropic", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", serviceError("anthropic", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", serviceError("anthropic", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", serviceError("anthropic", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", serviceError("anthropic", err)
	}
	out := ""
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

// ContinueDebate implements debate.ReplyGenerator.
func (a *Anthropic) ContinueDebate(ctx context.Context, transcript []debate.Turn, state *debate.State) (string, error) {
	system := renderTemplate(debateSystemPrompt, state.PromptVars())
	return a.request(ctx, system, mapTranscript(transcript), a.temperature, a.maxTokens)
}

// RenderEnd implements debate.ReplyGenerator.
func (a *Anthropic) RenderEnd(ctx context.Context, transcript []debate.Turn, vars map[string]string) (string, error) {
	system := renderTemplate(endSystemPrompt, vars)
	return a.request(ctx, system, mapTranscript(transcript), 0.2, 80)
}

// Complete satisfies the verdict judge's completer contract.
func (a *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	msgs := []Message{{Role: "user", Content: user}}
	return a.request(ctx, system, msgs, 0.0, 200)
}

// CheckTopic classifies whether a proposed topic is debate-ready, returning
// ok plus a short reason when it is not.
func (a *Anthropic) CheckTopic(ctx context.Context, topic, language string) (bool, string, error) {
	user := fmt.Sprintf("Topic: %s\nLanguage: %s\nReturn exactly 'VALID' or 'INVALID: <reason>'.", topic, language)
	out, err := a.request(ctx, topicGateSystemPrompt, []Message{{Role: "user", Content: user}}, 0.0, 8)
	if err != nil {
		return false, "", err
	}
	return parseTopicGate(out)
}
