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

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates replies via the OpenAI chat completions API.
type OpenAI struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI creates an adapter with the production API endpoint.
func NewOpenAI(apiKey string) *OpenAI {
	return NewOpenAIWithBaseURL(apiKey, "https://api.openai.com")
}

// NewOpenAIWithBaseURL creates an adapter against a custom endpoint (for
// testing).
func NewOpenAIWithBaseURL(apiKey, baseURL string) *OpenAI {
	return &OpenAI{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       defaultOpenAIModel,
		temperature: 0.3,
		maxTokens:   220,
	}
}

// SetModel overrides the model ID.
func (o *OpenAI) SetModel(model string) { o.model = model }

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) request(ctx context.Context, system string, messages []Message, temperature float64, maxTokens int) (string, error) {
	all := append([]Message{{Role: "system", Content: system}}, messages...)
	body, err := json.Marshal(openAIRequest{
		Model:       o.model,
		Messages:    all,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", serviceError("openai", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", serviceError("openai", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", serviceError("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", serviceError("openai", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", serviceError("openai", err)
	}
	if len(parsed.Choices) == 0 {
		return "", serviceError("openai", fmt.Errorf("empty choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

// ContinueDebate implements debate.ReplyGenerator.
func (o *OpenAI) ContinueDebate(ctx context.Context, transcript []debate.Turn, state *debate.State) (string, error) {
	system := renderTemplate(debateSystemPrompt, state.PromptVars())
	return o.request(ctx, system, mapTranscript(transcript), o.temperature, o.maxTokens)
}

// RenderEnd implements debate.ReplyGenerator.
func (o *OpenAI) RenderEnd(ctx context.Context, transcript []debate.Turn, vars map[string]string) (string, error) {
	system := renderTemplate(endSystemPrompt, vars)
	return o.request(ctx, system, mapTranscript(transcript), 0.2, 80)
}

// Complete satisfies the verdict judge's completer contract.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	return o.request(ctx, system, []Message{{Role: "user", Content: user}}, 0.0, 200)
}

// CheckTopic classifies whether a proposed topic is debate-ready.
func (o *OpenAI) CheckTopic(ctx context.Context, topic, language string) (bool, string, error) {
	user := fmt.Sprintf("Topic: %s\nLanguage: %s\nReturn exactly 'VALID' or 'INVALID: <reason>'.", topic, language)
	out, err := o.request(ctx, topicGateSystemPrompt, []Message{{Role: "user", Content: user}}, 0.0, 8)
	if err != nil {
		return false, "", err
	}
	return parseTopicGate(out)
}
