// Package nli talks to the hosted NLI scoring service that returns
// entailment/contradiction/neutral probabilities for a premise/hypothesis
// pair.
package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lorenzotomasdiez/stance-arbiter/internal/debate"
)

const maxRetries = 2

// Client is a scoring-service API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	backoffFunc func(attempt int) time.Duration
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     baseURL,
		backoffFunc: defaultBackoff,
	}
}

type scoreRequest struct {
	Premise    string `json:"premise"`
	Hypothesis string `json:"hypothesis"`
}

// Score returns the label probabilities for premise → hypothesis.
func (c *Client) Score(ctx context.Context, premise, hypothesis string) (debate.ScoreTriple, error) {
	body, err := json.Marshal(scoreRequest{Premise: premise, Hypothesis: hypothesis})
	if err != nil {
		return debate.ScoreTriple{}, fmt.Errorf("nli: %w", err)
	}

	resp, err := c.doWithRetry(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return debate.ScoreTriple{}, fmt.Errorf("nli: %w", err)
	}
	defer resp.Body.Close()

	var triple debate.ScoreTriple
	if err := json.NewDecoder(resp.Body).Decode(&triple); err != nil {
		return debate.ScoreTriple{}, fmt.Errorf("nli: %w", err)
	}
	return triple.Clamp(), nil
}

// BidirectionalScores implements debate.NLIScorer with one call per
// direction.
func (c *Client) BidirectionalScores(ctx context.Context, premise, hypothesis string) (debate.BidirectionalScores, error) {
	pToH, err := c.Score(ctx, premise, hypothesis)
	if err != nil {
		return debate.BidirectionalScores{}, err
	}
	hToP, err := c.Score(ctx, hypothesis, premise)
	if err != nil {
		return debate.BidirectionalScores{}, err
	}
	return debate.BidirectionalScores{PToH: pToH, HToP: hToP}, nil
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func (c *Client) doWithRetry(ctx context.Context, do func(context.Context) (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffFunc(attempt - 1)):
			}
		}

		resp, err := do(ctx)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if !isRetryable(resp.StatusCode) {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		// Respect Retry-After header on 429 (additional wait on top of backoff)
		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil {
					raDelay := time.Duration(secs) * time.Second
					// Skip if backoffFunc signals zero delays (test mode)
					if raDelay > 0 && c.backoffFunc(0) > 0 {
						select {
						case <-ctx.Done():
							return nil, ctx.Err()
						case <-time.After(raDelay):
						}
					}
				}
			}
		}

		lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil, lastErr
}
