package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"focusnotebook/internal/models"

	"golang.org/x/time/rate"
)

// ChatClient calls OpenAI-compatible chat completion endpoints, honoring
// each provider's requests-per-minute budget
type ChatClient struct {
	httpClient *http.Client

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
}

// NewChatClient creates a chat completion client
func NewChatClient() *ChatClient {
	return &ChatClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiters:   make(map[int]*rate.Limiter),
	}
}

// limiter returns the rate limiter for a provider, creating it on first use.
// A zero requests-per-minute means unlimited.
func (c *ChatClient) limiter(providerID, requestsPerMinute int) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[providerID]; ok {
		return l
	}

	var l *rate.Limiter
	if requestsPerMinute <= 0 {
		l = rate.NewLimiter(rate.Inf, 1)
	} else {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	c.limiters[providerID] = l
	return l
}

// Complete performs a chat completion against a provider
func (c *ChatClient) Complete(ctx context.Context, provider *models.Provider, apiKey string, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	if err := c.limiter(provider.ID, provider.RequestsPerMinute).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	if req.Model == "" {
		req.Model = provider.DefaultModel
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(provider.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider %s returned %d: %s", provider.Name, resp.StatusCode, truncate(string(respBody), 300))
	}

	var completion models.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("provider %s returned no choices", provider.Name)
	}

	return &completion, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
