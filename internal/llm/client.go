// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls OpenAI-compatible chat completion APIs. Outline
// generation, per-section synthesis and the analysis tool all go through the
// Client interface so tests can substitute a canned model.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/deepresearch/internal/httputil"
)

// defaultAPIBase is the OpenAI chat-completions endpoint, used when the
// configuration leaves BaseURL empty. Declared as a var so tests can
// substitute an httptest server.
var defaultAPIBase = "https://api.openai.com/v1"

// Client generates text from a prompt. Implementations must be safe for
// concurrent use.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request holds one generation call. Zero-valued fields fall back to the
// client's configured defaults.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string

	// MaxTokens and Temperature are defaults for requests that leave the
	// corresponding field unset.
	MaxTokens   int
	Temperature float64

	// MaxRetries bounds the 429 backoff loop (0 means the shared default).
	MaxRetries int
}

// chat-completions wire structures.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate runs one chat completion and returns the first choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, r Request) (string, error) {
	if strings.TrimSpace(r.Prompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.MaxTokens
	}
	temperature := r.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}

	var messages []chatMessage
	if r.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: r.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: r.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = defaultAPIBase
	}
	endpoint := strings.TrimSuffix(base, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("parsing completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if cr.Error != nil {
			return "", fmt.Errorf("completion API returned HTTP %d: %s", resp.StatusCode, cr.Error.Message)
		}
		return "", fmt.Errorf("completion API returned HTTP %d", resp.StatusCode)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
