// Package llm is the proxy to the remote language model. The model is a
// JSON-in/JSON-out oracle; its output is untrusted text until parsed and is
// never echoed verbatim to a client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Error kinds for the model path.
var (
	ErrModelInvocationFailed    = errors.New("model invocation failed")
	ErrModelResponseUnparseable = errors.New("model response unparseable")
	ErrConfigMissing            = errors.New("model api key not configured")
)

// DefaultModelURL is the chat completions endpoint the proxy forwards to.
const DefaultModelURL = "https://api.openai.com/v1/chat/completions"

// maxCompletionTokens bounds every model call.
const maxCompletionTokens = 1200

// Client calls the model endpoint. The API key is resolved per request so a
// missing key fails the request, not process startup.
type Client struct {
	url       string
	model     string
	client    *http.Client
	keyEnvVar string
}

// NewClient builds a model client. keyEnvVar defaults to MODEL_API_KEY.
func NewClient(url, model, keyEnvVar string, deadline time.Duration) *Client {
	if url == "" {
		url = DefaultModelURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if keyEnvVar == "" {
		keyEnvVar = "MODEL_API_KEY"
	}
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &Client{
		url:       url,
		model:     model,
		client:    &http.Client{Timeout: deadline},
		keyEnvVar: keyEnvVar,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	key := os.Getenv(c.keyEnvVar)
	if key == "" {
		return "", ErrConfigMissing
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrModelInvocationFailed, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrModelInvocationFailed)
	}

	log.Debug().
		Dur("duration", time.Since(start)).
		Int("reply_bytes", len(parsed.Choices[0].Message.Content)).
		Msg("model call complete")

	return parsed.Choices[0].Message.Content, nil
}
