// Package critic calls an OpenAI-compatible chat/completions endpoint with a
// screenshot and returns the model's free-text UI/UX critique.
package critic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/uxaudit/internal/core"
)

const (
	defaultResultPath = "choices[0].message.content"
	maxErrorBody      = 4 << 10
)

// ServiceError reports a failed critique call. StatusCode is zero when no
// HTTP response was received.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return "critique service unreachable: " + e.Message
	}
	return fmt.Sprintf("critique service returned %d: %s", e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Config configures the critique client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	Prompt     string
	ResultPath string
	Timeout    time.Duration
	Client     *http.Client
}

// Client is a core.Critic backed by a chat/completions API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	prompt     string
	resultPath string
	client     *http.Client
}

var _ core.Critic = (*Client)(nil)

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("critic base url is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("critic model is required")
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		return nil, errors.New("critic prompt is required")
	}

	resultPath := strings.TrimSpace(cfg.ResultPath)
	if resultPath == "" {
		resultPath = defaultResultPath
	}
	if _, err := jmespath.Compile(resultPath); err != nil {
		return nil, fmt.Errorf("invalid result path %q: %w", resultPath, err)
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		hc = &http.Client{Timeout: timeout}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	return &Client{
		endpoint:   base + "/chat/completions",
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		maxTokens:  maxTokens,
		prompt:     cfg.Prompt,
		resultPath: resultPath,
		client:     hc,
	}, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Critique sends the prompt and image in a single user message and returns the text.
// No retries: every failure surfaces as a *ServiceError.
func (c *Client) Critique(ctx context.Context, image string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: c.prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: image}},
			},
		}},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode critique request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create critique request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.Status, raw)}
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}

	return c.extract(resp.StatusCode, decoded)
}

func (c *Client) extract(status int, decoded any) (string, error) {
	found, err := jmespath.Search(c.resultPath, decoded)
	if err != nil {
		return "", &ServiceError{StatusCode: status, Message: "evaluate result path", Err: err}
	}
	text, ok := found.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", &ServiceError{
			StatusCode: status,
			Message:    fmt.Sprintf("response has no text at %s", c.resultPath),
		}
	}
	return text, nil
}

// upstreamMessage prefers the OpenAI-style {"error":{"message":...}} body, then raw text.
func upstreamMessage(status string, raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}
