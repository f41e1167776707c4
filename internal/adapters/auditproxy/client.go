// Package auditproxy is a core.Relayer that forwards screenshots to a remote
// audit proxy's POST /audit endpoint.
package auditproxy

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

	"github.com/target/uxaudit/internal/core"
	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
)

const maxErrorBody = 4 << 10

// Client relays images to a remote audit proxy.
type Client struct {
	endpoint string
	client   *http.Client
}

var _ core.Relayer = (*Client)(nil)

// NewClient builds a client for the proxy at baseURL.
func NewClient(baseURL string, timeout time.Duration, hc *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("audit proxy url is required")
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: base + "/audit", client: hc}, nil
}

// Relay posts {"image": image} and returns the critique text.
func (c *Client) Relay(ctx context.Context, image string) (string, error) {
	body, err := json.Marshal(model.ProxyRequest{Image: image})
	if err != nil {
		return "", fmt.Errorf("encode proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.Upstream(err, "audit proxy unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", statusError(resp.StatusCode, raw)
	}

	var out model.ProxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Upstream(err, "malformed audit proxy response")
	}
	return out.Result, nil
}

// statusError maps a proxy error status back to the matching application error.
func statusError(status int, raw []byte) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil {
		// Older proxies answer {"error":"<message>"} with no message field.
		switch {
		case strings.TrimSpace(envelope.Message) != "":
			msg = strings.TrimSpace(envelope.Message)
		case strings.TrimSpace(envelope.Error) != "":
			msg = strings.TrimSpace(envelope.Error)
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		return apperrors.Validation(msg)
	case http.StatusRequestEntityTooLarge:
		return apperrors.PayloadTooLargef("%s", msg)
	case http.StatusServiceUnavailable:
		return apperrors.Unavailable(msg)
	default:
		return apperrors.Upstream(fmt.Errorf("audit proxy returned %d", status), msg)
	}
}
