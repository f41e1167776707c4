// Package surface is the UI-surface side of the message contract: an HTTP
// client for the audit service and a cancellable latest-result poller.
package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
	apperrors "github.com/target/uxaudit/internal/errors"
)

const maxErrorBody = 4 << 10

// Client talks to the audit service over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the service at baseURL. hc may be nil.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("service url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Client{base: base, http: hc}, nil
}

// StartAudit dispatches an audit. The reply only acknowledges dispatch.
func (c *Client) StartAudit(ctx context.Context, req model.StartAuditRequest) (model.StartAuditResponse, error) {
	var out model.StartAuditResponse
	_, err := c.doJSON(ctx, http.MethodPost, "/api/audits", req, &out)
	return out, err
}

// LatestResult returns the stored latest result, or nil when there is none.
func (c *Client) LatestResult(ctx context.Context) (*model.LatestResult, error) {
	var out model.LatestResultResponse
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/audits/latest", nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// ClearResult deletes the stored latest result.
func (c *Client) ClearResult(ctx context.Context) error {
	var out model.AckResponse
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/audits/latest", nil, &out)
	return err
}

// Audits lists audits still tracked by the service, newest first.
func (c *Client) Audits(ctx context.Context) ([]model.Audit, error) {
	var out model.AuditListResponse
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/audits", nil, &out); err != nil {
		return nil, err
	}
	return out.Audits, nil
}

// Audit fetches one audit by id.
func (c *Client) Audit(ctx context.Context, id string) (model.Audit, error) {
	var out model.Audit
	_, err := c.doJSON(ctx, http.MethodGet, "/api/audits/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Notifications lists visible notifications, oldest first.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var out model.NotificationListResponse
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// ClickNotification clicks a notification body.
func (c *Client) ClickNotification(ctx context.Context, id string) (model.ClickResponse, error) {
	var out model.ClickResponse
	_, err := c.doJSON(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(id)+"/click", nil, &out)
	return out, err
}

// PressButton presses a notification action button by index.
func (c *Client) PressButton(ctx context.Context, id string, index int) (model.ClickResponse, error) {
	var out model.ClickResponse
	path := "/api/notifications/" + url.PathEscape(id) + "/buttons/" + strconv.Itoa(index)
	_, err := c.doJSON(ctx, http.MethodPost, path, nil, &out)
	return out, err
}

// AwaitFocus long-polls for a focus request. It returns nil when wait elapses without one.
func (c *Client) AwaitFocus(ctx context.Context, wait time.Duration) (*model.FocusResponse, error) {
	path := "/api/surface/focus?wait=" + strconv.Itoa(int(wait/time.Second))
	var out model.FocusResponse
	status, err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &out, nil
}

// Report downloads the latest result rendered as format ("html" or "pdf") into
// w and returns the server-suggested filename.
func (c *Client) Report(ctx context.Context, format string, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/audits/latest/report?format="+url.QueryEscape(format), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Upstream(err, "audit service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.Upstream(err, "audit service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// decodeError turns a {"error","message"} reply back into an AppError.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
		msg = envelope.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := apperrors.ErrCodeInternal
	switch resp.StatusCode {
	case http.StatusBadRequest:
		code = apperrors.ErrCodeValidation
	case http.StatusNotFound:
		code = apperrors.ErrCodeNotFound
	case http.StatusRequestEntityTooLarge:
		code = apperrors.ErrCodePayloadTooLarge
	case http.StatusBadGateway:
		code = apperrors.ErrCodeUpstream
	case http.StatusServiceUnavailable:
		code = apperrors.ErrCodeUnavailable
	}
	return &apperrors.AppError{Code: code, Message: msg}
}
