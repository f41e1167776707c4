// Package slack mirrors audit notifications to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/target/uxaudit/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// ReportURL, when set, is linked from completion messages (e.g. https://host/api/audits/latest/report).
	ReportURL string
}

// Client delivers audit notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	reportURL  string
	client     *http.Client
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   notify.Fallback(strings.TrimSpace(cfg.Username), "uxaudit"),
		retryLimit: max(cfg.RetryLimit, 0),
		reportURL:  validReportURL(cfg.ReportURL),
		client:     hc,
	}, nil
}

// SendAuditEvent posts a formatted message to Slack.
func (c *Client) SendAuditEvent(ctx context.Context, event notify.AuditEvent) error {
	body, err := json.Marshal(c.formatMessage(event))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	return notify.WithRetry(ctx, c.retryLimit, func(ctx context.Context) error {
		return notify.PostJSON(ctx, c.client, c.webhookURL, body, "slack webhook")
	})
}

func (c *Client) formatMessage(event notify.AuditEvent) map[string]any {
	timestamp := event.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	text := strings.Builder{}
	writeHeader(&text, event)
	appendField(&text, "Page", formatPage(event.PageURL, event.PageTitle))
	appendField(&text, "Site", escapeSlackText(event.Site))
	if event.Kind == notify.KindFailed {
		appendField(&text, "Severity", notify.Fallback(event.Severity, notify.SeverityCritical))
		appendField(&text, "Error class", event.ErrorClass)
		appendField(&text, "Error", escapeSlackText(event.Error))
	}
	if event.Kind == notify.KindCompleted && c.reportURL != "" {
		appendField(&text, "Report", fmt.Sprintf("<%s|open report>", c.reportURL))
	}
	appendMetadata(&text, event.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func writeHeader(text *strings.Builder, event notify.AuditEvent) {
	text.WriteByte('*')
	text.WriteString(notify.Fallback(event.Title, "UI/UX audit"))
	text.WriteByte('*')
	if event.AuditID != "" {
		text.WriteString(" `")
		text.WriteString(event.AuditID)
		text.WriteByte('`')
	}
	text.WriteByte('\n')
	if msg := strings.TrimSpace(event.Message); msg != "" {
		text.WriteString(escapeSlackText(msg))
		text.WriteByte('\n')
	}
}

func formatPage(pageURL, pageTitle string) string {
	u := strings.TrimSpace(pageURL)
	title := escapeSlackText(strings.TrimSpace(pageTitle))
	parsed, err := url.Parse(u)
	linkable := err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""

	switch {
	case linkable && title != "":
		return fmt.Sprintf("<%s|%s>", u, title)
	case linkable:
		return fmt.Sprintf("<%s>", u)
	case title != "":
		return title
	default:
		return escapeSlackText(u)
	}
}

func validReportURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.String()
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(metadata[k])
		text.WriteByte('\n')
	}
}
