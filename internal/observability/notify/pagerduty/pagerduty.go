// Package pagerduty pages on failed audits through the Events API v2.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/uxaudit/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Endpoint overrides APIEndpoint.
	Endpoint string
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	component  string
	endpoint   string
	retryLimit int
	client     *http.Client
}

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
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
		routingKey: key,
		source:     notify.Fallback(strings.TrimSpace(cfg.Source), "uxaudit"),
		component:  notify.Fallback(strings.TrimSpace(cfg.Component), "audit-proxy"),
		endpoint:   notify.Fallback(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// SendAuditEvent triggers an incident for failed audits; other kinds are ignored.
func (c *Client) SendAuditEvent(ctx context.Context, event notify.AuditEvent) error {
	if event.Kind != notify.KindFailed {
		return nil
	}

	body, err := json.Marshal(c.buildEvent(event))
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}

	return notify.WithRetry(ctx, c.retryLimit, func(ctx context.Context) error {
		return notify.PostJSON(ctx, c.client, c.endpoint, body, "pagerduty")
	})
}

func (c *Client) buildEvent(event notify.AuditEvent) map[string]any {
	severity := strings.ToLower(notify.Fallback(event.Severity, notify.SeverityCritical))

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	custom := map[string]any{
		"audit_id":    event.AuditID,
		"page_url":    event.PageURL,
		"page_title":  event.PageTitle,
		"site":        event.Site,
		"error":       event.Error,
		"error_class": event.ErrorClass,
	}
	for k, v := range event.Metadata {
		if _, exists := custom[k]; !exists {
			custom[k] = v
		}
	}

	return map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    "audit:" + notify.Fallback(event.AuditID, "unknown"),
		"payload": map[string]any{
			"summary": fmt.Sprintf(
				"UI/UX audit %s failed for %s",
				notify.Fallback(event.AuditID, "unknown"),
				notify.Fallback(event.Site, notify.Fallback(event.PageURL, "unknown page")),
			),
			"severity":       severity,
			"source":         c.source,
			"component":      c.component,
			"timestamp":      occurredAt.Format(time.RFC3339),
			"custom_details": custom,
		},
	}
}
