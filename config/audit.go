package config

import (
	"strings"
	"time"
)

const (
	defaultMaxImageBytes = 50 << 20
	minMaxImageBytes     = 1 << 20
)

// DefaultCriticPrompt is the instruction sent alongside every screenshot.
const DefaultCriticPrompt = "You are a senior UI/UX designer conducting a professional audit of this interface. " +
	"Analyze the screenshot and provide EXTREMELY specific, detailed, and actionable feedback.\n\n" +
	"Start every issue with exactly one priority tag: [CRITICAL], [HIGH], [ACCESSIBILITY], [MEDIUM] or [LOW]. " +
	"Return the issues as a numbered list ordered from most to least severe. For each issue:\n\n" +
	"1. Identify the EXACT element or area with the problem (e.g., 'The search button in the top-right corner')\n" +
	"2. Explain precisely what's wrong with it (e.g., 'has insufficient contrast ratio of approximately 2.5:1 against the background')\n" +
	"3. Give a specific, measurable recommendation (e.g., 'Increase contrast to at least 4.5:1 by using #0056b3 instead of the current #8ebeff')\n\n" +
	"Include at least 6 highly specific issues. Focus on concrete problems like: exact spacing measurements, " +
	"specific color values, precise font sizes, exact button dimensions, specific alignment issues, etc. " +
	"Include technical details whenever possible (pixels, hex colors, ratios). DO NOT provide generic advice. " +
	"Every point must reference specific elements visible in the interface."

// AuditConfig controls the audit proxy and the lifecycle manager.
type AuditConfig struct {
	// MaxImageBytes is the request body ceiling for POST /audit and POST /api/audits.
	MaxImageBytes int64 `env:"AUDIT_MAX_IMAGE_BYTES" envDefault:"52428800"`

	// ProxyURL points the lifecycle manager at a remote audit proxy. Empty relays in-process.
	ProxyURL string `env:"AUDIT_PROXY_URL"`

	// ProxyTimeout bounds calls to a remote audit proxy.
	ProxyTimeout time.Duration `env:"AUDIT_PROXY_TIMEOUT" envDefault:"150s"`

	// ShutdownWait bounds how long shutdown waits for in-flight audits.
	ShutdownWait time.Duration `env:"AUDIT_SHUTDOWN_WAIT" envDefault:"30s"`

	// PollInterval is how often UI surfaces re-read the latest result.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
}

// Sanitize applies guardrails to audit configuration values.
func (a *AuditConfig) Sanitize() {
	if a.MaxImageBytes <= 0 {
		a.MaxImageBytes = defaultMaxImageBytes
	}
	if a.MaxImageBytes < minMaxImageBytes {
		a.MaxImageBytes = minMaxImageBytes
	}
	a.ProxyURL = strings.TrimRight(strings.TrimSpace(a.ProxyURL), "/")
	if a.ProxyTimeout < time.Second {
		a.ProxyTimeout = time.Second
	}
	if a.ShutdownWait < time.Second {
		a.ShutdownWait = time.Second
	}
	if a.PollInterval < 100*time.Millisecond {
		a.PollInterval = 100 * time.Millisecond
	}
}

// UsesRemoteProxy reports whether audits are relayed to a separate proxy deployment.
func (a *AuditConfig) UsesRemoteProxy() bool {
	return a.ProxyURL != ""
}

// CriticConfig configures the OpenAI-compatible vision critique endpoint.
type CriticConfig struct {
	BaseURL   string        `env:"BASE_URL"   envDefault:"https://api.openai.com/v1"`
	APIKey    string        `env:"API_KEY"`
	Model     string        `env:"MODEL"      envDefault:"gpt-4o"`
	MaxTokens int           `env:"MAX_TOKENS" envDefault:"1000"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"120s"`

	// ResultPath is a JMESPath expression selecting the critique text from the response body.
	ResultPath string `env:"RESULT_PATH" envDefault:"choices[0].message.content"`

	// Prompt overrides DefaultCriticPrompt.
	Prompt string `env:"PROMPT"`

	// NormalizeText folds typographic punctuation to ASCII before returning the critique.
	NormalizeText bool `env:"NORMALIZE_TEXT" envDefault:"true"`

	Breaker BreakerConfig `envPrefix:"BREAKER_"`
}

// Sanitize applies guardrails to critic configuration values.
func (c *CriticConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "gpt-4o"
	}
	if c.MaxTokens < 1 {
		c.MaxTokens = 1000
	}
	if c.Timeout < time.Second {
		c.Timeout = time.Second
	}
	if strings.TrimSpace(c.ResultPath) == "" {
		c.ResultPath = "choices[0].message.content"
	}
	if strings.TrimSpace(c.Prompt) == "" {
		c.Prompt = DefaultCriticPrompt
	}
	c.Breaker.Sanitize()
}

// BreakerConfig controls the circuit breaker wrapped around critic calls.
type BreakerConfig struct {
	Enabled bool `env:"ENABLED" envDefault:"true"`

	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures uint32 `env:"CONSECUTIVE_FAILURES" envDefault:"5"`

	// OpenTimeout is how long the breaker stays open before a half-open probe.
	OpenTimeout time.Duration `env:"OPEN_TIMEOUT" envDefault:"30s"`

	// Interval clears closed-state counts; zero never clears.
	Interval time.Duration `env:"INTERVAL" envDefault:"60s"`
}

// Sanitize applies guardrails to breaker configuration values.
func (b *BreakerConfig) Sanitize() {
	if b.ConsecutiveFailures < 1 {
		b.ConsecutiveFailures = 1
	}
	if b.OpenTimeout < time.Second {
		b.OpenTimeout = time.Second
	}
	if b.Interval < 0 {
		b.Interval = 0
	}
}
