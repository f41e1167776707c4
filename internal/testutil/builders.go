package testutil

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/target/uxaudit/internal/domain/model"
)

// SampleCritique is a tagged numbered critique like the model returns.
const SampleCritique = "1. [CRITICAL] The \"Sign up\" button has a 2px border with contrast ratio 2.1:1 against #ffffff.\n" +
	"2. [HIGH] The navigation links use 11px text which is too small for comfortable reading.\n" +
	"3. [ACCESSIBILITY] Form inputs lack visible labels and rely on placeholder text only.\n" +
	"4. [MEDIUM] Card spacing alternates between 12px and 20px across the grid.\n" +
	"5. [LOW] The footer copyright line is 60% opacity and nearly invisible."

// pngHeader is the 8-byte PNG signature.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNGDataURL returns a data URL whose decoded payload is about size bytes.
func PNGDataURL(size int) string {
	payload := make([]byte, max(size, len(pngHeader)))
	copy(payload, pngHeader)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

// DataURLOfLength returns a syntactically valid data URL exactly n bytes long (n >= 32).
func DataURLOfLength(n int) string {
	prefix := "data:image/png;base64,"
	if n <= len(prefix) {
		return prefix
	}
	return prefix + strings.Repeat("A", n-len(prefix))
}

// AuditBuilder provides a fluent interface for building model.Audit values.
type AuditBuilder struct {
	audit model.Audit
}

// NewAudit creates an AuditBuilder with sensible defaults.
func NewAudit(id string) *AuditBuilder {
	return &AuditBuilder{audit: model.Audit{
		ID:        id,
		PageURL:   "https://example.com",
		PageTitle: "Example Domain",
		Status:    model.AuditStatusPending,
		CreatedAt: TestTime(),
	}}
}

// CreatedAt sets the creation time.
func (b *AuditBuilder) CreatedAt(t time.Time) *AuditBuilder {
	b.audit.CreatedAt = t
	return b
}

// Page sets the page url and title.
func (b *AuditBuilder) Page(url, title string) *AuditBuilder {
	b.audit.PageURL = url
	b.audit.PageTitle = title
	return b
}

// Build returns the audit.
func (b *AuditBuilder) Build() model.Audit {
	return b.audit
}

// NewLatestResult builds a latest-result record for text completed at TestTime.
func NewLatestResult(id, text string) model.LatestResult {
	return model.LatestResult{
		Result:    text,
		Timestamp: TestTime().UnixMilli(),
		ID:        id,
		PageURL:   "https://example.com",
		PageTitle: "Example Domain",
	}
}
