package report

import (
	"html/template"
	"regexp"
	"strings"
)

// One alternation so a value is highlighted at most once. Ratios come before
// plain numbers so "4.5:1" is not split.
var technical = regexp.MustCompile(
	`(#[0-9a-fA-F]{3,6}\b)` +
		`|(\d+(?:\.\d+)?:\d+(?:\.\d+)?)` +
		`|(\d+(?:\.\d+)?px)` +
		`|(\d+(?:\.\d+)?%)` +
		`|"([^"\n]+)"`,
)

// Highlight escapes text and wraps hex colors, measurements, ratios and quoted
// UI element names in spans.
func Highlight(text string) template.HTML {
	var b strings.Builder
	last := 0
	for _, m := range technical.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(template.HTMLEscapeString(text[last:m[0]]))
		switch {
		case m[2] >= 0:
			span(&b, "tech-color", text[m[2]:m[3]])
		case m[4] >= 0:
			span(&b, "tech-measurement", text[m[4]:m[5]])
		case m[6] >= 0:
			span(&b, "tech-measurement", text[m[6]:m[7]])
		case m[8] >= 0:
			span(&b, "tech-measurement", text[m[8]:m[9]])
		case m[10] >= 0:
			b.WriteString("&#34;")
			span(&b, "ui-element", text[m[10]:m[11]])
			b.WriteString("&#34;")
		}
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(text[last:]))
	return template.HTML(b.String()) // #nosec G203 - every fragment is escaped above
}

func span(b *strings.Builder, class, value string) {
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(template.HTMLEscapeString(value))
	b.WriteString(`</span>`)
}
