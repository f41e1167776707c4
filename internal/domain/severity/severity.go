// Package severity counts bracketed priority tags in critique text and
// derives the completion headline from them.
package severity

import (
	"fmt"
	"regexp"
)

// Tag is a literal priority marker written by the critic as [TAG].
type Tag string

const (
	Critical      Tag = "CRITICAL"
	High          Tag = "HIGH"
	Accessibility Tag = "ACCESSIBILITY"
	Medium        Tag = "MEDIUM"
	Low           Tag = "LOW"
)

// Tags lists every tag in precedence order.
var Tags = []Tag{Critical, High, Accessibility, Medium, Low}

// Case-sensitive on purpose: "[critical]" is not a tag.
var tagPattern = regexp.MustCompile(`\[(CRITICAL|HIGH|ACCESSIBILITY|MEDIUM|LOW)\]`)

// Bracket returns the tag as it appears in text, e.g. "[HIGH]".
func (t Tag) Bracket() string {
	return "[" + string(t) + "]"
}

// Counts holds per-tag occurrence counts.
type Counts struct {
	ByTag map[Tag]int `json:"byTag"`
	Total int         `json:"total"`
}

// Of returns the count for one tag.
func (c Counts) Of(t Tag) int {
	return c.ByTag[t]
}

// Count scans text for bracketed tags.
func Count(text string) Counts {
	c := Counts{ByTag: make(map[Tag]int, len(Tags))}
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		c.ByTag[Tag(m[1])]++
		c.Total++
	}
	return c
}

// Headline picks the completion message: critical first, then high, then the total.
// The order is fixed and does not compare severities numerically.
func Headline(c Counts) string {
	all := plural(c.Total, "issue", "issues")
	switch {
	case c.Of(Critical) > 0:
		return fmt.Sprintf("%d critical %s found! Click to view all %d %s",
			c.Of(Critical), plural(c.Of(Critical), "issue", "issues"), c.Total, all)
	case c.Of(High) > 0:
		return fmt.Sprintf("%d high priority %s found! Click to view all %d %s",
			c.Of(High), plural(c.Of(High), "issue", "issues"), c.Total, all)
	default:
		return fmt.Sprintf("No critical issues! Found %d %s to review",
			c.Total, plural(c.Total, "improvement", "improvements"))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
