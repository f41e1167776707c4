// Package report turns critique text into a prioritized issue list and renders
// it as HTML or PDF.
package report

import (
	"regexp"
	"strings"

	"github.com/target/uxaudit/internal/domain/severity"
)

// Minimum lengths for an extracted fragment to count as an issue.
const (
	minItemLen      = 15
	minParagraphLen = 100
	minSentenceLen  = 30
)

var (
	boldMarker    = regexp.MustCompile(`\*\*`)
	blankRuns     = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	starBullet    = regexp.MustCompile(`(?m)^[ \t]*\*[ \t]+`)
	numberedItem  = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)
	bulletItem    = regexp.MustCompile(`^\s*[•\-*]\s+(.+)$`)
	sentenceBreak = regexp.MustCompile(`\.\s+`)
	tagInText     = regexp.MustCompile(`\s*\[(?:CRITICAL|HIGH|ACCESSIBILITY|MEDIUM|LOW)\]\s*`)
	spaces        = regexp.MustCompile(`[ \t]{2,}`)
)

// Issue is one extracted finding. Text has its priority tags removed.
type Issue struct {
	Number   int
	Priority severity.Tag
	Text     string
}

// Format strips bold markers, collapses runs of blank lines and turns "* "
// bullets into "• ".
func Format(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = boldMarker.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return starBullet.ReplaceAllString(text, "• ")
}

// Extract finds issues in critique text. Numbered items are preferred, then
// bullets, then sentences from long paragraphs. No matches yields nil.
func Extract(text string) []Issue {
	formatted := Format(text)

	raw := listItems(formatted, numberedItem)
	if len(raw) == 0 {
		raw = listItems(formatted, bulletItem)
	}
	if len(raw) == 0 {
		raw = paragraphSentences(formatted)
	}
	if len(raw) == 0 {
		return nil
	}

	issues := make([]Issue, 0, len(raw))
	for i, item := range raw {
		issues = append(issues, Issue{
			Number:   i + 1,
			Priority: Classify(item),
			Text:     StripTags(item),
		})
	}
	return issues
}

// listItems collects lines matching marker. Indented or plain lines directly
// following an item are folded into it; a blank line ends the item.
func listItems(text string, marker *regexp.Regexp) []string {
	var (
		items   []string
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		item := strings.TrimSpace(strings.Join(current, " "))
		if len(item) > minItemLen {
			items = append(items, item)
		}
		current = nil
	}

	for line := range strings.SplitSeq(text, "\n") {
		if m := marker.FindStringSubmatch(line); m != nil {
			flush()
			current = []string{strings.TrimSpace(m[1])}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if current != nil {
			current = append(current, trimmed)
		}
	}
	flush()
	return items
}

func paragraphSentences(text string) []string {
	var out []string
	for para := range strings.SplitSeq(text, "\n\n") {
		if len(strings.TrimSpace(para)) <= minParagraphLen {
			continue
		}
		for _, sentence := range sentenceBreak.Split(para, -1) {
			sentence = strings.TrimSpace(sentence)
			if len(sentence) <= minSentenceLen || strings.Contains(strings.ToLower(sentence), "overall") {
				continue
			}
			out = append(out, strings.TrimRight(sentence, ".")+".")
		}
	}
	return out
}

// Classify returns the highest-precedence tag present in text, or MEDIUM.
func Classify(text string) severity.Tag {
	for _, tag := range severity.Tags {
		if strings.Contains(text, tag.Bracket()) {
			return tag
		}
	}
	return severity.Medium
}

// StripTags removes bracketed priority tags from text.
func StripTags(text string) string {
	text = tagInText.ReplaceAllString(text, " ")
	text = spaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
