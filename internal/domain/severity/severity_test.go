package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	text := "1. [CRITICAL] Button has 2px border.\n" +
		"2. [LOW] Spacing is 8px.\n" +
		"3. [HIGH] Low contrast.\n" +
		"4. [critical] lowercase is ignored\n" +
		"5. [ HIGH ] padded is ignored\n" +
		"6. [HIGH][ACCESSIBILITY] two tags"

	c := Count(text)

	assert.Equal(t, 1, c.Of(Critical))
	assert.Equal(t, 2, c.Of(High))
	assert.Equal(t, 1, c.Of(Accessibility))
	assert.Equal(t, 0, c.Of(Medium))
	assert.Equal(t, 1, c.Of(Low))
	assert.Equal(t, 5, c.Total)
}

func TestCount_Empty(t *testing.T) {
	c := Count("")
	assert.Equal(t, 0, c.Total)
	assert.Equal(t, 0, c.Of(Critical))
}

func TestHeadline_Cascade(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "critical wins over high",
			text: "[CRITICAL] a [HIGH] b [HIGH] c [HIGH] d",
			want: "1 critical issue found! Click to view all 4 issues",
		},
		{
			name: "high when no critical",
			text: "[HIGH] a [HIGH] b [LOW] c",
			want: "2 high priority issues found! Click to view all 3 issues",
		},
		{
			name: "total when neither",
			text: "[MEDIUM] a [ACCESSIBILITY] b",
			want: "No critical issues! Found 2 improvements to review",
		},
		{
			name: "zero tags",
			text: "Looks fine overall.",
			want: "No critical issues! Found 0 improvements to review",
		},
		{
			name: "singular total",
			text: "[LOW] only one",
			want: "No critical issues! Found 1 improvement to review",
		},
		{
			name: "many critical",
			text: "[CRITICAL] [CRITICAL] [LOW]",
			want: "2 critical issues found! Click to view all 3 issues",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Headline(Count(tt.text)))
		})
	}
}

func TestTag_Bracket(t *testing.T) {
	assert.Equal(t, "[ACCESSIBILITY]", Accessibility.Bracket())
}
