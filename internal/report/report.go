package report

import (
	"time"

	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/severity"
)

// Title heads every rendered report.
const Title = "UI/UX Audit Report"

// NoIssuesMessage is shown when extraction finds nothing. It is a normal outcome.
const NoIssuesMessage = "No specific issues could be extracted from the analysis. " +
	"Please try again with a different interface or adjust the prompt."

// PriorityCount is the number of issues at one priority.
type PriorityCount struct {
	Priority severity.Tag
	Count    int
}

// Report is a rendered view of one latest result.
type Report struct {
	Title       string
	AuditID     string
	PageURL     string
	PageTitle   string
	CompletedAt time.Time
	GeneratedAt time.Time
	Issues      []Issue
	Counts      []PriorityCount
	Filename    string
	Raw         string
}

// Build extracts issues from result and stamps the report with now.
func Build(result model.LatestResult, now time.Time) Report {
	issues := Extract(result.Result)

	byTag := make(map[severity.Tag]int, len(severity.Tags))
	for _, issue := range issues {
		byTag[issue.Priority]++
	}
	counts := make([]PriorityCount, 0, len(severity.Tags))
	for _, tag := range severity.Tags {
		counts = append(counts, PriorityCount{Priority: tag, Count: byTag[tag]})
	}

	return Report{
		Title:       Title,
		AuditID:     result.ID,
		PageURL:     result.PageURL,
		PageTitle:   result.PageTitle,
		CompletedAt: result.CompletedAt(),
		GeneratedAt: now,
		Issues:      issues,
		Counts:      counts,
		Filename:    Filename(now),
		Raw:         result.Result,
	}
}

// Filename is the PDF download name for a report generated at t.
func Filename(t time.Time) string {
	return "UI-UX-Audit-" + t.UTC().Format(time.DateOnly) + ".pdf"
}

// HasIssues reports whether extraction found anything.
func (r Report) HasIssues() bool {
	return len(r.Issues) > 0
}
