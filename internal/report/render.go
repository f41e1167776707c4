package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/target/uxaudit/internal/domain/severity"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"highlight": Highlight,
	"lower":     func(t severity.Tag) string { return strings.ToLower(string(t)) },
	"noIssues":  func() string { return NoIssuesMessage },
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// RenderHTML writes r as a standalone HTML page.
func RenderHTML(w io.Writer, r Report) error {
	if err := htmlTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

type rgb struct{ r, g, b int }

var badgeColors = map[severity.Tag]rgb{
	severity.Critical:      {208, 0, 0},
	severity.High:          {232, 93, 4},
	severity.Accessibility: {114, 9, 183},
	severity.Medium:        {244, 162, 97},
	severity.Low:           {42, 157, 143},
}

// RenderPDF writes r as an A4 portrait PDF.
func RenderPDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("uxaudit", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(67, 97, 238)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 6, "Generated on "+r.GeneratedAt.Format("January 2, 2006 at 15:04 MST"), "", 1, "C", false, 0, "")
	if r.PageTitle != "" {
		pdf.CellFormat(0, 6, tr(r.PageTitle), "", 1, "C", false, 0, "")
	}
	if r.PageURL != "" {
		pdf.CellFormat(0, 6, tr(r.PageURL), "", 1, "C", false, 0, r.PageURL)
	}
	pdf.Ln(6)

	pdf.SetTextColor(33, 37, 41)
	if !r.HasIssues() {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(NoIssuesMessage), "", "L", false)
		return output(pdf, w)
	}

	for _, issue := range r.Issues {
		c := badgeColors[issue.Priority]
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.SetTextColor(255, 255, 255)
		label := fmt.Sprintf("%d. %s", issue.Number, issue.Priority)
		pdf.CellFormat(pdf.GetStringWidth(label)+6, 6, label, "", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(0, 6, tr(issue.Text), "", "L", false)
		pdf.Ln(3)
	}
	return output(pdf, w)
}

func output(pdf *fpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf report: %w", err)
	}
	return nil
}
