package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Arial"
	pdfFontSize   = 8.0
	pdfLineHeight = 4.0
	pdfPageBottom = 297.0 - 15.0
	pdfMaxLines   = 8
)

var pdfColumns = []struct {
	title string
	width float64
}{
	{"#", 8},
	{"Scenario", 52},
	{"Result", 14},
	{"Elapsed", 18},
	{"Failure", 98},
}

type pdfWriter struct{}

func (pdfWriter) Format() string    { return "pdf" }
func (pdfWriter) Extension() string { return "pdf" }

func (pdfWriter) Render(s Summary) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle(s.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "", 9)
	lines := []string{
		"Run: " + s.RunID,
		"Started: " + s.StartedAt.Format("2006-01-02 15:04:05"),
		"Duration: " + formatElapsed(s.Duration),
		fmt.Sprintf("Result: %d passed, %d failed, %d total", s.Passed, s.Failed, s.Total),
	}
	if s.Aborted != "" {
		lines = append(lines, "Aborted: "+s.Aborted)
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	header := make([]string, len(pdfColumns))
	for i, c := range pdfColumns {
		header[i] = c.title
	}
	renderRow(pdf, header, true)
	for i, r := range s.Results {
		renderRow(pdf, []string{
			fmt.Sprintf("%d", i+1),
			tr(r.Name),
			resultLabel(r),
			formatElapsed(r.Elapsed),
			tr(r.FailureReason),
		}, false)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

// renderRow draws one table row, wrapping each cell inside its column
func renderRow(pdf *fpdf.Fpdf, cells []string, header bool) {
	if header {
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
	} else {
		pdf.SetFont(pdfFont, "", pdfFontSize)
		pdf.SetFillColor(255, 255, 255)
	}

	wrapped := make([][][]byte, len(cells))
	maxLines := 1
	for i, c := range cells {
		wrapped[i] = pdf.SplitLines([]byte(c), pdfColumns[i].width-2)
		if n := len(wrapped[i]); n > maxLines {
			maxLines = n
		}
	}
	if maxLines > pdfMaxLines {
		maxLines = pdfMaxLines
	}

	rowHeight := float64(maxLines)*pdfLineHeight + 2
	startX, startY := pdf.GetXY()
	if startY+rowHeight > pdfPageBottom {
		pdf.AddPage()
		startX, startY = pdf.GetXY()
	}

	x := startX
	for i, lines := range wrapped {
		width := pdfColumns[i].width
		style := "D"
		if header {
			style = "FD"
		}
		pdf.Rect(x, startY, width, rowHeight, style)
		for j, line := range lines {
			if j == maxLines {
				break
			}
			pdf.SetXY(x+1, startY+1+float64(j)*pdfLineHeight)
			pdf.CellFormat(width-2, pdfLineHeight, string(line), "", 0, "L", false, 0, "")
		}
		x += width
	}
	pdf.SetXY(startX, startY+rowHeight)
}
