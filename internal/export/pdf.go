package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin    = 14.0
	topMargin     = 15.0
	bottomMargin  = 20.0
	sectionSpace  = 60.0
	sectionGap    = 15.0
	cellPadding   = 2.0
	headFontSize  = 10.0
	bodyFontSize  = 9.0
	lineSpacing   = 1.15
	fontFamily    = "Helvetica"
	footerOffset  = 10.0
	headingOffset = 10.0
)

var (
	headFill   = [3]int{63, 81, 181}
	stripeFill = [3]int{245, 245, 245}
)

// RenderPDF writes doc as an A4 PDF.
func RenderPDF(w io.Writer, doc Document) error {
	return renderPDF(w, doc, true)
}

func renderPDF(w io.Writer, doc Document, compress bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf layout: %v", r)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pageMargin, topMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetTitle(doc.Title, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFooterFunc(func() {
		pdf.SetFont(fontFamily, "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(0, pageH-footerOffset-3)
		pdf.CellFormat(pageW, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 20)
	pdf.SetXY(0, 9)
	pdf.CellFormat(pageW, 8, tr(doc.Title), "", 0, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 12)
	pdf.SetXY(0, 21)
	pdf.CellFormat(pageW, 5, tr(doc.GeneratedLine()), "", 0, "C", false, 0, "")
	pdf.SetXY(0, 28)
	pdf.CellFormat(pageW, 5, tr(doc.PeriodLine()), "", 0, "C", false, 0, "")

	y := 45.0
	for _, t := range doc.Tables {
		if y > pageH-sectionSpace {
			pdf.AddPage()
			y = topMargin
		}
		pdf.SetFont(fontFamily, "", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(pageMargin, y-5)
		pdf.CellFormat(0, 6, tr(t.Title), "", 0, "L", false, 0, "")
		y = drawTable(pdf, tr, t, y+headingOffset, pageW, pageH) + sectionGap
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func columnWidths(t Table, pageW float64) []float64 {
	fixed := 0.0
	auto := 0
	for _, w := range t.Widths {
		if w == 0 {
			auto++
		}
		fixed += w
	}
	widths := make([]float64, len(t.Widths))
	copy(widths, t.Widths)
	if auto == 0 {
		return widths
	}
	rest := (pageW - 2*pageMargin - fixed) / float64(auto)
	for i, w := range widths {
		if w == 0 {
			widths[i] = rest
		}
	}
	return widths
}

// drawTable draws a striped table starting at y and returns the y just below
// its last row. Rows that do not fit move to a new page under a repeated
// header. A row taller than a whole page is split between its wrapped lines
// and continues under the header on the following pages.
func drawTable(pdf *fpdf.Fpdf, tr func(string) string, t Table, y, pageW, pageH float64) float64 {
	widths := columnWidths(t, pageW)
	limit := pageH - bottomMargin

	header := func(y float64) float64 {
		pdf.SetFont(fontFamily, "B", headFontSize)
		pdf.SetFillColor(headFill[0], headFill[1], headFill[2])
		pdf.SetTextColor(255, 255, 255)
		return drawLines(pdf, splitCells(pdf, tr, t.Header, widths), widths, y, true)
	}
	body := func() {
		pdf.SetFont(fontFamily, "", bodyFontSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
	}
	nextPage := func() float64 {
		pdf.AddPage()
		y := header(topMargin)
		body()
		return y
	}

	y = header(y)
	pdf.SetFont(fontFamily, "B", headFontSize)
	freshTop := topMargin + cellsHeight(pdf, splitCells(pdf, tr, t.Header, widths))
	body()

	for i, row := range t.Rows {
		fill := i%2 == 1
		cells := splitCells(pdf, tr, row, widths)
		lh := lineHeight(pdf)
		for {
			h := cellsHeight(pdf, cells)
			if y+h <= limit {
				y = drawLines(pdf, cells, widths, y, fill)
				break
			}
			fit := int((limit - y - 2*cellPadding) / lh)
			if freshTop+h <= limit || fit < 1 {
				if y == freshTop {
					// nothing fits below the header; force progress
					fit = 1
				} else {
					y = nextPage()
					continue
				}
			}
			head, rest := cutLines(cells, fit)
			drawLines(pdf, head, widths, y, fill)
			cells = rest
			y = nextPage()
		}
	}
	return y
}

func lineHeight(pdf *fpdf.Fpdf) float64 {
	_, h := pdf.GetFontSize()
	return h * lineSpacing
}

// latin1 replaces runes the core fonts cannot measure.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}

// splitCells wraps each cell to its column. Lines are measured as UTF-8 and
// translated for the core font afterwards.
func splitCells(pdf *fpdf.Fpdf, tr func(string) string, cells []string, widths []float64) [][]string {
	out := make([][]string, len(cells))
	for i, c := range cells {
		lines := pdf.SplitText(latin1(c), widths[i]-2*cellPadding)
		if len(lines) == 0 {
			lines = []string{""}
		}
		for k := range lines {
			lines[k] = tr(lines[k])
		}
		out[i] = lines
	}
	return out
}

func maxLines(cells [][]string) int {
	n := 1
	for _, lines := range cells {
		if len(lines) > n {
			n = len(lines)
		}
	}
	return n
}

func cellsHeight(pdf *fpdf.Fpdf, cells [][]string) float64 {
	return float64(maxLines(cells))*lineHeight(pdf) + 2*cellPadding
}

// cutLines splits wrapped cells after their first n lines.
func cutLines(cells [][]string, n int) (head, rest [][]string) {
	head = make([][]string, len(cells))
	rest = make([][]string, len(cells))
	for i, lines := range cells {
		k := n
		if k > len(lines) {
			k = len(lines)
		}
		head[i], rest[i] = lines[:k], lines[k:]
	}
	return head, rest
}

func drawLines(pdf *fpdf.Fpdf, cells [][]string, widths []float64, y float64, fill bool) float64 {
	lh := lineHeight(pdf)
	h := cellsHeight(pdf, cells)
	x := pageMargin
	for i, lines := range cells {
		if fill {
			pdf.Rect(x, y, widths[i], h, "F")
		}
		for k, line := range lines {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(k)*lh)
			pdf.CellFormat(widths[i]-2*cellPadding, lh, line, "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	return y + h
}
