package export

import (
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

func writePDF(w io.Writer, table Table) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, table.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, "Generated: "+time.Now().UTC().Format("2006-01-02 15:04 UTC"), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range table.Summary {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := columnWidths(pdf, table)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range table.Columns {
		pdf.CellFormat(widths[i], 8, col.Label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(242, 242, 242)
	for rowIdx, row := range table.Rows {
		fill := rowIdx%2 == 1
		for i, col := range table.Columns {
			pdf.CellFormat(widths[i], 7, formatValue(row[col.Key]), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// columnWidths spreads the printable width over the columns in proportion
// to their longest content, clamped so one wide column cannot crowd out
// the rest.
func columnWidths(pdf *gofpdf.Fpdf, table Table) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	available := pageWidth - 30

	weights := make([]float64, len(table.Columns))
	var total float64
	for i, col := range table.Columns {
		longest := float64(len(col.Label))
		for _, row := range table.Rows {
			if l := float64(len(formatValue(row[col.Key]))); l > longest {
				longest = l
			}
		}
		if longest > 40 {
			longest = 40
		}
		weights[i] = longest
		total += longest
	}

	widths := make([]float64, len(weights))
	for i, weight := range weights {
		widths[i] = available * weight / total
	}
	return widths
}
