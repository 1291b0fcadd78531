// Package statement renders an account's transaction history as a
// downloadable PDF or XLSX document.
package statement

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatXLSX:
		return Format(s), nil
	}
	return "", apperr.Validation("format must be pdf or xlsx")
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Statement is the history of one account. Direction is derived per row
// from the owner id.
type Statement struct {
	OwnerID      string
	Owner        models.Summary
	Transactions []models.Transaction
	GeneratedAt  time.Time
}

var header = []string{"Transaction ID", "Type", "Direction", "Amount", "Fee", "Date"}

func (s Statement) rows() [][]string {
	out := make([][]string, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		dir := "IN"
		if t.SenderID == s.OwnerID {
			dir = "OUT"
		}
		out = append(out, []string{
			t.TransactionID,
			string(t.Type),
			dir,
			t.Amount.String(),
			t.Fee.String(),
			t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return out
}

func (s Statement) Write(w io.Writer, f Format) error {
	switch f {
	case FormatPDF:
		return s.writePDF(w)
	case FormatXLSX:
		return s.writeXLSX(w)
	}
	return apperr.Validation("format must be pdf or xlsx")
}

func (s Statement) writePDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Transaction Statement")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(40, 7, fmt.Sprintf("%s (%s)", s.Owner.Name, s.Owner.MobileNumber))
	pdf.Ln(6)
	pdf.Cell(40, 7, "Generated "+s.GeneratedAt.UTC().Format(time.RFC3339))
	pdf.Ln(10)

	widths := []float64{30, 28, 22, 30, 20, 50}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "", false, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	for _, r := range s.rows() {
		for i, c := range r {
			align := ""
			if i == 3 || i == 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(7)
	}
	return pdf.Output(w)
}

func (s Statement) writeXLSX(w io.Writer) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transactions")
	if err != nil {
		return err
	}
	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetValue(h)
	}
	for _, r := range s.rows() {
		row = sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetValue(c)
		}
	}
	return file.Write(w)
}
