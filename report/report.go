// Package report renders a submitted form response as a PDF order document.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ezza-forms/backend/answers"
	"github.com/ezza-forms/backend/model"
)

// Generate writes the PDF document for one response. The formatted map is
// the output of answers.Format for this response.
func Generate(w io.Writer, form model.Form, resp model.FormResponse, client model.Client, formatted map[string]any) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(form.Title, true)
	pdf.SetAutoPageBreak(true, 25)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(44, 62, 80)
		pdf.Rect(0, 0, pageW, 28, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 20)
		pdf.Text(15, 16, tr("BON DE COMMANDE"))
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(150, 10, tr(fmt.Sprintf("N°: %06d", resp.ID)))
		pdf.Text(150, 15, tr("Date: "+resp.SubmittedAt.Format("02/01/2006")))
		pdf.Text(150, 20, tr("Client: "+client.CompanyName))
		pdf.SetY(34)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(173, 181, 189)
		pdf.CellFormat(0, 5, tr("Document généré le "+time.Now().Format("02/01/2006 15:04")), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// client block
	pdf.SetTextColor(73, 80, 87)
	pdf.SetFont("Helvetica", "BU", 12)
	pdf.CellFormat(0, 7, tr("INFORMATIONS CLIENT"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	status := string(resp.Status)
	if status == "" {
		status = "pending"
	}
	pdf.CellFormat(0, 6, tr("Société: "+client.CompanyName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Date de soumission: "+resp.SubmittedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Statut: "+status), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	for _, section := range form.Sections {
		if len(section.Fields) == 0 {
			continue
		}

		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(33, 37, 41)
		pdf.CellFormat(0, 9, tr(section.Title), "", 1, "L", false, 0, "")

		for _, field := range section.Fields {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(52, 58, 64)
			pdf.CellFormat(0, 6, tr(field.Label+":"), "", 1, "L", false, 0, "")

			value, ok := formatted[strconv.Itoa(field.ID)]
			if !ok {
				value = nil
			}
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(73, 80, 87)
			for _, line := range answers.Lines(value) {
				pdf.SetX(20)
				pdf.MultiCell(pageW-40, 5.5, tr(line), "", "L", false)
			}

			pdf.SetDrawColor(233, 236, 239)
			pdf.Line(15, pdf.GetY()+1, pageW-15, pdf.GetY()+1)
			pdf.Ln(4)
		}
		pdf.Ln(2)
	}

	// signature lines
	if pdf.GetY() > pageH-60 {
		pdf.AddPage()
	}
	y := pageH - 55
	pdf.SetY(y)
	pdf.SetFont("Helvetica", "U", 10)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 6, "SIGNATURES", "", 1, "C", false, 0, "")
	pdf.SetDrawColor(73, 80, 87)
	pdf.Line(pageW/2-45, y+18, pageW/2-10, y+18)
	pdf.Line(pageW/2+10, y+18, pageW/2+45, y+18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(pageW/2-35, y+23, "Client")
	pdf.Text(pageW/2+15, y+23, "Responsable")

	return pdf.Output(w)
}
