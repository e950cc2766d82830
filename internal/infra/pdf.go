package infra

// pdf.go — invoice PDF generation using go-pdf/fpdf.
// Generates an A4 invoice with clinic header, client block, item table,
// subtotal / tax / total lines and a footer.
// The output file is saved to storagePath/{invoice_number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateInvoicePDF renders an invoice to disk and returns the file path.
// The invoice must have Items and Client preloaded.
func GenerateInvoicePDF(inv *model.Invoice, clinicName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("%s.pdf", inv.InvoiceNumber)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, clinicName, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Invoice "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Issued: "+inv.IssueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Due: "+inv.DueDate.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Client block ──────────────────────────────────────────────────────────
	if inv.Client != nil {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 6, "Billed to", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW, 5, inv.Client.FullName(), "", 1, "L", false, 0, "")
		if inv.Client.Email != nil {
			pdf.CellFormat(contentW, 5, *inv.Client.Email, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Item table ────────────────────────────────────────────────────────────
	col1 := contentW * 0.46 // description
	col2 := contentW * 0.12 // qty
	col3 := contentW * 0.16 // unit price
	col4 := contentW * 0.10 // discount
	col5 := contentW * 0.16 // line total

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Description", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Unit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Disc", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col5, 6, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i := range inv.Items {
		item := &inv.Items[i]
		desc := item.Description
		if len(desc) > 48 {
			desc = desc[:47] + "…"
		}
		discount := ""
		if !item.DiscountPercentage.IsZero() {
			discount = item.DiscountPercentage.StringFixed(0) + "%"
		}
		pdf.CellFormat(col1, 6, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, discount, "", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, "$"+item.Total().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := col1 + col2 + col3 + col4

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(labelW, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col5, 6, "$"+inv.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")

	if !inv.TaxPercentage.IsZero() {
		taxLabel := fmt.Sprintf("Tax (%s%%):", inv.TaxPercentage.StringFixed(0))
		pdf.CellFormat(labelW, 6, taxLabel, "", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, "$"+inv.TaxAmount().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(col5, 8, "$"+inv.TotalAmount().StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ────────────────────────────────────────────────────────────────
	if inv.Notes != nil && *inv.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, *inv.Notes, "", "L", false)
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, "Thank you for trusting us with your pet's care.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
