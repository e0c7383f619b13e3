// Package invoice renders order receipts as fixed-layout PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
)

const (
	ContentType = "application/pdf"
	Placeholder = "N/A"

	fontFamily = "Go"
	lineHeight = 6.0
	// cellPadding is fpdf's default left plus right cell margin.
	cellPadding = 2.0
	ellipsis    = "..."
)

var (
	itemWidths  = []float64{12, 58, 22, 22, 28, 28}
	itemHeaders = []string{"S.No", "Product Name", "Quantity", "Unit", "Rate", "Amount"}
	partyWidth  = 85.0
)

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// FormatCurrency prints an amount in rupees with two decimals.
func FormatCurrency(d decimal.Decimal) string {
	return "₹" + d.StringFixed(domain.MoneyPlaces)
}

// Filename is the attachment name used for an order's receipt.
func Filename(o domain.Order) string {
	return fmt.Sprintf("receipt_%s.pdf", o.ShortID())
}

// Render lays out the invoice for o. The output depends only on its inputs:
// the document dates are pinned to the order's creation time.
func Render(o domain.Order, vendor, supplier domain.Counterparty) (Document, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(o.CreatedAt)
	pdf.SetModificationDate(o.CreatedAt)
	pdf.SetTitle("Invoice "+o.ShortID(), true)
	pdf.SetCreator("StreetFood Connect", true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.AddPage()

	header(pdf, o)
	parties(pdf, vendor, supplier)
	items(pdf, o)

	pdf.Ln(12)
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, lineHeight, "Thank you for your business!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("render invoice %s: %w", o.ID, err)
	}
	return Document{Filename: Filename(o), ContentType: ContentType, Body: buf.Bytes()}, nil
}

func header(pdf *fpdf.Fpdf, o domain.Order) {
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 10, "TAX INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, lineHeight, "Invoice No: "+o.ShortID(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Date: "+o.CreatedAt.UTC().Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Status: "+strings.ToUpper(string(o.Status)), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// parties prints the supplier on the left and the vendor on the right.
func parties(pdf *fpdf.Fpdf, vendor, supplier domain.Counterparty) {
	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(partyWidth, lineHeight+1, "Supplier Details", "1", 0, "L", true, 0, "")
	pdf.CellFormat(partyWidth, lineHeight+1, "Vendor Details", "1", 1, "L", true, 0, "")

	left := []string{
		"Name: " + orNA(supplier.Name),
		"Address: " + orNA(supplier.Address),
		"Phone: " + orNA(supplier.Phone),
		"Email: " + orNA(supplier.Email),
		"GST Number: " + orNA(supplier.TaxNumber),
	}
	right := []string{
		"Name: " + orNA(vendor.Name),
		"Address: " + orNA(vendor.Address),
		"Phone: " + orNA(vendor.Phone),
		"Email: " + orNA(vendor.Email),
		"Business Name: " + orNA(vendor.TradeName),
	}
	pdf.SetFont(fontFamily, "", 9)
	for i := range left {
		pdf.CellFormat(partyWidth, lineHeight, fit(pdf, left[i], partyWidth), "LR", 0, "L", false, 0, "")
		pdf.CellFormat(partyWidth, lineHeight, fit(pdf, right[i], partyWidth), "LR", 1, "L", false, 0, "")
	}
	pdf.CellFormat(partyWidth*2, 0, "", "T", 1, "", false, 0, "")
	pdf.Ln(8)
}

func items(pdf *fpdf.Fpdf, o domain.Order) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range itemHeaders {
		pdf.CellFormat(itemWidths[i], lineHeight+1, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 9)
	for n, item := range o.Items {
		row := []string{
			strconv.Itoa(n + 1),
			item.ProductName,
			strconv.Itoa(item.Quantity),
			item.Unit,
			FormatCurrency(item.Price),
			FormatCurrency(item.Total),
		}
		for i, cell := range row {
			align := "L"
			switch i {
			case 0, 2:
				align = "C"
			case 4, 5:
				align = "R"
			}
			pdf.CellFormat(itemWidths[i], lineHeight, fit(pdf, cell, itemWidths[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	labelWidth := 0.0
	for _, w := range itemWidths[:len(itemWidths)-1] {
		labelWidth += w
	}
	amountWidth := itemWidths[len(itemWidths)-1]
	totals := []struct {
		label  string
		amount decimal.Decimal
		style  string
	}{
		{"Subtotal:", o.Subtotal, ""},
		{"Tax (18%):", o.Tax, ""},
		{"TOTAL:", o.Total, "B"},
	}
	for _, t := range totals {
		pdf.SetFont(fontFamily, t.style, 10)
		pdf.CellFormat(labelWidth, lineHeight+1, t.label, "1", 0, "R", false, 0, "")
		pdf.CellFormat(amountWidth, lineHeight+1, FormatCurrency(t.amount), "1", 1, "R", false, 0, "")
	}
}

// fit shortens s with an ellipsis so it stays inside a cell of the given
// width in the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	room := width - cellPadding
	if pdf.GetStringWidth(s) <= room {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+ellipsis) > room {
		r = r[:len(r)-1]
	}
	return strings.TrimRight(string(r), " ") + ellipsis
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
