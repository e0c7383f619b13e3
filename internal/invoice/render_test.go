package invoice

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
)

func sampleOrder(t *testing.T) domain.Order {
	t.Helper()
	o, err := domain.NewOrder(domain.NewOrderParams{
		ID:         "3f2a9c1e-77b0-4d8e-9a51-0c6d2e4f8b13",
		VendorID:   "vendor-1",
		SupplierID: "supplier-1",
		Items: []domain.OrderItem{
			{ProductID: "p1", ProductName: "Basmati Rice", Quantity: 25, Price: decimal.RequireFromString("65.00"), Unit: "kg", Total: decimal.RequireFromString("1625.00")},
			{ProductID: "p2", ProductName: "Sunflower Oil", Quantity: 3, Price: decimal.RequireFromString("110.00"), Unit: "litre", Total: decimal.RequireFromString("330.00")},
		},
		DeliveryAddress: "Stall 14, Juhu Beach",
		Now:             time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return o
}

var (
	vendorProfile   = domain.Counterparty{Name: "Ravi Chaat Corner", Address: "Juhu, Mumbai", Phone: "9820000000", Email: "ravi@example.com", TradeName: "Ravi Chaat"}
	supplierProfile = domain.Counterparty{Name: "Fresh Grains Co", Address: "APMC Vashi", Phone: "9830000000", Email: "sales@freshgrains.example", TaxNumber: "27AAACF1234A1Z5"}
)

func TestRenderIsDeterministic(t *testing.T) {
	o := sampleOrder(t)

	first, err := Render(o, vendorProfile, supplierProfile)
	require.NoError(t, err)
	second, err := Render(o, vendorProfile, supplierProfile)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first.Body, []byte("%PDF-")))
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, "receipt_3F2A9C1E.pdf", first.Filename)
	assert.Equal(t, ContentType, first.ContentType)
}

func TestRenderDependsOnOrder(t *testing.T) {
	o := sampleOrder(t)
	base, err := Render(o, vendorProfile, supplierProfile)
	require.NoError(t, err)

	o.Status = domain.StatusDelivered
	changed, err := Render(o, vendorProfile, supplierProfile)
	require.NoError(t, err)
	assert.NotEqual(t, base.Body, changed.Body)
}

func TestRenderMissingProfileFields(t *testing.T) {
	doc, err := Render(sampleOrder(t), domain.Counterparty{Name: "Anon"}, domain.Counterparty{})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Body)
}

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"2306.9":  "₹2306.90",
		"0":       "₹0.00",
		"351.895": "₹351.90",
		"12":      "₹12.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), in)
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "N/A", orNA("   "))
	assert.Equal(t, "27AAACF1234A1Z5", orNA("27AAACF1234A1Z5"))
}

func TestFitKeepsTextInsideCell(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.SetFont(fontFamily, "", 9)
	width := itemWidths[1]

	assert.Equal(t, "Basmati Rice", fit(pdf, "Basmati Rice", width))

	long := "Extra Long Grain Aged Premium Basmati Rice, Double Polished, 25 kg Jute Sack"
	got := fit(pdf, long, width)
	assert.True(t, strings.HasSuffix(got, ellipsis), got)
	assert.Less(t, len(got), len(long))
	assert.LessOrEqual(t, pdf.GetStringWidth(got), width-cellPadding)
}

func TestRenderLongProductName(t *testing.T) {
	o := sampleOrder(t)
	o.Items[0].ProductName = strings.Repeat("Premium Basmati Rice ", 8)
	doc, err := Render(o, vendorProfile, supplierProfile)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF-")))
}
