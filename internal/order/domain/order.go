package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// MoneyPlaces is the number of decimal places every stored amount carries.
const MoneyPlaces = 2

// MaxQuantity is the largest quantity one line may carry. Quantities are
// stored as 32-bit integers.
const MaxQuantity = math.MaxInt32

// MaxAmount is the largest amount the ledger stores, NUMERIC(14,2).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// TaxRate is applied to the subtotal of every order.
var TaxRate = decimal.RequireFromString("0.18")

type Order struct {
	ID              string
	VendorID        string
	SupplierID      string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          OrderStatus
	DeliveryAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeliveryDate    *time.Time
}

// OrderItem is a line snapshot taken when the order is placed.
type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Unit        string
	Total       decimal.Decimal
}

// LineTotal is quantity × unit price at money precision.
func LineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(MoneyPlaces)
}

// Tax returns the tax owed on subtotal, rounded half away from zero.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(MoneyPlaces)
}

type NewOrderParams struct {
	ID              string
	VendorID        string
	SupplierID      string
	Items           []OrderItem
	DeliveryAddress string
	DeliveryDate    *time.Time
	Now             time.Time
}

// NewOrder validates the line items and derives subtotal, tax and total from them.
func NewOrder(p NewOrderParams) (Order, error) {
	if err := ValidateItems(p.Items); err != nil {
		return Order{}, err
	}
	subtotal := decimal.Zero
	for _, item := range p.Items {
		subtotal = subtotal.Add(item.Total)
	}
	subtotal = subtotal.Round(MoneyPlaces)
	tax := Tax(subtotal)
	if total := subtotal.Add(tax); total.GreaterThan(MaxAmount) {
		return Order{}, fmt.Errorf("%w: order total %s exceeds %s", apperr.ErrInvalidInput, total.StringFixed(MoneyPlaces), MaxAmount.StringFixed(MoneyPlaces))
	}

	now := p.Now.UTC()
	return Order{
		ID:              p.ID,
		VendorID:        p.VendorID,
		SupplierID:      p.SupplierID,
		Items:           p.Items,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           subtotal.Add(tax),
		Status:          StatusPending,
		DeliveryAddress: p.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
		DeliveryDate:    p.DeliveryDate,
	}, nil
}

func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", apperr.ErrInvalidInput)
	}
	for i, item := range items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			return fmt.Errorf("%w: item %d: product_id is required", apperr.ErrInvalidInput, i+1)
		case item.Quantity <= 0:
			return fmt.Errorf("%w: item %d: quantity must be positive, got %d", apperr.ErrInvalidInput, i+1, item.Quantity)
		case item.Quantity > MaxQuantity:
			return fmt.Errorf("%w: item %d: quantity %d exceeds %d", apperr.ErrInvalidInput, i+1, item.Quantity, MaxQuantity)
		case item.Price.IsNegative():
			return fmt.Errorf("%w: item %d: price must not be negative", apperr.ErrInvalidInput, i+1)
		case item.Total.IsNegative():
			return fmt.Errorf("%w: item %d: total must not be negative", apperr.ErrInvalidInput, i+1)
		case item.Price.GreaterThan(MaxAmount), item.Total.GreaterThan(MaxAmount):
			return fmt.Errorf("%w: item %d: amount exceeds %s", apperr.ErrInvalidInput, i+1, MaxAmount.StringFixed(MoneyPlaces))
		}
	}
	return nil
}

// Party selects which side of an order a query is scoped to.
type Party int

const (
	PartyVendor Party = iota
	PartySupplier
)

// PartyFor maps a role to the order side it owns.
func PartyFor(r access.Role) (Party, error) {
	switch r {
	case access.RoleVendor:
		return PartyVendor, nil
	case access.RoleSupplier:
		return PartySupplier, nil
	default:
		return 0, fmt.Errorf("%w: role %q owns no orders", apperr.ErrForbidden, r)
	}
}

// Column is the orders column holding this party's user id.
func (p Party) Column() string {
	if p == PartySupplier {
		return "supplier_id"
	}
	return "vendor_id"
}

func (p Party) String() string {
	if p == PartySupplier {
		return "supplier"
	}
	return "vendor"
}

// HasParty reports whether userID is the vendor or the supplier of o.
func (o Order) HasParty(userID string) bool {
	return userID != "" && (o.VendorID == userID || o.SupplierID == userID)
}

// ShortID is the human-facing prefix of the order id.
func (o Order) ShortID() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// Counterparty is the profile of one side of an order as printed on invoices.
// TaxNumber is only set for suppliers, TradeName only for vendors.
type Counterparty struct {
	Name      string
	Address   string
	Phone     string
	Email     string
	TaxNumber string
	TradeName string
}
