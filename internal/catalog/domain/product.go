package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

type Product struct {
	ID               string
	SupplierID       string
	Name             string
	Description      string
	Price            decimal.Decimal
	Unit             string
	Category         string
	MinOrderQuantity int
	StockQuantity    int
	Active           bool
	CreatedAt        time.Time
}

// Listing is what a supplier submits to publish a product.
type Listing struct {
	Name             string          `yaml:"name"`
	Description      string          `yaml:"description"`
	Price            decimal.Decimal `yaml:"price"`
	Unit             string          `yaml:"unit"`
	Category         string          `yaml:"category"`
	MinOrderQuantity int             `yaml:"min_order_quantity"`
	StockQuantity    int             `yaml:"stock_quantity"`
}

func (l Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.Name) == "":
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	case strings.TrimSpace(l.Unit) == "":
		return fmt.Errorf("%w: unit is required", apperr.ErrInvalidInput)
	case strings.TrimSpace(l.Category) == "":
		return fmt.Errorf("%w: category is required", apperr.ErrInvalidInput)
	case l.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", apperr.ErrInvalidInput)
	case l.MinOrderQuantity < 0 || l.StockQuantity < 0:
		return fmt.Errorf("%w: quantities must not be negative", apperr.ErrInvalidInput)
	}
	return nil
}

// NewProduct publishes l for supplierID. A zero minimum order quantity means 1.
func NewProduct(id, supplierID string, l Listing, now time.Time) (Product, error) {
	if err := l.Validate(); err != nil {
		return Product{}, err
	}
	minQty := l.MinOrderQuantity
	if minQty == 0 {
		minQty = 1
	}
	return Product{
		ID:               id,
		SupplierID:       supplierID,
		Name:             strings.TrimSpace(l.Name),
		Description:      l.Description,
		Price:            l.Price.Round(2),
		Unit:             strings.TrimSpace(l.Unit),
		Category:         strings.TrimSpace(l.Category),
		MinOrderQuantity: minQty,
		StockQuantity:    l.StockQuantity,
		Active:           true,
		CreatedAt:        now.UTC(),
	}, nil
}
