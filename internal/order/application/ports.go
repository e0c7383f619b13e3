package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
)

type OrderRepository interface {
	// SaveWithOutbox persists o and its creation event in one transaction.
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error
	// Get returns apperr.ErrNotFound when no order has the id.
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByParty(ctx context.Context, party domain.Party, userID string, limit int) ([]domain.Order, error)
}

// CatalogProduct is the authoritative catalog view of a product at pricing time.
type CatalogProduct struct {
	ID               string
	SupplierID       string
	Name             string
	Price            decimal.Decimal
	Unit             string
	MinOrderQuantity int
	Active           bool
}

type PriceBook interface {
	// Products returns the products among ids that exist, keyed by id.
	Products(ctx context.Context, ids []string) (map[string]CatalogProduct, error)
}

type ProfileSource interface {
	// Counterparty returns apperr.ErrNotFound when the user does not exist.
	Counterparty(ctx context.Context, userID string) (domain.Counterparty, error)
}

type IdempotencyStore interface {
	Key(scope, token string) string
	Claim(ctx context.Context, key, value string) (string, bool, error)
	Release(ctx context.Context, key string) error
}

type Authorizer interface {
	Require(p access.Principal, c access.Capability) error
}
