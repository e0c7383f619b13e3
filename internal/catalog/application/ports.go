package application

import (
	"context"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, products ...domain.Product) error
	// Active lists active products, optionally restricted to one category.
	Active(ctx context.Context, category string, limit int) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// ByIDs returns the products among ids that exist, active or not.
	ByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type Authorizer interface {
	Require(p access.Principal, c access.Capability) error
}
