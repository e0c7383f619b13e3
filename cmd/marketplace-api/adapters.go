package main

import (
	"context"

	catalogapp "github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/application"
	identityapp "github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	orderapp "github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	orderdomain "github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
)

// priceBook exposes the catalog to order pricing.
type priceBook struct {
	catalog *catalogapp.Service
}

func (b priceBook) Products(ctx context.Context, ids []string) (map[string]orderapp.CatalogProduct, error) {
	found, err := b.catalog.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]orderapp.CatalogProduct, len(found))
	for id, p := range found {
		out[id] = orderapp.CatalogProduct{
			ID:               p.ID,
			SupplierID:       p.SupplierID,
			Name:             p.Name,
			Price:            p.Price,
			Unit:             p.Unit,
			MinOrderQuantity: p.MinOrderQuantity,
			Active:           p.Active,
		}
	}
	return out, nil
}

// profileSource resolves order parties to their invoice profiles.
type profileSource struct {
	identity *identityapp.Service
}

func (s profileSource) Counterparty(ctx context.Context, userID string) (orderdomain.Counterparty, error) {
	u, err := s.identity.Profile(ctx, userID)
	if err != nil {
		return orderdomain.Counterparty{}, err
	}
	return orderdomain.Counterparty{
		Name:      u.Name,
		Address:   u.Address,
		Phone:     u.Phone,
		Email:     u.Email,
		TaxNumber: u.GSTNumber,
		TradeName: u.BusinessName,
	}, nil
}
