package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/tracing"
)

// ListLimit caps how many orders List returns. Larger histories are truncated.
const ListLimit = 1000

// TotalTolerance is how far a client-computed line total may drift from the
// server's before the line is rejected.
var TotalTolerance = decimal.RequireFromString("0.01")

const eventOrderCreated = "OrderCreated"

const releaseTimeout = 2 * time.Second

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	prices   PriceBook
	profiles ProfileSource
	idem     IdempotencyStore
	guard    Authorizer
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithIdempotency enables idempotency tokens on Create.
func WithIdempotency(store IdempotencyStore) Option {
	return func(s *Service) { s.idem = store }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(log *slog.Logger, repo OrderRepository, prices PriceBook, profiles ProfileSource, guard Authorizer, opts ...Option) *Service {
	s := &Service{
		log:      log,
		repo:     repo,
		prices:   prices,
		profiles: profiles,
		guard:    guard,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type LineRequest struct {
	ProductID string
	Quantity  int
	// Total is the client's own line total, checked against the server's.
	Total *decimal.Decimal
}

type CreateOrderInput struct {
	SupplierID       string
	Items            []LineRequest
	DeliveryAddress  string
	DeliveryDate     *time.Time
	IdempotencyToken string
}

type CreateResult struct {
	Order domain.Order
	// Replayed is set when the idempotency token matched an earlier order.
	Replayed bool
}

func (s *Service) CreateOrder(ctx context.Context, p access.Principal, in CreateOrderInput) (CreateResult, error) {
	if err := s.guard.Require(p, access.CreateOrder); err != nil {
		return CreateResult{}, err
	}
	if err := validateInput(in); err != nil {
		return CreateResult{}, err
	}

	id := s.newID()
	var idemKey string
	if s.idem != nil && in.IdempotencyToken != "" {
		idemKey = s.idem.Key(p.UserID, in.IdempotencyToken)
		bound, won, err := s.idem.Claim(ctx, idemKey, id)
		if err != nil {
			return CreateResult{}, fmt.Errorf("claim idempotency token: %w", err)
		}
		if !won {
			return s.replay(ctx, p, bound)
		}
	}

	o, err := s.place(ctx, p, id, in)
	if err != nil {
		if idemKey != "" {
			s.release(ctx, idemKey)
		}
		return CreateResult{}, err
	}
	s.log.Info("order created", "order_id", o.ID, "vendor_id", o.VendorID, "supplier_id", o.SupplierID, "total", o.Total.StringFixed(domain.MoneyPlaces))
	return CreateResult{Order: o}, nil
}

// release frees an idempotency token whose order was never written. It runs
// even when ctx is already cancelled so a retry with the same token can proceed.
func (s *Service) release(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.idem.Release(ctx, key); err != nil {
		s.log.Error("release idempotency token failed", "key", key, "err", err)
	}
}

func (s *Service) place(ctx context.Context, p access.Principal, id string, in CreateOrderInput) (domain.Order, error) {
	items, err := s.price(ctx, in)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := domain.NewOrder(domain.NewOrderParams{
		ID:              id,
		VendorID:        p.UserID,
		SupplierID:      in.SupplierID,
		Items:           items,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryDate:    in.DeliveryDate,
		Now:             s.now(),
	})
	if err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.NewOrderCreated(o))
	if err != nil {
		return domain.Order{}, err
	}
	headers := map[string]string{"source": "order-ledger"}
	if err := s.repo.SaveWithOutbox(ctx, o, eventOrderCreated, payload, headers, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}
	return o, nil
}

// price snapshots name, unit and price from the catalog and recomputes every
// line total on the server.
func (s *Service) price(ctx context.Context, in CreateOrderInput) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(in.Items))
	for _, l := range in.Items {
		ids = append(ids, l.ProductID)
	}
	products, err := s.prices.Products(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load catalog prices: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for i, l := range in.Items {
		prod, ok := products[l.ProductID]
		if !ok || !prod.Active || prod.SupplierID != in.SupplierID {
			return nil, fmt.Errorf("%w: item %d: product %s is not offered by supplier %s", apperr.ErrInvalidInput, i+1, l.ProductID, in.SupplierID)
		}
		if l.Quantity < prod.MinOrderQuantity {
			return nil, fmt.Errorf("%w: item %d: minimum order quantity for %s is %d", apperr.ErrInvalidInput, i+1, prod.Name, prod.MinOrderQuantity)
		}
		total := domain.LineTotal(l.Quantity, prod.Price)
		if l.Total != nil && l.Total.Sub(total).Abs().GreaterThan(TotalTolerance) {
			return nil, fmt.Errorf("%w: item %d: total %s does not match %d x %s = %s", apperr.ErrInvalidInput,
				i+1, l.Total.StringFixed(2), l.Quantity, prod.Price.StringFixed(2), total.StringFixed(2))
		}
		items = append(items, domain.OrderItem{
			ProductID:   prod.ID,
			ProductName: prod.Name,
			Quantity:    l.Quantity,
			Price:       prod.Price,
			Unit:        prod.Unit,
			Total:       total,
		})
	}
	return items, nil
}

func (s *Service) replay(ctx context.Context, p access.Principal, orderID string) (CreateResult, error) {
	o, err := s.repo.Get(ctx, orderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return CreateResult{}, fmt.Errorf("%w: a request with this idempotency key is still in progress", apperr.ErrConflict)
	}
	if err != nil {
		return CreateResult{}, err
	}
	if o.VendorID != p.UserID {
		return CreateResult{}, fmt.Errorf("%w: idempotency key belongs to another vendor", apperr.ErrConflict)
	}
	s.log.Info("order replayed", "order_id", o.ID, "vendor_id", p.UserID)
	return CreateResult{Order: o, Replayed: true}, nil
}

func validateInput(in CreateOrderInput) error {
	if strings.TrimSpace(in.SupplierID) == "" {
		return fmt.Errorf("%w: supplier_id is required", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return fmt.Errorf("%w: delivery_address is required", apperr.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", apperr.ErrInvalidInput)
	}
	for i, l := range in.Items {
		if strings.TrimSpace(l.ProductID) == "" {
			return fmt.Errorf("%w: item %d: product_id is required", apperr.ErrInvalidInput, i+1)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: item %d: quantity must be positive, got %d", apperr.ErrInvalidInput, i+1, l.Quantity)
		}
		if l.Quantity > domain.MaxQuantity {
			return fmt.Errorf("%w: item %d: quantity %d exceeds %d", apperr.ErrInvalidInput, i+1, l.Quantity, domain.MaxQuantity)
		}
		if l.Total != nil && l.Total.IsNegative() {
			return fmt.Errorf("%w: item %d: total must not be negative", apperr.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// ListOrders returns the caller's orders from their own side, newest first,
// truncated at ListLimit.
func (s *Service) ListOrders(ctx context.Context, p access.Principal) ([]domain.Order, error) {
	if err := s.guard.Require(p, access.ListOrders); err != nil {
		return nil, err
	}
	party, err := domain.PartyFor(p.Role)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByParty(ctx, party, p.UserID, ListLimit)
}

// Receipt is an order with both counterparties resolved, ready for rendering.
type Receipt struct {
	Order    domain.Order
	Vendor   domain.Counterparty
	Supplier domain.Counterparty
}

func (s *Service) GetForReceipt(ctx context.Context, p access.Principal, orderID string) (Receipt, error) {
	if err := s.guard.Require(p, access.ReadReceipt); err != nil {
		return Receipt{}, err
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}
	if !o.HasParty(p.UserID) {
		return Receipt{}, fmt.Errorf("%w: order %s does not belong to you", apperr.ErrForbidden, orderID)
	}

	vendor, err := s.profiles.Counterparty(ctx, o.VendorID)
	if err != nil {
		return Receipt{}, fmt.Errorf("vendor profile: %w", err)
	}
	supplier, err := s.profiles.Counterparty(ctx, o.SupplierID)
	if err != nil {
		return Receipt{}, fmt.Errorf("supplier profile: %w", err)
	}
	return Receipt{Order: o, Vendor: vendor, Supplier: supplier}, nil
}
