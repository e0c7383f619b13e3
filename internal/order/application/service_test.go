package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/infrastructure/memory"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/idempotency"
)

var (
	vendor   = access.Principal{UserID: "vendor-1", Role: access.RoleVendor}
	vendor2  = access.Principal{UserID: "vendor-2", Role: access.RoleVendor}
	supplier = access.Principal{UserID: "supplier-1", Role: access.RoleSupplier}
	stranger = access.Principal{UserID: "supplier-9", Role: access.RoleSupplier}
)

type priceBook map[string]application.CatalogProduct

func (b priceBook) Products(_ context.Context, ids []string) (map[string]application.CatalogProduct, error) {
	out := make(map[string]application.CatalogProduct)
	for _, id := range ids {
		if p, ok := b[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type profiles map[string]domain.Counterparty

func (p profiles) Counterparty(_ context.Context, id string) (domain.Counterparty, error) {
	c, ok := p[id]
	if !ok {
		return domain.Counterparty{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return c, nil
}

func catalog() priceBook {
	mk := func(id, name, price, unit string, min int) application.CatalogProduct {
		return application.CatalogProduct{ID: id, SupplierID: "supplier-1", Name: name,
			Price: decimal.RequireFromString(price), Unit: unit, MinOrderQuantity: min, Active: true}
	}
	b := priceBook{
		"p-tomato": mk("p-tomato", "Fresh Tomatoes", "45.50", "kg", 5),
		"p-buns":   mk("p-buns", "Buns", "60.00", "unit", 1),
		"p-oil":    mk("p-oil", "Sunflower Oil", "1200.00", "tin", 1),
	}
	other := mk("p-other", "Paneer", "250.00", "kg", 1)
	other.SupplierID = "supplier-2"
	b["p-other"] = other
	retired := mk("p-retired", "Old Stock", "1.00", "kg", 1)
	retired.Active = false
	b["p-retired"] = retired
	return b
}

type fixture struct {
	svc  *application.Service
	repo *memory.Repository
	now  time.Time
}

func newFixture(t *testing.T, opts ...application.Option) fixture {
	t.Helper()
	guard, err := access.NewGuard()
	require.NoError(t, err)
	repo := memory.NewRepository()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	people := profiles{
		"vendor-1":   {Name: "Ravi Chaat Corner", Address: "MG Road", Phone: "98450", Email: "ravi@example.com", TradeName: "Ravi Chaat"},
		"supplier-1": {Name: "Fresh Farms", Address: "APMC Yard", Phone: "80412", Email: "sales@freshfarms.in", TaxNumber: "29ABCDE1234F1Z5"},
	}
	opts = append([]application.Option{application.WithClock(func() time.Time { return now })}, opts...)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log, repo, catalog(), people, guard, opts...)
	return fixture{svc: svc, repo: repo, now: now}
}

func scenarioInput() application.CreateOrderInput {
	total := decimal.RequireFromString("455.00")
	return application.CreateOrderInput{
		SupplierID: "supplier-1",
		Items: []application.LineRequest{
			{ProductID: "p-tomato", Quantity: 10, Total: &total},
			{ProductID: "p-buns", Quantity: 5},
			{ProductID: "p-oil", Quantity: 1},
		},
		DeliveryAddress: "Stall 4, MG Road",
	}
}

func TestCreateOrderScenario(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateOrder(context.Background(), vendor, scenarioInput())
	require.NoError(t, err)
	o := res.Order

	assert.False(t, res.Replayed)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "vendor-1", o.VendorID)
	assert.Equal(t, "supplier-1", o.SupplierID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, f.now, o.CreatedAt)
	assert.Equal(t, "1955.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "351.90", o.Tax.StringFixed(2))
	assert.Equal(t, "2306.90", o.Total.StringFixed(2))

	require.Len(t, o.Items, 3)
	assert.Equal(t, "Fresh Tomatoes", o.Items[0].ProductName)
	assert.Equal(t, "kg", o.Items[0].Unit)
	assert.Equal(t, "300.00", o.Items[1].Total.StringFixed(2))

	stored, err := f.repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total, stored.Total)

	events := f.repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "OrderCreated", events[0].Type)
	assert.Equal(t, o.ID, events[0].AggregateID)
	assert.Contains(t, string(events[0].Payload), `"total":"2306.90"`)
}

func TestCreateOrderRejectsSupplier(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), supplier, scenarioInput())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Zero(t, f.repo.Len())
	assert.Empty(t, f.repo.Events())
}

func TestCreateOrderInvalidInput(t *testing.T) {
	wrong := decimal.RequireFromString("400.00")
	near := decimal.RequireFromString("455.01")
	cases := []struct {
		name    string
		mutate  func(*application.CreateOrderInput)
		wantErr error
	}{
		{"no items", func(in *application.CreateOrderInput) { in.Items = nil }, apperr.ErrInvalidInput},
		{"no supplier", func(in *application.CreateOrderInput) { in.SupplierID = " " }, apperr.ErrInvalidInput},
		{"no address", func(in *application.CreateOrderInput) { in.DeliveryAddress = "" }, apperr.ErrInvalidInput},
		{"zero quantity", func(in *application.CreateOrderInput) { in.Items[1].Quantity = 0 }, apperr.ErrInvalidInput},
		{"blank product", func(in *application.CreateOrderInput) { in.Items[0].ProductID = "" }, apperr.ErrInvalidInput},
		{"unknown product", func(in *application.CreateOrderInput) { in.Items[0].ProductID = "p-missing" }, apperr.ErrInvalidInput},
		{"other supplier's product", func(in *application.CreateOrderInput) { in.Items[0].ProductID = "p-other" }, apperr.ErrInvalidInput},
		{"inactive product", func(in *application.CreateOrderInput) { in.Items[0].ProductID = "p-retired" }, apperr.ErrInvalidInput},
		{"below minimum quantity", func(in *application.CreateOrderInput) { in.Items[0].Quantity = 4; in.Items[0].Total = nil }, apperr.ErrInvalidInput},
		{"tampered total", func(in *application.CreateOrderInput) { in.Items[0].Total = &wrong }, apperr.ErrInvalidInput},
		{"quantity beyond int32", func(in *application.CreateOrderInput) {
			in.Items[1].Quantity = domain.MaxQuantity + 1
		}, apperr.ErrInvalidInput},
		{"line total beyond column", func(in *application.CreateOrderInput) { in.Items[2].Quantity = 1_000_000_000 }, apperr.ErrInvalidInput},
		{"total within tolerance", func(in *application.CreateOrderInput) { in.Items[0].Total = &near }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := scenarioInput()
			tc.mutate(&in)
			res, err := f.svc.CreateOrder(context.Background(), vendor, in)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "455.00", res.Order.Items[0].Total.StringFixed(2))
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, f.repo.Len())
		})
	}
}

func TestCreateOrderWithoutTokenIsNotDeduplicated(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateOrder(context.Background(), vendor, scenarioInput())
	require.NoError(t, err)
	b, err := f.svc.CreateOrder(context.Background(), vendor, scenarioInput())
	require.NoError(t, err)
	assert.NotEqual(t, a.Order.ID, b.Order.ID)
	assert.Equal(t, 2, f.repo.Len())
}

func newIdempotencyStore(t *testing.T) *idempotency.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return idempotency.NewStore(rdb, time.Minute)
}

func TestCreateOrderIdempotencyReplay(t *testing.T) {
	f := newFixture(t, application.WithIdempotency(newIdempotencyStore(t)))
	in := scenarioInput()
	in.IdempotencyToken = "cart-42"

	first, err := f.svc.CreateOrder(context.Background(), vendor, in)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(context.Background(), vendor, in)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 1, f.repo.Len())

	// tokens are scoped per vendor
	other, err := f.svc.CreateOrder(context.Background(), vendor2, in)
	require.NoError(t, err)
	assert.False(t, other.Replayed)
	assert.Equal(t, 2, f.repo.Len())
}

func TestCreateOrderIdempotencyReleasedOnFailure(t *testing.T) {
	f := newFixture(t, application.WithIdempotency(newIdempotencyStore(t)))
	in := scenarioInput()
	in.IdempotencyToken = "cart-7"
	in.Items[0].ProductID = "p-missing"

	_, err := f.svc.CreateOrder(context.Background(), vendor, in)
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	in = scenarioInput()
	in.IdempotencyToken = "cart-7"
	res, err := f.svc.CreateOrder(context.Background(), vendor, in)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
}

// cancellingRepo cancels the caller's context while the order is being saved,
// like a client that disconnects mid-request.
type cancellingRepo struct {
	*memory.Repository
	cancel context.CancelFunc
}

func (r cancellingRepo) SaveWithOutbox(ctx context.Context, _ domain.Order, _ string, _ []byte, _ map[string]string, _ string) error {
	r.cancel()
	return ctx.Err()
}

func TestCreateOrderIdempotencyReleasedOnCancel(t *testing.T) {
	guard, err := access.NewGuard()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newIdempotencyStore(t)
	in := scenarioInput()
	in.IdempotencyToken = "cart-cancel"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	failing := application.NewService(log, cancellingRepo{Repository: memory.NewRepository(), cancel: cancel}, catalog(), profiles{}, guard,
		application.WithIdempotency(store))
	_, err = failing.CreateOrder(ctx, vendor, in)
	require.ErrorIs(t, err, context.Canceled)

	f := newFixture(t, application.WithIdempotency(store))
	res, err := f.svc.CreateOrder(context.Background(), vendor, in)
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, 1, f.repo.Len())
}

func TestCreateOrderConcurrentSameToken(t *testing.T) {
	f := newFixture(t, application.WithIdempotency(newIdempotencyStore(t)))

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := scenarioInput()
			in.IdempotencyToken = "same"
			res, err := f.svc.CreateOrder(context.Background(), vendor, in)
			if err == nil {
				ids[i] = res.Order.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.repo.Len())
	for _, id := range ids {
		if id != "" {
			_, err := f.repo.Get(context.Background(), id)
			assert.NoError(t, err)
		}
	}
}

func TestListOrdersScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.CreateOrder(ctx, vendor, scenarioInput())
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, vendor2, scenarioInput())
	require.NoError(t, err)

	mine, err := f.svc.ListOrders(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.Order.ID, mine[0].ID)

	theirs, err := f.svc.ListOrders(ctx, supplier)
	require.NoError(t, err)
	assert.Len(t, theirs, 2)

	none, err := f.svc.ListOrders(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListOrders(ctx, access.Principal{UserID: "x", Role: "admin"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetForReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateOrder(ctx, vendor, scenarioInput())
	require.NoError(t, err)
	id := res.Order.ID

	for _, p := range []access.Principal{vendor, supplier} {
		r, err := f.svc.GetForReceipt(ctx, p, id)
		require.NoError(t, err)
		assert.Equal(t, id, r.Order.ID)
		assert.Equal(t, "Ravi Chaat Corner", r.Vendor.Name)
		assert.Equal(t, "29ABCDE1234F1Z5", r.Supplier.TaxNumber)
	}

	_, err = f.svc.GetForReceipt(ctx, vendor2, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.GetForReceipt(ctx, stranger, id)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.GetForReceipt(ctx, vendor, "no-such-order")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetForReceiptMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateOrder(ctx, vendor2, scenarioInput())
	require.NoError(t, err)

	_, err = f.svc.GetForReceipt(ctx, vendor2, res.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
