package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	analyticsdomain "github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// Event is an outbox record captured by the in-memory repository.
type Event struct {
	Type        string
	AggregateID string
	Payload     []byte
	Headers     map[string]string
	Traceparent string
}

// Repository keeps orders in process memory. It is safe for concurrent use.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	events []Event
}

func NewRepository() *Repository {
	return &Repository{orders: make(map[string]domain.Order)}
}

var _ application.OrderRepository = (*Repository)(nil)

func (r *Repository) SaveWithOutbox(_ context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", apperr.ErrConflict, o.ID)
	}
	r.orders[o.ID] = o
	r.events = append(r.events, Event{Type: eventType, AggregateID: o.ID, Payload: payload, Headers: headers, Traceparent: traceparent})
	return nil
}

func (r *Repository) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	return o, nil
}

func (r *Repository) ListByParty(_ context.Context, party domain.Party, userID string, limit int) ([]domain.Order, error) {
	out := r.filter(party, userID, time.Time{})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// EachSince feeds the analytics aggregator in creation order.
func (r *Repository) EachSince(ctx context.Context, party domain.Party, userID string, since time.Time, fn func(analyticsdomain.Entry) error) error {
	out := r.filter(party, userID, since)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	for _, o := range out {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(analyticsdomain.Entry{CreatedAt: o.CreatedAt, Total: o.Total}); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the outbox records written so far.
func (r *Repository) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *Repository) filter(party domain.Party, userID string, since time.Time) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.orders {
		owner := o.VendorID
		if party == domain.PartySupplier {
			owner = o.SupplierID
		}
		if owner == userID && !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out
}
