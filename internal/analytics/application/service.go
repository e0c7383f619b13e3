package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/domain"
	orderdomain "github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// DefaultWindowDays is used when a caller asks for a non-positive window.
const DefaultWindowDays = 30

type OrderSource interface {
	// EachSince calls fn for every order of the party created at or after since.
	// Iteration stops at the first error returned by fn.
	EachSince(ctx context.Context, party orderdomain.Party, userID string, since time.Time, fn func(domain.Entry) error) error
}

type Authorizer interface {
	Require(p access.Principal, c access.Capability) error
}

type Service struct {
	log    *slog.Logger
	source OrderSource
	guard  Authorizer
	now    func() time.Time
}

func NewService(log *slog.Logger, source OrderSource, guard Authorizer) *Service {
	return &Service{log: log, source: source, guard: guard, now: time.Now}
}

// WithClock replaces the wall clock used to anchor the window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Aggregate rolls up the caller's own orders on the given side over the last
// windowDays days. A principal may only aggregate the side its role owns.
func (s *Service) Aggregate(ctx context.Context, p access.Principal, party orderdomain.Party, windowDays int) (*domain.Report, error) {
	capability := access.VendorAnalytics
	if party == orderdomain.PartySupplier {
		capability = access.SupplierAnalytics
	}
	if err := s.guard.Require(p, capability); err != nil {
		return nil, err
	}
	if own, err := orderdomain.PartyFor(p.Role); err != nil || own != party {
		return nil, fmt.Errorf("%w: %s may not aggregate %s orders", apperr.ErrForbidden, p.Role, party)
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	since := s.now().UTC().AddDate(0, 0, -windowDays)
	report := domain.NewReport()
	err := s.source.EachSince(ctx, party, p.UserID, since, func(e domain.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Add(e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s orders: %w", party, err)
	}
	s.log.Debug("analytics aggregated", "user_id", p.UserID, "party", party.String(), "orders", report.TotalOrders)
	return report, nil
}
