package application

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// ListLimit caps every product listing.
const ListLimit = 1000

//go:embed samples.yaml
var samplesYAML []byte

// SampleListings parses the bundled starter catalog.
func SampleListings() ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := yaml.Unmarshal(samplesYAML, &listings); err != nil {
		return nil, fmt.Errorf("parse sample catalog: %w", err)
	}
	return listings, nil
}

type Service struct {
	log   *slog.Logger
	repo  ProductRepository
	guard Authorizer
	now   func() time.Time
}

func NewService(log *slog.Logger, repo ProductRepository, guard Authorizer) *Service {
	return &Service{log: log, repo: repo, guard: guard, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p access.Principal, l domain.Listing) (domain.Product, error) {
	if err := s.guard.Require(p, access.PublishProduct); err != nil {
		return domain.Product{}, err
	}
	prod, err := domain.NewProduct(uuid.NewString(), p.UserID, l, s.now())
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.repo.Create(ctx, prod); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product published", "product_id", prod.ID, "supplier_id", p.UserID, "category", prod.Category)
	return prod, nil
}

// Seed publishes the sample catalog under the calling supplier.
func (s *Service) Seed(ctx context.Context, p access.Principal) (int, error) {
	if err := s.guard.Require(p, access.PublishProduct); err != nil {
		return 0, err
	}
	listings, err := SampleListings()
	if err != nil {
		return 0, err
	}
	now := s.now()
	products := make([]domain.Product, 0, len(listings))
	for _, l := range listings {
		prod, err := domain.NewProduct(uuid.NewString(), p.UserID, l, now)
		if err != nil {
			return 0, fmt.Errorf("sample %q: %w", l.Name, err)
		}
		products = append(products, prod)
	}
	if err := s.repo.Create(ctx, products...); err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}
	s.log.Info("sample catalog seeded", "supplier_id", p.UserID, "products", len(products))
	return len(products), nil
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.Active(ctx, strings.TrimSpace(category), ListLimit)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) ByCategory(ctx context.Context, p access.Principal, category string) ([]domain.Product, error) {
	if err := s.guard.Require(p, access.BrowseCategory); err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", apperr.ErrInvalidInput)
	}
	return s.repo.Active(ctx, category, ListLimit)
}

// Lookup returns the products among ids, keyed by id. Unknown ids are absent.
func (s *Service) Lookup(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := s.repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
