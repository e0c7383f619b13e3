package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("catalog-http")}
}

func (h *Handler) Public(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/categories", h.categories)
}

func (h *Handler) Protected(r chi.Router) {
	r.Post("/products", h.create)
	r.Get("/products/category/{name}", h.byCategory)
	r.Post("/seed-data", h.seed)
}

type productReq struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Unit             string          `json:"unit"`
	Category         string          `json:"category"`
	MinOrderQuantity int             `json:"min_order_quantity"`
	StockQuantity    int             `json:"stock_quantity"`
}

type productResp struct {
	ID               string       `json:"id"`
	SupplierID       string       `json:"supplier_id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Price            httpx.Amount `json:"price"`
	Unit             string       `json:"unit"`
	Category         string       `json:"category"`
	MinOrderQuantity int          `json:"min_order_quantity"`
	StockQuantity    int          `json:"stock_quantity"`
	CreatedAt        time.Time    `json:"created_at"`
	IsActive         bool         `json:"is_active"`
}

func toResp(p domain.Product) productResp {
	return productResp{
		ID:               p.ID,
		SupplierID:       p.SupplierID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            httpx.Amount(p.Price),
		Unit:             p.Unit,
		Category:         p.Category,
		MinOrderQuantity: p.MinOrderQuantity,
		StockQuantity:    p.StockQuantity,
		CreatedAt:        p.CreatedAt,
		IsActive:         p.Active,
	}
}

func writeProducts(w http.ResponseWriter, products []domain.Product) {
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toResp(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cats)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req productReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	prod, err := h.service.Create(ctx, p, domain.Listing(req))
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResp(prod))
}

func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := access.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		httpx.WriteError(w, h.log, apperr.ErrInvalidInput)
		return
	}
	products, err := h.service.ByCategory(r.Context(), p, name)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	writeProducts(w, products)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeedCatalog")
	defer span.End()

	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	n, err := h.service.Seed(ctx, p)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"seeded": n})
}
