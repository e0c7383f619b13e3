package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/invoice"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/httpx"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/idempotency"
)

// ResultLimitHeader is set on list responses that were cut off at the
// service's result cap. Its value is the cap.
const ResultLimitHeader = "X-Result-Limit"

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Protected(r)
	return r
}

// Protected registers the order routes. They expect an authenticated principal.
func (h *Handler) Protected(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}/receipt", h.receipt)
}

type lineReq struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Total     *decimal.Decimal `json:"total,omitempty"`
}

type createOrderReq struct {
	SupplierID      string    `json:"supplier_id"`
	Items           []lineReq `json:"items"`
	DeliveryAddress string    `json:"delivery_address"`
	DeliveryDate    string    `json:"delivery_date,omitempty"`
}

type itemResp struct {
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	Price       httpx.Amount `json:"price"`
	Unit        string       `json:"unit"`
	Total       httpx.Amount `json:"total"`
}

type orderResp struct {
	ID              string       `json:"id"`
	VendorID        string       `json:"vendor_id"`
	SupplierID      string       `json:"supplier_id"`
	Items           []itemResp   `json:"items"`
	Subtotal        httpx.Amount `json:"subtotal"`
	Tax             httpx.Amount `json:"tax"`
	Total           httpx.Amount `json:"total"`
	Status          string       `json:"status"`
	DeliveryAddress string       `json:"delivery_address"`
	DeliveryDate    *time.Time   `json:"delivery_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func toResp(o domain.Order) orderResp {
	items := make([]itemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemResp{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       httpx.Amount(it.Price),
			Unit:        it.Unit,
			Total:       httpx.Amount(it.Total),
		})
	}
	return orderResp{
		ID:              o.ID,
		VendorID:        o.VendorID,
		SupplierID:      o.SupplierID,
		Items:           items,
		Subtotal:        httpx.Amount(o.Subtotal),
		Tax:             httpx.Amount(o.Tax),
		Total:           httpx.Amount(o.Total),
		Status:          string(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		DeliveryDate:    o.DeliveryDate,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// parseDeliveryDate accepts RFC 3339 timestamps and plain dates.
func parseDeliveryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: delivery_date %q is not a date", apperr.ErrInvalidInput, s)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req createOrderReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	deliveryDate, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	in := application.CreateOrderInput{
		SupplierID:       req.SupplierID,
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryDate:     deliveryDate,
		IdempotencyToken: idempotency.FromRequest(r),
	}
	for _, l := range req.Items {
		in.Items = append(in.Items, application.LineRequest{ProductID: l.ProductID, Quantity: l.Quantity, Total: l.Total})
	}

	res, err := h.service.CreateOrder(ctx, p, in)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("order.id", res.Order.ID), attribute.Bool("order.replayed", res.Replayed))

	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	httpx.WriteJSON(w, code, toResp(res.Order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	orders, err := h.service.ListOrders(ctx, p)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResp(o))
	}
	if len(orders) >= application.ListLimit {
		w.Header().Set(ResultLimitHeader, strconv.Itoa(application.ListLimit))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetReceipt")
	defer span.End()

	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	rec, err := h.service.GetForReceipt(ctx, p, chi.URLParam(r, "id"))
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	doc, err := invoice.Render(rec.Order, rec.Vendor, rec.Supplier)
	if err != nil {
		httpx.WriteError(w, h.log, fmt.Errorf("%w: %v", apperr.ErrInternal, err))
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
