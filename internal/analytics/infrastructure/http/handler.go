package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/domain"
	orderdomain "github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/httpx"
)

type Handler struct {
	log        *slog.Logger
	service    *application.Service
	windowDays int
	tracer     trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, windowDays int) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		windowDays: windowDays,
		tracer:     otel.Tracer("analytics-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Protected(r)
	return r
}

func (h *Handler) Protected(r chi.Router) {
	r.Get("/analytics/vendor", h.aggregate(orderdomain.PartyVendor))
	r.Get("/analytics/supplier", h.aggregate(orderdomain.PartySupplier))
}

// labels name the amount fields the way each side reads them.
type labels struct {
	bucket, total string
}

var partyLabels = map[orderdomain.Party]labels{
	orderdomain.PartyVendor:   {bucket: "total", total: "total_spent"},
	orderdomain.PartySupplier: {bucket: "revenue", total: "total_revenue"},
}

func (h *Handler) aggregate(party orderdomain.Party) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "Aggregate", trace.WithAttributes(attribute.String("party", party.String())))
		defer span.End()

		p, ok := access.PrincipalFrom(ctx)
		if !ok {
			httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
			return
		}
		window := h.windowDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpx.WriteError(w, h.log, apperr.ErrInvalidInput)
				return
			}
			window = n
		}

		report, err := h.service.Aggregate(ctx, p, party, window)
		if err != nil {
			span.RecordError(err)
			httpx.WriteError(w, h.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, render(report, partyLabels[party]))
	}
}

type reportView struct {
	daily, weekly, monthly map[string]bucketView
	orders                 int
	total                  httpx.Amount
	totalLabel             string
}

func (v reportView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"daily":        v.daily,
		"weekly":       v.weekly,
		"monthly":      v.monthly,
		"total_orders": v.orders,
		v.totalLabel:   v.total,
	})
}

// bucketView is an order count plus an amount under a side-specific key.
type bucketView struct {
	orders int
	amount httpx.Amount
	label  string
}

func (b bucketView) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"order_count": b.orders, b.label: b.amount})
}

func render(r *domain.Report, l labels) reportView {
	conv := func(in map[string]*domain.Bucket) map[string]bucketView {
		out := make(map[string]bucketView, len(in))
		for k, b := range in {
			out[k] = bucketView{orders: b.Orders, amount: httpx.Amount(b.Amount), label: l.bucket}
		}
		return out
	}
	return reportView{
		daily:      conv(r.Daily),
		weekly:     conv(r.Weekly),
		monthly:    conv(r.Monthly),
		orders:     r.TotalOrders,
		total:      httpx.Amount(r.TotalAmount),
		totalLabel: l.total,
	}
}
