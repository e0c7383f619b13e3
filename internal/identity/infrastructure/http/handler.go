package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service, tracer: otel.Tracer("identity-http")}
}

func (h *Handler) Public(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/suppliers", h.suppliers)
}

func (h *Handler) Protected(r chi.Router) {
	r.Get("/me", h.me)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (access.Principal, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the request context.
func Authenticate(log *slog.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httpx.WriteError(w, log, apperr.ErrUnauthorized)
				return
			}
			p, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httpx.WriteError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
		})
	}
}

type registerReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	UserType     string `json:"user_type"`
	GSTNumber    string `json:"gst_number,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	UserType     string    `json:"user_type"`
	GSTNumber    string    `json:"gst_number,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userResp  `json:"user"`
}

func toResp(u domain.User) userResp {
	return userResp{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Address:      u.Address,
		UserType:     string(u.Role),
		GSTNumber:    u.GSTNumber,
		BusinessName: u.BusinessName,
		CreatedAt:    u.CreatedAt,
		IsActive:     u.Active,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	var req registerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	u, err := h.service.Register(ctx, application.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
		Role:         req.UserType,
		GSTNumber:    req.GSTNumber,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResp(u))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	sess, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken: sess.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        toResp(sess.User),
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := access.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, h.log, apperr.ErrUnauthorized)
		return
	}
	u, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResp(u))
}

func (h *Handler) suppliers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Suppliers(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toResp(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
