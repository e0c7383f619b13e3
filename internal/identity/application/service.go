package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// SupplierLimit caps the supplier directory.
const SupplierLimit = 1000

type Service struct {
	log    *slog.Logger
	users  UserRepository
	tokens *Tokens
	cost   int
	now    func() time.Time
}

type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

func NewService(log *slog.Logger, users UserRepository, tokens *Tokens, opts ...Option) *Service {
	s := &Service{log: log, users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	Phone        string
	Address      string
	Role         string
	GSTNumber    string
	BusinessName string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	role, err := access.ParseRole(in.Role)
	if err != nil {
		return domain.User{}, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email", apperr.ErrInvalidInput)
	}
	if in.Password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(addr.Address),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	// The tax number belongs to suppliers, the trading name to vendors.
	if role == access.RoleSupplier {
		u.GSTNumber = strings.TrimSpace(in.GSTNumber)
	} else {
		u.BusinessName = strings.TrimSpace(in.BusinessName)
	}

	if err := s.users.Create(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        domain.User
}

var errBadCredentials = errors.New("invalid credentials")

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return Session{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errBadCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	if !u.Active || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errBadCredentials)
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: token, ExpiresAt: exp, User: u}, nil
}

// Authenticate resolves a bearer token to the principal of an existing, active user.
func (s *Service) Authenticate(ctx context.Context, token string) (access.Principal, error) {
	p, err := s.tokens.Verify(token)
	if err != nil {
		return access.Principal{}, err
	}
	u, err := s.users.ByID(ctx, p.UserID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !u.Active) {
		return access.Principal{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errBadToken)
	}
	if err != nil {
		return access.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *Service) Me(ctx context.Context, p access.Principal) (domain.User, error) {
	return s.users.ByID(ctx, p.UserID)
}

func (s *Service) Suppliers(ctx context.Context) ([]domain.User, error) {
	return s.users.ActiveByRole(ctx, access.RoleSupplier, SupplierLimit)
}

// Profile returns any user by id, for rendering documents that name them.
func (s *Service) Profile(ctx context.Context, id string) (domain.User, error) {
	return s.users.ByID(ctx, id)
}
