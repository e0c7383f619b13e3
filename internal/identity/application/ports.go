package application

import (
	"context"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/domain"
)

type UserRepository interface {
	// Create returns apperr.ErrConflict when the e-mail is already registered.
	Create(ctx context.Context, u domain.User) error
	// ByEmail and ByID return apperr.ErrNotFound for unknown users.
	ByEmail(ctx context.Context, email string) (domain.User, error)
	ByID(ctx context.Context, id string) (domain.User, error)
	ActiveByRole(ctx context.Context, role access.Role, limit int) ([]domain.User, error)
}
