package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleSupplier Role = "supplier"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleVendor, RoleSupplier:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidInput, s)
	}
}

func (r Role) Valid() bool {
	return r == RoleVendor || r == RoleSupplier
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
