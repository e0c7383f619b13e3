package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

type Repository struct {
	mu    sync.RWMutex
	byID  map[string]domain.User
	email map[string]string
}

func NewRepository() *Repository {
	return &Repository{byID: make(map[string]domain.User), email: make(map[string]string)}
}

var _ application.UserRepository = (*Repository)(nil)

func (r *Repository) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.email[u.Email]; taken {
		return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	r.byID[u.ID] = u
	r.email[u.Email] = u.ID
	return nil
}

func (r *Repository) ByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[email]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, email)
	}
	return r.byID[id], nil
}

func (r *Repository) ByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return u, nil
}

func (r *Repository) ActiveByRole(_ context.Context, role access.Role, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.User
	for _, u := range r.byID {
		if u.Role == role && u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
