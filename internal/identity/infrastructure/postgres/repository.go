package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/pgstore"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

var _ application.UserRepository = (*Repository)(nil)

const userColumns = `id::text, email, password_hash, name, phone, address, role, gst_number, business_name, active, created_at`

func (r *Repository) Create(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, password_hash, name, phone, address, role, gst_number, business_name, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Address, string(u.Role), u.GSTNumber, u.BusinessName, u.Active, u.CreatedAt)
	if pgstore.IsUniqueViolation(err) {
		return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	return err
}

func (r *Repository) ByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *Repository) ByID(ctx context.Context, id string) (domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id::text=$1`, id)
}

func (r *Repository) ActiveByRole(ctx context.Context, role access.Role, limit int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 AND active ORDER BY name LIMIT $2`, string(role), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) { return scanUser(row) })
}

func (r *Repository) one(ctx context.Context, query string, arg string) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, arg)
	}
	return u, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Address, &role, &u.GSTNumber, &u.BusinessName, &u.Active, &u.CreatedAt)
	u.Role = access.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}
