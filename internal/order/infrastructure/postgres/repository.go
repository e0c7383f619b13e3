package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	analyticsdomain "github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/domain"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/order/domain"
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

var _ application.OrderRepository = (*Repository)(nil)

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, vendor_id, supplier_id, subtotal, tax, total, status, delivery_address, delivery_date, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.VendorID, o.SupplierID, o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Total.StringFixed(2),
		string(o.Status), o.DeliveryAddress, o.DeliveryDate, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if pgstore.IsUniqueViolation(err) {
			return fmt.Errorf("%w: order %s already exists", apperr.ErrConflict, o.ID)
		}
		return err
	}

	batch := &pgx.Batch{}
	for i, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, price, unit, total)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			o.ID, i+1, item.ProductID, item.ProductName, item.Quantity, item.Price.StringFixed(2), item.Unit, item.Total.StringFixed(2))
	}
	batchResult := tx.SendBatch(ctx, batch)
	if err = batchResult.Close(); err != nil {
		return err
	}

	if headers == nil {
		headers = map[string]string{}
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status) VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", o.ID, eventType, payload, headers, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id::text, vendor_id::text, supplier_id::text, subtotal::text, tax::text, total::text, status, delivery_address, delivery_date, created_at, updated_at`

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *Repository) ListByParty(ctx context.Context, party domain.Party, userID string, limit int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+party.Column()+`::text=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) { return scanOrder(row) })
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// EachSince streams the party's orders created at or after since, oldest first.
func (r *Repository) EachSince(ctx context.Context, party domain.Party, userID string, since time.Time, fn func(analyticsdomain.Entry) error) error {
	rows, err := r.pool.Query(ctx, `SELECT created_at, total::text FROM orders WHERE `+party.Column()+`::text=$1 AND created_at >= $2 ORDER BY created_at`, userID, since)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e     analyticsdomain.Entry
			total string
		)
		if err := rows.Scan(&e.CreatedAt, &total); err != nil {
			return err
		}
		if e.Total, err = decimal.NewFromString(total); err != nil {
			return fmt.Errorf("order total %q: %w", total, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *Repository) items(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_id::text, product_id::text, product_name, quantity, price::text, unit, total::text
		FROM order_items WHERE order_id::text = ANY($1) ORDER BY order_id, line_no`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID      string
			item         domain.OrderItem
			price, total string
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Quantity, &price, &item.Unit, &total); err != nil {
			return nil, err
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if item.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], item)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                    domain.Order
		status               string
		subtotal, tax, total string
	)
	if err := row.Scan(&o.ID, &o.VendorID, &o.SupplierID, &subtotal, &tax, &total, &status, &o.DeliveryAddress, &o.DeliveryDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	var err error
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return domain.Order{}, err
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return domain.Order{}, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}
