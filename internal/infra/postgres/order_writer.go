package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("postgres")

// OrderWriter implements port.OrderWriter with one database transaction per call.
type OrderWriter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewOrderWriter(pool *pgxpool.Pool, logger *zap.Logger) *OrderWriter {
	return &OrderWriter{pool: pool, logger: logger}
}

// CreateOrder inserts the header and every item, or nothing.
func (w *OrderWriter) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", order.UserID), attribute.Int("order.items", len(items)))

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin", err)
	}
	defer tx.Rollback(ctx)

	out := *order
	err = tx.QueryRow(ctx,
		`INSERT INTO product_reservations (user_id, pickup_date, total_price, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text, status, created_at`,
		order.UserID, order.PickupDate, order.TotalPrice, order.Status,
	).Scan(&out.ID, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, wrapErr("product_reservations", err)
	}

	out.Items = make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		item := it
		item.OrderID = out.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO product_reservation_items (product_reservation_id, product_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id::text`,
			out.ID, it.ProductID, it.Quantity, it.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			return nil, wrapErr("product_reservation_items", err)
		}
		out.Items = append(out.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr("commit", err)
	}

	w.logger.Info("order created",
		zap.String("order_id", out.ID),
		zap.String("user_id", out.UserID),
		zap.Int("items", len(out.Items)),
	)
	return &out, nil
}

// RemoveOrderItem deletes the item and rewrites the header's total and notes, or nothing.
func (w *OrderWriter) RemoveOrderItem(ctx context.Context, removal domain.ItemRemoval) error {
	ctx, span := tracer.Start(ctx, "Postgres.RemoveOrderItem")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", removal.OrderID), attribute.String("order.item_id", removal.ItemID))

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM product_reservation_items WHERE id = $1 AND product_reservation_id = $2`,
		removal.ItemID, removal.OrderID,
	)
	if err != nil {
		return wrapErr("product_reservation_items", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "order item", ID: removal.ItemID}
	}

	tag, err = tx.Exec(ctx,
		`UPDATE product_reservations SET total_price = $1, admin_notes = $2 WHERE id = $3`,
		removal.NewTotal, removal.NewAdminNotes, removal.OrderID,
	)
	if err != nil {
		return wrapErr("product_reservations", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "order", ID: removal.OrderID}
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrTimeout{Operation: "postgres/" + op}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ErrNotFound{Resource: op}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &domain.ErrExternalService{Service: "postgres/" + op, Err: fmt.Errorf("%s", pgErr.Message)}
	}
	return &domain.ErrExternalService{Service: "postgres/" + op, Err: err}
}
