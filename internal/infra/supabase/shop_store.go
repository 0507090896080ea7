package supabase

import (
	"context"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ProductStore, OrderStore and OrderWriter
// ============================================================

const (
	tableProducts   = "products"
	tableOrders     = "product_reservations"
	tableOrderItems = "product_reservation_items"

	rpcCreateOrder     = "create_product_reservation"
	rpcRemoveOrderItem = "remove_product_reservation_item"

	orderSelect = "*,profiles(full_name),items:product_reservation_items(*,products(name))"
)

type orderItemRow struct {
	domain.OrderItem
	Products *struct {
		Name string `json:"name"`
	} `json:"products"`
}

type orderRow struct {
	domain.Order
	Profiles *nameJoin     `json:"profiles"`
	Items    []orderItemRow `json:"items"`
}

func (r orderRow) toDomain() domain.Order {
	o := r.Order
	o.FullName = r.Profiles.name()
	o.Items = make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		item := it.OrderItem
		if it.Products != nil {
			item.ProductName = it.Products.Name
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func ordersFrom(rows []orderRow) []domain.Order {
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// --- Products ---

func (c *Client) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	q := url.Values{"order": {"name.asc"}}
	if activeOnly {
		q.Set("is_active", "eq.true")
	}
	rows := []domain.Product{}
	if err := c.selectRows(ctx, tableProducts, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProductsByIDs")
	defer span.End()

	rows := []domain.Product{}
	if len(ids) == 0 {
		return rows, nil
	}
	if err := c.selectRows(ctx, tableProducts, url.Values{"id": {in(ids)}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	record := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"image_url":   nullable(p.ImageURL),
		"category":    p.Category,
		"is_active":   p.IsActive,
	}
	var out domain.Product
	if err := c.insertRow(ctx, tableProducts, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, updates map[string]any) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	var out domain.Product
	if err := c.updateRows(ctx, tableProducts, url.Values{"id": {eq(id)}}, updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduct")
	defer span.End()

	return c.deleteRows(ctx, tableProducts, url.Values{"id": {eq(id)}})
}

// --- Orders ---

func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	var rows []orderRow
	q := url.Values{"select": {orderSelect}, "id": {eq(id)}, "limit": {"1"}}
	if err := c.selectRows(ctx, tableOrders, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "order", ID: id}
	}
	o := rows[0].toDomain()
	return &o, nil
}

func (c *Client) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOrdersByUser")
	defer span.End()

	var rows []orderRow
	q := url.Values{"select": {orderSelect}, "user_id": {eq(userID)}, "order": {"created_at.desc"}}
	if err := c.selectRows(ctx, tableOrders, q, &rows); err != nil {
		return nil, err
	}
	return ordersFrom(rows), nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOrders")
	defer span.End()

	var rows []orderRow
	q := url.Values{"select": {orderSelect}, "order": {"pickup_date.asc"}}
	if err := c.selectRows(ctx, tableOrders, q, &rows); err != nil {
		return nil, err
	}
	return ordersFrom(rows), nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id))

	return c.updateRows(ctx, tableOrders, url.Values{"id": {eq(id)}}, updates, nil)
}

// DeleteOrder removes the header; items go with it through ON DELETE CASCADE.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOrder")
	defer span.End()

	return c.deleteRows(ctx, tableOrders, url.Values{"id": {eq(id)}})
}

// CreateOrder inserts the header and its items in one database transaction
// through the create_product_reservation function.
func (c *Client) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", order.UserID),
		attribute.Int("order.items", len(items)),
	)

	lines := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]any{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice,
		})
	}
	args := map[string]any{
		"p_user_id":     order.UserID,
		"p_pickup_date": order.PickupDate,
		"p_total_price": order.TotalPrice,
		"p_items":       lines,
	}

	var created orderRow
	if err := c.rpc(ctx, rpcCreateOrder, args, &created); err != nil {
		return nil, err
	}

	out := created.Order
	out.Items = make([]domain.OrderItem, 0, len(created.Items))
	for _, it := range created.Items {
		out.Items = append(out.Items, it.OrderItem)
	}
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ProductID] = it.ProductName
	}
	for i := range out.Items {
		out.Items[i].ProductName = names[out.Items[i].ProductID]
	}
	return &out, nil
}

// RemoveOrderItem deletes the item and rewrites the header's total and notes in
// one database transaction.
func (c *Client) RemoveOrderItem(ctx context.Context, removal domain.ItemRemoval) error {
	ctx, span := tracer.Start(ctx, "Supabase.RemoveOrderItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", removal.OrderID),
		attribute.String("order.item_id", removal.ItemID),
	)

	return c.rpc(ctx, rpcRemoveOrderItem, map[string]any{
		"p_order_id":    removal.OrderID,
		"p_item_id":     removal.ItemID,
		"p_total_price": removal.NewTotal,
		"p_admin_notes": removal.NewAdminNotes,
	}, nil)
}
