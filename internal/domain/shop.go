package domain

import (
	"fmt"
	"math"
	"time"
)

// ============================================================
// Shop: products, cart and orders (product reservations)
// ============================================================

// Product is an item sold by the farm.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// ProductInput carries the editable product fields (create and update).
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Order is a product reservation header with its line items.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	FullName   string      `json:"full_name,omitempty"`
	PickupDate string      `json:"pickup_date"`
	TotalPrice float64     `json:"total_price"`
	Status     string      `json:"status"`
	AdminNotes string      `json:"admin_notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Items      []OrderItem `json:"items"`
}

// OrderItem is one committed line of an order.
type OrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"product_reservation_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Subtotal is quantity × unit price.
func (i OrderItem) Subtotal() float64 {
	return RoundCents(float64(i.Quantity) * i.UnitPrice)
}

// CheckoutLine is one product/quantity pair submitted at checkout.
type CheckoutLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest is the body for POST /v1/orders.
type CheckoutRequest struct {
	PickupDate string         `json:"pickup_date" validate:"required"`
	Items      []CheckoutLine `json:"items" validate:"required,min=1,dive"`
}

// RemoveItemRequest is the body for DELETE /v1/orders/{id}/items/{itemId}.
type RemoveItemRequest struct {
	Reason string `json:"reason"`
}

var orderTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCompleted, StatusCanceled},
}

// CanTransitionOrder reports whether an order may move from → to.
func CanTransitionOrder(from, to string) bool {
	return allowed(orderTransitions, from, to)
}

// RoundCents rounds a monetary value to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ============================================================
// Cart
// ============================================================

// CartLine is a product in the cart at the product's current price.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds lines in insertion order. Total is recomputed on every mutation.
type Cart struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}

// Add adds qty units of p, merging with an existing line for the same product.
func (c *Cart) Add(p Product, qty int) {
	if qty <= 0 {
		return
	}
	for i := range c.Lines {
		if c.Lines[i].Product.ID == p.ID {
			c.Lines[i].Quantity += qty
			c.recompute()
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{Product: p, Quantity: qty})
	c.recompute()
}

// SetQuantity replaces the quantity of a product; zero or less removes the line.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			c.Lines[i].Quantity = qty
		}
	}
	c.recompute()
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string) {
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if l.Product.ID != productID {
			out = append(out, l)
		}
	}
	c.Lines = out
	c.recompute()
}

// Items converts the cart into order items priced at the current product price.
func (c *Cart) Items() []OrderItem {
	items := make([]OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}
	return items
}

func (c *Cart) recompute() {
	total := 0.0
	for _, l := range c.Lines {
		total += float64(l.Quantity) * l.Product.Price
	}
	c.Total = RoundCents(total)
}

// ItemRemoval is the adjustment applied to an order when an admin removes one item.
type ItemRemoval struct {
	OrderID       string
	ItemID        string
	NewTotal      float64
	NewAdminNotes string
}

// NewItemRemoval computes the order's new total (clamped at zero) and appends the
// removal reason to the admin notes.
func NewItemRemoval(order Order, item OrderItem, reason string) ItemRemoval {
	total := RoundCents(order.TotalPrice - item.Subtotal())
	if total < 0 {
		total = 0
	}
	name := item.ProductName
	if name == "" {
		name = item.ProductID
	}
	if reason == "" {
		reason = "não informado"
	}
	line := fmt.Sprintf("Item removido: %s (%dx R$ %.2f) - Motivo: %s", name, item.Quantity, item.UnitPrice, reason)
	notes := AppendNote(order.AdminNotes, line)
	return ItemRemoval{
		OrderID:       order.ID,
		ItemID:        item.ID,
		NewTotal:      total,
		NewAdminNotes: notes,
	}
}
