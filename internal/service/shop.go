package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var shopTracer = otel.Tracer("service/shop")

// ShopStore is what the shop reads and administers directly.
type ShopStore interface {
	port.ProductStore
	port.OrderStore
}

// ShopService runs the product catalogue and product reservations (orders).
// Multi-row writes go through the OrderWriter so they stay all-or-nothing.
type ShopService struct {
	store    ShopStore
	writer   port.OrderWriter
	uploader *Uploader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewShopService(store ShopStore, writer port.OrderWriter, uploader *Uploader, metrics *observability.Metrics, logger *zap.Logger) *ShopService {
	return &ShopService{store: store, writer: writer, uploader: uploader, metrics: metrics, logger: logger}
}

// ============================================================
// Products
// ============================================================

func (s *ShopService) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.ListProducts")
	defer span.End()

	return s.store.ListProducts(ctx, activeOnly)
}

// CreateProduct stores a product; image, when given, is uploaded first and its public URL kept.
func (s *ShopService) CreateProduct(ctx context.Context, in *domain.ProductInput, image *domain.Upload) (*domain.Product, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.CreateProduct")
	defer span.End()

	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       domain.RoundCents(in.Price),
		Category:    in.Category,
		IsActive:    true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if image != nil {
		url, err := s.uploader.PutPublic(ctx, BucketProducts, image)
		if err != nil {
			return nil, err
		}
		p.ImageURL = url
	}

	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		if p.ImageURL != "" {
			s.uploader.Discard(ctx, BucketProducts, KeyFromURL(p.ImageURL))
		}
		return nil, &domain.ErrOperation{Message: "Erro ao criar produto", Err: err}
	}
	s.logger.Info("product created", zap.String("product_id", created.ID), zap.Float64("price", created.Price))
	return created, nil
}

// UpdateProduct replaces the editable fields; a new image replaces the old one.
func (s *ShopService) UpdateProduct(ctx context.Context, id string, in *domain.ProductInput, image *domain.Upload) (*domain.Product, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := validateProduct(in); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": in.Description,
		"price":       domain.RoundCents(in.Price),
		"category":    in.Category,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if image != nil {
		url, err := s.uploader.PutPublic(ctx, BucketProducts, image)
		if err != nil {
			return nil, err
		}
		updates["image_url"] = url
	}

	updated, err := s.store.UpdateProduct(ctx, id, updates)
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao atualizar produto", Err: err}
	}
	s.logger.Info("product updated", zap.String("product_id", id))
	return updated, nil
}

// DeleteProduct removes a product. Products referenced by orders cannot be deleted;
// deactivate them instead.
func (s *ShopService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := shopTracer.Start(ctx, "ShopService.DeleteProduct")
	defer span.End()

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir produto", Err: err}
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func validateProduct(in *domain.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &domain.ErrValidation{Field: "name", Message: "obrigatório"}
	}
	if in.Price < 0 {
		return &domain.ErrValidation{Field: "price", Message: "preço não pode ser negativo"}
	}
	return nil
}

// ============================================================
// Checkout: POST /v1/orders
// ============================================================

// Checkout prices the submitted lines at the current product prices and writes the
// order header and items in one transaction.
func (s *ShopService) Checkout(ctx context.Context, viewer domain.Viewer, req *domain.CheckoutRequest) (*domain.Order, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", viewer.UserID), attribute.Int("order.lines", len(req.Items)))

	if _, err := time.Parse(domain.DateLayout, req.PickupDate); err != nil {
		return nil, &domain.ErrValidation{Field: "pickup_date", Message: "data inválida, use AAAA-MM-DD"}
	}
	if len(req.Items) == 0 {
		return nil, &domain.ErrValidation{Field: "items", Message: "carrinho vazio"}
	}

	ids := make([]string, 0, len(req.Items))
	for _, l := range req.Items {
		ids = append(ids, l.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var cart domain.Cart
	for _, l := range req.Items {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsActive {
			return nil, &domain.ErrValidation{Field: "items", Message: fmt.Sprintf("produto indisponível: %s", l.ProductID)}
		}
		if l.Quantity <= 0 {
			return nil, &domain.ErrValidation{Field: "items", Message: "quantidade deve ser maior que zero"}
		}
		cart.Add(p, l.Quantity)
	}

	order, err := s.writer.CreateOrder(ctx, &domain.Order{
		UserID:     viewer.UserID,
		PickupDate: req.PickupDate,
		TotalPrice: cart.Total,
		Status:     domain.StatusPending,
	}, cart.Items())
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao finalizar pedido", Err: err}
	}

	s.metrics.IncrEvent(observability.EventOrder)
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", viewer.UserID),
		zap.Float64("total_price", order.TotalPrice),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}

// ============================================================
// Orders
// ============================================================

func (s *ShopService) ListMyOrders(ctx context.Context, viewer domain.Viewer) ([]domain.Order, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.ListMyOrders")
	defer span.End()

	return s.store.ListOrdersByUser(ctx, viewer.UserID)
}

func (s *ShopService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.ListAllOrders")
	defer span.End()

	return s.store.ListOrders(ctx)
}

func (s *ShopService) TransitionOrder(ctx context.Context, id string, req *domain.StatusChangeRequest) (*domain.Order, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.TransitionOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("status", req.Status))

	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionOrder(current.Status, req.Status) {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("Transição de status inválida: %s → %s", current.Status, req.Status)}
	}

	updates := map[string]any{"status": req.Status}
	if note := strings.TrimSpace(req.AdminNote); note != "" {
		updates["admin_notes"] = domain.AppendNote(current.AdminNotes, note)
	}
	if err := s.store.UpdateOrder(ctx, id, updates); err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao atualizar pedido", Err: err}
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", current.Status),
		zap.String("to", req.Status),
	)
	return s.store.GetOrder(ctx, id)
}

// RemoveOrderItem drops one line from an order, lowering the total and recording the reason.
func (s *ShopService) RemoveOrderItem(ctx context.Context, orderID, itemID, reason string) (*domain.Order, error) {
	ctx, span := shopTracer.Start(ctx, "ShopService.RemoveOrderItem")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("item.id", itemID))

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var item *domain.OrderItem
	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item = &order.Items[i]
			break
		}
	}
	if item == nil {
		return nil, &domain.ErrNotFound{Resource: "order item", ID: itemID}
	}

	removal := domain.NewItemRemoval(*order, *item, strings.TrimSpace(reason))
	if err := s.writer.RemoveOrderItem(ctx, removal); err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao remover item", Err: err}
	}

	s.logger.Info("order item removed",
		zap.String("order_id", orderID),
		zap.String("item_id", itemID),
		zap.Float64("new_total", removal.NewTotal),
	)
	return s.store.GetOrder(ctx, orderID)
}

func (s *ShopService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := shopTracer.Start(ctx, "ShopService.DeleteOrder")
	defer span.End()

	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir pedido", Err: err}
	}
	s.logger.Info("order deleted", zap.String("order_id", id))
	return nil
}
