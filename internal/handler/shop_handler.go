package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Products
// ============================================================

func listProductsHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products")
		defer span.End()

		// Admins see inactive products too unless they ask for the storefront view.
		activeOnly := !ViewerFromContext(ctx).IsAdmin || r.URL.Query().Get("active") == "true"
		list, err := svc.ListProducts(ctx, activeOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// readProduct accepts either a JSON body or a multipart form with an optional "image" file.
func readProduct(w http.ResponseWriter, r *http.Request, maxBytes int64) (*domain.ProductInput, *domain.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(r) {
		var in domain.ProductInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, nil, noop, err
		}
		return &in, nil, noop, nil
	}

	image, release, err := parseUpload(w, r, "image", maxBytes)
	if err != nil {
		return nil, nil, noop, err
	}
	in := &domain.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	price, err := strconv.ParseFloat(strings.Replace(r.FormValue("price"), ",", ".", 1), 64)
	if err != nil {
		release()
		return nil, nil, noop, &domain.ErrValidation{Field: "price", Message: "preço inválido"}
	}
	in.Price = price
	if v := r.FormValue("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			release()
			return nil, nil, noop, &domain.ErrValidation{Field: "is_active", Message: "use true ou false"}
		}
		in.IsActive = &active
	}
	if err := validateStruct(in); err != nil {
		release()
		return nil, nil, noop, err
	}
	return in, image, release, nil
}

func createProductHandler(svc *service.ShopService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products")
		defer span.End()

		in, image, release, err := readProduct(w, r, maxBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer release()

		created, err := svc.CreateProduct(ctx, in, image)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateProductHandler(svc *service.ShopService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/products/{id}")
		defer span.End()

		in, image, release, err := readProduct(w, r, maxBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer release()

		updated, err := svc.UpdateProduct(ctx, chi.URLParam(r, "id"), in, image)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteProductHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/products/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteProduct(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Produto excluído", ID: id})
	}
}

// ============================================================
// Orders
// ============================================================

func checkoutHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders")
		defer span.End()

		var req domain.CheckoutRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		order, err := svc.Checkout(ctx, ViewerFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

func myOrdersHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/mine")
		defer span.End()

		list, err := svc.ListMyOrders(ctx, ViewerFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func listOrdersHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders")
		defer span.End()

		list, err := svc.ListAllOrders(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func orderStatusHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/orders/{id}/status")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("order.id", id))

		var req domain.StatusChangeRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		updated, err := svc.TransitionOrder(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// removeOrderItemHandler takes the reason from an optional JSON body or the ?reason= query.
func removeOrderItemHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/orders/{id}/items/{itemId}")
		defer span.End()

		reason := r.URL.Query().Get("reason")
		if r.ContentLength > 0 {
			var req domain.RemoveItemRequest
			if err := decodeJSON(r, &req); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			reason = req.Reason
		}

		updated, err := svc.RemoveOrderItem(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), reason)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteOrderHandler(svc *service.ShopService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/orders/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteOrder(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Pedido excluído", ID: id})
	}
}
