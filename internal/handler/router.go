package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services are the use cases the router exposes.
type Services struct {
	Sessions     *service.SessionService
	Navigation   *service.NavigationService
	Reservations *service.ReservationService
	Shop         *service.ShopService
	News         *service.NewsService
	Events       *service.EventService
	Documents    *service.DocumentService
	Gallery      *service.GalleryService
	Members      *service.MemberService
	Visitors     *service.VisitorService
	Contact      *service.ContactService
	Finance      *service.FinanceService
	Exports      *service.ExportService
}

// HealthProbe checks the backend for /healthz.
type HealthProbe func(ctx context.Context) error

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Probe          HealthProbe
	// Files serves stored objects under /files when the backend has no public URL of its own.
	Files http.Handler
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(opts.Probe, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	if opts.Files != nil {
		r.Handle("/files/*", http.StripPrefix("/files", opts.Files))
	}

	upload := opts.MaxUploadBytes
	admin := RequireAdmin(logger)

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", signUpHandler(svc.Sessions, logger))
		r.Post("/auth/login", signInHandler(svc.Sessions, logger))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svc.Sessions, logger))

			// Reachable while pending approval.
			r.Post("/auth/logout", signOutHandler(svc.Sessions, logger))
			r.Get("/me", meHandler(svc.Sessions, logger))

			r.Group(func(r chi.Router) {
				r.Use(RequireApproved(logger))

				// Navigation
				r.Get("/navigation", navigationHandler(svc.Navigation, logger))
				r.Get("/navigation/resolve", resolvePageHandler(svc.Navigation))
				r.Put("/navigation/last-page", saveLastPageHandler(svc.Navigation, logger))

				// News (home page)
				r.Get("/news", listNewsHandler(svc.News, logger))
				r.With(admin).Post("/news", createNewsHandler(svc.News, upload, logger))
				r.With(admin).Delete("/news/{id}", deleteNewsHandler(svc.News, logger))

				// Lodging reservations
				r.Route("/reservations", func(r chi.Router) {
					r.Use(RequirePage(domain.PageReservations, logger))
					r.Get("/mine", myReservationsHandler(svc.Reservations, logger))
					r.Get("/overview", reservationOverviewHandler(svc.Reservations, logger))
					r.Post("/", createReservationHandler(svc.Reservations, logger))
					r.With(admin).Get("/", listReservationsHandler(svc.Reservations, logger))
					r.With(admin).Patch("/{id}/status", reservationStatusHandler(svc.Reservations, logger))
					r.With(admin).Delete("/{id}", deleteReservationHandler(svc.Reservations, logger))
				})

				// Shop
				r.Group(func(r chi.Router) {
					r.Use(RequirePage(domain.PageShop, logger))
					r.Get("/products", listProductsHandler(svc.Shop, logger))
					r.With(admin).Post("/products", createProductHandler(svc.Shop, upload, logger))
					r.With(admin).Put("/products/{id}", updateProductHandler(svc.Shop, upload, logger))
					r.With(admin).Delete("/products/{id}", deleteProductHandler(svc.Shop, logger))

					r.Post("/orders", checkoutHandler(svc.Shop, logger))
					r.Get("/orders/mine", myOrdersHandler(svc.Shop, logger))
					r.With(admin).Get("/orders", listOrdersHandler(svc.Shop, logger))
					r.With(admin).Patch("/orders/{id}/status", orderStatusHandler(svc.Shop, logger))
					r.With(admin).Delete("/orders/{id}/items/{itemId}", removeOrderItemHandler(svc.Shop, logger))
					r.With(admin).Delete("/orders/{id}", deleteOrderHandler(svc.Shop, logger))
				})

				// Events
				r.Route("/events", func(r chi.Router) {
					r.Use(RequirePage(domain.PageEvents, logger))
					r.Get("/", listEventsHandler(svc.Events, logger))
					r.With(admin).Post("/", createEventHandler(svc.Events, upload, logger))
					r.With(admin).Delete("/{id}", deleteEventHandler(svc.Events, logger))
				})

				// Documents
				r.Route("/documents", func(r chi.Router) {
					r.Use(RequirePage(domain.PageDocuments, logger))
					r.Get("/", listDocumentsHandler(svc.Documents, logger))
					r.With(admin).Post("/", uploadDocumentHandler(svc.Documents, upload, logger))
					r.With(admin).Delete("/{id}", deleteDocumentHandler(svc.Documents, logger))
				})

				// Gallery
				r.Group(func(r chi.Router) {
					r.Use(RequirePage(domain.PageGallery, logger))
					r.Get("/albums", listAlbumsHandler(svc.Gallery, logger))
					r.With(admin).Post("/albums", createAlbumHandler(svc.Gallery, logger))
					r.With(admin).Delete("/albums/{id}", deleteAlbumHandler(svc.Gallery, logger))
					r.Get("/gallery", listGalleryHandler(svc.Gallery, logger))
					r.With(admin).Post("/gallery", uploadGalleryItemHandler(svc.Gallery, upload, logger))
					r.With(admin).Delete("/gallery/{id}", deleteGalleryItemHandler(svc.Gallery, logger))
				})

				// Own profile
				r.Route("/profile", func(r chi.Router) {
					r.Use(RequirePage(domain.PageProfile, logger))
					r.Get("/", getOwnProfileHandler(svc.Members, logger))
					r.Put("/", updateOwnProfileHandler(svc.Members, logger))
				})

				// Contact
				r.Route("/contact", func(r chi.Router) {
					r.Use(RequirePage(domain.PageContact, logger))
					r.Post("/", sendMessageHandler(svc.Contact, logger))
					r.Get("/mine", myMessagesHandler(svc.Contact, logger))
					r.With(admin).Get("/", listMessagesHandler(svc.Contact, logger))
					r.With(admin).Delete("/{id}", deleteMessageHandler(svc.Contact, logger))
				})

				// Finance
				r.Route("/finance", func(r chi.Router) {
					r.Use(RequirePage(domain.PageFinance, logger))
					r.Get("/", getFinanceHandler(svc.Finance, logger))
					r.With(admin).Put("/", setFinanceHandler(svc.Finance, logger))
				})

				// Administration
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/members", listMembersHandler(svc.Members, logger))
					r.Patch("/members/{id}/approval", toggleApprovalHandler(svc.Members, logger))
					r.Patch("/members/{id}/role", setRoleHandler(svc.Members, logger))
					r.Delete("/members/{id}", deleteMemberHandler(svc.Members, logger))

					r.Get("/visitors", visitorsRegistryHandler(svc.Visitors, logger))
					r.Get("/visitors/export.xlsx", exportHandler("visitantes", svc.Exports.Visitors, logger))
					r.Get("/admin/exports/reservations.xlsx", exportHandler("reservas", svc.Exports.Reservations, logger))
					r.Get("/admin/exports/orders.xlsx", exportHandler("pedidos", svc.Exports.Orders, logger))
					r.Get("/admin/stats", statsHandler(svc.Sessions, metrics))
				})
			})
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler(probe HealthProbe, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "portal-bfa", Status: "healthy", LastChecked: now},
		}

		if probe != nil {
			start := time.Now()
			err := probe(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health probe failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = s.Status
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func statsHandler(sessions *service.SessionService, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot(sessions.ActiveSessions()))
	}
}
