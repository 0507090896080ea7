// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from the Supabase adapter, the Postgres order writer and the
// in-memory backend.
package port

import (
	"context"
	"io"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

// IdentityProvider signs users up and in against the auth backend.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignOut(ctx context.Context, providerToken string) error
	GetIdentity(ctx context.Context, providerToken string) (*domain.Identity, error)
}

// ProfileStore handles profile rows. GetProfile returns (nil, nil) when the row does not exist.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]any) (*domain.Profile, error)
	ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// ReservationStore handles lodging reservations.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *domain.Reservation) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
	ListReservationsByUsers(ctx context.Context, userIDs []string) ([]domain.Reservation, error)
	UpdateReservation(ctx context.Context, id string, updates map[string]any) error
	DeleteReservation(ctx context.Context, id string) error
}

// ProductStore handles the shop catalogue.
type ProductStore interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, updates map[string]any) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// OrderStore reads and administers product reservations.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, id string, updates map[string]any) error
	DeleteOrder(ctx context.Context, id string) error
}

// OrderWriter performs the multi-row order writes. Each method is all-or-nothing.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) (*domain.Order, error)
	RemoveOrderItem(ctx context.Context, removal domain.ItemRemoval) error
}

// NewsStore handles announcements.
type NewsStore interface {
	ListNews(ctx context.Context) ([]domain.News, error)
	GetNews(ctx context.Context, id string) (*domain.News, error)
	CreateNews(ctx context.Context, n *domain.News) (*domain.News, error)
	DeleteNews(ctx context.Context, id string) error
}

// EventStore handles calendar events. DeleteOldEvents invokes the backend purge routine.
type EventStore interface {
	ListEvents(ctx context.Context, from string) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	CreateEvent(ctx context.Context, e *domain.Event) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	DeleteOldEvents(ctx context.Context) error
}

// DocumentStore handles the document library rows.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	CreateDocument(ctx context.Context, d *domain.Document) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// GalleryStore handles albums and gallery items.
type GalleryStore interface {
	ListAlbums(ctx context.Context) ([]domain.Album, error)
	GetAlbum(ctx context.Context, id string) (*domain.Album, error)
	CreateAlbum(ctx context.Context, a *domain.Album) (*domain.Album, error)
	DeleteAlbum(ctx context.Context, id string) error
	ListGalleryItems(ctx context.Context, albumID string) ([]domain.GalleryItem, error)
	GetGalleryItem(ctx context.Context, id string) (*domain.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, item *domain.GalleryItem) (*domain.GalleryItem, error)
	DeleteGalleryItems(ctx context.Context, ids []string) error
}

// ContactStore handles contact messages.
type ContactStore interface {
	CreateMessage(ctx context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error)
	ListMessages(ctx context.Context) ([]domain.ContactMessage, error)
	ListMessagesByUser(ctx context.Context, userID string) ([]domain.ContactMessage, error)
	DeleteMessage(ctx context.Context, id string) error
}

// SettingStore handles key/value site settings. GetSetting returns (nil, nil) when unset.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (*domain.SiteSetting, error)
	UpsertSetting(ctx context.Context, key, value string) error
}

// ObjectStore stores uploaded files in buckets.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	PublicURL(bucket, key string) string
	Remove(ctx context.Context, bucket string, keys []string) error
}

// Store is everything the portal keeps in the backend. Implemented by the Supabase
// adapter and by the in-memory backend.
type Store interface {
	ProfileStore
	ReservationStore
	ProductStore
	OrderStore
	OrderWriter
	NewsStore
	EventStore
	DocumentStore
	GalleryStore
	ContactStore
	SettingStore
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Len() int
}
