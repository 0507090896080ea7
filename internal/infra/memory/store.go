// Package memory is a complete in-process backend: identities, tables and
// objects kept in maps. It serves local development (USE_SUPABASE=false) and
// the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"github.com/google/uuid"
)

// Store implements port.Store.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	profiles     map[string]domain.Profile
	reservations map[string]domain.Reservation
	products     map[string]domain.Product
	orders       map[string]domain.Order
	orderItems   map[string]domain.OrderItem
	news         map[string]domain.News
	events       map[string]domain.Event
	documents    map[string]domain.Document
	albums       map[string]domain.Album
	gallery      map[string]domain.GalleryItem
	messages     map[string]domain.ContactMessage
	settings     map[string]domain.SiteSetting
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:          func() time.Time { return time.Now().UTC() },
		profiles:     map[string]domain.Profile{},
		reservations: map[string]domain.Reservation{},
		products:     map[string]domain.Product{},
		orders:       map[string]domain.Order{},
		orderItems:   map[string]domain.OrderItem{},
		news:         map[string]domain.News{},
		events:       map[string]domain.Event{},
		documents:    map[string]domain.Document{},
		albums:       map[string]domain.Album{},
		gallery:      map[string]domain.GalleryItem{},
		messages:     map[string]domain.ContactMessage{},
		settings:     map[string]domain.SiteSetting{},
	}
}

// SetClock replaces the time source used for created_at columns and the event purge.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) fullName(userID string) string {
	return s.profiles[userID].FullName
}

// ============================================================
// Profiles
// ============================================================

func (s *Store) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Dependents = append([]domain.Dependent{}, p.Dependents...)
	return &p, nil
}

func (s *Store) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ID]; exists {
		return nil, &domain.ErrConflict{Message: "duplicate key value violates unique constraint \"profiles_pkey\""}
	}
	row := *p
	if row.ID == "" {
		row.ID = newID()
	}
	row.Dependents = append([]domain.Dependent{}, p.Dependents...)
	row.CreatedAt = s.now()
	s.profiles[row.ID] = row
	return &row, nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, updates map[string]any) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	if err := patch(&p, updates); err != nil {
		return nil, err
	}
	p.ID = id
	s.profiles[id] = p
	return &p, nil
}

func (s *Store) ListProfiles(_ context.Context, role domain.Role) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Profile{}
	for _, p := range s.profiles {
		if role == "" || p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.profiles, id)
	return nil
}

// ============================================================
// Reservations
// ============================================================

func (s *Store) CreateReservation(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *r
	row.ID = newID()
	row.GuestsDetails = append([]domain.Guest{}, r.GuestsDetails...)
	row.CreatedAt = s.now()
	s.reservations[row.ID] = row
	return s.reservationView(row), nil
}

func (s *Store) reservationView(r domain.Reservation) *domain.Reservation {
	r.FullName = s.fullName(r.UserID)
	r.GuestsDetails = append([]domain.Guest{}, r.GuestsDetails...)
	return &r
}

func (s *Store) GetReservation(_ context.Context, id string) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	return s.reservationView(r), nil
}

func (s *Store) listReservations(keep func(domain.Reservation) bool, less func(a, b domain.Reservation) bool) []domain.Reservation {
	out := []domain.Reservation{}
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, *s.reservationView(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byCheckIn(a, b domain.Reservation) bool {
	if a.CheckIn != b.CheckIn {
		return a.CheckIn < b.CheckIn
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (s *Store) ListReservationsByUser(_ context.Context, userID string) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listReservations(func(r domain.Reservation) bool { return r.UserID == userID }, byCheckIn), nil
}

func (s *Store) ListReservations(_ context.Context) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listReservations(func(domain.Reservation) bool { return true }, byCheckIn), nil
}

func (s *Store) ListReservationsByUsers(_ context.Context, userIDs []string) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	return s.listReservations(
		func(r domain.Reservation) bool { return want[r.UserID] },
		func(a, b domain.Reservation) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}

func (s *Store) UpdateReservation(_ context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "reservation", ID: id}
	}
	if err := patch(&r, updates); err != nil {
		return err
	}
	r.ID = id
	s.reservations[id] = r
	return nil
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reservations, id)
	return nil
}

// ============================================================
// Products
// ============================================================

func (s *Store) ListProducts(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range s.products {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *p
	row.ID = newID()
	s.products[row.ID] = row
	return &row, nil
}

func (s *Store) UpdateProduct(_ context.Context, id string, updates map[string]any) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "product", ID: id}
	}
	if err := patch(&p, updates); err != nil {
		return nil, err
	}
	p.ID = id
	s.products[id] = p
	return &p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.orderItems {
		if it.ProductID == id {
			return &domain.ErrConflict{Message: "update or delete on table \"products\" violates foreign key constraint"}
		}
	}
	delete(s.products, id)
	return nil
}

// ============================================================
// Orders
// ============================================================

func (s *Store) orderView(o domain.Order) domain.Order {
	o.FullName = s.fullName(o.UserID)
	o.Items = []domain.OrderItem{}
	for _, it := range s.orderItems {
		if it.OrderID == o.ID {
			it.ProductName = s.products[it.ProductID].Name
			o.Items = append(o.Items, it)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return o
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "order", ID: id}
	}
	view := s.orderView(o)
	return &view, nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, s.orderView(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range s.orders {
		out = append(out, s.orderView(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PickupDate != out[j].PickupDate {
			return out[i].PickupDate < out[j].PickupDate
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "order", ID: id}
	}
	if err := patch(&o, updates); err != nil {
		return err
	}
	o.ID = id
	o.Items = nil
	s.orders[id] = o
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.orders, id)
	for itemID, it := range s.orderItems {
		if it.OrderID == id {
			delete(s.orderItems, itemID)
		}
	}
	return nil
}

// CreateOrder writes the header and items under one lock.
func (s *Store) CreateOrder(_ context.Context, order *domain.Order, items []domain.OrderItem) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if _, ok := s.products[it.ProductID]; !ok {
			return nil, &domain.ErrConflict{Message: "insert on table \"product_reservation_items\" violates foreign key constraint"}
		}
	}

	header := *order
	header.ID = newID()
	header.CreatedAt = s.now()
	header.Items = nil
	s.orders[header.ID] = header
	for _, it := range items {
		it.ID = newID()
		it.OrderID = header.ID
		it.ProductName = ""
		s.orderItems[it.ID] = it
	}
	view := s.orderView(header)
	return &view, nil
}

// RemoveOrderItem deletes the item and updates the header under one lock.
func (s *Store) RemoveOrderItem(_ context.Context, removal domain.ItemRemoval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[removal.OrderID]
	if !ok {
		return &domain.ErrNotFound{Resource: "order", ID: removal.OrderID}
	}
	it, ok := s.orderItems[removal.ItemID]
	if !ok || it.OrderID != removal.OrderID {
		return &domain.ErrNotFound{Resource: "order item", ID: removal.ItemID}
	}
	delete(s.orderItems, removal.ItemID)
	o.TotalPrice = removal.NewTotal
	o.AdminNotes = removal.NewAdminNotes
	s.orders[o.ID] = o
	return nil
}

// ============================================================
// News, events, documents
// ============================================================

func (s *Store) ListNews(_ context.Context) ([]domain.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.News{}
	for _, n := range s.news {
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

func (s *Store) GetNews(_ context.Context, id string) (*domain.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.news[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "news", ID: id}
	}
	return &n, nil
}

func (s *Store) CreateNews(_ context.Context, n *domain.News) (*domain.News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *n
	row.ID = newID()
	if row.PublishedAt.IsZero() {
		row.PublishedAt = s.now()
	}
	s.news[row.ID] = row
	return &row, nil
}

func (s *Store) DeleteNews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.news, id)
	return nil
}

func (s *Store) ListEvents(_ context.Context, from string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Event{}
	for _, e := range s.events {
		if from == "" || e.VisibleOn(from) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate < out[j].StartDate })
	return out, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "event", ID: id}
	}
	return &e, nil
}

func (s *Store) CreateEvent(_ context.Context, e *domain.Event) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *e
	row.ID = newID()
	row.CreatedAt = s.now()
	s.events[row.ID] = row
	return &row, nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, id)
	return nil
}

// DeleteOldEvents drops the events no longer visible today.
func (s *Store) DeleteOldEvents(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(domain.DateLayout)
	for id, e := range s.events {
		if !e.VisibleOn(today) {
			delete(s.events, id)
		}
	}
	return nil
}

func (s *Store) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Document{}
	for _, d := range s.documents {
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "document", ID: id}
	}
	return &d, nil
}

func (s *Store) CreateDocument(_ context.Context, d *domain.Document) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *d
	row.ID = newID()
	row.CreatedAt = s.now()
	s.documents[row.ID] = row
	return &row, nil
}

func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, id)
	return nil
}

// ============================================================
// Albums and gallery
// ============================================================

func (s *Store) ListAlbums(_ context.Context) ([]domain.Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Album{}
	for _, a := range s.albums {
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetAlbum(_ context.Context, id string) (*domain.Album, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.albums[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "album", ID: id}
	}
	return &a, nil
}

func (s *Store) CreateAlbum(_ context.Context, a *domain.Album) (*domain.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *a
	row.ID = newID()
	row.CreatedAt = s.now()
	s.albums[row.ID] = row
	return &row, nil
}

// DeleteAlbum refuses to orphan photos, like the album_id foreign key.
func (s *Store) DeleteAlbum(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.gallery {
		if it.AlbumID != nil && *it.AlbumID == id {
			return &domain.ErrConflict{Message: "update or delete on table \"albums\" violates foreign key constraint"}
		}
	}
	delete(s.albums, id)
	return nil
}

func (s *Store) ListGalleryItems(_ context.Context, albumID string) ([]domain.GalleryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.GalleryItem{}
	for _, it := range s.gallery {
		if albumID == "" || (it.AlbumID != nil && *it.AlbumID == albumID) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetGalleryItem(_ context.Context, id string) (*domain.GalleryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.gallery[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "gallery item", ID: id}
	}
	return &it, nil
}

func (s *Store) CreateGalleryItem(_ context.Context, item *domain.GalleryItem) (*domain.GalleryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.AlbumID != nil {
		if _, ok := s.albums[*item.AlbumID]; !ok {
			return nil, &domain.ErrConflict{Message: "insert on table \"gallery_items\" violates foreign key constraint"}
		}
	}
	row := *item
	row.ID = newID()
	row.CreatedAt = s.now()
	s.gallery[row.ID] = row
	return &row, nil
}

func (s *Store) DeleteGalleryItems(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.gallery, id)
	}
	return nil
}

// ============================================================
// Contact messages and settings
// ============================================================

func (s *Store) CreateMessage(_ context.Context, m *domain.ContactMessage) (*domain.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *m
	row.ID = newID()
	row.CreatedAt = s.now()
	row.FullName = ""
	s.messages[row.ID] = row
	return &row, nil
}

func (s *Store) listMessages(keep func(domain.ContactMessage) bool) []domain.ContactMessage {
	out := []domain.ContactMessage{}
	for _, m := range s.messages {
		if keep(m) {
			m.FullName = s.fullName(m.UserID)
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListMessages(_ context.Context) ([]domain.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listMessages(func(domain.ContactMessage) bool { return true }), nil
}

func (s *Store) ListMessagesByUser(_ context.Context, userID string) ([]domain.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listMessages(func(m domain.ContactMessage) bool { return m.UserID == userID }), nil
}

func (s *Store) DeleteMessage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, id)
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (*domain.SiteSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) UpsertSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = domain.SiteSetting{Key: key, Value: value, UpdatedAt: s.now()}
	return nil
}
