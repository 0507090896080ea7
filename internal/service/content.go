package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var contentTracer = otel.Tracer("service/content")

// ============================================================
// News
// ============================================================

type NewsService struct {
	store    port.NewsStore
	uploader *Uploader
	logger   *zap.Logger
}

func NewNewsService(store port.NewsStore, uploader *Uploader, logger *zap.Logger) *NewsService {
	return &NewsService{store: store, uploader: uploader, logger: logger}
}

func (s *NewsService) List(ctx context.Context) ([]domain.News, error) {
	ctx, span := contentTracer.Start(ctx, "NewsService.List")
	defer span.End()

	return s.store.ListNews(ctx)
}

// Create publishes an announcement signed by the viewer, with an optional attachment.
func (s *NewsService) Create(ctx context.Context, viewer domain.Viewer, req *domain.CreateNewsRequest, file *domain.Upload) (*domain.News, error) {
	ctx, span := contentTracer.Start(ctx, "NewsService.Create")
	defer span.End()

	author := viewer.FullName
	if author == "" {
		author = viewer.Email
	}
	n := &domain.News{
		Title:    strings.TrimSpace(req.Title),
		Body:     req.Body,
		Category: req.Category,
		Author:   author,
	}
	if file != nil {
		url, err := s.uploader.PutPublic(ctx, BucketNews, file)
		if err != nil {
			return nil, err
		}
		n.FileURL = url
	}

	created, err := s.store.CreateNews(ctx, n)
	if err != nil {
		s.uploader.Discard(ctx, BucketNews, KeyFromURL(n.FileURL))
		return nil, &domain.ErrOperation{Message: "Erro ao publicar notícia", Err: err}
	}
	s.logger.Info("news published", zap.String("news_id", created.ID), zap.String("user_id", viewer.UserID))
	return created, nil
}

// Delete removes the row; the attachment is removed best-effort.
func (s *NewsService) Delete(ctx context.Context, id string) error {
	ctx, span := contentTracer.Start(ctx, "NewsService.Delete")
	defer span.End()

	n, err := s.store.GetNews(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteNews(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir notícia", Err: err}
	}
	s.uploader.Discard(ctx, BucketNews, KeyFromURL(n.FileURL))
	s.logger.Info("news deleted", zap.String("news_id", id))
	return nil
}

// ============================================================
// Events
// ============================================================

type EventService struct {
	store    port.EventStore
	uploader *Uploader
	now      func() time.Time
	logger   *zap.Logger
}

func NewEventService(store port.EventStore, uploader *Uploader, logger *zap.Logger) *EventService {
	return &EventService{store: store, uploader: uploader, now: time.Now, logger: logger}
}

// SetClock replaces the clock used to decide what "today" is.
func (s *EventService) SetClock(now func() time.Time) {
	s.now = now
}

// ListUpcoming purges past events opportunistically and returns the ones still visible
// today, by start date. A failed purge does not fail the listing.
func (s *EventService) ListUpcoming(ctx context.Context) ([]domain.Event, error) {
	ctx, span := contentTracer.Start(ctx, "EventService.ListUpcoming")
	defer span.End()

	if err := s.store.DeleteOldEvents(ctx); err != nil {
		s.logger.Warn("delete_old_events failed", zap.Error(err))
	}

	today := s.now().Format(domain.DateLayout)
	span.SetAttributes(attribute.String("events.today", today))
	all, err := s.store.ListEvents(ctx, today)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(all))
	for _, e := range all {
		if e.VisibleOn(today) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *EventService) Create(ctx context.Context, req *domain.CreateEventRequest, file *domain.Upload) (*domain.Event, error) {
	ctx, span := contentTracer.Start(ctx, "EventService.Create")
	defer span.End()

	start, err := time.Parse(domain.DateLayout, domain.DateOnly(req.StartDate))
	if err != nil {
		return nil, &domain.ErrValidation{Field: "start_date", Message: "data inválida, use AAAA-MM-DD"}
	}
	e := &domain.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartDate:   req.StartDate,
	}
	if req.EndDate != "" {
		end, err := time.Parse(domain.DateLayout, domain.DateOnly(req.EndDate))
		if err != nil {
			return nil, &domain.ErrValidation{Field: "end_date", Message: "data inválida, use AAAA-MM-DD"}
		}
		if end.Before(start) {
			return nil, &domain.ErrValidation{Field: "end_date", Message: "término deve ser igual ou posterior ao início"}
		}
		endDate := req.EndDate
		e.EndDate = &endDate
	}
	if file != nil {
		url, err := s.uploader.PutPublic(ctx, BucketEvents, file)
		if err != nil {
			return nil, err
		}
		e.FileURL = url
	}

	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		s.uploader.Discard(ctx, BucketEvents, KeyFromURL(e.FileURL))
		return nil, &domain.ErrOperation{Message: "Erro ao criar evento", Err: err}
	}
	s.logger.Info("event created", zap.String("event_id", created.ID), zap.String("start_date", created.StartDate))
	return created, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	ctx, span := contentTracer.Start(ctx, "EventService.Delete")
	defer span.End()

	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir evento", Err: err}
	}
	s.uploader.Discard(ctx, BucketEvents, KeyFromURL(e.FileURL))
	s.logger.Info("event deleted", zap.String("event_id", id))
	return nil
}

// DeleteOldEvents runs the backend purge routine; the scheduler calls it.
func (s *EventService) DeleteOldEvents(ctx context.Context) error {
	return s.store.DeleteOldEvents(ctx)
}

// ============================================================
// Documents
// ============================================================

// UncategorizedLabel groups documents without a category.
const UncategorizedLabel = "Outros"

type DocumentService struct {
	store    port.DocumentStore
	uploader *Uploader
	logger   *zap.Logger
}

func NewDocumentService(store port.DocumentStore, uploader *Uploader, logger *zap.Logger) *DocumentService {
	return &DocumentService{store: store, uploader: uploader, logger: logger}
}

// List returns documents, newest first, with their public URLs.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	ctx, span := contentTracer.Start(ctx, "DocumentService.List")
	defer span.End()

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].URL = s.uploader.URL(BucketDocuments, docs[i].FilePath)
	}
	return docs, nil
}

// Grouped returns the documents grouped by category, categories sorted by name.
func (s *DocumentService) Grouped(ctx context.Context) ([]domain.DocumentGroup, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return GroupDocuments(docs), nil
}

// GroupDocuments keeps the input order inside each group.
func GroupDocuments(docs []domain.Document) []domain.DocumentGroup {
	index := map[string]int{}
	groups := []domain.DocumentGroup{}
	for _, d := range docs {
		cat := strings.TrimSpace(d.Category)
		if cat == "" {
			cat = UncategorizedLabel
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, domain.DocumentGroup{Category: cat})
		}
		groups[i].Documents = append(groups[i].Documents, d)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}

// Upload stores the file and its row. If the row cannot be written the object is removed.
func (s *DocumentService) Upload(ctx context.Context, req *domain.CreateDocumentRequest, file *domain.Upload) (*domain.Document, error) {
	ctx, span := contentTracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	if file == nil {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo obrigatório"}
	}
	key, err := s.uploader.Put(ctx, BucketDocuments, file)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateDocument(ctx, &domain.Document{
		Title:    strings.TrimSpace(req.Title),
		Category: strings.TrimSpace(req.Category),
		FilePath: key,
		FileType: file.ContentType,
		FileSize: file.Size,
	})
	if err != nil {
		s.uploader.Discard(ctx, BucketDocuments, key)
		return nil, &domain.ErrOperation{Message: "Erro ao salvar documento", Err: err}
	}
	created.URL = s.uploader.URL(BucketDocuments, created.FilePath)
	s.logger.Info("document uploaded", zap.String("document_id", created.ID), zap.String("key", key))
	return created, nil
}

// Delete removes the object first, then the row.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := contentTracer.Start(ctx, "DocumentService.Delete")
	defer span.End()

	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	s.uploader.Discard(ctx, BucketDocuments, d.FilePath)
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir documento", Err: err}
	}
	s.logger.Info("document deleted", zap.String("document_id", id))
	return nil
}

// ============================================================
// Gallery
// ============================================================

type GalleryService struct {
	store    port.GalleryStore
	uploader *Uploader
	logger   *zap.Logger
}

func NewGalleryService(store port.GalleryStore, uploader *Uploader, logger *zap.Logger) *GalleryService {
	return &GalleryService{store: store, uploader: uploader, logger: logger}
}

func (s *GalleryService) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	ctx, span := contentTracer.Start(ctx, "GalleryService.ListAlbums")
	defer span.End()

	return s.store.ListAlbums(ctx)
}

func (s *GalleryService) CreateAlbum(ctx context.Context, viewer domain.Viewer, req *domain.CreateAlbumRequest) (*domain.Album, error) {
	ctx, span := contentTracer.Start(ctx, "GalleryService.CreateAlbum")
	defer span.End()

	if strings.TrimSpace(req.Title) == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "obrigatório"}
	}
	created, err := s.store.CreateAlbum(ctx, &domain.Album{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CreatedBy:   viewer.UserID,
	})
	if err != nil {
		return nil, &domain.ErrOperation{Message: "Erro ao criar álbum", Err: err}
	}
	s.logger.Info("album created", zap.String("album_id", created.ID))
	return created, nil
}

// ListItems returns photos, of one album when albumID is set, with their URLs.
func (s *GalleryService) ListItems(ctx context.Context, albumID string) ([]domain.GalleryItem, error) {
	ctx, span := contentTracer.Start(ctx, "GalleryService.ListItems")
	defer span.End()

	items, err := s.store.ListGalleryItems(ctx, albumID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].URL = s.uploader.URL(BucketGallery, items[i].FilePath)
	}
	return items, nil
}

func (s *GalleryService) UploadItem(ctx context.Context, req *domain.CreateGalleryItemRequest, file *domain.Upload) (*domain.GalleryItem, error) {
	ctx, span := contentTracer.Start(ctx, "GalleryService.UploadItem")
	defer span.End()

	if file == nil {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo obrigatório"}
	}
	var albumID *string
	if id := strings.TrimSpace(req.AlbumID); id != "" {
		albumID = &id
	}
	key, err := s.uploader.Put(ctx, BucketGallery, file)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = file.FileName
	}
	created, err := s.store.CreateGalleryItem(ctx, &domain.GalleryItem{Title: title, FilePath: key, AlbumID: albumID})
	if err != nil {
		s.uploader.Discard(ctx, BucketGallery, key)
		return nil, &domain.ErrOperation{Message: "Erro ao salvar foto", Err: err}
	}
	created.URL = s.uploader.URL(BucketGallery, key)
	s.logger.Info("gallery item uploaded", zap.String("item_id", created.ID), zap.String("key", key))
	return created, nil
}

func (s *GalleryService) DeleteItem(ctx context.Context, id string) error {
	ctx, span := contentTracer.Start(ctx, "GalleryService.DeleteItem")
	defer span.End()

	item, err := s.store.GetGalleryItem(ctx, id)
	if err != nil {
		return err
	}
	s.uploader.Discard(ctx, BucketGallery, item.FilePath)
	if err := s.store.DeleteGalleryItems(ctx, []string{id}); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir foto", Err: err}
	}
	s.logger.Info("gallery item deleted", zap.String("item_id", id))
	return nil
}

// DeleteAlbum removes every photo object of the album, then the photo rows, then the album.
func (s *GalleryService) DeleteAlbum(ctx context.Context, id string) error {
	ctx, span := contentTracer.Start(ctx, "GalleryService.DeleteAlbum")
	defer span.End()
	span.SetAttributes(attribute.String("album.id", id))

	if _, err := s.store.GetAlbum(ctx, id); err != nil {
		return err
	}
	items, err := s.store.ListGalleryItems(ctx, id)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.FilePath)
		ids = append(ids, it.ID)
	}
	s.uploader.Discard(ctx, BucketGallery, keys...)
	if len(ids) > 0 {
		if err := s.store.DeleteGalleryItems(ctx, ids); err != nil {
			return &domain.ErrOperation{Message: "Erro ao excluir fotos do álbum", Err: err}
		}
	}
	if err := s.store.DeleteAlbum(ctx, id); err != nil {
		return &domain.ErrOperation{Message: "Erro ao excluir álbum", Err: err}
	}
	s.logger.Info("album deleted", zap.String("album_id", id), zap.Int("items", len(ids)))
	return nil
}
