package supabase

import (
	"context"
	"net/url"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// NewsStore, EventStore, DocumentStore, GalleryStore
// ============================================================

const (
	tableNews         = "news"
	tableEvents       = "events"
	tableDocuments    = "documents"
	tableAlbums       = "albums"
	tableGalleryItems = "gallery_items"

	rpcDeleteOldEvents = "delete_old_events"
)

// --- News ---

func (c *Client) ListNews(ctx context.Context) ([]domain.News, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNews")
	defer span.End()

	rows := []domain.News{}
	if err := c.selectRows(ctx, tableNews, url.Values{"order": {"published_at.desc"}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetNews(ctx context.Context, id string) (*domain.News, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetNews")
	defer span.End()

	var rows []domain.News
	if err := c.selectRows(ctx, tableNews, url.Values{"id": {eq(id)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "news", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) CreateNews(ctx context.Context, n *domain.News) (*domain.News, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateNews")
	defer span.End()

	record := map[string]any{
		"title":    n.Title,
		"body":     n.Body,
		"category": n.Category,
		"author":   n.Author,
		"file_url": nullable(n.FileURL),
	}
	var out domain.News
	if err := c.insertRow(ctx, tableNews, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteNews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteNews")
	defer span.End()

	return c.deleteRows(ctx, tableNews, url.Values{"id": {eq(id)}})
}

// --- Events ---

// ListEvents returns events still running on day from (YYYY-MM-DD), by start date.
// An empty from lists every event.
func (c *Client) ListEvents(ctx context.Context, from string) ([]domain.Event, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEvents")
	defer span.End()
	span.SetAttributes(attribute.String("events.from", from))

	q := url.Values{"order": {"start_date.asc"}}
	if from != "" {
		q.Set("or", "(end_date.gte."+from+",and(end_date.is.null,start_date.gte."+from+"))")
	}
	rows := []domain.Event{}
	if err := c.selectRows(ctx, tableEvents, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEvent")
	defer span.End()

	var rows []domain.Event
	if err := c.selectRows(ctx, tableEvents, url.Values{"id": {eq(id)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "event", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) CreateEvent(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateEvent")
	defer span.End()

	record := map[string]any{
		"title":       e.Title,
		"description": e.Description,
		"start_date":  e.StartDate,
		"end_date":    e.EndDate,
		"file_url":    nullable(e.FileURL),
	}
	var out domain.Event
	if err := c.insertRow(ctx, tableEvents, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteEvent")
	defer span.End()

	return c.deleteRows(ctx, tableEvents, url.Values{"id": {eq(id)}})
}

// DeleteOldEvents runs the backend purge routine.
func (c *Client) DeleteOldEvents(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOldEvents")
	defer span.End()

	return c.rpc(ctx, rpcDeleteOldEvents, nil, nil)
}

// --- Documents ---

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDocuments")
	defer span.End()

	rows := []domain.Document{}
	if err := c.selectRows(ctx, tableDocuments, url.Values{"order": {"created_at.desc"}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDocument")
	defer span.End()

	var rows []domain.Document
	if err := c.selectRows(ctx, tableDocuments, url.Values{"id": {eq(id)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "document", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) CreateDocument(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDocument")
	defer span.End()

	record := map[string]any{
		"title":     d.Title,
		"category":  d.Category,
		"file_path": d.FilePath,
		"file_type": d.FileType,
		"file_size": d.FileSize,
	}
	var out domain.Document
	if err := c.insertRow(ctx, tableDocuments, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDocument")
	defer span.End()

	return c.deleteRows(ctx, tableDocuments, url.Values{"id": {eq(id)}})
}

// --- Albums & gallery ---

func (c *Client) ListAlbums(ctx context.Context) ([]domain.Album, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAlbums")
	defer span.End()

	rows := []domain.Album{}
	if err := c.selectRows(ctx, tableAlbums, url.Values{"order": {"created_at.desc"}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetAlbum(ctx context.Context, id string) (*domain.Album, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAlbum")
	defer span.End()

	var rows []domain.Album
	if err := c.selectRows(ctx, tableAlbums, url.Values{"id": {eq(id)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "album", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) CreateAlbum(ctx context.Context, a *domain.Album) (*domain.Album, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAlbum")
	defer span.End()

	record := map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"created_by":  nullable(a.CreatedBy),
	}
	var out domain.Album
	if err := c.insertRow(ctx, tableAlbums, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAlbum(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAlbum")
	defer span.End()

	return c.deleteRows(ctx, tableAlbums, url.Values{"id": {eq(id)}})
}

// ListGalleryItems lists photos, newest first; an empty albumID lists every photo.
func (c *Client) ListGalleryItems(ctx context.Context, albumID string) ([]domain.GalleryItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGalleryItems")
	defer span.End()

	q := url.Values{"order": {"created_at.desc"}}
	if albumID != "" {
		q.Set("album_id", eq(albumID))
	}
	rows := []domain.GalleryItem{}
	if err := c.selectRows(ctx, tableGalleryItems, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetGalleryItem(ctx context.Context, id string) (*domain.GalleryItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetGalleryItem")
	defer span.End()

	var rows []domain.GalleryItem
	if err := c.selectRows(ctx, tableGalleryItems, url.Values{"id": {eq(id)}, "limit": {"1"}}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "gallery item", ID: id}
	}
	return &rows[0], nil
}

func (c *Client) CreateGalleryItem(ctx context.Context, item *domain.GalleryItem) (*domain.GalleryItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateGalleryItem")
	defer span.End()

	record := map[string]any{
		"title":     item.Title,
		"file_path": item.FilePath,
		"album_id":  item.AlbumID,
	}
	var out domain.GalleryItem
	if err := c.insertRow(ctx, tableGalleryItems, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteGalleryItems(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteGalleryItems")
	defer span.End()
	span.SetAttributes(attribute.Int("gallery.items", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	return c.deleteRows(ctx, tableGalleryItems, url.Values{"id": {in(ids)}})
}
