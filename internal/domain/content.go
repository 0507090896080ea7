package domain

import (
	"io"
	"time"
)

// ============================================================
// Content: news, events, documents, gallery
// ============================================================

// DateLayout is the layout of calendar dates stored by the backend.
const DateLayout = "2006-01-02"

// DateOnly trims a timestamp string to its YYYY-MM-DD part.
func DateOnly(s string) string {
	if len(s) >= len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}

// Upload is a file received from the client, ready to be written to object storage.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// News is an announcement on the home page.
type News struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	FileURL     string    `json:"file_url,omitempty"`
}

// CreateNewsRequest carries the form fields of POST /v1/news.
type CreateNewsRequest struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// Event is an entry of the farm calendar.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   string    `json:"start_date"`
	EndDate     *string   `json:"end_date,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VisibleOn reports whether the event is still listed on day today (YYYY-MM-DD):
// its end date, or its start date when there is no end date, must be today or later.
func (e Event) VisibleOn(today string) bool {
	if e.EndDate != nil && *e.EndDate != "" {
		return DateOnly(*e.EndDate) >= today
	}
	return DateOnly(e.StartDate) >= today
}

// CreateEventRequest carries the form fields of POST /v1/events.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date,omitempty"`
}

// Document is a file of the document library.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	FilePath  string    `json:"file_path"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

// DocumentGroup is the documents of one category.
type DocumentGroup struct {
	Category  string     `json:"category"`
	Documents []Document `json:"documents"`
}

// CreateDocumentRequest carries the form fields of POST /v1/documents.
type CreateDocumentRequest struct {
	Title    string `json:"title" validate:"required"`
	Category string `json:"category"`
}

// Album groups gallery items.
type Album struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateAlbumRequest is the body for POST /v1/albums.
type CreateAlbumRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

// GalleryItem is a photo; AlbumID is nil for loose photos.
type GalleryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FilePath  string    `json:"file_path"`
	AlbumID   *string   `json:"album_id"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

// CreateGalleryItemRequest carries the form fields of POST /v1/gallery.
type CreateGalleryItemRequest struct {
	Title   string `json:"title"`
	AlbumID string `json:"album_id,omitempty"`
}
