package handler

import (
	"net/http"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// ============================================================
// News
// ============================================================

func listNewsHandler(svc *service.NewsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/news")
		defer span.End()

		list, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createNewsHandler(svc *service.NewsService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/news")
		defer span.End()

		var req domain.CreateNewsRequest
		var file *domain.Upload
		if isMultipart(r) {
			f, release, err := parseUpload(w, r, "file", maxBytes)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			defer release()
			file = f
			req = domain.CreateNewsRequest{Title: r.FormValue("title"), Body: r.FormValue("body"), Category: r.FormValue("category")}
			if err := validateStruct(&req); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		} else if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.Create(ctx, ViewerFromContext(ctx), &req, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteNewsHandler(svc *service.NewsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/news/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Notícia excluída", ID: id})
	}
}

// ============================================================
// Events
// ============================================================

func listEventsHandler(svc *service.EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/events")
		defer span.End()

		list, err := svc.ListUpcoming(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createEventHandler(svc *service.EventService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/events")
		defer span.End()

		var req domain.CreateEventRequest
		var file *domain.Upload
		if isMultipart(r) {
			f, release, err := parseUpload(w, r, "file", maxBytes)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			defer release()
			file = f
			req = domain.CreateEventRequest{
				Title:       r.FormValue("title"),
				Description: r.FormValue("description"),
				StartDate:   r.FormValue("start_date"),
				EndDate:     r.FormValue("end_date"),
			}
			if err := validateStruct(&req); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		} else if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.Create(ctx, &req, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteEventHandler(svc *service.EventService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/events/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Evento excluído", ID: id})
	}
}

// ============================================================
// Documents
// ============================================================

// listDocumentsHandler returns a flat list, or groups by category with ?grouped=true.
func listDocumentsHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/documents")
		defer span.End()

		if r.URL.Query().Get("grouped") == "true" {
			groups, err := svc.Grouped(ctx)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, groups)
			return
		}

		list, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func uploadDocumentHandler(svc *service.DocumentService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/documents")
		defer span.End()

		file, release, err := parseUpload(w, r, "file", maxBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer release()

		req := domain.CreateDocumentRequest{Title: r.FormValue("title"), Category: r.FormValue("category")}
		if err := validateStruct(&req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.Upload(ctx, &req, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/documents/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Documento excluído", ID: id})
	}
}

// ============================================================
// Gallery
// ============================================================

func listAlbumsHandler(svc *service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/albums")
		defer span.End()

		list, err := svc.ListAlbums(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createAlbumHandler(svc *service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/albums")
		defer span.End()

		var req domain.CreateAlbumRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		created, err := svc.CreateAlbum(ctx, ViewerFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteAlbumHandler(svc *service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/albums/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteAlbum(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Álbum excluído", ID: id})
	}
}

func listGalleryHandler(svc *service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/gallery")
		defer span.End()

		list, err := svc.ListItems(ctx, r.URL.Query().Get("album_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func uploadGalleryItemHandler(svc *service.GalleryService, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/gallery")
		defer span.End()

		file, release, err := parseUpload(w, r, "file", maxBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer release()

		req := domain.CreateGalleryItemRequest{Title: r.FormValue("title"), AlbumID: r.FormValue("album_id")}
		created, err := svc.UploadItem(ctx, &req, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteGalleryItemHandler(svc *service.GalleryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/gallery/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteItem(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Foto excluída", ID: id})
	}
}
