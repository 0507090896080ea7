package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/service"
)

func TestEvents_ListUpcomingHidesPastEvents(t *testing.T) {
	f := newFixture(t)
	today := func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	svc := service.NewEventService(f.store, f.uploader, f.logger)
	svc.SetClock(today)
	ctx := context.Background()

	for _, req := range []domain.CreateEventRequest{
		{Title: "Festa junina", StartDate: "2025-03-01", EndDate: "2025-03-10"},
		{Title: "Assembleia", StartDate: "2025-03-09"},
		{Title: "Mutirão", StartDate: "2025-03-05", EndDate: "2025-03-09"},
		{Title: "Cavalgada", StartDate: "2025-04-01"},
	} {
		_, err := svc.Create(ctx, &req, nil)
		require.NoError(t, err)
	}

	f.store.SetClock(today)
	events, err := svc.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Festa junina", events[0].Title)
	assert.Equal(t, "Cavalgada", events[1].Title)

	all, err := f.store.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "past events purged")
}

func TestEvents_EndBeforeStart(t *testing.T) {
	f := newFixture(t)
	svc := service.NewEventService(f.store, f.uploader, f.logger)

	_, err := svc.Create(context.Background(), &domain.CreateEventRequest{Title: "X", StartDate: "2025-03-10", EndDate: "2025-03-01"}, nil)
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_date", verr.Field)
}

func TestNews_DeleteRemovesAttachment(t *testing.T) {
	f := newFixture(t)
	svc := service.NewNewsService(f.store, f.uploader, f.logger)
	admin := f.profile(t, "a-1", domain.RoleAdmin, true)
	ctx := context.Background()

	n, err := svc.Create(ctx, admin, &domain.CreateNewsRequest{Title: "Poda", Body: "Sábado", Category: "avisos"}, upload("aviso.pdf", "%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "Usuário a-1", n.Author)
	assert.Equal(t, 1, f.objects.Count(service.BucketNews))

	require.NoError(t, svc.Delete(ctx, n.ID))
	assert.Zero(t, f.objects.Count(service.BucketNews))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDocuments_UploadListAndGroup(t *testing.T) {
	f := newFixture(t)
	svc := service.NewDocumentService(f.store, f.uploader, f.logger)
	ctx := context.Background()

	_, err := svc.Upload(ctx, &domain.CreateDocumentRequest{Title: "Estatuto", Category: "Atas"}, upload("Estatuto.PDF", "%PDF"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, &domain.CreateDocumentRequest{Title: "Planta"}, upload("planta.png", "png"))
	require.NoError(t, err)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, "http://files.test/documents/"+d.FilePath, d.URL)
	}

	groups, err := svc.Grouped(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Atas", groups[0].Category)
	assert.Equal(t, service.UncategorizedLabel, groups[1].Category)

	require.NoError(t, svc.Delete(ctx, docs[0].ID))
	assert.Equal(t, 1, f.objects.Count(service.BucketDocuments))
}

func TestDocuments_UploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	svc := service.NewDocumentService(f.store, f.uploader, f.logger)

	_, err := svc.Upload(context.Background(), &domain.CreateDocumentRequest{Title: "Vazio"}, nil)
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
}

func TestGallery_DeleteAlbumCascades(t *testing.T) {
	f := newFixture(t)
	svc := service.NewGalleryService(f.store, f.uploader, f.logger)
	admin := f.profile(t, "a-1", domain.RoleAdmin, true)
	ctx := context.Background()

	album, err := svc.CreateAlbum(ctx, admin, &domain.CreateAlbumRequest{Title: "Colheita 2025"})
	require.NoError(t, err)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		_, err := svc.UploadItem(ctx, &domain.CreateGalleryItemRequest{AlbumID: album.ID}, upload(name, name))
		require.NoError(t, err)
	}
	loose, err := svc.UploadItem(ctx, &domain.CreateGalleryItemRequest{Title: "Solta"}, upload("d.jpg", "d"))
	require.NoError(t, err)
	assert.Nil(t, loose.AlbumID)

	items, err := svc.ListItems(ctx, album.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		assert.Equal(t, "http://files.test/gallery/"+it.FilePath, it.URL)
	}

	require.NoError(t, svc.DeleteAlbum(ctx, album.ID))

	left, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, loose.ID, left[0].ID)
	assert.Equal(t, 1, f.objects.Count(service.BucketGallery))

	albums, err := svc.ListAlbums(ctx)
	require.NoError(t, err)
	assert.Empty(t, albums)
}
