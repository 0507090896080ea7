package service

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/observability"
	"github.com/fazenda-socios/portal-bfa-go/internal/infra/resilience"
	"github.com/fazenda-socios/portal-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var uploadTracer = otel.Tracer("service/upload")

// Storage buckets.
const (
	BucketNews      = "news"
	BucketEvents    = "events"
	BucketDocuments = "documents"
	BucketGallery   = "gallery"
	BucketProducts  = "products"
)

// Uploader writes client files to object storage under randomized keys.
// Concurrent uploads are bounded by a bulkhead.
type Uploader struct {
	objects  port.ObjectStore
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewUploader(objects port.ObjectStore, maxConcurrent int, metrics *observability.Metrics, logger *zap.Logger) *Uploader {
	return &Uploader{
		objects:  objects,
		bulkhead: resilience.NewBulkhead(maxConcurrent),
		metrics:  metrics,
		logger:   logger,
	}
}

// ObjectKey is a random name keeping the original extension, lower-cased.
func ObjectKey(fileName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
}

// Put uploads f to bucket and returns its key.
func (u *Uploader) Put(ctx context.Context, bucket string, f *domain.Upload) (string, error) {
	ctx, span := uploadTracer.Start(ctx, "Uploader.Put")
	defer span.End()

	key := ObjectKey(f.FileName)
	span.SetAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.String("storage.key", key),
		attribute.Int64("storage.size", f.Size),
	)

	if err := u.bulkhead.Acquire(ctx); err != nil {
		return "", &domain.ErrTimeout{Operation: "upload"}
	}
	defer u.bulkhead.Release()

	if err := u.objects.Upload(ctx, bucket, key, f.Body, f.Size, f.ContentType); err != nil {
		return "", &domain.ErrOperation{Message: "Erro ao enviar arquivo", Err: err}
	}

	u.metrics.IncrEvent(observability.EventUpload)
	u.logger.Info("file uploaded",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("size", f.Size),
	)
	return key, nil
}

// PutPublic uploads f and returns its public URL.
func (u *Uploader) PutPublic(ctx context.Context, bucket string, f *domain.Upload) (string, error) {
	key, err := u.Put(ctx, bucket, f)
	if err != nil {
		return "", err
	}
	return u.objects.PublicURL(bucket, key), nil
}

func (u *Uploader) URL(bucket, key string) string {
	if key == "" {
		return ""
	}
	return u.objects.PublicURL(bucket, key)
}

// Discard removes objects, logging failures instead of returning them.
func (u *Uploader) Discard(ctx context.Context, bucket string, keys ...string) {
	live := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			live = append(live, k)
		}
	}
	if len(live) == 0 {
		return
	}
	if err := u.objects.Remove(ctx, bucket, live); err != nil {
		u.logger.Warn("storage cleanup failed",
			zap.String("bucket", bucket),
			zap.Strings("keys", live),
			zap.Error(err),
		)
	}
}

// KeyFromURL recovers the object key from a public URL built by PutPublic.
func KeyFromURL(publicURL string) string {
	if publicURL == "" {
		return ""
	}
	return path.Base(publicURL)
}
