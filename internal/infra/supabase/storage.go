package supabase

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ObjectStore over Supabase Storage (/storage/v1)
// ============================================================

func objectPath(bucket, key string) string {
	return "/storage/v1/object/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

// Upload writes body under bucket/key. Existing objects are not overwritten.
func (c *Client) Upload(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("storage.bucket", bucket),
		attribute.String("storage.key", key),
		attribute.Int64("storage.size", size),
	)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        objectPath(bucket, key),
		raw:         body,
		contentType: contentType,
		headers:     map[string]string{"x-upsert": "false", "cache-control": "3600"},
	})
	return wrapErr("storage", err)
}

// PublicURL returns the public address of bucket/key. Buckets are public.
func (c *Client) PublicURL(bucket, key string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + url.PathEscape(key)
}

// Remove deletes keys from bucket in one call. Missing objects are ignored by Storage.
func (c *Client) Remove(ctx context.Context, bucket string, keys []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("storage.bucket", bucket), attribute.Int("storage.keys", len(keys)))

	if len(keys) == 0 {
		return nil
	}
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/storage/v1/object/" + url.PathEscape(bucket),
		body:   map[string]any{"prefixes": keys},
	})
	return wrapErr("storage", err)
}
