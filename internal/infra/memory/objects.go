package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"
)

type object struct {
	data        []byte
	contentType string
}

// Objects implements port.ObjectStore and serves the stored files over HTTP
// under the public base it was created with.
type Objects struct {
	mu         sync.RWMutex
	publicBase string
	buckets    map[string]map[string]object
}

// NewObjects returns an empty object store. PublicURL answers publicBase/bucket/key.
func NewObjects(publicBase string) *Objects {
	return &Objects{
		publicBase: strings.TrimRight(publicBase, "/"),
		buckets:    map[string]map[string]object{},
	}
}

func (o *Objects) Upload(_ context.Context, bucket, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	b, ok := o.buckets[bucket]
	if !ok {
		b = map[string]object{}
		o.buckets[bucket] = b
	}
	if _, exists := b[key]; exists {
		return &domain.ErrConflict{Message: "The resource already exists"}
	}
	b[key] = object{data: data, contentType: contentType}
	return nil
}

func (o *Objects) PublicURL(bucket, key string) string {
	return o.publicBase + "/" + bucket + "/" + key
}

func (o *Objects) Remove(_ context.Context, bucket string, keys []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, k := range keys {
		delete(o.buckets[bucket], k)
	}
	return nil
}

// Has reports whether bucket/key is stored.
func (o *Objects) Has(bucket, key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	_, ok := o.buckets[bucket][key]
	return ok
}

// Count is the number of objects in bucket.
func (o *Objects) Count(bucket string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.buckets[bucket])
}

// ServeHTTP serves GET /{bucket}/{key}. Mount it with http.StripPrefix.
func (o *Objects) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	o.mu.RLock()
	obj, found := o.buckets[bucket][key]
	o.mu.RUnlock()
	if !found {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(obj.data))
}
