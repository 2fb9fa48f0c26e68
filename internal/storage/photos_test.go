package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/VadimVthvPro/PRO-pitashka/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 - минимальный S3 endpoint: бакет создаётся PUT-ом, объекты складываются в map
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestPhotoArchive(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	archive, err := NewPhotoArchive(ctx, config.StorageConfig{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "food-photos",
	})
	require.NoError(t, err)
	assert.True(t, fake.buckets["food-photos"])

	key, err := archive.SavePhoto(ctx, 42, []byte("\xff\xd8\xff\xe0 jpeg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "photos/42/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.objects, "food-photos/"+key)
}

func TestPhotoKeyUnique(t *testing.T) {
	assert.NotEqual(t, PhotoKey(1), PhotoKey(1))
}
