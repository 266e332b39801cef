package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the path-style calls S3Storage makes.
type fakeS3 struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string]string
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case len(parts) == 1 && r.Method == http.MethodPut:
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[parts[1]] = string(body)
	case r.Method == http.MethodDelete:
		delete(f.objects, parts[1])
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStorage(t *testing.T, existing bool) (*S3Storage, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	fake := &fakeS3{buckets: map[string]bool{"goals": existing}, objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(context.Background(), S3Config{
		Region:        "us-east-1",
		Bucket:        "goals",
		AccessKey:     "test",
		SecretKey:     "test",
		Endpoint:      srv.URL,
		PresignExpiry: 15 * time.Minute,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3StorageCreatesMissingBucket(t *testing.T) {
	_, fake := newFakeStorage(t, false)

	assert.True(t, fake.buckets["goals"])
	assert.Equal(t, []string{"HEAD /goals", "PUT /goals"}, fake.requests)
}

func TestS3StorageSaveDeleteURL(t *testing.T) {
	ctx := context.Background()
	s, fake := newFakeStorage(t, true)

	key := "archives/goals-20250310T090000Z.json"
	require.NoError(t, s.Save(ctx, key, strings.NewReader(`{"count":0}`), "application/json"))
	assert.Contains(t, fake.objects[key], `{"count":0}`)

	url, err := s.URL(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, url, "/goals/"+key)
	assert.Contains(t, url, "X-Amz-Expires=900")

	require.NoError(t, s.Delete(ctx, key))
	assert.NotContains(t, fake.objects, key)
}
