package dailycache_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachastral/astro-daily/pkg/dailycache"
)

// fakeGCS is an in-memory stand-in for the storage client, keyed by
// bucket/object name.
type fakeGCS struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeGCS() *fakeGCS {
	return &fakeGCS{objects: make(map[string][]byte)}
}

func (f *fakeGCS) Bucket(name string) dailycache.GCSBucketHandle {
	return &fakeBucket{gcs: f, bucket: name}
}

type fakeBucket struct {
	gcs    *fakeGCS
	bucket string
}

func (b *fakeBucket) Object(name string) dailycache.GCSObjectHandle {
	return &fakeObject{gcs: b.gcs, path: b.bucket + "/" + name}
}

type fakeObject struct {
	gcs  *fakeGCS
	path string
}

func (o *fakeObject) NewReader(_ context.Context) (io.ReadCloser, error) {
	o.gcs.mu.Lock()
	defer o.gcs.mu.Unlock()
	data, ok := o.gcs.objects[o.path]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o *fakeObject) NewWriter(_ context.Context) io.WriteCloser {
	return &fakeWriter{gcs: o.gcs, path: o.path}
}

// fakeWriter only commits the object on Close, like the real writer.
type fakeWriter struct {
	gcs  *fakeGCS
	path string
	buf  bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.gcs.mu.Lock()
	defer w.gcs.mu.Unlock()
	w.gcs.objects[w.path] = append([]byte(nil), w.buf.Bytes()...)
	return nil
}

type gcsEntry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

func TestGCSCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Constructor rejects missing prerequisites", func(t *testing.T) {
		_, err := dailycache.NewGCSCache[gcsEntry](nil, dailycache.GCSCacheConfig{BucketName: "b"}, zerolog.Nop())
		assert.Error(t, err)

		_, err = dailycache.NewGCSCache[gcsEntry](newFakeGCS(), dailycache.GCSCacheConfig{}, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("Missing object is a miss", func(t *testing.T) {
		cache, err := dailycache.NewGCSCache[gcsEntry](newFakeGCS(), dailycache.GCSCacheConfig{BucketName: "content"}, zerolog.Nop())
		require.NoError(t, err)

		_, err = cache.FetchFromCache(ctx, dailycache.KeyFor("2026-08-30", "", "horoscope"))
		assert.ErrorIs(t, err, dailycache.ErrMiss)
	})

	t.Run("Write then fetch round-trips", func(t *testing.T) {
		gcs := newFakeGCS()
		cache, err := dailycache.NewGCSCache[gcsEntry](gcs, dailycache.GCSCacheConfig{BucketName: "content", ObjectPrefix: "daily"}, zerolog.Nop())
		require.NoError(t, err)

		key := dailycache.KeyFor("2026-08-30", "", "horoscope")
		want := gcsEntry{Date: "2026-08-30", Text: "hoy"}
		require.NoError(t, cache.WriteToCache(ctx, key, want))

		got, err := cache.FetchFromCache(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// Objects live under the configured prefix.
		_, ok := gcs.objects["content/daily/"+string(key)+".json"]
		assert.True(t, ok)
	})

	t.Run("Corrupt object is treated as a miss", func(t *testing.T) {
		gcs := newFakeGCS()
		cache, err := dailycache.NewGCSCache[gcsEntry](gcs, dailycache.GCSCacheConfig{BucketName: "content"}, zerolog.Nop())
		require.NoError(t, err)

		key := dailycache.KeyFor("2026-08-30", "", "horoscope")
		gcs.objects["content/"+string(key)+".json"] = []byte("{not json")

		_, err = cache.FetchFromCache(ctx, key)
		assert.ErrorIs(t, err, dailycache.ErrMiss)
	})
}
