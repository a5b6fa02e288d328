package dailycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

// ====================================================================================
// The GCS client is abstracted behind small interfaces so the cache can be
// unit tested without a real bucket.
// ====================================================================================

// GCSClient abstracts the top-level *storage.Client.
type GCSClient interface {
	Bucket(name string) GCSBucketHandle
}

// GCSBucketHandle abstracts a *storage.BucketHandle.
type GCSBucketHandle interface {
	Object(name string) GCSObjectHandle
}

// GCSObjectHandle abstracts a *storage.ObjectHandle.
type GCSObjectHandle interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	NewWriter(ctx context.Context) io.WriteCloser
}

// NewGCSClientAdapter makes the concrete *storage.Client conform to GCSClient.
func NewGCSClientAdapter(client *storage.Client) GCSClient {
	if client == nil {
		return nil
	}
	return &gcsClientAdapter{client: client}
}

type gcsClientAdapter struct {
	client *storage.Client
}

func (a *gcsClientAdapter) Bucket(name string) GCSBucketHandle {
	return &gcsBucketHandleAdapter{handle: a.client.Bucket(name)}
}

type gcsBucketHandleAdapter struct {
	handle *storage.BucketHandle
}

func (a *gcsBucketHandleAdapter) Object(name string) GCSObjectHandle {
	return &gcsObjectHandleAdapter{handle: a.handle.Object(name)}
}

type gcsObjectHandleAdapter struct {
	handle *storage.ObjectHandle
}

func (a *gcsObjectHandleAdapter) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return a.handle.NewReader(ctx)
}

func (a *gcsObjectHandleAdapter) NewWriter(ctx context.Context) io.WriteCloser {
	return a.handle.NewWriter(ctx)
}

// GCSCacheConfig holds configuration for the GCS-backed cache.
type GCSCacheConfig struct {
	BucketName   string
	ObjectPrefix string
}

// GCSCache stores one JSON object per key in a Cloud Storage bucket. It is
// the durable equivalent of the file-per-key scratch cache: objects for
// past days remain until a bucket lifecycle rule removes them.
type GCSCache[V any] struct {
	client GCSClient
	config GCSCacheConfig
	logger zerolog.Logger
}

// NewGCSCache creates a cache backed by Google Cloud Storage.
func NewGCSCache[V any](gcsClient GCSClient, config GCSCacheConfig, logger zerolog.Logger) (*GCSCache[V], error) {
	if gcsClient == nil {
		return nil, errors.New("GCS client cannot be nil")
	}
	if config.BucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	return &GCSCache[V]{
		client: gcsClient,
		config: config,
		logger: logger.With().Str("component", "GCSCache").Logger(),
	}, nil
}

// FetchFromCache reads and decodes the object for key, or ErrMiss.
func (c *GCSCache[V]) FetchFromCache(ctx context.Context, key Key) (V, error) {
	var zero V
	obj := c.client.Bucket(c.config.BucketName).Object(c.objectName(key))
	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return zero, ErrMiss
		}
		return zero, fmt.Errorf("failed to open GCS object for %s: %w", key, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return zero, fmt.Errorf("failed to read GCS object for %s: %w", key, err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Corrupt cache object, treating as miss.")
		return zero, ErrMiss
	}
	return value, nil
}

// WriteToCache encodes and uploads the entry, overwriting unconditionally.
func (c *GCSCache[V]) WriteToCache(ctx context.Context, key Key, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	writer := c.client.Bucket(c.config.BucketName).Object(c.objectName(key)).NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write GCS object for %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS object for %s: %w", key, err)
	}

	c.logger.Debug().Str("key", string(key)).Msg("Successfully stored entry in GCS.")
	return nil
}

// Close is a no-op as the storage client's lifecycle is managed externally.
func (c *GCSCache[V]) Close() error {
	return nil
}

func (c *GCSCache[V]) objectName(key Key) string {
	return path.Join(c.config.ObjectPrefix, string(key)+".json")
}
