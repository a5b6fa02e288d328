package dailycache

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore-backed cache.
type FirestoreConfig struct {
	ProjectID      string
	CollectionName string
}

// firestoreDoc wraps the JSON-encoded entry so arbitrary payload types can
// be stored without a Firestore-specific field mapping.
type firestoreDoc struct {
	Payload []byte `firestore:"payload"`
}

// FirestoreCache stores one document per key in a Firestore collection.
// Suitable for low-volume deployments; use Redis where volume matters.
type FirestoreCache[V any] struct {
	client         *firestore.Client
	collectionName string
	logger         zerolog.Logger
}

// NewFirestoreCache creates a new FirestoreCache. The client's lifecycle is
// managed by the caller.
func NewFirestoreCache[V any](cfg *FirestoreConfig, client *firestore.Client, logger zerolog.Logger) (*FirestoreCache[V], error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreCache initialized.")

	return &FirestoreCache[V]{
		client:         client,
		collectionName: cfg.CollectionName,
		logger:         logger.With().Str("component", "FirestoreCache").Logger(),
	}, nil
}

// FetchFromCache retrieves a single document by key, or ErrMiss.
func (c *FirestoreCache[V]) FetchFromCache(ctx context.Context, key Key) (V, error) {
	var zero V
	docRef := c.client.Collection(c.collectionName).Doc(string(key))
	docSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return zero, ErrMiss
		}
		c.logger.Error().Err(err).Str("key", string(key)).Msg("Failed to get document from Firestore.")
		return zero, fmt.Errorf("firestore get for %s: %w", key, err)
	}

	var doc firestoreDoc
	if err := docSnap.DataTo(&doc); err != nil {
		c.logger.Error().Err(err).Str("key", string(key)).Msg("Failed to map Firestore document data.")
		return zero, fmt.Errorf("firestore DataTo for %s: %w", key, err)
	}

	var value V
	if err := json.Unmarshal(doc.Payload, &value); err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Corrupt cache document, treating as miss.")
		return zero, ErrMiss
	}

	c.logger.Debug().Str("key", string(key)).Msg("Successfully fetched entry from Firestore.")
	return value, nil
}

// WriteToCache writes the entry document, overwriting unconditionally.
func (c *FirestoreCache[V]) WriteToCache(ctx context.Context, key Key, value V) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	_, err = c.client.Collection(c.collectionName).Doc(string(key)).Set(ctx, firestoreDoc{Payload: payload})
	if err != nil {
		return fmt.Errorf("firestore set for %s: %w", key, err)
	}
	c.logger.Debug().Str("key", string(key)).Msg("Successfully wrote entry to Firestore.")
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (c *FirestoreCache[V]) Close() error {
	return nil
}
