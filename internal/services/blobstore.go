package services

import (
	"context"
	"time"
)

// BlobStore is the binary object store the orchestrators write to and
// resolve URLs from. *storage.Client implements it; tests substitute doubles.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, keys ...string) error
}
