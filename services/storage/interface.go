package storage

import (
	"context"
	"io"
	"time"
)

// Object identifies a stored file.
type Object struct {
	ID  string // Driver-specific identifier used for delete and signing
	URL string
}

// ObjectStore is the object-storage collaborator used by document attachment.
type ObjectStore interface {
	Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader) (Object, error)
	Delete(ctx context.Context, id string) error
	SignedURL(ctx context.Context, id string, ttl time.Duration) (string, error)
}
