package objstore

import (
	"context"
	"errors"

	"github.com/silmarabolos/storefront/internal/domain"
)

// ErrForeignURL is returned by Delete when the URL was not produced by the store.
var ErrForeignURL = errors.New("url does not belong to this object store")

// Store is the interface for image object storage.
// Supports multiple providers: S3-compatible services, local disk, etc.
type Store interface {
	// Put uploads the blob under key and returns a publicly resolvable URL
	Put(ctx context.Context, key string, blob *domain.Blob) (url string, err error)

	// Delete removes the object a previously returned URL points to
	Delete(ctx context.Context, url string) error

	// Owns reports whether url was produced by this store
	Owns(url string) bool
}
