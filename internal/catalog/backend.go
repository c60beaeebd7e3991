package catalog

import (
	"context"

	"github.com/silmarabolos/storefront/internal/domain"
)

// Backend is a product persistence implementation.
// Each backend assigns its own ids and timestamps.
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// List returns every product ordered by name ascending
	List(ctx context.Context) ([]domain.Product, error)

	// Get returns one product or domain.ErrNotFound
	Get(ctx context.Context, id string) (domain.Product, error)

	// Create stores a new product and returns it with id and createdAt populated
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)

	// Update merges the patch into an existing product and refreshes updatedAt
	Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)

	// Delete removes a product or returns domain.ErrNotFound
	Delete(ctx context.Context, id string) error
}

// ImageUploader stores image blobs and returns a public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, blob *domain.Blob) (string, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
