package remote

import (
	"context"
	"errors"
	"time"

	"github.com/silmarabolos/storefront/internal/catalog/remote/objstore"
	"github.com/silmarabolos/storefront/internal/domain"
	"go.uber.org/zap"
)

// DocumentStore is the product collection of the remote backend.
// Implementations assign ids and timestamps on their side.
type DocumentStore interface {
	// Name identifies the store in logs (e.g. "mongo", "postgres")
	Name() string

	// List returns all products ordered by name, sorted by the store
	List(ctx context.Context) ([]domain.Product, error)

	// Get returns a product or domain.ErrNotFound
	Get(ctx context.Context, id string) (domain.Product, error)

	// Insert writes a new document with a store-assigned id and createdAt
	Insert(ctx context.Context, p domain.Product) (domain.Product, error)

	// Merge applies the patch and sets a store-assigned updatedAt
	Merge(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)

	// Remove deletes a document or returns domain.ErrNotFound
	Remove(ctx context.Context, id string) error

	// Ping checks connectivity
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}

// Client is the remote catalog backend: a document store plus an object store for images.
type Client struct {
	docs    DocumentStore
	blobs   objstore.Store
	timeout time.Duration
	now     func() time.Time
}

// NewClient creates the remote backend. blobs may be nil, in which case uploads fail.
// timeout bounds each call; zero disables it.
func NewClient(docs DocumentStore, blobs objstore.Store, timeout time.Duration) *Client {
	return &Client{docs: docs, blobs: blobs, timeout: timeout, now: time.Now}
}

func (c *Client) Name() string { return "remote/" + c.docs.Name() }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.docs.List(ctx)
}

func (c *Client) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.docs.Get(ctx, id)
}

func (c *Client) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.docs.Insert(ctx, domain.NewProduct(in))
}

// Update merges the patch. When the image URL changes away from an object this
// client stored, the old object is removed best-effort.
func (c *Client) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var oldImage string
	if patch.ImageURL != nil {
		current, err := c.docs.Get(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		if current.ImageURL != *patch.ImageURL {
			oldImage = current.ImageURL
		}
	}

	p, err := c.docs.Merge(ctx, id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	if oldImage != "" {
		c.removeImage(ctx, id, oldImage)
	}
	return p, nil
}

// Delete reads the product first so its image can be removed. The image delete
// never blocks the document delete.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	p, err := c.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.ImageURL != "" {
		c.removeImage(ctx, id, p.ImageURL)
	}
	return c.docs.Remove(ctx, id)
}

// UploadImage stores the blob under images/<unix-millis>_<sanitized name>.
func (c *Client) UploadImage(ctx context.Context, blob *domain.Blob) (string, error) {
	if !blob.Present() {
		return "", domain.ErrNoImage
	}
	key := domain.ImageKey(c.now(), blob.Filename)
	if c.blobs == nil {
		return "", &domain.UploadError{Key: key, Err: errors.New("object storage not configured")}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	url, err := c.blobs.Put(ctx, key, blob)
	if err != nil {
		return "", &domain.UploadError{Key: key, Err: err}
	}
	zap.L().Info("image uploaded",
		zap.String("namespace", "remote"),
		zap.String("key", key),
		zap.String("url", url))
	return url, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.docs.Ping(ctx)
}

func (c *Client) Close(ctx context.Context) error {
	return c.docs.Close(ctx)
}

func (c *Client) removeImage(ctx context.Context, id, url string) {
	if c.blobs == nil || !c.blobs.Owns(url) {
		// external links are not ours to delete
		return
	}
	if err := c.blobs.Delete(ctx, url); err != nil {
		zap.L().Warn("failed to delete product image from object storage",
			zap.String("namespace", "remote"),
			zap.String("product_id", id),
			zap.String("url", url),
			zap.Error(err))
	}
}
