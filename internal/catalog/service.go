package catalog

import (
	"context"
	"errors"

	"github.com/silmarabolos/storefront/internal/domain"
	"go.uber.org/zap"
)

// FallbackService is the catalog API used by the HTTP layer.
// Every operation runs against the backends in order and returns the first success.
// Backends are never reconciled: a write that lands on a fallback backend stays there.
type FallbackService struct {
	backends []Backend
	uploader ImageUploader
}

// NewFallbackService creates the service. uploader may be nil when no object store is configured.
func NewFallbackService(uploader ImageUploader, backends ...Backend) *FallbackService {
	return &FallbackService{backends: backends, uploader: uploader}
}

// Backends returns the configured chain in order
func (s *FallbackService) Backends() []Backend {
	return s.backends
}

// ListProducts returns the catalog ordered by name.
func (s *FallbackService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.run("list", "", func(b Backend) error {
		var err error
		out, err = b.List(ctx)
		return err
	})
	return out, err
}

// GetProduct returns a single product.
func (s *FallbackService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	if id == "" {
		return out, domain.ErrNotFound
	}
	err := s.run("get", id, func(b Backend) error {
		var err error
		out, err = b.Get(ctx, id)
		return err
	})
	return out, err
}

// AddProduct validates the input, uploads the optional image and creates the product.
// An image upload failure aborts the call before any backend write.
func (s *FallbackService) AddProduct(ctx context.Context, in domain.ProductInput, image *domain.Blob) (domain.Product, error) {
	var out domain.Product
	in, err := in.Normalize()
	if err != nil {
		return out, err
	}
	if image.Present() {
		url, err := s.UploadImage(ctx, image)
		if err != nil {
			return out, err
		}
		in.ImageURL = url
	}
	err = s.run("create", "", func(b Backend) error {
		var err error
		out, err = b.Create(ctx, in)
		return err
	})
	return out, err
}

// UpdateProduct validates the patch, uploads the optional image and updates the product.
func (s *FallbackService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch, image *domain.Blob) (domain.Product, error) {
	var out domain.Product
	if id == "" {
		return out, domain.ErrNotFound
	}
	patch, err := patch.Normalize()
	if err != nil {
		return out, err
	}
	if image.Present() {
		url, err := s.UploadImage(ctx, image)
		if err != nil {
			return out, err
		}
		patch.ImageURL = &url
	}
	err = s.run("update", id, func(b Backend) error {
		var err error
		out, err = b.Update(ctx, id, patch)
		return err
	})
	return out, err
}

// DeleteProduct removes a product.
func (s *FallbackService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	return s.run("delete", id, func(b Backend) error {
		return b.Delete(ctx, id)
	})
}

// UploadImage stores the blob through the uploader. There is no fallback:
// a local blob reference would not be visible to other devices.
func (s *FallbackService) UploadImage(ctx context.Context, image *domain.Blob) (string, error) {
	if !image.Present() {
		return "", domain.ErrNoImage
	}
	if s.uploader == nil {
		return "", &domain.UploadError{Key: image.Filename, Err: errors.New("no object store configured")}
	}
	url, err := s.uploader.UploadImage(ctx, image)
	if err != nil {
		zap.L().Error("image upload failed",
			zap.String("namespace", "catalog"),
			zap.String("filename", image.Filename),
			zap.Error(err))
		return "", err
	}
	return url, nil
}

// run executes op against each backend until one succeeds. Backend failures and
// NotFound move on to the next backend; validation and upload errors propagate
// as is. The error of the last backend tried is returned unchanged.
func (s *FallbackService) run(op, id string, fn func(b Backend) error) error {
	if len(s.backends) == 0 {
		return &domain.BackendError{Backend: "catalog", Op: op, Err: errors.New("no backends configured")}
	}
	var err error
	for i, b := range s.backends {
		err = fn(b)
		if err == nil {
			if i > 0 {
				zap.L().Info("catalog operation served by fallback backend",
					zap.String("namespace", "catalog"),
					zap.String("op", op),
					zap.String("backend", b.Name()),
					zap.String("id", id))
			}
			return nil
		}
		if !fallsBack(err) {
			return err
		}
		if i < len(s.backends)-1 {
			zap.L().Warn("catalog backend failed, falling back",
				zap.String("namespace", "catalog"),
				zap.String("op", op),
				zap.String("backend", b.Name()),
				zap.String("next", s.backends[i+1].Name()),
				zap.String("id", id),
				zap.Error(err))
		}
	}
	return err
}

// fallsBack reports whether the next backend should be tried after err.
func fallsBack(err error) bool {
	return !domain.IsValidation(err) && !domain.IsUpload(err)
}
