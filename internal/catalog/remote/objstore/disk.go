package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/silmarabolos/storefront/internal/domain"
)

// DiskStore writes objects below a directory that the web server exposes
// under BaseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory of stored objects
func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) Put(_ context.Context, key string, blob *domain.Blob) (string, error) {
	path, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, blob.Body); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return d.baseURL + "/" + key, nil
}

func (d *DiskStore) Delete(_ context.Context, url string) error {
	if !d.Owns(url) {
		return ErrForeignURL
	}
	path, err := d.path(strings.TrimPrefix(url, d.baseURL+"/"))
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (d *DiskStore) Owns(url string) bool {
	return strings.HasPrefix(url, d.baseURL+"/")
}

// path resolves key inside dir and refuses keys escaping it
func (d *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.dir, clean), nil
}
