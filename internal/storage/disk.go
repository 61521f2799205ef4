package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DiskStorage stores objects as files below a base directory.
type DiskStorage struct {
	basePath string
	baseURL  string
}

// NewDiskStorage creates a store rooted at basePath. Objects are served from
// baseURL; an empty baseURL yields relative names.
func NewDiskStorage(basePath, baseURL string) (*DiskStorage, error) {
	if basePath == "" {
		return nil, errors.New("disk storage: base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("disk storage: create base path: %w", err)
	}
	return &DiskStorage{basePath: basePath, baseURL: baseURL}, nil
}

func (d *DiskStorage) path(name string) (string, string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(d.basePath, filepath.FromSlash(clean)), nil
}

// Save writes the object, failing with ErrExists rather than overwriting.
func (d *DiskStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, path, err := d.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, clean)
		}
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("disk storage write %s: %w", clean, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return joinURL(d.baseURL, clean), nil
}

// Exists reports whether the file is present.
func (d *DiskStorage) Exists(_ context.Context, name string) (bool, error) {
	_, path, err := d.path(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL returns the public URL for name.
func (d *DiskStorage) URL(name string) string {
	clean, err := CleanName(name)
	if err != nil {
		return ""
	}
	return joinURL(d.baseURL, clean)
}
