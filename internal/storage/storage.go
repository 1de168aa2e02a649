// Package storage persists uploaded images and hands back the public path
// stored in the database.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/nundung/gamebible/internal/apperror"
)

// MaxImageSize caps a single uploaded image at 10 MiB.
const MaxImageSize = 10 << 20

// ImageStore is what the handlers need from the upload layer. Tests
// substitute an in-memory fake.
type ImageStore interface {
	// SaveImage validates the content type, writes the bytes under a fresh
	// key, and returns the public path to store in the database.
	SaveImage(filename, contentType string, r io.Reader) (string, error)
}

// DiskStore writes images to a local directory served as static files.
// Keys are xid strings, so concurrent uploads never collide and the
// original filename only contributes its extension.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating image root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) SaveImage(filename, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperror.BadRequest("이미지 파일만 업로드할 수 있습니다")
	}

	name := xid.New().String()
	if ext := filepath.Ext(filename); ext != "" {
		name += strings.ToLower(ext)
	}

	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: creating image file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: writing image: %w", err)
	}
	if n > MaxImageSize {
		os.Remove(f.Name())
		return "", apperror.BadRequest("이미지는 10MB 이하여야 합니다")
	}

	return path.Join(s.baseURL, name), nil
}

// Root returns the directory DiskStore writes into, for the static file
// route.
func (s *DiskStore) Root() string {
	return s.root
}
