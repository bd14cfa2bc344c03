// Package objectstore provides blob storage backends for uploaded file
// content referenced from rich-text documents.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore stores blobs as files under a root directory and returns URLs
// rooted at a configured base. It satisfies the content resolver's blob
// store contract.
type DiskStore struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

// NewDiskStore creates a DiskStore writing under root and minting URLs
// under baseURL. The root directory is created if missing.
func NewDiskStore(root, baseURL string, logger *slog.Logger) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("objectstore root cannot be empty")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("objectstore base URL cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create objectstore root: %w", err)
	}

	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("component", "disk_object_store")),
	}, nil
}

// Put writes the blob under the given storage path and returns its public
// URL. Path traversal outside the root is rejected.
func (s *DiskStore) Put(ctx context.Context, path string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}

	target := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debug("blob stored",
		slog.String("path", clean),
		slog.Int("size", len(data)))

	segments := strings.Split(filepath.ToSlash(clean), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}
