// Package storage persists generated assets and returns their public URLs.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Object is a stored asset.
type Object struct {
	Key string
	URL string
}

// AssetStore writes asset bytes under a key.
type AssetStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (Object, error)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

// joinURL appends key to base. An empty base yields the bare key.
func joinURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return key
	}
	return base + "/" + key
}
