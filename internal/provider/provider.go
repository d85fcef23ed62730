// Package provider defines the storage backend contract used by the sync
// engine and the backup manager.
package provider

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

//go:generate moq -out provider_mock.go . Provider

// Metadata describes a remote object.
type Metadata struct {
	LastModified time.Time `json:"last_modified"`
	Path         string    `json:"path"`
	ETag         string    `json:"etag,omitempty"`
	Size         int64     `json:"size"`
	IsDir        bool      `json:"is_dir"`
}

// Provider is a remote storage backend. Paths are slash separated and
// relative to the backend root.
type Provider interface {
	// Name returns the provider type, e.g. "local" or "s3".
	Name() string
	// Upload stores size bytes read from r at remotePath, replacing any
	// existing object, and returns the stored object's metadata.
	Upload(ctx context.Context, remotePath string, r io.Reader, size int64) (Metadata, error)
	// Download writes the object at remotePath to w.
	Download(ctx context.Context, remotePath string, w io.Writer) (Metadata, error)
	// List returns every object under prefix, recursively.
	List(ctx context.Context, prefix string) ([]Metadata, error)
	// Delete removes an object, or a folder and everything below it.
	Delete(ctx context.Context, remotePath string) error
	// Stat returns metadata or ErrNotFound.
	Stat(ctx context.Context, remotePath string) (Metadata, error)
	// CreateFolder makes sure a folder exists.
	CreateFolder(ctx context.Context, folder string) error
}

// CleanPath normalizes a remote path and rejects paths leaving the root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	clean := path.Clean("/" + p)
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", Permanent("clean", p, fmt.Errorf("empty remote path"))
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", Permanent("clean", p, fmt.Errorf("remote path escapes root"))
		}
	}
	return clean, nil
}

// Join joins remote path elements with slashes.
func Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(elem...), "/")
}
