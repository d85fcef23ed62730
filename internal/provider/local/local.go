// Package local implements a provider backed by a directory on the local
// filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iudanet/journalsync/internal/provider"
)

const tempPrefix = ".upload-"

// Provider stores objects as files under a root directory.
type Provider struct {
	root string
}

var _ provider.Provider = (*Provider)(nil)

// New creates the root directory if needed and returns a provider for it.
func New(root string) (*Provider, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create root %q: %w", abs, err)
	}
	return &Provider{root: abs}, nil
}

// Name returns "local".
func (p *Provider) Name() string {
	return "local"
}

// Root returns the absolute root directory.
func (p *Provider) Root() string {
	return p.root
}

func (p *Provider) resolve(remotePath string) (string, string, error) {
	clean, err := provider.CleanPath(remotePath)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(p.root, filepath.FromSlash(clean)), nil
}

// Upload writes the object through a temp file and renames it into place.
func (p *Provider) Upload(ctx context.Context, remotePath string, r io.Reader, size int64) (provider.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return provider.Metadata{}, provider.Transient("upload", remotePath, err)
	}
	clean, full, err := p.resolve(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return provider.Metadata{}, classify("upload", clean, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return provider.Metadata{}, classify("upload", clean, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return provider.Metadata{}, provider.Transient("upload", clean, err)
	}
	if size >= 0 && written != size {
		tmp.Close()
		return provider.Metadata{}, provider.Transient("upload", clean,
			fmt.Errorf("short write: expected %d bytes, got %d", size, written))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return provider.Metadata{}, classify("upload", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return provider.Metadata{}, classify("upload", clean, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return provider.Metadata{}, classify("upload", clean, err)
	}

	return p.Stat(ctx, clean)
}

// Download copies the object into w.
func (p *Provider) Download(ctx context.Context, remotePath string, w io.Writer) (provider.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return provider.Metadata{}, provider.Transient("download", remotePath, err)
	}
	clean, full, err := p.resolve(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}

	f, err := os.Open(full)
	if err != nil {
		return provider.Metadata{}, classify("download", clean, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return provider.Metadata{}, classify("download", clean, err)
	}
	if info.IsDir() {
		return provider.Metadata{}, provider.Permanent("download", clean, fmt.Errorf("is a folder"))
	}
	if _, err := io.Copy(w, f); err != nil {
		return provider.Metadata{}, provider.Transient("download", clean, err)
	}
	return metadata(clean, info), nil
}

// List walks the folder at prefix. A missing prefix yields an empty list.
func (p *Provider) List(ctx context.Context, prefix string) ([]provider.Metadata, error) {
	base := p.root
	if strings.Trim(prefix, "/") != "" {
		var err error
		_, base, err = p.resolve(prefix)
		if err != nil {
			return nil, err
		}
	}

	var items []provider.Metadata
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == base {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		items = append(items, metadata(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, provider.Transient("list", prefix, err)
		}
		return nil, classify("list", prefix, err)
	}
	return items, nil
}

// Delete removes a file or a folder tree.
func (p *Provider) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return provider.Transient("delete", remotePath, err)
	}
	clean, full, err := p.resolve(remotePath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(full); err != nil {
		return classify("delete", clean, err)
	}
	if err := os.RemoveAll(full); err != nil {
		return classify("delete", clean, err)
	}
	return nil
}

// Stat returns the object's metadata or provider.ErrNotFound.
func (p *Provider) Stat(ctx context.Context, remotePath string) (provider.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return provider.Metadata{}, provider.Transient("stat", remotePath, err)
	}
	clean, full, err := p.resolve(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return provider.Metadata{}, classify("stat", clean, err)
	}
	return metadata(clean, info), nil
}

// CreateFolder creates the folder and its parents.
func (p *Provider) CreateFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return provider.Transient("create_folder", folder, err)
	}
	clean, full, err := p.resolve(folder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o750); err != nil {
		return classify("create_folder", clean, err)
	}
	return nil
}

func metadata(remotePath string, info fs.FileInfo) provider.Metadata {
	return provider.Metadata{
		Path:         remotePath,
		Size:         info.Size(),
		LastModified: info.ModTime().UTC(),
		IsDir:        info.IsDir(),
	}
}

func classify(op, remotePath string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, remotePath, provider.ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return provider.Permanent(op, remotePath, err)
	default:
		return provider.Transient(op, remotePath, err)
	}
}
