// Package backup creates point-in-time archives of tracked files on the
// provider, restores them and prunes old archives by retention count.
//
// An archive is a folder under backup_root:
//
//	<backup_root>/<yyyymmddThhmmssZ>-<id8>/
//	    manifest.json
//	    files/0000-<basename>
//	    files/0001-<basename>
//
// File bodies are zstd compressed and, when encryption is enabled,
// AES-256-GCM encrypted. The manifest is plain JSON.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/journalsync/internal/codec"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/crypto"
	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/metrics"
	"github.com/iudanet/journalsync/internal/models"
	"github.com/iudanet/journalsync/internal/provider"
)

// ErrKeyUnavailable indicates that encryption is required but no key was unlocked.
var ErrKeyUnavailable = errors.New("backup encryption key is not available")

const archiveTimeFormat = "20060102T150405Z"

// ConfigSource provides the current engine configuration snapshot.
type ConfigSource interface {
	Config() config.EngineConfig
}

// Store is the part of the ledger the manager works with.
type Store interface {
	ListEntries(ctx context.Context, dataTypes ...string) ([]*models.SyncEntry, error)
	ledger.BackupStore
}

// FileError is a per-file failure.
type FileError struct {
	LocalPath string `json:"local_path"`
	Error     string `json:"error"`
}

// Manager creates, restores and prunes archives.
type Manager struct {
	store    Store
	provider provider.Provider
	cfg      ConfigSource
	logger   *slog.Logger
	now      func() time.Time

	keyMu sync.RWMutex
	key   []byte
}

// Option customizes a Manager.
type Option func(*Manager)

// WithKey sets the encryption key used when encryption is enabled.
func WithKey(key []byte) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// WithClock overrides the clock used to name archives.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// SetKey replaces the encryption key, for keys unlocked after startup.
func (m *Manager) SetKey(key []byte) {
	m.keyMu.Lock()
	defer m.keyMu.Unlock()
	m.key = key
}

// HasKey reports whether an encryption key is loaded.
func (m *Manager) HasKey() bool {
	return len(m.currentKey()) > 0
}

func (m *Manager) currentKey() []byte {
	m.keyMu.RLock()
	defer m.keyMu.RUnlock()
	return m.key
}

// NewManager creates a backup manager.
func NewManager(store Store, p provider.Provider, cfg ConfigSource, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		provider: p,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "backup")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBackup archives every tracked, non-deleted file whose local copy
// exists. Per-file failures produce a partial archive; they are listed in
// the manifest and do not abort the run.
func (m *Manager) CreateBackup(ctx context.Context) (*models.BackupRecord, error) {
	cfg := m.cfg.Config()

	var key []byte
	if cfg.EncryptionEnabled {
		key = m.currentKey()
		if len(key) == 0 {
			return nil, ErrKeyUnavailable
		}
	}

	entries, err := m.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	now := m.now().UTC()
	id := uuid.New()
	archive := provider.Join(cfg.BackupRoot, now.Format(archiveTimeFormat)+"-"+id.String()[:8])

	if err := m.provider.CreateFolder(ctx, archive); err != nil {
		return nil, fmt.Errorf("failed to create archive folder: %w", err)
	}

	candidates := make([]*models.SyncEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Status == models.StatusDeleted {
			continue
		}
		if _, err := os.Stat(entry.LocalPath); err != nil {
			continue
		}
		candidates = append(candidates, entry)
	}

	manifest := &Manifest{
		Version:   manifestVersion,
		ID:        id.String(),
		CreatedAt: now,
		Encrypted: len(key) > 0,
		Files:     make([]ManifestFile, len(candidates)),
	}

	var g errgroup.Group
	g.SetLimit(max(cfg.SyncWorkers, 1))
	for i, entry := range candidates {
		g.Go(func() error {
			manifest.Files[i] = m.storeFile(ctx, archive, i, entry.LocalPath, cfg.BackupCompression, key)
			return nil
		})
	}
	_ = g.Wait()

	data, err := marshalManifest(manifest)
	if err != nil {
		return nil, err
	}
	if _, err := m.provider.Upload(ctx, provider.Join(archive, ManifestName), bytes.NewReader(data), int64(len(data))); err != nil {
		m.discard(ctx, archive)
		return nil, fmt.Errorf("failed to upload manifest: %w", err)
	}

	rec := &models.BackupRecord{
		Timestamp:         now,
		RemoteArchivePath: archive,
		Status:            models.BackupComplete,
		Encrypted:         manifest.Encrypted,
	}
	var failed int
	for _, f := range manifest.Files {
		if f.Error != "" {
			failed++
			continue
		}
		rec.FileCount++
		rec.TotalSize += f.StoredSize
	}
	if failed > 0 {
		rec.Status = models.BackupPartial
		rec.Note = fmt.Sprintf("%d of %d files failed", failed, len(manifest.Files))
	}

	if err := m.store.AppendBackup(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record backup: %w", err)
	}

	metrics.BackupRunsTotal.WithLabelValues(string(rec.Status)).Inc()
	metrics.BackupBytesTotal.Add(float64(rec.TotalSize))

	m.logger.Info("Backup created",
		"archive", archive,
		"status", rec.Status,
		"files", rec.FileCount,
		"failed", failed,
		"bytes", rec.TotalSize,
		"encrypted", rec.Encrypted)

	return rec, nil
}

// storeFile encodes and uploads one file. Failures are reported in the
// returned manifest entry.
func (m *Manager) storeFile(ctx context.Context, archive string, idx int, localPath string, compress bool, key []byte) ManifestFile {
	f := ManifestFile{
		LocalPath:  localPath,
		Compressed: compress,
		Encrypted:  len(key) > 0,
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		f.Error = fmt.Sprintf("failed to read file: %v", err)
		return f
	}
	f.Size = int64(len(data))
	f.Checksum = crypto.Checksum(data)

	encoded, err := codec.Encode(data, codec.Options{Compress: compress, Key: key})
	if err != nil {
		f.Error = fmt.Sprintf("failed to encode file: %v", err)
		return f
	}

	archivePath := provider.Join(archive, "files", fmt.Sprintf("%04d-%s", idx, filepath.Base(localPath)))
	if _, err := m.provider.Upload(ctx, archivePath, bytes.NewReader(encoded), int64(len(encoded))); err != nil {
		m.logger.Warn("Failed to store file in backup", "local_path", localPath, "error", err)
		f.Error = fmt.Sprintf("failed to upload file: %v", err)
		return f
	}

	f.ArchivePath = archivePath
	f.StoredSize = int64(len(encoded))
	return f
}

func (m *Manager) discard(ctx context.Context, archive string) {
	if err := m.provider.Delete(context.WithoutCancel(ctx), archive); err != nil && !errors.Is(err, provider.ErrNotFound) {
		m.logger.Warn("Failed to remove incomplete archive", "archive", archive, "error", err)
	}
}

// ListBackups returns catalog records newest first.
func (m *Manager) ListBackups(ctx context.Context, limit, offset int) ([]*models.BackupRecord, error) {
	records, err := m.store.ListBackups(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return records, nil
}

// RestoreResult reports a restore run.
type RestoreResult struct {
	Files    []RestoredFile `json:"files"`
	Errors   []FileError    `json:"errors,omitempty"`
	Restored int            `json:"restored"`
	Failed   int            `json:"failed"`
}

// RestoredFile maps an archived file to where it was written.
type RestoredFile struct {
	LocalPath string `json:"local_path"`
	Target    string `json:"target"`
}

// RestoreBackup writes every stored file of the archive back to disk. With
// an empty targetFolder files go to their original paths, otherwise into
// targetFolder by base name. Each file is verified against its checksum and
// replaced atomically.
func (m *Manager) RestoreBackup(ctx context.Context, archivePath, targetFolder string) (*RestoreResult, error) {
	archivePath, err := provider.CleanPath(archivePath)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := m.provider.Download(ctx, provider.Join(archivePath, ManifestName), &buf); err != nil {
		return nil, fmt.Errorf("failed to download manifest: %w", err)
	}
	manifest, err := unmarshalManifest(buf.Bytes())
	if err != nil {
		return nil, err
	}
	key := m.currentKey()
	if manifest.Encrypted && len(key) == 0 {
		return nil, ErrKeyUnavailable
	}

	result := &RestoreResult{}
	var mu sync.Mutex
	targets := restoreTargets(manifest.Files, targetFolder)

	var g errgroup.Group
	g.SetLimit(max(m.cfg.Config().SyncWorkers, 1))
	for i, f := range manifest.Files {
		if f.Error != "" || f.ArchivePath == "" {
			continue
		}
		g.Go(func() error {
			err := m.restoreFile(ctx, f, targets[i], key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, FileError{LocalPath: f.LocalPath, Error: err.Error()})
				return nil
			}
			result.Restored++
			result.Files = append(result.Files, RestoredFile{LocalPath: f.LocalPath, Target: targets[i]})
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Info("Backup restored",
		"archive", archivePath,
		"restored", result.Restored,
		"failed", result.Failed)

	return result, nil
}

func (m *Manager) restoreFile(ctx context.Context, f ManifestFile, target string, key []byte) error {
	var buf bytes.Buffer
	if _, err := m.provider.Download(ctx, f.ArchivePath, &buf); err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	opts := codec.Options{Compress: f.Compressed}
	if f.Encrypted {
		opts.Key = key
	}
	data, err := codec.Decode(buf.Bytes(), opts)
	if err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	if sum := crypto.Checksum(data); sum != f.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", f.Checksum, sum)
	}
	return writeFileAtomic(target, data)
}

// restoreTargets picks the destination of every file. Base names that
// repeat inside targetFolder fall back to the unique archive name.
func restoreTargets(files []ManifestFile, targetFolder string) []string {
	targets := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		if targetFolder == "" {
			targets[i] = f.LocalPath
			continue
		}
		name := filepath.Base(f.LocalPath)
		if used[name] {
			name = filepath.Base(filepath.FromSlash(f.ArchivePath))
		}
		used[name] = true
		targets[i] = filepath.Join(targetFolder, name)
	}
	return targets
}

func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}
