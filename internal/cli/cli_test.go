package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/journalsync/internal/backup"
	"github.com/iudanet/journalsync/internal/cli/iocli"
	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/engine"
	"github.com/iudanet/journalsync/internal/models"
)

const testPassphrase = "correct horse battery"

// terminal records output and answers password prompts from a script.
type terminal struct {
	*iocli.IOMock
	out       strings.Builder
	passwords []string
}

func newTerminal(passwords ...string) *terminal {
	term := &terminal{passwords: passwords}
	term.IOMock = &iocli.IOMock{
		PrintlnFunc: func(a ...any) { fmt.Fprintln(&term.out, a...) },
		PrintfFunc:  func(format string, a ...any) { fmt.Fprintf(&term.out, format, a...) },
		WriteFunc:   func(p []byte) (int, error) { return term.out.Write(p) },
		ReadInputFunc: func(prompt string) (string, error) {
			return "", errors.New("unexpected input prompt")
		},
		ReadPasswordFunc: func(prompt string) (string, error) {
			if len(term.passwords) == 0 {
				return "", errors.New("no password scripted")
			}
			p := term.passwords[0]
			term.passwords = term.passwords[1:]
			return p, nil
		},
	}
	return term
}

func (term *terminal) prompts() int {
	return len(term.ReadPasswordCalls())
}

// setupEnv points settings at a fresh temporary install.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JOURNALSYNC_DB_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("JOURNALSYNC_KEYSTORE_PATH", filepath.Join(dir, "keys.db"))
	t.Setenv("JOURNALSYNC_PROVIDER", config.ProviderLocal)
	t.Setenv("JOURNALSYNC_LOCAL_ROOT", filepath.Join(dir, "remote"))
	t.Setenv("JOURNALSYNC_BACKUP_PASSPHRASE", "")
	t.Setenv("JOURNALSYNC_BACKUP_PASSPHRASE_FILE", "")
	return dir
}

func run(t *testing.T, io *terminal, args ...string) (string, error) {
	t.Helper()
	io.out.Reset()
	c := New(io, OpenApp, VersionInfo{Version: "1.2.3", BuildDate: "2026-01-02", GitCommit: "abc123"})
	err := c.Execute(context.Background(), args)
	return io.out.String(), err
}

func TestVersion_DoesNotOpenApp(t *testing.T) {
	var opened bool
	open := func(ctx context.Context, s *config.Settings, logger *slog.Logger) (Service, error) {
		opened = true
		return nil, errors.New("must not open")
	}

	io := newTerminal()
	c := New(io, open, VersionInfo{Version: "1.2.3", BuildDate: "2026-01-02", GitCommit: "abc123"})
	require.NoError(t, c.Execute(context.Background(), []string{"version"}))

	assert.False(t, opened)
	assert.Contains(t, io.out.String(), "Version:    1.2.3")
	assert.Contains(t, io.out.String(), "Git Commit: abc123")
}

func TestVersion_JSON(t *testing.T) {
	io := newTerminal()
	out, err := run(t, io, "version", "--json")
	require.NoError(t, err)

	var v VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.2.3", v.Version)
}

func TestFileCommands(t *testing.T) {
	dir := setupEnv(t)
	io := newTerminal()

	path := filepath.Join(dir, "trades.db")
	require.NoError(t, os.WriteFile(path, []byte("long ES 4500"), 0600))

	out, err := run(t, io, "register", path, "--type", "trade")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered "+path)
	assert.Contains(t, out, string(models.StatusSynced))

	out, err = run(t, io, "status", "--json")
	require.NoError(t, err)
	var report engine.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "trade", report.Entries[0].DataType)

	require.NoError(t, os.WriteFile(path, []byte("long ES 4510"), 0600))
	out, err = run(t, io, "sync", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, io, "sync", "--type", "trade")
	require.NoError(t, err)
	assert.Contains(t, out, "of 1 files")

	out, err = run(t, io, "logs", "-n", "10")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run(t, io, "sync", path, "--type", "trade")
	require.Error(t, err)

	out, err = run(t, io, "unregister", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Unregistered "+path)

	_, err = run(t, io, "status", path)
	require.ErrorIs(t, err, engine.ErrNotRegistered)
}

func TestConfigCommands(t *testing.T) {
	setupEnv(t)
	io := newTerminal()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{name: "show", args: []string{"config", "show"}, want: "conflict_resolution"},
		{name: "set interval", args: []string{"config", "set", "sync_interval=600"}, want: "600"},
		{name: "set policy", args: []string{"config", "set", "conflict_resolution=manual"}, want: "manual"},
		{name: "missing equals", args: []string{"config", "set", "sync_interval"}, wantErr: true},
		{name: "invalid value", args: []string{"config", "set", "auto_sync_enabled=maybe"}, wantErr: true},
		{name: "no pairs", args: []string{"config", "set"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, io, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	out, err := run(t, io, "config", "show", "--json")
	require.NoError(t, err)
	var values map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, "600", values[config.KeySyncInterval])
	assert.Equal(t, "manual", values[config.KeyConflictResolution])
	assert.Equal(t, "false", values[config.KeyAutoSyncEnabled])
}

func TestDataTypeCommands(t *testing.T) {
	setupEnv(t)
	io := newTerminal()

	out, err := run(t, io, "datatypes", "set", "screenshot", "--priority", "50", "--compress=false")
	require.NoError(t, err)
	assert.Contains(t, out, "screenshot: priority 50")

	out, err = run(t, io, "datatypes", "list", "--json")
	require.NoError(t, err)
	var types []*models.DataTypeConfig
	require.NoError(t, json.Unmarshal([]byte(out), &types))

	var found *models.DataTypeConfig
	for _, dt := range types {
		if dt.Name == "screenshot" {
			found = dt
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 50, found.Priority)
	assert.True(t, found.Enabled)
	assert.False(t, found.CompressionEnabled)
}

func TestBackupCommands_Encrypted(t *testing.T) {
	dir := setupEnv(t)
	io := newTerminal()

	path := filepath.Join(dir, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("buy the dip"), 0600))
	_, err := run(t, io, "register", path, "--type", "plan")
	require.NoError(t, err)

	_, err = run(t, io, "config", "set", "encryption_enabled=true")
	require.NoError(t, err)

	passFile := filepath.Join(dir, "pass.txt")
	require.NoError(t, os.WriteFile(passFile, []byte(testPassphrase+"\n"), 0600))

	out, err := run(t, io, "backup", "create", "--passphrase-file", passFile, "--json")
	require.NoError(t, err)
	var rec models.BackupRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.True(t, rec.Encrypted)
	assert.Equal(t, 1, rec.FileCount)
	assert.Zero(t, io.prompts())

	out, err = run(t, io, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, rec.RemoteArchivePath)

	target := filepath.Join(dir, "restored")
	io.passwords = []string{testPassphrase}
	out, err = run(t, io, "backup", "restore", rec.RemoteArchivePath, "--target", target)
	require.NoError(t, err)
	assert.Equal(t, 1, io.prompts())
	assert.Contains(t, out, "Restored 1 files, 0 failed")

	data, err := os.ReadFile(filepath.Join(target, "plan.md"))
	require.NoError(t, err)
	assert.Equal(t, "buy the dip", string(data))

	out, err = run(t, io, "backup", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 backups")
}

func TestBackupRestore_UnlocksOnDemand(t *testing.T) {
	dir := setupEnv(t)
	io := newTerminal()

	path := filepath.Join(dir, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("sell the rip"), 0600))
	_, err := run(t, io, "register", path)
	require.NoError(t, err)
	_, err = run(t, io, "config", "set", "encryption_enabled=true")
	require.NoError(t, err)

	io.passwords = []string{testPassphrase}
	out, err := run(t, io, "backup", "create", "--json")
	require.NoError(t, err)
	var rec models.BackupRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))

	// encryption turned off later; the archive still needs the key
	_, err = run(t, io, "config", "set", "encryption_enabled=false")
	require.NoError(t, err)

	before := io.prompts()
	io.passwords = []string{testPassphrase}
	_, err = run(t, io, "backup", "restore", rec.RemoteArchivePath, "--target", filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, before+1, io.prompts())
	assert.Equal(t, "Backup passphrase: ", io.ReadPasswordCalls()[before].Prompt)
}

// stubService answers NeedsKey and records Unlock calls.
type stubService struct {
	Service
	needsKey bool
	unlocked []string
}

func (s *stubService) NeedsKey() bool { return s.needsKey }
func (s *stubService) Close() error   { return nil }

func (s *stubService) Unlock(ctx context.Context, passphrase string) error {
	s.unlocked = append(s.unlocked, passphrase)
	return nil
}

func (s *stubService) CreateBackup(ctx context.Context) (*models.BackupRecord, error) {
	if s.needsKey && len(s.unlocked) == 0 {
		return nil, backup.ErrKeyUnavailable
	}
	return &models.BackupRecord{RemoteArchivePath: "backups/a.tar.zst", Status: models.BackupComplete}, nil
}

func TestEnsureKey(t *testing.T) {
	dir := t.TempDir()
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, nil, 0600))
	passFile := filepath.Join(dir, "pass")
	require.NoError(t, os.WriteFile(passFile, []byte(testPassphrase+"\r\n"), 0600))

	tests := []struct {
		name      string
		needsKey  bool
		file      string
		passwords []string
		wantErr   bool
		want      []string
	}{
		{name: "not needed", needsKey: false},
		{name: "from file", needsKey: true, file: passFile, want: []string{testPassphrase}},
		{name: "from prompt", needsKey: true, passwords: []string{testPassphrase}, want: []string{testPassphrase}},
		{name: "empty prompt", needsKey: true, passwords: []string{""}, wantErr: true},
		{name: "empty file", needsKey: true, file: emptyFile, wantErr: true},
		{name: "missing file", needsKey: true, file: filepath.Join(dir, "nope"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{needsKey: tt.needsKey}
			open := func(ctx context.Context, s *config.Settings, logger *slog.Logger) (Service, error) {
				return svc, nil
			}
			setupEnv(t)

			io := newTerminal(tt.passwords...)
			args := []string{"backup", "create"}
			if tt.file != "" {
				args = append(args, "--passphrase-file", tt.file)
			}
			err := New(io, open, VersionInfo{}).Execute(context.Background(), args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.unlocked)
			assert.Contains(t, io.out.String(), "backups/a.tar.zst")
		})
	}
}
