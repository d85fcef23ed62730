package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"JOURNALSYNC_DB_PATH", "JOURNALSYNC_KEYSTORE_PATH", "JOURNALSYNC_LISTEN_ADDR",
		"JOURNALSYNC_LOG_LEVEL", "JOURNALSYNC_LOG_FORMAT", "JOURNALSYNC_PROVIDER",
		"JOURNALSYNC_LOCAL_ROOT", "JOURNALSYNC_S3_ENDPOINT", "JOURNALSYNC_S3_BUCKET",
		"JOURNALSYNC_S3_ACCESS_KEY", "JOURNALSYNC_S3_SECRET_KEY", "JOURNALSYNC_S3_REGION",
		"JOURNALSYNC_S3_USE_SSL", "JOURNALSYNC_BACKUP_PASSPHRASE",
		"JOURNALSYNC_BACKUP_PASSPHRASE_FILE", "JOURNALSYNC_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "journalsync.db", s.DBPath)
	assert.Equal(t, ProviderLocal, s.Provider)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Equal(t, 15*time.Second, s.ShutdownTimeout)
	assert.True(t, s.S3UseSSL)
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "bad log level",
			env:    map[string]string{"JOURNALSYNC_LOG_LEVEL": "loud"},
			errMsg: "JOURNALSYNC_LOG_LEVEL",
		},
		{
			name:   "bad log format",
			env:    map[string]string{"JOURNALSYNC_LOG_FORMAT": "xml"},
			errMsg: "JOURNALSYNC_LOG_FORMAT",
		},
		{
			name:   "unknown provider",
			env:    map[string]string{"JOURNALSYNC_PROVIDER": "ftp"},
			errMsg: "JOURNALSYNC_PROVIDER",
		},
		{
			name:   "s3 without endpoint",
			env:    map[string]string{"JOURNALSYNC_PROVIDER": "s3", "JOURNALSYNC_S3_BUCKET": "b"},
			errMsg: "JOURNALSYNC_S3_ENDPOINT",
		},
		{
			name:   "s3 without bucket",
			env:    map[string]string{"JOURNALSYNC_PROVIDER": "s3", "JOURNALSYNC_S3_ENDPOINT": "localhost:9000"},
			errMsg: "JOURNALSYNC_S3_BUCKET",
		},
		{
			name:   "bad shutdown timeout",
			env:    map[string]string{"JOURNALSYNC_SHUTDOWN_TIMEOUT": "soon"},
			errMsg: "JOURNALSYNC_SHUTDOWN_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadSettings()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadSettings_PassphraseFile(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "pass")
	require.NoError(t, os.WriteFile(file, []byte("correct horse battery\n"), 0o600))
	t.Setenv("JOURNALSYNC_BACKUP_PASSPHRASE_FILE", file)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery", s.Passphrase)
}

func TestLoadSettings_S3(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOURNALSYNC_PROVIDER", "S3")
	t.Setenv("JOURNALSYNC_S3_ENDPOINT", "localhost:9000")
	t.Setenv("JOURNALSYNC_S3_BUCKET", "journal")
	t.Setenv("JOURNALSYNC_S3_USE_SSL", "false")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, ProviderS3, s.Provider)
	assert.False(t, s.S3UseSSL)
}
