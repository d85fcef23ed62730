package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider backends selectable at initialization.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Settings is the process configuration loaded from the environment.
// Provider credentials live here and are never written to the ledger.
type Settings struct {
	DBPath          string
	KeystorePath    string
	ListenAddr      string
	LogFormat       string
	Provider        string
	LocalRoot       string
	S3Endpoint      string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Region        string
	Passphrase      string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	S3UseSSL        bool
}

// LoadSettings reads JOURNALSYNC_* environment variables, applies defaults
// and validates them.
func LoadSettings() (*Settings, error) {
	s := &Settings{
		DBPath:       getEnvDefault("JOURNALSYNC_DB_PATH", "journalsync.db"),
		KeystorePath: getEnvDefault("JOURNALSYNC_KEYSTORE_PATH", "journalsync-keys.db"),
		ListenAddr:   getEnvDefault("JOURNALSYNC_LISTEN_ADDR", ":8085"),
		Provider:     strings.ToLower(getEnvDefault("JOURNALSYNC_PROVIDER", ProviderLocal)),
		LocalRoot:    getEnvDefault("JOURNALSYNC_LOCAL_ROOT", "./remote"),
		S3Endpoint:   os.Getenv("JOURNALSYNC_S3_ENDPOINT"),
		S3Bucket:     os.Getenv("JOURNALSYNC_S3_BUCKET"),
		S3AccessKey:  os.Getenv("JOURNALSYNC_S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("JOURNALSYNC_S3_SECRET_KEY"),
		S3Region:     os.Getenv("JOURNALSYNC_S3_REGION"),
		Passphrase:   os.Getenv("JOURNALSYNC_BACKUP_PASSPHRASE"),
	}

	var err error
	s.LogLevel, err = parseLogLevel(getEnvDefault("JOURNALSYNC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("JOURNALSYNC_LOG_LEVEL: %w", err)
	}

	s.LogFormat = strings.ToLower(getEnvDefault("JOURNALSYNC_LOG_FORMAT", "text"))
	if s.LogFormat != "json" && s.LogFormat != "text" {
		return nil, fmt.Errorf("JOURNALSYNC_LOG_FORMAT: invalid value %q, allowed: json, text", s.LogFormat)
	}

	s.ShutdownTimeout, err = getEnvDuration("JOURNALSYNC_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("JOURNALSYNC_SHUTDOWN_TIMEOUT: %w", err)
	}

	s.S3UseSSL, err = getEnvBool("JOURNALSYNC_S3_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("JOURNALSYNC_S3_USE_SSL: %w", err)
	}

	if file := os.Getenv("JOURNALSYNC_BACKUP_PASSPHRASE_FILE"); file != "" && s.Passphrase == "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("JOURNALSYNC_BACKUP_PASSPHRASE_FILE: %w", err)
		}
		s.Passphrase = strings.TrimRight(string(data), "\r\n")
	}

	switch s.Provider {
	case ProviderLocal:
		if s.LocalRoot == "" {
			return nil, fmt.Errorf("JOURNALSYNC_LOCAL_ROOT: required for local provider")
		}
	case ProviderS3:
		if s.S3Endpoint == "" {
			return nil, fmt.Errorf("JOURNALSYNC_S3_ENDPOINT: required for s3 provider")
		}
		if s.S3Bucket == "" {
			return nil, fmt.Errorf("JOURNALSYNC_S3_BUCKET: required for s3 provider")
		}
	default:
		return nil, fmt.Errorf("JOURNALSYNC_PROVIDER: invalid value %q, allowed: local, s3", s.Provider)
	}

	return s, nil
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(s *Settings) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	var handler slog.Handler
	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid boolean: %q", val)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use Go format: 30s, 1m)", val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid level %q, allowed: debug, info, warn, error", level)
	}
}
