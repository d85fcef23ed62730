package config

import (
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/journalsync/internal/models"
)

// ErrInvalid is returned when a configuration value is rejected.
var ErrInvalid = errors.New("invalid configuration")

// Keys of the persisted engine configuration.
const (
	KeyAutoSyncEnabled       = "auto_sync_enabled"
	KeySyncInterval          = "sync_interval"
	KeyConflictResolution    = "conflict_resolution"
	KeyBackupScheduleEnabled = "backup_schedule_enabled"
	KeyBackupInterval        = "backup_schedule_interval"
	KeyBackupRetentionCount  = "backup_retention_count"
	KeyEncryptionEnabled     = "encryption_enabled"
	KeyBackupCompression     = "backup_compression_enabled"
	KeyProviderType          = "provider_type"
	KeyRemoteRoot            = "remote_root"
	KeyBackupRoot            = "backup_root"
	KeyClockSkewTolerance    = "clock_skew_tolerance"
	KeySyncWorkers           = "sync_workers"
	KeyLastSync              = "last_sync"
)

const (
	MinSyncInterval    = 10 * time.Second
	MinBackupInterval  = time.Minute
	MaxClockSkew       = time.Hour
	MaxSyncWorkers     = 64
	DefaultRemoteRoot  = "journal"
	DefaultBackupRoot  = "backups"
	DefaultSyncWorkers = 4
)

// EngineConfig is the typed, validated engine configuration.
// Values are immutable once published; updates produce a new value.
type EngineConfig struct {
	LastSync             *time.Time            `json:"last_sync,omitempty"`
	ConflictResolution   models.ConflictPolicy `json:"conflict_resolution"`
	ProviderType         string                `json:"provider_type"`
	RemoteRoot           string                `json:"remote_root"`
	BackupRoot           string                `json:"backup_root"`
	SyncInterval         time.Duration         `json:"sync_interval"`
	BackupInterval       time.Duration         `json:"backup_schedule_interval"`
	ClockSkewTolerance   time.Duration         `json:"clock_skew_tolerance"`
	BackupRetentionCount int                   `json:"backup_retention_count"`
	SyncWorkers          int                   `json:"sync_workers"`
	AutoSyncEnabled      bool                  `json:"auto_sync_enabled"`
	BackupEnabled        bool                  `json:"backup_schedule_enabled"`
	EncryptionEnabled    bool                  `json:"encryption_enabled"`
	BackupCompression    bool                  `json:"backup_compression_enabled"`
}

// Default returns the configuration used before anything is stored.
func Default() EngineConfig {
	return EngineConfig{
		ConflictResolution:   models.PolicyNewest,
		RemoteRoot:           DefaultRemoteRoot,
		BackupRoot:           DefaultBackupRoot,
		SyncInterval:         5 * time.Minute,
		BackupInterval:       24 * time.Hour,
		ClockSkewTolerance:   2 * time.Second,
		BackupRetentionCount: 7,
		SyncWorkers:          DefaultSyncWorkers,
		BackupCompression:    true,
	}
}

// Validate checks value ranges.
func (c EngineConfig) Validate() error {
	if c.SyncInterval < MinSyncInterval {
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalid, KeySyncInterval, MinSyncInterval)
	}
	if c.BackupInterval < MinBackupInterval {
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalid, KeyBackupInterval, MinBackupInterval)
	}
	if c.BackupRetentionCount < 1 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyBackupRetentionCount)
	}
	if !c.ConflictResolution.Valid() {
		return fmt.Errorf("%w: unknown %s %q", ErrInvalid, KeyConflictResolution, c.ConflictResolution)
	}
	if c.ClockSkewTolerance < 0 || c.ClockSkewTolerance > MaxClockSkew {
		return fmt.Errorf("%w: %s must be between 0 and %s", ErrInvalid, KeyClockSkewTolerance, MaxClockSkew)
	}
	if c.SyncWorkers < 1 || c.SyncWorkers > MaxSyncWorkers {
		return fmt.Errorf("%w: %s must be between 1 and %d", ErrInvalid, KeySyncWorkers, MaxSyncWorkers)
	}
	if err := validateRoot(KeyRemoteRoot, c.RemoteRoot); err != nil {
		return err
	}
	return validateRoot(KeyBackupRoot, c.BackupRoot)
}

func validateRoot(key, root string) error {
	if root == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalid, key)
	}
	clean := path.Clean(root)
	if clean != root || strings.HasPrefix(root, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %s must be a clean relative path, got %q", ErrInvalid, key, root)
	}
	return nil
}

// Values serializes the configuration into the key-value table layout.
func (c EngineConfig) Values() map[string]string {
	v := map[string]string{
		KeyAutoSyncEnabled:       strconv.FormatBool(c.AutoSyncEnabled),
		KeySyncInterval:          formatSeconds(c.SyncInterval),
		KeyConflictResolution:    string(c.ConflictResolution),
		KeyBackupScheduleEnabled: strconv.FormatBool(c.BackupEnabled),
		KeyBackupInterval:        formatSeconds(c.BackupInterval),
		KeyBackupRetentionCount:  strconv.Itoa(c.BackupRetentionCount),
		KeyEncryptionEnabled:     strconv.FormatBool(c.EncryptionEnabled),
		KeyBackupCompression:     strconv.FormatBool(c.BackupCompression),
		KeyProviderType:          c.ProviderType,
		KeyRemoteRoot:            c.RemoteRoot,
		KeyBackupRoot:            c.BackupRoot,
		KeyClockSkewTolerance:    formatSeconds(c.ClockSkewTolerance),
		KeySyncWorkers:           strconv.Itoa(c.SyncWorkers),
		KeyLastSync:              "",
	}
	if c.LastSync != nil {
		v[KeyLastSync] = c.LastSync.UTC().Format(time.RFC3339Nano)
	}
	return v
}

// FromValues builds a configuration from stored key-value rows.
// Missing keys keep their defaults, unknown keys are ignored.
func FromValues(values map[string]string) (EngineConfig, error) {
	c := Default()
	p, err := ParsePatch(values)
	if err != nil {
		return EngineConfig{}, err
	}
	c = c.merge(p)
	if raw := values[KeyLastSync]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalid, KeyLastSync, err)
		}
		c.LastSync = &t
	}
	return c, nil
}

// Patch is a partial configuration update; nil fields are left unchanged.
type Patch struct {
	AutoSyncEnabled      *bool
	SyncInterval         *time.Duration
	ConflictResolution   *models.ConflictPolicy
	BackupEnabled        *bool
	BackupInterval       *time.Duration
	BackupRetentionCount *int
	EncryptionEnabled    *bool
	BackupCompression    *bool
	ProviderType         *string
	RemoteRoot           *string
	BackupRoot           *string
	ClockSkewTolerance   *time.Duration
	SyncWorkers          *int
}

// ParsePatch parses user or storage supplied key-value pairs.
// Interval values are whole seconds. last_sync is not settable and is skipped.
func ParsePatch(values map[string]string) (Patch, error) {
	var p Patch
	for key, raw := range values {
		raw = strings.TrimSpace(raw)
		var err error
		switch key {
		case KeyAutoSyncEnabled:
			p.AutoSyncEnabled, err = parseBool(raw)
		case KeySyncInterval:
			p.SyncInterval, err = parseSeconds(raw)
		case KeyConflictResolution:
			policy := models.ConflictPolicy(strings.ToLower(raw))
			p.ConflictResolution = &policy
		case KeyBackupScheduleEnabled:
			p.BackupEnabled, err = parseBool(raw)
		case KeyBackupInterval:
			p.BackupInterval, err = parseSeconds(raw)
		case KeyBackupRetentionCount:
			p.BackupRetentionCount, err = parseInt(raw)
		case KeyEncryptionEnabled:
			p.EncryptionEnabled, err = parseBool(raw)
		case KeyBackupCompression:
			p.BackupCompression, err = parseBool(raw)
		case KeyProviderType:
			if raw != "" {
				p.ProviderType = &raw
			}
		case KeyRemoteRoot:
			p.RemoteRoot = &raw
		case KeyBackupRoot:
			p.BackupRoot = &raw
		case KeyClockSkewTolerance:
			p.ClockSkewTolerance, err = parseSeconds(raw)
		case KeySyncWorkers:
			p.SyncWorkers, err = parseInt(raw)
		case KeyLastSync:
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			return Patch{}, fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
	}
	return p, nil
}

// Apply returns a copy of c with the patch applied and validated.
// The provider type cannot change once set.
func (c EngineConfig) Apply(p Patch) (EngineConfig, error) {
	if p.ProviderType != nil && c.ProviderType != "" && *p.ProviderType != c.ProviderType {
		return EngineConfig{}, fmt.Errorf("%w: %s cannot change after initialization (%s)",
			ErrInvalid, KeyProviderType, c.ProviderType)
	}
	next := c.merge(p)
	if err := next.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return next, nil
}

func (c EngineConfig) merge(p Patch) EngineConfig {
	if p.AutoSyncEnabled != nil {
		c.AutoSyncEnabled = *p.AutoSyncEnabled
	}
	if p.SyncInterval != nil {
		c.SyncInterval = *p.SyncInterval
	}
	if p.ConflictResolution != nil {
		c.ConflictResolution = *p.ConflictResolution
	}
	if p.BackupEnabled != nil {
		c.BackupEnabled = *p.BackupEnabled
	}
	if p.BackupInterval != nil {
		c.BackupInterval = *p.BackupInterval
	}
	if p.BackupRetentionCount != nil {
		c.BackupRetentionCount = *p.BackupRetentionCount
	}
	if p.EncryptionEnabled != nil {
		c.EncryptionEnabled = *p.EncryptionEnabled
	}
	if p.BackupCompression != nil {
		c.BackupCompression = *p.BackupCompression
	}
	if p.ProviderType != nil {
		c.ProviderType = *p.ProviderType
	}
	if p.RemoteRoot != nil {
		c.RemoteRoot = *p.RemoteRoot
	}
	if p.BackupRoot != nil {
		c.BackupRoot = *p.BackupRoot
	}
	if p.ClockSkewTolerance != nil {
		c.ClockSkewTolerance = *p.ClockSkewTolerance
	}
	if p.SyncWorkers != nil {
		c.SyncWorkers = *p.SyncWorkers
	}
	return c
}

func parseBool(raw string) (*bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseInt(raw string) (*int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseSeconds(raw string) (*time.Duration, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > math.MaxInt64/int64(time.Second) {
		return nil, fmt.Errorf("%d seconds is out of range", n)
	}
	d := time.Duration(n) * time.Second
	return &d, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}
