package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/journalsync/internal/config"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// InitConfig seeds defaults for missing keys and pins the provider type.
func (s *Storage) InitConfig(ctx context.Context, providerType string) (config.EngineConfig, error) {
	var cfg config.EngineConfig
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		values, err := readConfig(ctx, tx)
		if err != nil {
			return err
		}
		current, err := config.FromValues(values)
		if err != nil {
			return err
		}
		if current.ProviderType != "" && current.ProviderType != providerType {
			return fmt.Errorf("%w: %s is %q, cannot switch to %q",
				config.ErrInvalid, config.KeyProviderType, current.ProviderType, providerType)
		}
		current.ProviderType = providerType
		if err := current.Validate(); err != nil {
			return err
		}
		if err := writeConfig(ctx, tx, current.Values()); err != nil {
			return err
		}
		cfg = current
		return nil
	})
	if err != nil {
		return config.EngineConfig{}, err
	}
	return cfg, nil
}

// GetConfig loads the stored configuration, with defaults for missing keys.
func (s *Storage) GetConfig(ctx context.Context) (config.EngineConfig, error) {
	values, err := readConfig(ctx, s.db)
	if err != nil {
		return config.EngineConfig{}, err
	}
	return config.FromValues(values)
}

// UpdateConfig applies patch inside a transaction. A rejected patch rolls
// back and leaves the stored configuration as it was.
func (s *Storage) UpdateConfig(ctx context.Context, patch config.Patch) (config.EngineConfig, error) {
	var cfg config.EngineConfig
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		values, err := readConfig(ctx, tx)
		if err != nil {
			return err
		}
		current, err := config.FromValues(values)
		if err != nil {
			return err
		}
		next, err := current.Apply(patch)
		if err != nil {
			return err
		}
		if err := writeConfig(ctx, tx, next.Values()); err != nil {
			return err
		}
		cfg = next
		return nil
	})
	if err != nil {
		return config.EngineConfig{}, err
	}
	return cfg, nil
}

// SetLastSync records the completion time of a full sync pass.
func (s *Storage) SetLastSync(ctx context.Context, t time.Time) error {
	return writeConfig(ctx, s.db, map[string]string{
		config.KeyLastSync: t.UTC().Format(time.RFC3339Nano),
	})
}

func readConfig(ctx context.Context, db querier) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate config: %w", err)
	}
	return values, nil
}

func writeConfig(ctx context.Context, db execer, values map[string]string) error {
	query := `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	for key, value := range values {
		if _, err := db.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to write config %s: %w", key, err)
		}
	}
	return nil
}
