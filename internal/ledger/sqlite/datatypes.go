package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/journalsync/internal/ledger"
	"github.com/iudanet/journalsync/internal/models"
)

// GetDataType returns the data type or ledger.ErrDataTypeNotFound.
func (s *Storage) GetDataType(ctx context.Context, name string) (*models.DataTypeConfig, error) {
	query := `
		SELECT name, enabled, priority, compression_enabled
		FROM data_types
		WHERE name = ?
	`

	dt, err := scanDataType(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrDataTypeNotFound
		}
		return nil, fmt.Errorf("failed to get data type: %w", err)
	}
	return dt, nil
}

// ListDataTypes returns data types ordered by priority then name.
func (s *Storage) ListDataTypes(ctx context.Context) ([]*models.DataTypeConfig, error) {
	query := `
		SELECT name, enabled, priority, compression_enabled
		FROM data_types
		ORDER BY priority, name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list data types: %w", err)
	}
	defer rows.Close()

	types := make([]*models.DataTypeConfig, 0)
	for rows.Next() {
		dt, err := scanDataType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data type: %w", err)
		}
		types = append(types, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate data types: %w", err)
	}
	return types, nil
}

// EnsureDataType creates the data type with defaults on first use.
func (s *Storage) EnsureDataType(ctx context.Context, name string) (*models.DataTypeConfig, error) {
	def := models.NewDataTypeConfig(name)
	query := `
		INSERT OR IGNORE INTO data_types (name, enabled, priority, compression_enabled)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		def.Name, boolToInt(def.Enabled), def.Priority, boolToInt(def.CompressionEnabled)); err != nil {
		return nil, fmt.Errorf("failed to ensure data type: %w", err)
	}
	return s.GetDataType(ctx, name)
}

// UpsertDataType creates or replaces a data type.
func (s *Storage) UpsertDataType(ctx context.Context, dt *models.DataTypeConfig) error {
	if dt.Name == "" {
		return fmt.Errorf("data type name cannot be empty")
	}
	query := `
		INSERT INTO data_types (name, enabled, priority, compression_enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			enabled = excluded.enabled,
			priority = excluded.priority,
			compression_enabled = excluded.compression_enabled
	`
	if _, err := s.db.ExecContext(ctx, query,
		dt.Name, boolToInt(dt.Enabled), dt.Priority, boolToInt(dt.CompressionEnabled)); err != nil {
		return fmt.Errorf("failed to upsert data type: %w", err)
	}
	return nil
}

func scanDataType(row rowScanner) (*models.DataTypeConfig, error) {
	dt := &models.DataTypeConfig{}
	var enabled, compression int
	if err := row.Scan(&dt.Name, &enabled, &dt.Priority, &compression); err != nil {
		return nil, err
	}
	dt.Enabled = intToBool(enabled)
	dt.CompressionEnabled = intToBool(compression)
	return dt, nil
}
