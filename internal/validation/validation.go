package validation

import (
	"fmt"
	"regexp"
)

// DataTypeNamePattern allows lowercase letters, digits, '_' and '-',
// starting with a letter or digit. Length: 1-32.
var DataTypeNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

const (
	// MaxDataTypeNameLen is the maximum data type name length
	MaxDataTypeNameLen = 32
	// MinPassphraseLen is the minimum backup passphrase length
	MinPassphraseLen = 12
)

// ValidateDataTypeName проверяет имя типа данных
func ValidateDataTypeName(name string) error {
	if name == "" {
		return fmt.Errorf("data type name cannot be empty")
	}

	if len(name) > MaxDataTypeNameLen {
		return fmt.Errorf("data type name must not exceed %d characters", MaxDataTypeNameLen)
	}

	if !DataTypeNamePattern.MatchString(name) {
		return fmt.Errorf("data type name can only contain lowercase letters (a-z), numbers (0-9), '_' and '-'")
	}

	return nil
}

// ValidatePassphrase проверяет минимальные требования к новой passphrase бэкапов
func ValidatePassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	if len(passphrase) < MinPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters long", MinPassphraseLen)
	}

	return nil
}
