package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// Argon2KeyLen - длина выходного ключа в байтах
	Argon2KeyLen = KeySize
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// GenerateSalt генерирует криптографически случайную соль размером SaltSize
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey выводит ключ шифрования бэкапов из passphrase и соли установки.
// Использует Argon2id.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen), nil
}
