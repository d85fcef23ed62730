package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
	// KeySize - длина ключа AES-256
	KeySize = 32
)

// ErrEncryption wraps every encryption and decryption failure.
var ErrEncryption = errors.New("encryption failure")

// Encrypt шифрует данные с использованием AES-256-GCM
// Формат результата: nonce (12 bytes) + ciphertext + auth_tag (16 bytes)
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Генерируем случайный nonce
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce: %v", ErrEncryption, err)
	}

	// Формируем результат: nonce + ciphertext + auth_tag
	result := make([]byte, 0, NonceSize+len(plaintext)+aesGCM.Overhead())
	result = append(result, nonce...)
	return aesGCM.Seal(result, nonce, plaintext, nil), nil
}

// Decrypt дешифрует данные, зашифрованные с помощью Encrypt
func Decrypt(encrypted, key []byte) ([]byte, error) {
	if len(encrypted) < NonceSize {
		return nil, fmt.Errorf("%w: encrypted data too short", ErrEncryption)
	}
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Дешифруем и проверяем authentication tag
	plaintext, err := aesGCM.Open(nil, encrypted[:NonceSize], encrypted[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed or corrupted data", ErrEncryption)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrEncryption, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create cipher: %v", ErrEncryption, err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %v", ErrEncryption, err)
	}
	return aesGCM, nil
}
