// Package keystore keeps the per-install key material used to derive the
// backup encryption key. The passphrase itself is never stored.
package keystore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/journalsync/internal/crypto"
	"github.com/iudanet/journalsync/internal/validation"
)

var (
	// ErrWrongPassphrase is returned when the passphrase does not match the
	// one the keystore was initialized with.
	ErrWrongPassphrase = errors.New("wrong passphrase")
	// ErrNotInitialized is returned by reads before the first Unlock.
	ErrNotInitialized = errors.New("keystore not initialized")
)

var bucketKeys = []byte("keys")

const (
	keySalt      = "salt"
	keyCheck     = "check"
	keyCreatedAt = "created_at"
)

// checkPlaintext is sealed with the derived key to verify later unlocks.
var checkPlaintext = []byte("journalsync key check v1")

// Store is a bbolt backed keystore.
type Store struct {
	db *bbolt.DB
}

// New opens or creates the keystore file.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}

	store := &Store{db: db}

	// Инициализируем buckets
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

// Close closes the keystore file.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает bucket ключей если он не существует
func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKeys); err != nil {
			return fmt.Errorf("failed to create keys bucket: %w", err)
		}
		return nil
	})
}

// Initialized reports whether a salt has been generated.
func (s *Store) Initialized(ctx context.Context) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketKeys).Get([]byte(keySalt)) != nil
		return nil
	})
	return ok, err
}

// CreatedAt returns when the keystore was initialized.
func (s *Store) CreatedAt(ctx context.Context) (time.Time, error) {
	var created time.Time
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketKeys).Get([]byte(keyCreatedAt))
		if raw == nil {
			return ErrNotInitialized
		}
		created = time.Unix(int64(binary.BigEndian.Uint64(raw)), 0).UTC()
		return nil
	})
	return created, err
}

// Unlock derives the encryption key from passphrase. On first use it
// generates the per-install salt and stores a check value; afterwards it
// verifies the passphrase against that value.
func (s *Store) Unlock(ctx context.Context, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	var key []byte
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKeys)
		if bucket == nil {
			return fmt.Errorf("keys bucket not found")
		}

		salt := bucket.Get([]byte(keySalt))
		if salt == nil {
			if err := validation.ValidatePassphrase(passphrase); err != nil {
				return err
			}
			return s.initialize(bucket, passphrase, &key)
		}

		derived, err := crypto.DeriveKey(passphrase, salt)
		if err != nil {
			return err
		}
		if _, err := crypto.Decrypt(bucket.Get([]byte(keyCheck)), derived); err != nil {
			return ErrWrongPassphrase
		}
		key = derived
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Store) initialize(bucket *bbolt.Bucket, passphrase string, key *[]byte) error {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	derived, err := crypto.DeriveKey(passphrase, salt)
	if err != nil {
		return err
	}
	check, err := crypto.Encrypt(checkPlaintext, derived)
	if err != nil {
		return err
	}

	created := make([]byte, 8)
	binary.BigEndian.PutUint64(created, uint64(time.Now().Unix()))

	if err := bucket.Put([]byte(keySalt), salt); err != nil {
		return fmt.Errorf("failed to save salt: %w", err)
	}
	if err := bucket.Put([]byte(keyCheck), check); err != nil {
		return fmt.Errorf("failed to save key check: %w", err)
	}
	if err := bucket.Put([]byte(keyCreatedAt), created); err != nil {
		return fmt.Errorf("failed to save creation time: %w", err)
	}

	*key = derived
	return nil
}
