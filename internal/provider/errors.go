package provider

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a remote object does not exist.
var ErrNotFound = errors.New("remote object not found")

// Kind classifies provider failures by retryability.
type Kind int

const (
	// KindTransient failures (network, timeouts) are retried on the next pass.
	KindTransient Kind = iota
	// KindPermanent failures (credentials, permissions) are surfaced and not retried.
	KindPermanent
)

func (k Kind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified provider failure.
type Error struct {
	Err  error
	Op   string
	Path string
	Kind Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure.
func Transient(op, path string, err error) error {
	return &Error{Op: op, Path: path, Kind: KindTransient, Err: err}
}

// Permanent wraps err as a non-retryable failure.
func Permanent(op, path string, err error) error {
	return &Error{Op: op, Path: path, Kind: KindPermanent, Err: err}
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// IsPermanent reports whether err is a non-retryable provider failure.
func IsPermanent(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindPermanent
}
