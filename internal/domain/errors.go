package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id has never been observed.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError rejects a malformed envelope before any store mutation.
// Reason names the first failing field.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CryptoError reports malformed ciphertext or public-key material passed to
// a homomorphic operation. The operation is aborted; nothing is committed.
type CryptoError struct {
	Op     string
	Reason string
}

func (e *CryptoError) Error() string { return fmt.Sprintf("crypto %s: %s", e.Op, e.Reason) }

// StoreError wraps a failure of the backing resource. The enclosing
// operation must be treated as not committed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
