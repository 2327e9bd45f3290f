package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrLocked         = errors.New("too many failed attempts, temporarily locked")
	ErrNotFound       = errors.New("record not found")
	ErrStore          = errors.New("store error")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Input errors
	ErrInvalidIdentity = fmt.Errorf("%w: identity must be an e-mail address", ErrInvalidInput)
	ErrEmptyKey        = fmt.Errorf("%w: account key is required", ErrInvalidInput)
)

// LockedError is returned while a lockout is in effect
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s (%ds remaining)", ErrLocked.Error(), e.RemainingSeconds())
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// RemainingSeconds rounds the remaining lockout up to whole seconds
func (e *LockedError) RemainingSeconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// StoreError wraps a connectivity, schema or query failure of an external store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStore.Error(), e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError wraps err unless it is nil or already a StoreError
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
