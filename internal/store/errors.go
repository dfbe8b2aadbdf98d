package store

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a PersistenceError.
type Kind string

const (
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindConflict   Kind = "conflict"
	KindQuery      Kind = "query"
)

// ErrNotFound is returned when no record exists for a hostname.
var ErrNotFound = errors.New("record not found")

// ErrNotConnected is returned by operations called before Connect or after Disconnect.
var ErrNotConnected = errors.New("store is not connected")

// PersistenceError is the error type of every failed store operation.
type PersistenceError struct {
	Op      string
	Kind    Kind
	Timeout time.Duration // set for KindTimeout
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("%s timeout after %s", e.Op, e.Timeout)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsKind reports whether err is a PersistenceError of kind k.
func IsKind(err error, k Kind) bool {
	var perr *PersistenceError
	return errors.As(err, &perr) && perr.Kind == k
}
