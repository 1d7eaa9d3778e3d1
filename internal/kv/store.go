// Package kv is the transactional key-value store behind match and profile records.
//
// Keys are "<bucket>:<id>". Keys(prefix) enumerates one bucket in ascending order,
// so prefix must be a bucket name including its trailing colon.
package kv

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrConflict is returned when an optimistic transaction kept losing to concurrent writers.
	ErrConflict = errors.New("kv: transaction conflict")
	// ErrReadOnly is returned by Put inside View.
	ErrReadOnly = errors.New("kv: write in read-only transaction")
	// ErrBadKey is returned for keys without a bucket prefix.
	ErrBadKey = errors.New("kv: key has no bucket")
)

// Tx is a view of the store inside one transaction. Reads observe earlier Puts of
// the same transaction.
type Tx interface {
	// Get returns nil, nil when the key is absent.
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	Put(key string, value []byte) error
	Keys(prefix string) ([]string, error)
}

// Store runs functions inside transactions. Update commits every Put when fn
// returns nil and discards them otherwise; fn may run more than once.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

func bucketOf(key string) (string, error) {
	i := strings.IndexByte(key, ':')
	if i <= 0 {
		return "", ErrBadKey
	}
	return key[:i+1], nil
}
