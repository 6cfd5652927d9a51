// Package storage provides the key-value stores behind the local token
// metadata cache.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendBolt   = "bolt"
)

// Open opens the named backend under dir.
func Open(backend, dir string) (DB, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendBadger, "":
		return NewBadger(filepath.Join(dir, "badger"))
	case BackendBolt:
		return NewBolt(filepath.Join(dir, "tokens.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
