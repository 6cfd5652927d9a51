package storage

import (
	"bytes"
	"errors"
)

// Namespace scopes a DB to the keys under "<name>/". Several namespaces
// can share one store; a namespace never sees another's keys.
type Namespace struct {
	inner DB
	root  []byte
}

var _ DB = (*Namespace)(nil)

// NewNamespace returns the namespace name of inner. Names may not contain
// a slash, so one namespace cannot be nested inside another by accident.
func NewNamespace(inner DB, name string) (*Namespace, error) {
	if name == "" || bytes.IndexByte([]byte(name), '/') >= 0 {
		return nil, errors.New("namespace name must be non-empty and contain no slash")
	}
	return &Namespace{inner: inner, root: []byte(name + "/")}, nil
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return string(n.root[:len(n.root)-1])
}

func (n *Namespace) key(k []byte) []byte {
	out := make([]byte, 0, len(n.root)+len(k))
	out = append(out, n.root...)
	return append(out, k...)
}

func (n *Namespace) Get(key []byte) ([]byte, error) { return n.inner.Get(n.key(key)) }

func (n *Namespace) Put(key, value []byte) error { return n.inner.Put(n.key(key), value) }

func (n *Namespace) Delete(key []byte) error { return n.inner.Delete(n.key(key)) }

func (n *Namespace) Has(key []byte) (bool, error) { return n.inner.Has(n.key(key)) }

// ForEach iterates keys under prefix within the namespace. Keys passed to
// fn have the namespace stripped.
func (n *Namespace) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return n.inner.ForEach(n.key(prefix), func(key, value []byte) error {
		return fn(key[len(n.root):], value)
	})
}

// Clear deletes every key in the namespace and returns how many were removed.
func (n *Namespace) Clear() (int, error) {
	var keys [][]byte
	err := n.inner.ForEach(n.root, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		if err := n.inner.Delete(key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

// Close does nothing; the shared store is closed by its owner.
func (n *Namespace) Close() error { return nil }
