package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/storage"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Cache key layout: "t/" + tokenID(32) -> record JSON.
var prefixToken = []byte("t/")

// ErrUnknownToken is returned by Get for tokens with no cached metadata.
var ErrUnknownToken = errors.New("token metadata not cached")

// Store caches token metadata so listings need not query an explorer for
// every token on every run. Entries never expire: minted metadata is
// immutable on chain.
type Store struct {
	db  storage.DB
	now func() time.Time
}

// record is the stored form of one entry.
type record struct {
	Metadata
	CachedAt int64 `json:"cachedAt"` // Unix seconds.
}

// NewStore creates a token metadata store on db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Put caches metadata for a token, replacing any previous entry.
func (s *Store) Put(id types.TokenID, meta *Metadata) error {
	data, err := json.Marshal(record{Metadata: *meta, CachedAt: s.now().Unix()})
	if err != nil {
		return fmt.Errorf("token marshal: %w", err)
	}
	if err := s.db.Put(tokenKey(id), data); err != nil {
		return fmt.Errorf("token put: %w", err)
	}
	return nil
}

// Get returns the cached metadata for a token, or ErrUnknownToken.
func (s *Store) Get(id types.TokenID) (*Metadata, error) {
	rec, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

func (s *Store) get(id types.TokenID) (*record, error) {
	data, err := s.db.Get(tokenKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	if err != nil {
		return nil, fmt.Errorf("token get: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("token unmarshal: %w", err)
	}
	return &rec, nil
}

func (s *Store) Has(id types.TokenID) (bool, error) {
	return s.db.Has(tokenKey(id))
}

func (s *Store) Delete(id types.TokenID) error {
	return s.db.Delete(tokenKey(id))
}

// MetadataEntry pairs a token ID with its cached metadata.
type MetadataEntry struct {
	ID types.TokenID `json:"id"`
	Metadata
	CachedAt time.Time `json:"cachedAt"`
}

// List returns all cached entries in token id order. Entries that fail to
// decode are logged and skipped.
func (s *Store) List() ([]MetadataEntry, error) {
	entries := []MetadataEntry{}
	err := s.db.ForEach(prefixToken, func(key, value []byte) error {
		if len(key) != len(prefixToken)+types.HashSize {
			return nil
		}
		var id types.TokenID
		copy(id[:], key[len(prefixToken):])
		var rec record
		if err := json.Unmarshal(value, &rec); err != nil {
			log.Token.Warn().Err(err).Str("token", id.String()).Msg("Skipping corrupt cache entry")
			return nil
		}
		entries = append(entries, MetadataEntry{
			ID:       id,
			Metadata: rec.Metadata,
			CachedAt: time.Unix(rec.CachedAt, 0).UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func tokenKey(id types.TokenID) []byte {
	key := make([]byte, len(prefixToken)+types.HashSize)
	copy(key, prefixToken)
	copy(key[len(prefixToken):], id[:])
	return key
}
