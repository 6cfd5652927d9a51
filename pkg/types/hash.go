// Package types defines the box model primitives shared by every stage of
// transaction assembly.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash represents a 256-bit hash value.
type Hash [HashSize]byte

// BoxID is the content-derived identifier of a box.
type BoxID Hash

// TokenID identifies a token type. A minted token's ID equals the box ID
// of one of the minting transaction's inputs.
type TokenID Hash

// TxID identifies a transaction.
type TxID Hash

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash converts a hex string to a Hash.
// Returns an error if the string is not exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// ParseBoxID parses a hex box ID.
func ParseBoxID(s string) (BoxID, error) {
	h, err := HexToHash(s)
	return BoxID(h), err
}

// ParseTokenID parses a hex token ID.
func ParseTokenID(s string) (TokenID, error) {
	h, err := HexToHash(s)
	return TokenID(h), err
}

// IsZero returns true if the box ID is all zeros.
func (b BoxID) IsZero() bool { return Hash(b).IsZero() }

// String returns the hex-encoded box ID.
func (b BoxID) String() string { return Hash(b).String() }

// MarshalJSON encodes the box ID as a hex string.
func (b BoxID) MarshalJSON() ([]byte, error) { return Hash(b).MarshalJSON() }

// UnmarshalJSON decodes a hex string into a box ID.
func (b *BoxID) UnmarshalJSON(data []byte) error { return (*Hash)(b).UnmarshalJSON(data) }

// IsZero returns true if the token ID is all zeros.
func (t TokenID) IsZero() bool { return Hash(t).IsZero() }

// String returns the hex-encoded token ID.
func (t TokenID) String() string { return Hash(t).String() }

// MarshalJSON encodes the token ID as a hex string.
func (t TokenID) MarshalJSON() ([]byte, error) { return Hash(t).MarshalJSON() }

// UnmarshalJSON decodes a hex string into a token ID.
func (t *TokenID) UnmarshalJSON(data []byte) error { return (*Hash)(t).UnmarshalJSON(data) }

// MarshalText lets token IDs key JSON objects.
func (t TokenID) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a hex token ID used as a JSON object key.
func (t *TokenID) UnmarshalText(text []byte) error {
	parsed, err := ParseTokenID(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsZero returns true if the transaction ID is all zeros.
func (t TxID) IsZero() bool { return Hash(t).IsZero() }

// String returns the hex-encoded transaction ID, or "" for the zero ID
// (a box that is not yet included on-chain).
func (t TxID) String() string {
	if t.IsZero() {
		return ""
	}
	return Hash(t).String()
}

// MarshalJSON encodes the transaction ID as a hex string.
func (t TxID) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// UnmarshalJSON decodes a hex string into a transaction ID.
func (t *TxID) UnmarshalJSON(data []byte) error { return (*Hash)(t).UnmarshalJSON(data) }
