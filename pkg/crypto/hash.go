// Package crypto provides the hash primitives used to derive transaction
// and box identifiers.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes the concatenation of parts without copying them into
// one buffer.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// TxID derives a transaction ID from its signing bytes.
func TxID(signingBytes []byte) types.TxID {
	return types.TxID(Hash(signingBytes))
}

// OutputBoxID derives the ID of output index of transaction txID from the
// output's serialized content.
func OutputBoxID(txID types.TxID, index uint16, content []byte) types.BoxID {
	var idx [2]byte
	binary.LittleEndian.PutUint16(idx[:], index)
	return types.BoxID(HashParts(txID[:], idx[:], content))
}
