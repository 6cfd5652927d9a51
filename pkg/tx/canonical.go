package tx

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// ParseUnsigned decodes an unsigned transaction in either wire form and
// recomputes its ID. A non-empty ID in the payload must match.
func ParseUnsigned(data []byte) (*UnsignedTransaction, error) {
	var utx UnsignedTransaction
	if err := json.Unmarshal(data, &utx); err != nil {
		return nil, fmt.Errorf("decode unsigned tx: %w", err)
	}
	if utx.Inputs == nil {
		utx.Inputs = []Input{}
	}
	if utx.DataInputs == nil {
		utx.DataInputs = []DataInput{}
	}
	if utx.Outputs == nil {
		utx.Outputs = []types.Box{}
	}
	claimed := utx.ID
	utx.Finalize()
	if !claimed.IsZero() && claimed != utx.ID {
		return nil, fmt.Errorf("%w: payload %s, computed %s", ErrIDMismatch, claimed, utx.ID)
	}
	return &utx, nil
}

// Canonicalize serializes the transaction to canonical form and parses it
// back. The result carries input references only; use Rehydrate to restore
// full input boxes. Canonicalizing a canonical transaction is a no-op.
func Canonicalize(utx *UnsignedTransaction) (*UnsignedTransaction, error) {
	data, err := utx.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode canonical tx: %w", err)
	}
	return ParseUnsigned(data)
}

// Rehydrate restores full box content on every input by joining on box id
// against the selected boxes. Input order is preserved and every extension
// is reset to empty.
func Rehydrate(utx *UnsignedTransaction, selected []types.Box) (*UnsignedTransaction, error) {
	byID := make(map[types.BoxID]types.Box, len(selected))
	for _, b := range selected {
		byID[b.BoxID] = b
	}

	out := utx.Clone()
	for i, in := range out.Inputs {
		box, ok := byID[in.BoxID]
		if !ok {
			return nil, fmt.Errorf("input %d: %w: %s", i, ErrUnknownInput, in.BoxID)
		}
		out.Inputs[i] = Input{Box: box.Clone(), Extension: map[string]string{}}
	}
	return out, nil
}
