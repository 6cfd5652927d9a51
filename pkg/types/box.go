package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Box validation errors.
var (
	ErrMissingBoxID    = errors.New("box id missing")
	ErrZeroBoxValue    = errors.New("box value is zero")
	ErrEmptyScript     = errors.New("box script is empty")
	ErrDuplicateAsset  = errors.New("duplicate token id in box")
	ErrZeroAssetAmount = errors.New("token amount is zero")
	ErrMissingTokenID  = errors.New("token id missing")
)

// Asset is a token quantity held by a box.
type Asset struct {
	TokenID TokenID `json:"tokenId"`
	Amount  Amount  `json:"amount"`
}

// Box is an unspent output: the only spendable unit of value and tokens.
type Box struct {
	BoxID          BoxID     `json:"boxId"`
	Value          Amount    `json:"value"`
	ErgoTree       Script    `json:"ergoTree"`
	Assets         []Asset   `json:"assets"`
	Registers      Registers `json:"additionalRegisters"`
	CreationHeight uint32    `json:"creationHeight"`
	TransactionID  TxID      `json:"transactionId"`
	Index          uint16    `json:"index"`
}

// boxJSON mirrors Box so UnmarshalJSON can normalise null collections.
type boxJSON Box

// MarshalJSON encodes the box, emitting empty collections rather than null.
func (b Box) MarshalJSON() ([]byte, error) {
	j := boxJSON(b)
	if j.Assets == nil {
		j.Assets = []Asset{}
	}
	if j.Registers == nil {
		j.Registers = Registers{}
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a box; "assets": null decodes as no assets.
func (b *Box) UnmarshalJSON(data []byte) error {
	var j boxJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Assets == nil {
		j.Assets = []Asset{}
	}
	*b = Box(j)
	return nil
}

// ParseBox decodes a box as returned by a wallet and validates it.
func ParseBox(raw []byte) (Box, error) {
	var b Box
	if err := json.Unmarshal(raw, &b); err != nil {
		return Box{}, fmt.Errorf("decode box: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Validate checks a box read from a wallet or explorer.
func (b *Box) Validate() error {
	if b.BoxID.IsZero() {
		return ErrMissingBoxID
	}
	if b.Value.IsZero() {
		return fmt.Errorf("box %s: %w", b.BoxID, ErrZeroBoxValue)
	}
	if len(b.ErgoTree) == 0 {
		return fmt.Errorf("box %s: %w", b.BoxID, ErrEmptyScript)
	}
	if err := ValidateAssets(b.Assets); err != nil {
		return fmt.Errorf("box %s: %w", b.BoxID, err)
	}
	if err := b.Registers.Validate(); err != nil {
		return fmt.Errorf("box %s: %w", b.BoxID, err)
	}
	return nil
}

// ValidateAssets checks token ids are present and unique and amounts are
// positive.
func ValidateAssets(assets []Asset) error {
	seen := make(map[TokenID]bool, len(assets))
	for i, a := range assets {
		if a.TokenID.IsZero() {
			return fmt.Errorf("asset %d: %w", i, ErrMissingTokenID)
		}
		if seen[a.TokenID] {
			return fmt.Errorf("asset %d: %w: %s", i, ErrDuplicateAsset, a.TokenID)
		}
		if a.Amount.IsZero() {
			return fmt.Errorf("asset %d: %w", i, ErrZeroAssetAmount)
		}
		seen[a.TokenID] = true
	}
	return nil
}

// TokenAmount returns the amount of id held by the box.
func (b *Box) TokenAmount(id TokenID) Amount {
	for _, a := range b.Assets {
		if a.TokenID == id {
			return a.Amount
		}
	}
	return Amount{}
}

// Clone returns a deep copy of the box.
func (b Box) Clone() Box {
	out := b
	out.ErgoTree = append(Script(nil), b.ErgoTree...)
	out.Assets = append([]Asset{}, b.Assets...)
	out.Registers = b.Registers.Clone()
	return out
}

// SumValues returns the total value of boxes.
func SumValues(boxes []Box) (Amount, error) {
	var total Amount
	for _, b := range boxes {
		var err error
		if total, err = total.Add(b.Value); err != nil {
			return Amount{}, err
		}
	}
	return total, nil
}

// SumTokens returns per-token totals across boxes.
func SumTokens(boxes []Box) (map[TokenID]Amount, error) {
	totals := make(map[TokenID]Amount)
	for _, b := range boxes {
		for _, a := range b.Assets {
			sum, err := totals[a.TokenID].Add(a.Amount)
			if err != nil {
				return nil, fmt.Errorf("token %s: %w", a.TokenID, err)
			}
			totals[a.TokenID] = sum
		}
	}
	return totals, nil
}
