package token

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// ErrBurnExceedsChange is returned when the change output holds less of a
// token than is being burned.
var ErrBurnExceedsChange = errors.New("burn exceeds change holding")

// BurnRequest asks to destroy up to Amount of a token.
type BurnRequest struct {
	TokenID types.TokenID
	Amount  types.Amount
}

// Burn is the settled outcome of one burn request.
type Burn struct {
	TokenID   types.TokenID
	Requested types.Amount
	Available types.Amount // Held across the selected inputs.
	Burned    types.Amount // min(Requested, Available).
	Remaining types.Amount // Available - Burned.
}

// ComputeBurns clamps each request to the amount available. Requests for
// the same token are merged; ids that are not held burn nothing. Order
// follows the first request for each id.
func ComputeBurns(requests []BurnRequest, available map[types.TokenID]types.Amount) ([]Burn, error) {
	index := make(map[types.TokenID]int, len(requests))
	var burns []Burn
	for _, r := range requests {
		if i, ok := index[r.TokenID]; ok {
			sum, err := burns[i].Requested.Add(r.Amount)
			if err != nil {
				return nil, fmt.Errorf("token %s: %w", r.TokenID, err)
			}
			burns[i].Requested = sum
			continue
		}
		index[r.TokenID] = len(burns)
		burns = append(burns, Burn{TokenID: r.TokenID, Requested: r.Amount})
	}

	for i := range burns {
		b := &burns[i]
		b.Available = available[b.TokenID]
		b.Burned = types.Min(b.Requested, b.Available)
		rem, err := b.Available.Sub(b.Burned)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", b.TokenID, err)
		}
		b.Remaining = rem
	}
	return burns, nil
}

// BurnedAmounts returns the burned amount per token, omitting zero burns.
func BurnedAmounts(burns []Burn) map[types.TokenID]types.Amount {
	out := make(map[types.TokenID]types.Amount, len(burns))
	for _, b := range burns {
		if !b.Burned.IsZero() {
			out[b.TokenID] = b.Burned
		}
	}
	return out
}

// RewriteChange removes burned amounts from the change output's assets.
// An entry whose amount reaches zero is dropped; tokens that are not being
// burned pass through unchanged. Asset order is preserved.
func RewriteChange(change *types.Box, burns []Burn) error {
	burned := BurnedAmounts(burns)
	if len(burned) == 0 {
		return nil
	}

	assets := make([]types.Asset, 0, len(change.Assets))
	for _, a := range change.Assets {
		amt, ok := burned[a.TokenID]
		if !ok {
			assets = append(assets, a)
			continue
		}
		left, err := a.Amount.Sub(amt)
		if err != nil {
			return fmt.Errorf("%w: token %s: change holds %s, burning %s",
				ErrBurnExceedsChange, a.TokenID, a.Amount, amt)
		}
		delete(burned, a.TokenID)
		if !left.IsZero() {
			assets = append(assets, types.Asset{TokenID: a.TokenID, Amount: left})
		}
	}
	for _, b := range burns {
		if amt, ok := burned[b.TokenID]; ok {
			return fmt.Errorf("%w: token %s: change holds none, burning %s", ErrBurnExceedsChange, b.TokenID, amt)
		}
	}
	change.Assets = assets
	return nil
}

// VerifyConservation checks that the transaction conserves every token once
// the burns are accounted for.
func VerifyConservation(utx *tx.UnsignedTransaction, burns []Burn) error {
	return tx.ValidateConservation(utx, BurnedAmounts(burns))
}
