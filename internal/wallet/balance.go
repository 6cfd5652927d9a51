package wallet

import (
	"sort"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Balance summarises the value and tokens held by a set of boxes.
type Balance struct {
	Value  types.Amount
	Boxes  int
	Tokens []TokenBalance // Sorted by token id.
}

// TokenBalance is the total amount of one token across boxes.
type TokenBalance struct {
	TokenID types.TokenID
	Amount  types.Amount
	Boxes   int // Number of boxes holding the token.
}

// TokenBalances returns per-token totals across boxes, sorted by token id.
func TokenBalances(boxes []types.Box) ([]TokenBalance, error) {
	byID := make(map[types.TokenID]*TokenBalance)
	for _, b := range boxes {
		for _, a := range b.Assets {
			tb, ok := byID[a.TokenID]
			if !ok {
				tb = &TokenBalance{TokenID: a.TokenID}
				byID[a.TokenID] = tb
			}
			sum, err := tb.Amount.Add(a.Amount)
			if err != nil {
				return nil, err
			}
			tb.Amount = sum
			tb.Boxes++
		}
	}

	out := make([]TokenBalance, 0, len(byID))
	for _, tb := range byID {
		out = append(out, *tb)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenID.String() < out[j].TokenID.String()
	})
	return out, nil
}

// GetBalance returns the total value and token holdings of boxes.
func GetBalance(boxes []types.Box) (*Balance, error) {
	value, err := types.SumValues(boxes)
	if err != nil {
		return nil, err
	}
	tokens, err := TokenBalances(boxes)
	if err != nil {
		return nil, err
	}
	return &Balance{Value: value, Boxes: len(boxes), Tokens: tokens}, nil
}
