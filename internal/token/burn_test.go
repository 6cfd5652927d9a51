package token

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

var (
	tokT = types.TokenID{0x01}
	tokU = types.TokenID{0x02}
	tokV = types.TokenID{0x03}
)

func amt(n uint64) types.Amount { return types.NewAmount(n) }

func TestComputeBurns(t *testing.T) {
	available := map[types.TokenID]types.Amount{tokT: amt(500), tokU: amt(7)}

	tests := []struct {
		name          string
		req           BurnRequest
		wantBurned    string
		wantRemaining string
	}{
		{"exact", BurnRequest{tokT, amt(500)}, "500", "0"},
		{"partial", BurnRequest{tokT, amt(200)}, "200", "300"},
		{"clamped", BurnRequest{tokT, amt(800)}, "500", "0"},
		{"not held", BurnRequest{tokV, amt(5)}, "0", "0"},
		{"zero request", BurnRequest{tokU, amt(0)}, "0", "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			burns, err := ComputeBurns([]BurnRequest{tt.req}, available)
			if err != nil {
				t.Fatalf("ComputeBurns: %v", err)
			}
			if len(burns) != 1 {
				t.Fatalf("burns = %d, want 1", len(burns))
			}
			b := burns[0]
			if b.Burned.String() != tt.wantBurned {
				t.Errorf("burned = %s, want %s", b.Burned, tt.wantBurned)
			}
			if b.Remaining.String() != tt.wantRemaining {
				t.Errorf("remaining = %s, want %s", b.Remaining, tt.wantRemaining)
			}
		})
	}
}

func TestComputeBurns_MergesDuplicates(t *testing.T) {
	available := map[types.TokenID]types.Amount{tokT: amt(500), tokU: amt(7)}
	burns, err := ComputeBurns([]BurnRequest{
		{tokU, amt(1)},
		{tokT, amt(100)},
		{tokU, amt(2)},
	}, available)
	if err != nil {
		t.Fatal(err)
	}
	if len(burns) != 2 {
		t.Fatalf("burns = %d, want 2", len(burns))
	}
	if burns[0].TokenID != tokU || burns[0].Requested.String() != "3" || burns[0].Burned.String() != "3" {
		t.Errorf("first burn = %+v", burns[0])
	}
	if burns[1].TokenID != tokT {
		t.Errorf("second burn = %s, want tokT", burns[1].TokenID)
	}
}

func TestRewriteChange(t *testing.T) {
	change := &types.Box{
		Value: amt(1_000_000),
		Assets: []types.Asset{
			{TokenID: tokT, Amount: amt(500)},
			{TokenID: tokU, Amount: amt(7)},
			{TokenID: tokV, Amount: amt(3)},
		},
	}
	burns, err := ComputeBurns([]BurnRequest{{tokT, amt(500)}, {tokV, amt(1)}},
		map[types.TokenID]types.Amount{tokT: amt(500), tokU: amt(7), tokV: amt(3)})
	if err != nil {
		t.Fatal(err)
	}

	if err := RewriteChange(change, burns); err != nil {
		t.Fatalf("RewriteChange: %v", err)
	}
	if len(change.Assets) != 2 {
		t.Fatalf("assets = %v, want U and V", change.Assets)
	}
	if change.Assets[0].TokenID != tokU || change.Assets[0].Amount.String() != "7" {
		t.Errorf("untouched token changed: %+v", change.Assets[0])
	}
	if change.Assets[1].TokenID != tokV || change.Assets[1].Amount.String() != "2" {
		t.Errorf("partially burned token = %+v, want V/2", change.Assets[1])
	}
}

func TestRewriteChange_NoBurns(t *testing.T) {
	change := &types.Box{Assets: []types.Asset{{TokenID: tokT, Amount: amt(5)}}}
	burns := []Burn{{TokenID: tokV, Requested: amt(5)}} // Not held: burns nothing.

	if err := RewriteChange(change, burns); err != nil {
		t.Fatalf("RewriteChange: %v", err)
	}
	if len(change.Assets) != 1 || change.Assets[0].Amount.String() != "5" {
		t.Errorf("assets = %v", change.Assets)
	}
}

func TestRewriteChange_ExceedsChange(t *testing.T) {
	tests := []struct {
		name   string
		assets []types.Asset
	}{
		{"short", []types.Asset{{TokenID: tokT, Amount: amt(2)}}},
		{"absent", []types.Asset{{TokenID: tokU, Amount: amt(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := &types.Box{Assets: tt.assets}
			burns := []Burn{{TokenID: tokT, Burned: amt(3)}}
			if err := RewriteChange(change, burns); !errors.Is(err, ErrBurnExceedsChange) {
				t.Errorf("err = %v, want ErrBurnExceedsChange", err)
			}
		})
	}
}

func TestVerifyConservation(t *testing.T) {
	input := types.Box{
		BoxID:    types.BoxID{0x10},
		Value:    amt(10_000_000),
		ErgoTree: types.Script{0x00, 0x08, 0xcd},
		Assets:   []types.Asset{{TokenID: tokT, Amount: amt(500)}, {TokenID: tokU, Amount: amt(7)}},
	}
	out := func(v uint64, assets ...types.Asset) types.Box {
		return types.Box{Value: amt(v), ErgoTree: types.Script{0x00, 0x08, 0xcd}, Assets: assets}
	}
	utx := tx.NewBuilder().
		AddInput(input).
		AddOutput(out(9_000_000, types.Asset{TokenID: tokU, Amount: amt(7)})).
		AddOutput(out(1_000_000)).
		Build()

	burns, err := ComputeBurns([]BurnRequest{{tokT, amt(1000)}}, map[types.TokenID]types.Amount{tokT: amt(500)})
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyConservation(utx, burns); err != nil {
		t.Errorf("VerifyConservation: %v", err)
	}
	if err := VerifyConservation(utx, nil); !errors.Is(err, tx.ErrTokenMismatch) {
		t.Errorf("without burns err = %v, want ErrTokenMismatch", err)
	}
}
