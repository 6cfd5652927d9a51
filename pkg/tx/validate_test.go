package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-mint/config"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UnsignedTransaction)
		wantErr error
	}{
		{"no inputs", func(u *UnsignedTransaction) { u.Inputs = nil }, ErrNoInputs},
		{"no outputs", func(u *UnsignedTransaction) { u.Outputs = nil }, ErrNoOutputs},
		{"duplicate input", func(u *UnsignedTransaction) { u.Inputs[1] = u.Inputs[0] }, ErrDuplicateInput},
		{"zero output", func(u *UnsignedTransaction) { u.Outputs[0].Value = types.Amount{} }, types.ErrZeroBoxValue},
		{"empty script", func(u *UnsignedTransaction) { u.Outputs[0].ErgoTree = nil }, types.ErrEmptyScript},
		{"huge script", func(u *UnsignedTransaction) { u.Outputs[0].ErgoTree = make(types.Script, config.MaxScriptData+1) }, ErrScriptDataTooLarge},
		{"duplicate asset", func(u *UnsignedTransaction) {
			u.Outputs[0].Assets = []types.Asset{asset(1, 1), asset(1, 2)}
		}, types.ErrDuplicateAsset},
		{"bad register", func(u *UnsignedTransaction) { u.Outputs[0].Registers = types.Registers{"R1": "00"} }, types.ErrUnknownRegister},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			utx, _ := balancedTx(t)
			tt.mutate(utx)
			if err := utx.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConservation_Balanced(t *testing.T) {
	utx, _ := balancedTx(t)
	if err := ValidateConservation(utx, nil); err != nil {
		t.Errorf("ValidateConservation: %v", err)
	}
}

func TestValidateConservation_Value(t *testing.T) {
	utx, _ := balancedTx(t)
	utx.Outputs[1].Value = types.NewAmount(1_999_999)

	if err := ValidateConservation(utx, nil); !errors.Is(err, ErrValueMismatch) {
		t.Errorf("err = %v, want ErrValueMismatch", err)
	}
}

func TestValidateConservation_Tokens(t *testing.T) {
	inputs := []types.Box{testBox(0x01, 5_000_000, asset(0xaa, 500), asset(0xbb, 7))}

	tests := []struct {
		name    string
		outputs []types.Box
		burned  map[types.TokenID]types.Amount
		wantErr error
	}{
		{
			name:    "token dropped without burn",
			outputs: []types.Box{testOutput(5_000_000, asset(0xbb, 7))},
			wantErr: ErrTokenMismatch,
		},
		{
			name:    "explicit full burn",
			outputs: []types.Box{testOutput(5_000_000, asset(0xbb, 7))},
			burned:  map[types.TokenID]types.Amount{{0xaa}: types.NewAmount(500)},
		},
		{
			name:    "partial burn",
			outputs: []types.Box{testOutput(5_000_000, asset(0xaa, 200), asset(0xbb, 7))},
			burned:  map[types.TokenID]types.Amount{{0xaa}: types.NewAmount(300)},
		},
		{
			name:    "burn exceeds leftover",
			outputs: []types.Box{testOutput(5_000_000, asset(0xaa, 200), asset(0xbb, 7))},
			burned:  map[types.TokenID]types.Amount{{0xaa}: types.NewAmount(500)},
			wantErr: ErrTokenMismatch,
		},
		{
			name:    "burn of unheld token",
			outputs: []types.Box{testOutput(5_000_000, asset(0xaa, 500), asset(0xbb, 7))},
			burned:  map[types.TokenID]types.Amount{{0xcc}: types.NewAmount(1)},
			wantErr: ErrTokenMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder().AddInputs(inputs)
			for _, out := range tt.outputs {
				b.AddOutput(out)
			}
			err := ValidateConservation(b.Build(), tt.burned)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConservation_Mint(t *testing.T) {
	first := testBox(0x01, 2_000_000)
	last := testBox(0x02, 3_000_000)
	mintID := types.TokenID(last.BoxID)
	minted := types.Asset{TokenID: mintID, Amount: types.NewAmount(100000)}

	t.Run("last input id", func(t *testing.T) {
		utx := NewBuilder().
			AddInput(first).AddInput(last).
			AddOutput(testOutput(4_000_000, minted)).
			AddOutput(testOutput(1_000_000)).
			Build()
		if err := ValidateConservation(utx, nil); err != nil {
			t.Fatalf("ValidateConservation: %v", err)
		}
		id, ok := MintedToken(utx)
		if !ok || id != mintID {
			t.Errorf("MintedToken = %s, %v", id, ok)
		}
	})

	t.Run("first input id", func(t *testing.T) {
		wrong := types.Asset{TokenID: types.TokenID(first.BoxID), Amount: types.NewAmount(1)}
		utx := NewBuilder().
			AddInput(first).AddInput(last).
			AddOutput(testOutput(5_000_000, wrong)).
			Build()
		if err := ValidateConservation(utx, nil); !errors.Is(err, ErrInvalidMint) {
			t.Errorf("err = %v, want ErrInvalidMint", err)
		}
	})

	t.Run("split across outputs", func(t *testing.T) {
		utx := NewBuilder().
			AddInput(first).AddInput(last).
			AddOutput(testOutput(4_000_000, minted)).
			AddOutput(testOutput(1_000_000, minted)).
			Build()
		if err := ValidateConservation(utx, nil); !errors.Is(err, ErrInvalidMint) {
			t.Errorf("err = %v, want ErrInvalidMint", err)
		}
	})
}

func TestValidateConservation_RequiresRehydration(t *testing.T) {
	utx, _ := balancedTx(t)
	canon, err := Canonicalize(utx)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateConservation(canon, nil); !errors.Is(err, ErrNotRehydrated) {
		t.Errorf("err = %v, want ErrNotRehydrated", err)
	}
}
