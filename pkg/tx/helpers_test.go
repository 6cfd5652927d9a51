package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

var testTree = types.Script{0x00, 0x08, 0xcd, 0x02, 0x79, 0xbe}

func testBox(id byte, value uint64, assets ...types.Asset) types.Box {
	return types.Box{
		BoxID:          types.BoxID{id},
		Value:          types.NewAmount(value),
		ErgoTree:       testTree,
		Assets:         assets,
		Registers:      types.Registers{},
		CreationHeight: 100,
		TransactionID:  types.TxID{0xee, id},
	}
}

func testOutput(value uint64, assets ...types.Asset) types.Box {
	return types.Box{
		Value:          types.NewAmount(value),
		ErgoTree:       testTree,
		Assets:         assets,
		CreationHeight: 200,
	}
}

func asset(id byte, amount uint64) types.Asset {
	return types.Asset{TokenID: types.TokenID{id}, Amount: types.NewAmount(amount)}
}

// balancedTx spends two boxes into two outputs with no burn.
func balancedTx(t *testing.T) (*UnsignedTransaction, []types.Box) {
	t.Helper()
	inputs := []types.Box{
		testBox(0x01, 5_000_000, asset(0xaa, 10)),
		testBox(0x02, 3_000_000),
	}
	utx := NewBuilder().
		AddInputs(inputs).
		AddOutput(testOutput(6_000_000, asset(0xaa, 10))).
		AddOutput(testOutput(2_000_000)).
		Build()
	return utx, inputs
}
