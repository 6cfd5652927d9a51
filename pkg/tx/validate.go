package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/config"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Validation errors.
var (
	ErrNoInputs           = errors.New("transaction has no inputs")
	ErrNoOutputs          = errors.New("transaction has no outputs")
	ErrDuplicateInput     = errors.New("duplicate input")
	ErrTooManyInputs      = errors.New("too many inputs")
	ErrTooManyOutputs     = errors.New("too many outputs")
	ErrScriptDataTooLarge = errors.New("script data too large")
	ErrTooManyTokens      = errors.New("too many tokens in output")
	ErrRegisterTooLarge   = errors.New("register value too large")
	ErrUnknownInput       = errors.New("input not in selected box set")
	ErrNotRehydrated      = errors.New("input carries no box content")
	ErrIDMismatch         = errors.New("transaction id mismatch")
	ErrValueMismatch      = errors.New("input and output values differ")
	ErrTokenMismatch      = errors.New("token amounts not conserved")
	ErrInvalidMint        = errors.New("invalid token mint")
)

// Validate checks transaction structure and output well-formedness.
// It does not check conservation; see ValidateConservation.
func (tx *UnsignedTransaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(tx.Inputs) > config.MaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), config.MaxTxInputs)
	}
	if len(tx.Outputs) > config.MaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), config.MaxTxOutputs)
	}

	seen := make(map[types.BoxID]bool, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if seen[in.BoxID] {
			return fmt.Errorf("input %d: %w: %s", i, ErrDuplicateInput, in.BoxID)
		}
		seen[in.BoxID] = true
	}

	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.Value.IsZero() {
			return fmt.Errorf("output %d: %w", i, types.ErrZeroBoxValue)
		}
		if len(out.ErgoTree) == 0 {
			return fmt.Errorf("output %d: %w", i, types.ErrEmptyScript)
		}
		if len(out.ErgoTree) > config.MaxScriptData {
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrScriptDataTooLarge, len(out.ErgoTree), config.MaxScriptData)
		}
		if len(out.Assets) > config.MaxBoxTokens {
			return fmt.Errorf("output %d: %w: %d, max %d", i, ErrTooManyTokens, len(out.Assets), config.MaxBoxTokens)
		}
		if err := types.ValidateAssets(out.Assets); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if err := out.Registers.Validate(); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		for id, v := range out.Registers {
			if len(v) > config.MaxRegisterLen {
				return fmt.Errorf("output %d: %w: %s", i, ErrRegisterTooLarge, id)
			}
		}
	}
	return nil
}

// ValidateConservation checks a rehydrated transaction:
//   - input value equals output value;
//   - per token, input amount equals output amount plus burned amount;
//   - a token present only in outputs is a mint: its id is the box id of
//     the last input and it appears in exactly one output.
func ValidateConservation(utx *UnsignedTransaction, burned map[types.TokenID]types.Amount) error {
	if err := utx.Validate(); err != nil {
		return err
	}
	for i, in := range utx.Inputs {
		if in.Value.IsZero() || len(in.ErgoTree) == 0 {
			return fmt.Errorf("input %d: %w: %s", i, ErrNotRehydrated, in.BoxID)
		}
	}

	inputs := utx.InputBoxes()
	inValue, err := types.SumValues(inputs)
	if err != nil {
		return fmt.Errorf("input value: %w", err)
	}
	outValue, err := types.SumValues(utx.Outputs)
	if err != nil {
		return fmt.Errorf("output value: %w", err)
	}
	if inValue.Cmp(outValue) != 0 {
		return fmt.Errorf("%w: inputs %s, outputs %s", ErrValueMismatch, inValue, outValue)
	}

	inTokens, err := types.SumTokens(inputs)
	if err != nil {
		return fmt.Errorf("input tokens: %w", err)
	}
	outTokens, err := types.SumTokens(utx.Outputs)
	if err != nil {
		return fmt.Errorf("output tokens: %w", err)
	}

	for id, in := range inTokens {
		want, err := outTokens[id].Add(burned[id])
		if err != nil {
			return fmt.Errorf("token %s: %w", id, err)
		}
		if in.Cmp(want) != 0 {
			return fmt.Errorf("%w: token %s: inputs %s, outputs %s, burned %s",
				ErrTokenMismatch, id, in, outTokens[id], burned[id])
		}
	}
	for id, amt := range burned {
		if _, held := inTokens[id]; !held && !amt.IsZero() {
			return fmt.Errorf("%w: token %s burned but not spent", ErrTokenMismatch, id)
		}
	}

	for id := range outTokens {
		if _, spent := inTokens[id]; spent {
			continue
		}
		if err := checkMint(utx, id); err != nil {
			return err
		}
	}
	return nil
}

func checkMint(utx *UnsignedTransaction, id types.TokenID) error {
	last := utx.Inputs[len(utx.Inputs)-1].BoxID
	if types.BoxID(id) != last {
		return fmt.Errorf("%w: token %s is not the last input id %s", ErrInvalidMint, id, last)
	}
	count := 0
	for i := range utx.Outputs {
		if !utx.Outputs[i].TokenAmount(id).IsZero() {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("%w: token %s appears in %d outputs", ErrInvalidMint, id, count)
	}
	return nil
}

// MintedToken returns the id of the token minted by utx, if any.
func MintedToken(utx *UnsignedTransaction) (types.TokenID, bool) {
	if len(utx.Inputs) == 0 {
		return types.TokenID{}, false
	}
	id := types.TokenID(utx.Inputs[len(utx.Inputs)-1].BoxID)
	for i := range utx.Outputs {
		if !utx.Outputs[i].TokenAmount(id).IsZero() {
			return id, true
		}
	}
	return types.TokenID{}, false
}
