// Package assembler turns selected boxes and output candidates into a
// balanced unsigned transaction.
//
// Assembly always runs build, canonicalize, rehydrate: the transaction is
// serialized to the canonical form a signer derives the id from, parsed
// back, and every input is restored from the selected boxes.
package assembler

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/internal/candidate"
	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Assembly errors.
var (
	ErrChangeBelowDust = errors.New("change below dust floor")
	ErrOverspend       = errors.New("outputs exceed inputs")
	ErrMintMismatch    = errors.New("minted token does not match request")
)

// Params describes one transaction to assemble.
type Params struct {
	Inputs        []types.Box   // Selected boxes, in selection order.
	DataInputs    []types.BoxID // Read-only references; usually empty.
	Outputs       []types.Box   // Built candidates, in order.
	ChangeAddress types.Address
	NetworkFee    types.Amount
	Height        uint32
	Burn          []token.Burn   // Burn flow only.
	Mint          *types.TokenID // Token declared by one of Outputs, if any.
}

// Assembler builds unsigned transactions.
type Assembler struct {
	MinBoxValue  types.Amount
	MinerFeeTree types.Script
}

// New creates an assembler enforcing minBoxValue on every output and paying
// network fees to minerFeeTree.
func New(minBoxValue types.Amount, minerFeeTree types.Script) *Assembler {
	return &Assembler{MinBoxValue: minBoxValue, MinerFeeTree: minerFeeTree}
}

// Assemble builds the transaction. Outputs are ordered: candidates,
// change (when anything is left over), network fee.
func (a *Assembler) Assemble(p Params) (*tx.UnsignedTransaction, error) {
	if len(p.Inputs) == 0 {
		return nil, tx.ErrNoInputs
	}
	for i, out := range p.Outputs {
		if out.Value.Lt(a.MinBoxValue) {
			return nil, &candidate.BuildError{
				Candidate: candidate.Kind(fmt.Sprintf("output %d", i)),
				Err:       fmt.Errorf("%w: %s < %s", candidate.ErrBelowDust, out.Value, a.MinBoxValue),
			}
		}
	}

	fee, err := candidate.NetworkFee(p.NetworkFee, p.Height, a.MinerFeeTree).Build(a.MinBoxValue)
	if err != nil {
		return nil, err
	}
	spent := append(append([]types.Box{}, p.Outputs...), fee)

	leftValue, leftAssets, err := leftovers(p.Inputs, spent, p.Mint)
	if err != nil {
		return nil, err
	}
	if len(p.Burn) > 0 {
		scratch := types.Box{Assets: leftAssets}
		if err := token.RewriteChange(&scratch, p.Burn); err != nil {
			return nil, err
		}
		leftAssets = scratch.Assets
	}

	b := tx.NewBuilder().AddInputs(p.Inputs)
	for _, id := range p.DataInputs {
		b.AddDataInput(id)
	}
	for _, out := range p.Outputs {
		b.AddOutput(out)
	}
	if !leftValue.IsZero() || len(leftAssets) > 0 {
		change, err := candidate.Change(leftValue, p.ChangeAddress, p.Height, leftAssets).Build(a.MinBoxValue)
		if errors.Is(err, candidate.ErrBelowDust) {
			return nil, fmt.Errorf("%w: %s < %s", ErrChangeBelowDust, leftValue, a.MinBoxValue)
		}
		if err != nil {
			return nil, err
		}
		b.AddOutput(change)
	}
	b.AddOutput(fee)
	built := b.Build()

	canon, err := tx.Canonicalize(built)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	utx, err := tx.Rehydrate(canon, p.Inputs)
	if err != nil {
		return nil, fmt.Errorf("rehydrate: %w", err)
	}
	if utx.ID != built.ID {
		return nil, fmt.Errorf("%w: built %s, canonical %s", tx.ErrIDMismatch, built.ID, utx.ID)
	}

	if err := tx.ValidateConservation(utx, token.BurnedAmounts(p.Burn)); err != nil {
		return nil, err
	}
	if p.Mint != nil {
		minted, ok := tx.MintedToken(utx)
		if !ok || minted != *p.Mint {
			return nil, fmt.Errorf("%w: want %s", ErrMintMismatch, *p.Mint)
		}
	}

	log.Assembler.Debug().
		Str("tx", utx.ID.String()).
		Int("inputs", len(utx.Inputs)).
		Int("outputs", len(utx.Outputs)).
		Str("change", leftValue.String()).
		Msg("Transaction assembled")
	return utx, nil
}

// leftovers returns the value and tokens of inputs not claimed by outputs.
// Token order follows first appearance across the inputs. A token that
// appears only in outputs must be the minted one.
func leftovers(inputs, outputs []types.Box, mint *types.TokenID) (types.Amount, []types.Asset, error) {
	inValue, err := types.SumValues(inputs)
	if err != nil {
		return types.Amount{}, nil, err
	}
	outValue, err := types.SumValues(outputs)
	if err != nil {
		return types.Amount{}, nil, err
	}
	leftValue, err := inValue.Sub(outValue)
	if err != nil {
		return types.Amount{}, nil, fmt.Errorf("%w: value: inputs %s, outputs %s", ErrOverspend, inValue, outValue)
	}

	inTokens, err := types.SumTokens(inputs)
	if err != nil {
		return types.Amount{}, nil, err
	}
	outTokens, err := types.SumTokens(outputs)
	if err != nil {
		return types.Amount{}, nil, err
	}
	for id := range outTokens {
		if _, held := inTokens[id]; held {
			continue
		}
		if mint == nil || id != *mint {
			return types.Amount{}, nil, fmt.Errorf("%w: token %s not held by inputs", ErrOverspend, id)
		}
	}

	var assets []types.Asset
	seen := make(map[types.TokenID]bool, len(inTokens))
	for _, in := range inputs {
		for _, as := range in.Assets {
			if seen[as.TokenID] {
				continue
			}
			seen[as.TokenID] = true
			left, err := inTokens[as.TokenID].Sub(outTokens[as.TokenID])
			if err != nil {
				return types.Amount{}, nil, fmt.Errorf("%w: token %s: inputs %s, outputs %s",
					ErrOverspend, as.TokenID, inTokens[as.TokenID], outTokens[as.TokenID])
			}
			if !left.IsZero() {
				assets = append(assets, types.Asset{TokenID: as.TokenID, Amount: left})
			}
		}
	}
	return leftValue, assets, nil
}
