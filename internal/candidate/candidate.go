// Package candidate builds output boxes for a transaction and checks each
// one against the dust floor before it is accepted.
package candidate

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Kind names the role of an output candidate.
type Kind string

// Candidate kinds.
const (
	KindSimple     Kind = "payout"
	KindNetworkFee Kind = "network fee"
	KindAppFee     Kind = "app fee"
	KindMint       Kind = "mint"
	KindChange     Kind = "change"
)

// Candidate errors.
var (
	ErrBelowDust       = errors.New("value below dust floor")
	ErrEmptyScript     = errors.New("output script is empty")
	ErrZeroMintAmount  = errors.New("mint amount must be positive")
	ErrMissingTokenID  = errors.New("mint token id missing")
	ErrInvalidMetadata = errors.New("invalid token metadata")
)

// BuildError reports which candidate failed to build.
type BuildError struct {
	Candidate Kind
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s output: %v", e.Candidate, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Mint declares a new token on an output.
type Mint struct {
	TokenID  types.TokenID
	Amount   types.Amount
	Metadata token.Metadata
}

// Builder constructs one output candidate.
type Builder struct {
	kind   Kind
	value  types.Amount
	script types.Script
	height uint32
	assets []types.Asset
	mint   *Mint
	err    error
}

// New starts a candidate paying value to script.
func New(kind Kind, value types.Amount, script types.Script, height uint32) *Builder {
	return &Builder{kind: kind, value: value, script: script, height: height}
}

// Simple starts a value-only output paying addr.
func Simple(value types.Amount, addr types.Address, height uint32) *Builder {
	return toAddress(KindSimple, value, addr, height)
}

// NetworkFee starts the miner fee output.
func NetworkFee(value types.Amount, height uint32, feeTree types.Script) *Builder {
	return New(KindNetworkFee, value, feeTree, height)
}

// AppFee starts the operator fee output.
func AppFee(value types.Amount, addr types.Address, height uint32) *Builder {
	return toAddress(KindAppFee, value, addr, height)
}

// MintBox starts an output paying addr that declares the token in m.
func MintBox(value types.Amount, addr types.Address, height uint32, m Mint) *Builder {
	b := toAddress(KindMint, value, addr, height)
	return b.MintToken(m)
}

// Change starts the change output carrying leftover value and tokens.
func Change(value types.Amount, addr types.Address, height uint32, assets []types.Asset) *Builder {
	b := toAddress(KindChange, value, addr, height)
	return b.WithAssets(assets)
}

func toAddress(kind Kind, value types.Amount, addr types.Address, height uint32) *Builder {
	script, err := addr.Script()
	b := New(kind, value, script, height)
	b.err = err
	return b
}

// Kind returns the candidate's role.
func (b *Builder) Kind() Kind {
	return b.kind
}

// WithAssets adds existing tokens to the candidate.
func (b *Builder) WithAssets(assets []types.Asset) *Builder {
	b.assets = append(b.assets, assets...)
	return b
}

// MintToken declares a new token on the candidate.
func (b *Builder) MintToken(m Mint) *Builder {
	b.mint = &m
	return b
}

// Build validates the candidate against minValue and returns the box.
// The box has no id until the transaction is finalized.
func (b *Builder) Build(minValue types.Amount) (types.Box, error) {
	if err := b.validate(minValue); err != nil {
		return types.Box{}, &BuildError{Candidate: b.kind, Err: err}
	}

	box := types.Box{
		Value:          b.value,
		ErgoTree:       append(types.Script(nil), b.script...),
		Assets:         append([]types.Asset{}, b.assets...),
		Registers:      types.Registers{},
		CreationHeight: b.height,
	}
	if b.mint != nil {
		box.Assets = append([]types.Asset{{TokenID: b.mint.TokenID, Amount: b.mint.Amount}}, box.Assets...)
		box.Registers = token.EncodeMintRegisters(b.mint.Metadata)
	}
	return box, nil
}

func (b *Builder) validate(minValue types.Amount) error {
	if b.err != nil {
		return b.err
	}
	if len(b.script) == 0 {
		return ErrEmptyScript
	}
	if b.value.Lt(minValue) || b.value.IsZero() {
		return fmt.Errorf("%w: %s < %s", ErrBelowDust, b.value, minValue)
	}
	if err := types.ValidateAssets(b.assets); err != nil {
		return err
	}
	if b.mint == nil {
		return nil
	}
	if b.mint.TokenID.IsZero() {
		return ErrMissingTokenID
	}
	if b.mint.Amount.IsZero() {
		return ErrZeroMintAmount
	}
	for _, a := range b.assets {
		if a.TokenID == b.mint.TokenID {
			return fmt.Errorf("%w: %s", types.ErrDuplicateAsset, a.TokenID)
		}
	}
	if err := b.mint.Metadata.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return nil
}
