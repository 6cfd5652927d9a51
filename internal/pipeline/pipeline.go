// Package pipeline runs mint and burn requests end to end: fetch wallet
// boxes, select inputs, build outputs, assemble, then sign and submit
// through the wallet.
//
// Each request works on a fresh snapshot of the wallet's boxes and holds no
// state between calls. Nothing is submitted unless the transaction was
// assembled and signed; a failure at any stage leaves no on-chain effect.
// Overlapping requests against the same wallet are the caller's concern.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/internal/assembler"
	"github.com/Klingon-tech/klingnet-mint/internal/candidate"
	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/internal/wallet"
	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Wallet is the user's wallet. It owns the keys and the box set.
type Wallet interface {
	// FetchBoxes returns the wallet's unspent boxes, optionally limited to
	// enough boxes to cover minValue. Boxes are returned undecoded.
	FetchBoxes(ctx context.Context, minValue types.Amount) ([]json.RawMessage, error)
	// ChangeAddress returns the address receiving change and payouts.
	ChangeAddress(ctx context.Context) (string, error)
	// CurrentHeight returns the chain height used for new outputs.
	CurrentHeight(ctx context.Context) (uint32, error)
	// Sign signs utx. A user decline must wrap ErrSigningRejected.
	Sign(ctx context.Context, utx *tx.UnsignedTransaction) (json.RawMessage, error)
	// Submit broadcasts a signed transaction and returns its id.
	Submit(ctx context.Context, signed json.RawMessage) (types.TxID, error)
}

// TokenSource looks up the box that minted a token.
type TokenSource interface {
	TokenBox(ctx context.Context, id types.TokenID) (types.Box, error)
}

// Plan is an assembled transaction that has not been signed.
type Plan struct {
	Tx      *tx.UnsignedTransaction
	TokenID types.TokenID // Minted token; zero for burns.
	Burns   []token.Burn  // Settled burns; nil for mints.
}

// Result is the outcome of a submitted request.
type Result struct {
	TxID types.TxID
	Plan
}

// Pipeline runs requests against one wallet.
type Pipeline struct {
	wallet Wallet
	params Params
	asm    *assembler.Assembler
	source TokenSource
	store  *token.Store
}

// New creates a pipeline for w after validating params.
func New(w Wallet, params Params) (*Pipeline, error) {
	if w == nil {
		return nil, errors.New("pipeline: wallet is required")
	}
	if params.Malformed == "" {
		params.Malformed = MalformedAbort
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		wallet: w,
		params: params,
		asm:    assembler.New(params.MinBoxValue, params.MinerFeeTree),
	}, nil
}

// SetTokenSource attaches a metadata source and cache used by ListTokens.
// Either may be nil.
func (p *Pipeline) SetTokenSource(src TokenSource, store *token.Store) {
	p.source = src
	p.store = store
}

// Params returns the pipeline's fee schedule.
func (p *Pipeline) Params() Params {
	return p.params
}

// snapshot is the wallet state one request is built from.
type snapshot struct {
	boxes  []types.Box
	change types.Address
	height uint32
}

func (p *Pipeline) snapshot(ctx context.Context, minValue types.Amount) (*snapshot, error) {
	addr, err := p.wallet.ChangeAddress(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageChangeAddress, Err: err}
	}
	change, err := types.ParseNetworkAddress(addr, p.params.Network)
	if err != nil {
		return nil, &StageError{Stage: StageChangeAddress, Err: err}
	}
	height, err := p.wallet.CurrentHeight(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageHeight, Err: err}
	}
	boxes, err := p.fetchBoxes(ctx, minValue)
	if err != nil {
		return nil, err
	}
	return &snapshot{boxes: boxes, change: change, height: height}, nil
}

// fetchBoxes decodes the wallet's boxes, applying the malformed box policy.
func (p *Pipeline) fetchBoxes(ctx context.Context, minValue types.Amount) ([]types.Box, error) {
	raw, err := p.wallet.FetchBoxes(ctx, minValue)
	if err != nil {
		return nil, &StageError{Stage: StageFetchBoxes, Err: err}
	}
	boxes := make([]types.Box, 0, len(raw))
	for i, r := range raw {
		b, err := types.ParseBox(r)
		if err != nil {
			merr := &MalformedBoxError{Index: i, Err: err}
			if p.params.Malformed == MalformedDrop {
				log.Pipeline.Warn().Err(err).Int("index", i).Msg("Dropping malformed box")
				continue
			}
			return nil, &StageError{Stage: StageFetchBoxes, Err: merr}
		}
		boxes = append(boxes, b)
	}
	log.Pipeline.Debug().
		Int("fetched", len(raw)).
		Int("usable", len(boxes)).
		Str("min_value", minValue.String()).
		Msg("Wallet boxes fetched")
	return boxes, nil
}

// assemble selects inputs for target and tokens, plans the outputs and
// assembles them. When the change would fall below the dust floor the
// selection is retried once with the dust floor added to the target.
func (p *Pipeline) assemble(snap *snapshot, target types.Amount, tokens map[types.TokenID]types.Amount,
	plan func(*wallet.BoxSelection) (assembler.Params, error)) (*tx.UnsignedTransaction, *wallet.BoxSelection, error) {
	for attempt := 0; ; attempt++ {
		sel, err := wallet.SelectBoxes(snap.boxes, target, tokens)
		if err != nil {
			return nil, nil, err
		}
		ap, err := plan(sel)
		if err != nil {
			return nil, nil, err
		}
		utx, err := p.asm.Assemble(ap)
		if errors.Is(err, assembler.ErrChangeBelowDust) && attempt == 0 {
			if target, err = target.Add(p.params.MinBoxValue); err != nil {
				return nil, nil, err
			}
			log.Pipeline.Debug().Str("target", target.String()).Msg("Change below dust floor, reselecting")
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return utx, sel, nil
	}
}

// appFee builds the operator fee output.
func (p *Pipeline) appFee(height uint32) (types.Box, error) {
	return candidate.AppFee(p.params.AppFee, p.params.AppFeeAddress, height).Build(p.params.MinBoxValue)
}

// BuildMint assembles a transaction minting a new token. The token id is
// the id of the last selected input.
func (p *Pipeline) BuildMint(ctx context.Context, req MintRequest) (*Plan, error) {
	overhead, err := p.params.overhead()
	if err != nil {
		return nil, err
	}
	target, err := req.Payout.Add(overhead)
	if err != nil {
		return nil, err
	}
	// Ask for enough to leave change above dust so the first fetch
	// usually serves the reselection too.
	hint, err := target.Add(p.params.MinBoxValue)
	if err != nil {
		return nil, err
	}
	snap, err := p.snapshot(ctx, hint)
	if err != nil {
		return nil, err
	}

	var tokenID types.TokenID
	utx, _, err := p.assemble(snap, target, nil, func(sel *wallet.BoxSelection) (assembler.Params, error) {
		tokenID = token.DeriveTokenID(sel.Last())
		mint, err := candidate.MintBox(req.Payout, snap.change, snap.height, candidate.Mint{
			TokenID:  tokenID,
			Amount:   req.Amount,
			Metadata: req.Metadata,
		}).Build(p.params.MinBoxValue)
		if err != nil {
			return assembler.Params{}, err
		}
		fee, err := p.appFee(snap.height)
		if err != nil {
			return assembler.Params{}, err
		}
		return assembler.Params{
			Inputs:        sel.Inputs,
			Outputs:       []types.Box{mint, fee},
			ChangeAddress: snap.change,
			NetworkFee:    p.params.NetworkFee,
			Height:        snap.height,
			Mint:          &tokenID,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Pipeline.Info().
		Str("tx", utx.ID.String()).
		Str("token", tokenID.String()).
		Str("name", req.Metadata.Name).
		Str("amount", req.Amount.String()).
		Msg("Mint transaction built")
	return &Plan{Tx: utx, TokenID: tokenID}, nil
}

// BuildBurn assembles a transaction burning tokens. Selection gathers up to
// the requested amount of each token, or the wallet's whole balance when it
// holds less; the burned amount is clamped to what the selected inputs hold.
// The whole box set is fetched since a value hint could leave out the boxes
// carrying the tokens.
func (p *Pipeline) BuildBurn(ctx context.Context, req BurnRequest) (*Plan, error) {
	if len(req.Burns) == 0 {
		return nil, &ValidationError{Field: "tokens", Reason: ErrNoTokens.Error()}
	}
	overhead, err := p.params.overhead()
	if err != nil {
		return nil, err
	}
	target, err := req.Payout.Add(overhead)
	if err != nil {
		return nil, err
	}
	snap, err := p.snapshot(ctx, types.Amount{})
	if err != nil {
		return nil, err
	}
	need, err := burnNeed(req.Burns, snap.boxes)
	if err != nil {
		return nil, err
	}

	var burns []token.Burn
	utx, _, err := p.assemble(snap, target, need, func(sel *wallet.BoxSelection) (assembler.Params, error) {
		var err error
		if burns, err = token.ComputeBurns(req.Burns, sel.Tokens); err != nil {
			return assembler.Params{}, err
		}
		payout, err := candidate.Simple(req.Payout, snap.change, snap.height).Build(p.params.MinBoxValue)
		if err != nil {
			return assembler.Params{}, err
		}
		fee, err := p.appFee(snap.height)
		if err != nil {
			return assembler.Params{}, err
		}
		return assembler.Params{
			Inputs:        sel.Inputs,
			Outputs:       []types.Box{payout, fee},
			ChangeAddress: snap.change,
			NetworkFee:    p.params.NetworkFee,
			Height:        snap.height,
			Burn:          burns,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := token.VerifyConservation(utx, burns); err != nil {
		return nil, err
	}

	for _, b := range burns {
		log.Pipeline.Info().
			Str("tx", utx.ID.String()).
			Str("token", b.TokenID.String()).
			Str("requested", b.Requested.String()).
			Str("burned", b.Burned.String()).
			Str("remaining", b.Remaining.String()).
			Msg("Burn planned")
	}
	return &Plan{Tx: utx, Burns: burns}, nil
}

// burnNeed returns the token amounts selection must cover: the requested
// total per token, capped at the wallet's balance. Tokens the wallet does
// not hold need one unit so selection reports them as missing.
func burnNeed(reqs []token.BurnRequest, boxes []types.Box) (map[types.TokenID]types.Amount, error) {
	balances, err := wallet.TokenBalances(boxes)
	if err != nil {
		return nil, err
	}
	held := make(map[types.TokenID]types.Amount, len(balances))
	for _, b := range balances {
		held[b.TokenID] = b.Amount
	}

	requested := make(map[types.TokenID]types.Amount, len(reqs))
	for _, r := range reqs {
		sum, err := requested[r.TokenID].Add(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("burn %s: %w", r.TokenID, err)
		}
		requested[r.TokenID] = sum
	}

	need := make(map[types.TokenID]types.Amount, len(requested))
	for id, amount := range requested {
		if h, ok := held[id]; ok && !h.IsZero() {
			need[id] = types.Min(amount, h)
		} else {
			need[id] = types.NewAmount(1)
		}
	}
	return need, nil
}

// Mint builds, signs and submits a mint transaction. The new token's
// metadata is cached when a store is attached.
func (p *Pipeline) Mint(ctx context.Context, req MintRequest) (*Result, error) {
	plan, err := p.BuildMint(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := p.signAndSubmit(ctx, plan.Tx)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		meta := req.Metadata
		if err := p.store.Put(plan.TokenID, &meta); err != nil {
			log.Pipeline.Warn().Err(err).Str("token", plan.TokenID.String()).Msg("Failed to cache token metadata")
		}
	}
	return &Result{TxID: id, Plan: *plan}, nil
}

// Burn builds, signs and submits a burn transaction.
func (p *Pipeline) Burn(ctx context.Context, req BurnRequest) (*Result, error) {
	plan, err := p.BuildBurn(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := p.signAndSubmit(ctx, plan.Tx)
	if err != nil {
		return nil, err
	}
	return &Result{TxID: id, Plan: *plan}, nil
}

func (p *Pipeline) signAndSubmit(ctx context.Context, utx *tx.UnsignedTransaction) (types.TxID, error) {
	signed, err := p.wallet.Sign(ctx, utx)
	if err != nil {
		if errors.Is(err, ErrSigningRejected) {
			return types.TxID{}, &StageError{Stage: StageSign, Err: err}
		}
		return types.TxID{}, &StageError{Stage: StageSign, Err: fmt.Errorf("%w: %w", ErrSigningFailed, err)}
	}
	if len(signed) == 0 {
		return types.TxID{}, &StageError{Stage: StageSign, Err: fmt.Errorf("%w: empty signed transaction", ErrSigningFailed)}
	}
	log.Pipeline.Debug().Str("tx", utx.ID.String()).Msg("Transaction signed")

	id, err := p.wallet.Submit(ctx, signed)
	if err != nil {
		return types.TxID{}, &StageError{Stage: StageSubmit, Err: fmt.Errorf("%w: %w", ErrSubmissionFailed, err)}
	}
	if id.IsZero() {
		return types.TxID{}, &StageError{Stage: StageSubmit, Err: fmt.Errorf("%w: no transaction id returned", ErrSubmissionFailed)}
	}
	log.Pipeline.Info().Str("tx", id.String()).Msg("Transaction submitted")
	return id, nil
}
