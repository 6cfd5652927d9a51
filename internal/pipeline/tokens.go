package pipeline

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/internal/wallet"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// TokenInfo describes a token held by the wallet.
type TokenInfo struct {
	ID       types.TokenID
	Amount   types.Amount    // Raw units.
	Boxes    int             // Number of wallet boxes holding it.
	Metadata *token.Metadata // Nil when unknown.
	Display  string          // Amount in display units.
}

// Label returns the token name, or its abbreviated id when unknown.
func (t *TokenInfo) Label() string {
	if t.Metadata != nil && t.Metadata.Name != "" {
		return t.Metadata.Name
	}
	return token.ShortID(t.ID)
}

// ListTokens returns the tokens held by the wallet, sorted by id. Metadata
// comes from the store when cached, otherwise from the token source; a
// token whose metadata cannot be resolved is listed with raw amounts.
func (p *Pipeline) ListTokens(ctx context.Context) ([]TokenInfo, error) {
	boxes, err := p.fetchBoxes(ctx, types.Amount{})
	if err != nil {
		return nil, err
	}
	balances, err := wallet.TokenBalances(boxes)
	if err != nil {
		return nil, err
	}

	out := make([]TokenInfo, 0, len(balances))
	for _, b := range balances {
		info := TokenInfo{ID: b.TokenID, Amount: b.Amount, Boxes: b.Boxes, Display: b.Amount.String()}
		meta, err := p.metadata(ctx, b.TokenID)
		if err != nil {
			log.Token.Warn().Err(err).Str("token", b.TokenID.String()).Msg("Token metadata unavailable")
		} else if meta != nil {
			info.Metadata = meta
			info.Display = token.FormatAmount(b.Amount, meta.Decimals)
		}
		out = append(out, info)
	}
	return out, nil
}

// metadata resolves a token's metadata. It returns nil, nil when no source
// is configured and nothing is cached.
func (p *Pipeline) metadata(ctx context.Context, id types.TokenID) (*token.Metadata, error) {
	if p.store != nil {
		meta, err := p.store.Get(id)
		if err == nil {
			return meta, nil
		}
		if !errors.Is(err, token.ErrUnknownToken) {
			return nil, err
		}
	}
	if p.source == nil {
		return nil, nil
	}

	box, err := p.source.TokenBox(ctx, id)
	if err != nil {
		return nil, &StageError{Stage: StageTokenInfo, Err: err}
	}
	meta, err := token.DecodeMetadata(box.Registers)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.store.Put(id, meta); err != nil {
			log.Token.Warn().Err(err).Str("token", id.String()).Msg("Failed to cache token metadata")
		}
	}
	return meta, nil
}
