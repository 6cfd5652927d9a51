package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/pipeline"
	"github.com/Klingon-tech/klingnet-mint/pkg/tx"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Connector error codes returned by sign_tx.
const (
	CodeProofGeneration = 1
	CodeUserDeclined    = 2
)

// Wallet adapts a bridge client to pipeline.Wallet.
type Wallet struct {
	client *Client
}

var _ pipeline.Wallet = (*Wallet)(nil)

// NewWallet wraps c.
func NewWallet(c *Client) *Wallet {
	return &Wallet{client: c}
}

// FetchBoxes calls get_utxos. A zero minValue asks for every box.
func (w *Wallet) FetchBoxes(ctx context.Context, minValue types.Amount) ([]json.RawMessage, error) {
	var params []interface{}
	if !minValue.IsZero() {
		params = []interface{}{minValue.String()}
	}
	var raw json.RawMessage
	if err := w.client.Call(ctx, "get_utxos", params, &raw); err != nil {
		return nil, err
	}
	// Connectors answer null or false when nothing covers the amount.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		return nil, nil
	}
	var boxes []json.RawMessage
	if err := json.Unmarshal(trimmed, &boxes); err != nil {
		return nil, fmt.Errorf("get_utxos: decode box list: %w", err)
	}
	log.Wallet.Debug().Int("boxes", len(boxes)).Str("min_value", minValue.String()).Msg("Wallet boxes fetched")
	return boxes, nil
}

// ChangeAddress calls get_change_address.
func (w *Wallet) ChangeAddress(ctx context.Context) (string, error) {
	var addr string
	if err := w.client.Call(ctx, "get_change_address", nil, &addr); err != nil {
		return "", err
	}
	if addr == "" {
		return "", errors.New("get_change_address: empty address")
	}
	return addr, nil
}

// CurrentHeight calls get_current_height.
func (w *Wallet) CurrentHeight(ctx context.Context) (uint32, error) {
	var height uint32
	if err := w.client.Call(ctx, "get_current_height", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// Sign calls sign_tx. It waits for the user without the client timeout.
func (w *Wallet) Sign(ctx context.Context, utx *tx.UnsignedTransaction) (json.RawMessage, error) {
	log.Wallet.Info().Str("tx", utx.ID.String()).Msg("Waiting for the wallet to sign")
	var signed json.RawMessage
	err := w.client.CallNoTimeout(ctx, "sign_tx", []interface{}{utx}, &signed)
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeUserDeclined {
		return nil, fmt.Errorf("%w: %s", pipeline.ErrSigningRejected, rpcErr.Message)
	}
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// Submit calls submit_tx and returns the id reported by the wallet.
func (w *Wallet) Submit(ctx context.Context, signed json.RawMessage) (types.TxID, error) {
	var id string
	if err := w.client.Call(ctx, "submit_tx", []interface{}{signed}, &id); err != nil {
		return types.TxID{}, err
	}
	h, err := types.HexToHash(id)
	if err != nil {
		return types.TxID{}, fmt.Errorf("submit_tx: bad transaction id %q: %w", id, err)
	}
	return types.TxID(h), nil
}
