// Package explorer reads token and box data from a block explorer's
// public REST API.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-mint/internal/log"
	"github.com/Klingon-tech/klingnet-mint/internal/pipeline"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// ErrNotFound is returned when the explorer does not know an id.
var ErrNotFound = errors.New("explorer: not found")

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

// Client is an explorer API client.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ pipeline.TokenSource = (*Client)(nil)

// New creates a client for the explorer at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// TokenInfo is the explorer's summary of a token.
type TokenInfo struct {
	ID             types.TokenID `json:"id"`
	BoxID          types.BoxID   `json:"boxId"`
	EmissionAmount types.Amount  `json:"emissionAmount"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Decimals       uint8         `json:"decimals"`
}

// Token fetches the summary of a token, including the id of the box that
// minted it.
func (c *Client) Token(ctx context.Context, id types.TokenID) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.get(ctx, "/api/v1/tokens/"+id.String(), &info); err != nil {
		return nil, fmt.Errorf("token %s: %w", id, err)
	}
	return &info, nil
}

// Box fetches a box by id.
func (c *Client) Box(ctx context.Context, id types.BoxID) (types.Box, error) {
	var raw explorerBox
	if err := c.get(ctx, "/api/v1/boxes/"+id.String(), &raw); err != nil {
		return types.Box{}, fmt.Errorf("box %s: %w", id, err)
	}
	box, err := raw.toBox()
	if err != nil {
		return types.Box{}, fmt.Errorf("box %s: %w", id, err)
	}
	return box, nil
}

// TokenBox returns the box that minted id. Its registers carry the
// token's metadata.
func (c *Client) TokenBox(ctx context.Context, id types.TokenID) (types.Box, error) {
	info, err := c.Token(ctx, id)
	if err != nil {
		return types.Box{}, err
	}
	if info.BoxID.IsZero() {
		return types.Box{}, fmt.Errorf("token %s: explorer returned no issuing box", id)
	}
	return c.Box(ctx, info.BoxID)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	log.Explorer.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Explorer request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// explorerBox is a box as the explorer renders it. Registers are objects
// carrying the serialized constant rather than bare hex strings.
type explorerBox struct {
	BoxID          types.BoxID              `json:"boxId"`
	Value          types.Amount             `json:"value"`
	ErgoTree       types.Script             `json:"ergoTree"`
	Assets         []types.Asset            `json:"assets"`
	Registers      map[string]registerValue `json:"additionalRegisters"`
	CreationHeight uint32                   `json:"creationHeight"`
	TransactionID  types.TxID               `json:"transactionId"`
	Index          uint16                   `json:"index"`
}

func (b *explorerBox) toBox() (types.Box, error) {
	regs := make(types.Registers, len(b.Registers))
	for k, v := range b.Registers {
		regs[types.RegisterID(k)] = string(v)
	}
	box := types.Box{
		BoxID:          b.BoxID,
		Value:          b.Value,
		ErgoTree:       b.ErgoTree,
		Assets:         b.Assets,
		Registers:      regs,
		CreationHeight: b.CreationHeight,
		TransactionID:  b.TransactionID,
		Index:          b.Index,
	}
	if box.Assets == nil {
		box.Assets = []types.Asset{}
	}
	if err := box.Validate(); err != nil {
		return types.Box{}, err
	}
	return box, nil
}

// registerValue accepts a bare hex string or {"serializedValue": "..."}.
type registerValue string

func (r *registerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = registerValue(s)
		return nil
	}
	var obj struct {
		SerializedValue string `json:"serializedValue"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if obj.SerializedValue == "" {
		return errors.New("register: missing serializedValue")
	}
	*r = registerValue(obj.SerializedValue)
	return nil
}
