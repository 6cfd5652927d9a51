package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Klingon-tech/klingnet-mint/config"
	"github.com/Klingon-tech/klingnet-mint/internal/token"
	"github.com/Klingon-tech/klingnet-mint/pkg/types"
	"github.com/shopspring/decimal"
)

// ergDecimals is the number of nanoERG digits in one ERG.
const ergDecimals = 9

// maxLong is the largest box value or token amount the chain accepts; both
// are signed 64-bit integers on the wire.
var maxLong = types.NewAmount(math.MaxInt64)

// MalformedPolicy decides what happens to wallet boxes that fail to parse.
type MalformedPolicy string

// Malformed box policies.
const (
	MalformedAbort MalformedPolicy = "abort" // Fail the whole fetch.
	MalformedDrop  MalformedPolicy = "drop"  // Log and skip the box.
)

// ParseMalformedPolicy parses "abort" or "drop". Empty means abort.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MalformedAbort:
		return MalformedAbort, nil
	case MalformedDrop:
		return MalformedDrop, nil
	default:
		return "", fmt.Errorf("unknown malformed box policy %q (want abort or drop)", s)
	}
}

// Params holds the fee schedule and policies shared by every request.
type Params struct {
	Network       types.Network
	MinBoxValue   types.Amount // Dust floor.
	NetworkFee    types.Amount
	AppFee        types.Amount
	AppFeeAddress types.Address
	MinerFeeTree  types.Script
	Malformed     MalformedPolicy
}

// DefaultParams returns the protocol defaults for network. The application
// fee address must still be set.
func DefaultParams(network types.Network) Params {
	tree, err := types.ParseScript(config.MinerFeeTree)
	if err != nil {
		panic(fmt.Sprintf("pipeline: bad miner fee tree constant: %v", err))
	}
	return Params{
		Network:      network,
		MinBoxValue:  types.NewAmount(config.DefaultMinBoxValue),
		NetworkFee:   types.NewAmount(config.DefaultNetworkFee),
		AppFee:       types.NewAmount(config.DefaultAppFee),
		MinerFeeTree: tree,
		Malformed:    MalformedAbort,
	}
}

// Validate checks that both fee outputs can meet the dust floor.
func (p *Params) Validate() error {
	if p.MinBoxValue.IsZero() {
		return errors.New("dust floor must be positive")
	}
	if p.NetworkFee.Lt(p.MinBoxValue) {
		return fmt.Errorf("network fee %s below dust floor %s", p.NetworkFee, p.MinBoxValue)
	}
	if p.AppFee.Lt(p.MinBoxValue) {
		return fmt.Errorf("app fee %s below dust floor %s", p.AppFee, p.MinBoxValue)
	}
	if len(p.AppFeeAddress.Content) == 0 {
		return errors.New("app fee address is required")
	}
	if p.AppFeeAddress.Network != p.Network {
		return fmt.Errorf("%w: app fee address is %s, want %s",
			types.ErrAddressWrongNetwork, p.AppFeeAddress.Network, p.Network)
	}
	if _, err := p.AppFeeAddress.Script(); err != nil {
		return fmt.Errorf("app fee address: %w", err)
	}
	if len(p.MinerFeeTree) == 0 {
		return errors.New("miner fee tree is required")
	}
	if _, err := ParseMalformedPolicy(string(p.Malformed)); err != nil {
		return err
	}
	return nil
}

// overhead is the value every request spends besides its payout.
func (p *Params) overhead() (types.Amount, error) {
	return p.AppFee.Add(p.NetworkFee)
}

// MintForm is the free-form input of a mint request, as typed by a user.
type MintForm struct {
	Name        string
	Description string
	Decimals    string // Decimal places, 0-18.
	Quantity    string // Supply in display units, e.g. "1000.5".
	Ergs        string // ERG carried by the mint box, e.g. "0.002".
}

// MintRequest is a validated mint request.
type MintRequest struct {
	Metadata token.Metadata
	Amount   types.Amount // Raw units: quantity * 10^decimals.
	Payout   types.Amount // nanoERG carried by the mint box.
}

// NewMintRequest validates a mint form against p.
func NewMintRequest(f MintForm, p Params) (MintRequest, error) {
	decimals, err := strconv.ParseUint(strings.TrimSpace(f.Decimals), 10, 8)
	if err != nil {
		return MintRequest{}, invalid("decimals", "%q is not a number of decimal places", f.Decimals)
	}
	meta := token.Metadata{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Decimals:    uint8(decimals),
	}
	if err := meta.Validate(); err != nil {
		return MintRequest{}, invalid("metadata", "%v", err)
	}

	qty, err := parseDecimal("quantity", f.Quantity)
	if err != nil {
		return MintRequest{}, err
	}
	amount, err := token.ToRaw(qty, meta.Decimals)
	if err != nil {
		return MintRequest{}, invalid("quantity", "%s has more than %d decimal places", qty, meta.Decimals)
	}
	if amount.IsZero() {
		return MintRequest{}, invalid("quantity", "must be positive")
	}
	if err := checkLong("quantity", amount); err != nil {
		return MintRequest{}, err
	}

	payout, err := parseErgs(f.Ergs, p.MinBoxValue)
	if err != nil {
		return MintRequest{}, err
	}
	return MintRequest{Metadata: meta, Amount: amount, Payout: payout}, nil
}

// BurnEntry is one token to burn, as typed by a user.
type BurnEntry struct {
	TokenID string
	Amount  string // Raw units.
}

// BurnForm is the free-form input of a burn request.
type BurnForm struct {
	Tokens []BurnEntry
	Ergs   string // ERG returned to the change address alongside the burn.
}

// BurnRequest is a validated burn request.
type BurnRequest struct {
	Burns  []token.BurnRequest
	Payout types.Amount
}

// NewBurnRequest validates a burn form against p.
func NewBurnRequest(f BurnForm, p Params) (BurnRequest, error) {
	if len(f.Tokens) == 0 {
		return BurnRequest{}, &ValidationError{Field: "tokens", Reason: ErrNoTokens.Error()}
	}
	burns := make([]token.BurnRequest, 0, len(f.Tokens))
	for i, e := range f.Tokens {
		id, err := types.ParseTokenID(strings.TrimSpace(e.TokenID))
		if err != nil {
			return BurnRequest{}, invalid(fmt.Sprintf("tokens[%d].id", i), "%v", err)
		}
		amount, err := types.ParseAmount(strings.TrimSpace(e.Amount))
		if err != nil {
			return BurnRequest{}, invalid(fmt.Sprintf("tokens[%d].amount", i), "%v", err)
		}
		if amount.IsZero() {
			return BurnRequest{}, invalid(fmt.Sprintf("tokens[%d].amount", i), "must be positive")
		}
		if err := checkLong(fmt.Sprintf("tokens[%d].amount", i), amount); err != nil {
			return BurnRequest{}, err
		}
		burns = append(burns, token.BurnRequest{TokenID: id, Amount: amount})
	}

	payout, err := parseErgs(f.Ergs, p.MinBoxValue)
	if err != nil {
		return BurnRequest{}, err
	}
	return BurnRequest{Burns: burns, Payout: payout}, nil
}

// ParseErgs converts an ERG quantity such as "0.0021" into nanoERG.
func ParseErgs(s string) (types.Amount, error) {
	d, err := parseDecimal("ergs", s)
	if err != nil {
		return types.Amount{}, err
	}
	a, err := types.AmountFromDecimal(d.Shift(ergDecimals))
	if err != nil {
		return types.Amount{}, invalid("ergs", "%s is finer than one nanoERG", d)
	}
	return a, nil
}

func parseErgs(s string, floor types.Amount) (types.Amount, error) {
	a, err := ParseErgs(s)
	if err != nil {
		return types.Amount{}, err
	}
	if a.Lt(floor) {
		return types.Amount{}, invalid("ergs", "%s nanoERG is below the minimum box value %s",
			a, floor)
	}
	if err := checkLong("ergs", a); err != nil {
		return types.Amount{}, err
	}
	return a, nil
}

// checkLong rejects amounts the chain cannot represent.
func checkLong(field string, a types.Amount) error {
	if a.Gt(maxLong) {
		return invalid(field, "%s exceeds the maximum %s", a, maxLong)
	}
	return nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, invalid(field, "is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, invalid(field, "%q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, invalid(field, "must not be negative")
	}
	return d, nil
}
