package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Network identifies the network an address belongs to. It occupies the
// high nibble of the address prefix byte.
type Network byte

const (
	Mainnet Network = 0x00
	Testnet Network = 0x10
)

// String returns the network name.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return "unknown"
	}
}

// AddressType identifies how an address commits to its spending script.
type AddressType byte

const (
	AddressP2PK AddressType = 0x01 // Pay to public key
	AddressP2SH AddressType = 0x02 // Pay to script hash
	AddressP2S  AddressType = 0x03 // Pay to script
)

// String returns a human-readable name for the address type.
func (t AddressType) String() string {
	switch t {
	case AddressP2PK:
		return "P2PK"
	case AddressP2SH:
		return "P2SH"
	case AddressP2S:
		return "P2S"
	default:
		return "Unknown"
	}
}

// checksumSize is the number of blake2b-256 bytes appended to an address.
const checksumSize = 4

// Address errors.
var (
	ErrEmptyAddress        = errors.New("empty address")
	ErrAddressChecksum     = errors.New("address checksum mismatch")
	ErrUnsupportedAddress  = errors.New("unsupported address type")
	ErrInvalidAddressKey   = errors.New("invalid address public key")
	ErrAddressWrongNetwork = errors.New("address belongs to another network")
)

// Address is a decoded base58 address.
type Address struct {
	Network Network
	Type    AddressType
	Content []byte
}

// NewP2PKAddress builds a pay-to-public-key address for a compressed key.
func NewP2PKAddress(network Network, pubKey []byte) (Address, error) {
	if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddressKey, err)
	}
	content := make([]byte, len(pubKey))
	copy(content, pubKey)
	return Address{Network: network, Type: AddressP2PK, Content: content}, nil
}

// ParseAddress decodes and validates a base58 address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, ErrEmptyAddress
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid base58 address: %w", err)
	}
	if len(raw) < 1+checksumSize+1 {
		return Address{}, fmt.Errorf("address too short: %d bytes", len(raw))
	}

	body := raw[:len(raw)-checksumSize]
	sum := blake2b.Sum256(body)
	if !bytes.Equal(sum[:checksumSize], raw[len(raw)-checksumSize:]) {
		return Address{}, ErrAddressChecksum
	}

	a := Address{
		Network: Network(body[0] & 0xf0),
		Type:    AddressType(body[0] & 0x0f),
		Content: append([]byte(nil), body[1:]...),
	}
	switch a.Type {
	case AddressP2PK:
		if _, err := secp256k1.ParsePubKey(a.Content); err != nil {
			return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddressKey, err)
		}
	case AddressP2SH, AddressP2S:
	default:
		return Address{}, fmt.Errorf("%w: prefix %#x", ErrUnsupportedAddress, body[0])
	}
	return a, nil
}

// ParseNetworkAddress parses an address and checks its network.
func ParseNetworkAddress(s string, network Network) (Address, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return Address{}, err
	}
	if a.Network != network {
		return Address{}, fmt.Errorf("%w: %s address on %s", ErrAddressWrongNetwork, a.Network, network)
	}
	return a, nil
}

// String returns the base58 encoding with checksum.
func (a Address) String() string {
	body := make([]byte, 0, 1+len(a.Content)+checksumSize)
	body = append(body, byte(a.Network)|byte(a.Type))
	body = append(body, a.Content...)
	sum := blake2b.Sum256(body)
	return base58.Encode(append(body, sum[:checksumSize]...))
}

// Script returns the spending script an output paying to this address
// must carry. P2SH addresses only commit to a script hash and cannot be
// expanded without the script template, so they are rejected.
func (a Address) Script() (Script, error) {
	switch a.Type {
	case AddressP2PK:
		return P2PKScript(a.Content), nil
	case AddressP2S:
		return Script(append([]byte(nil), a.Content...)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAddress, a.Type)
	}
}

// AddressFromScript returns the address form of a script: P2PK for
// pay-to-public-key scripts, P2S otherwise.
func AddressFromScript(network Network, s Script) Address {
	if s.IsP2PK() {
		return Address{Network: network, Type: AddressP2PK, Content: append([]byte(nil), s[3:]...)}
	}
	return Address{Network: network, Type: AddressP2S, Content: append([]byte(nil), s...)}
}
