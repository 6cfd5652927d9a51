package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// p2pkHeader prefixes the compressed public key in a pay-to-public-key
// script: tree header 0x00, SigmaProp constant 0x08, ProveDlog 0xcd.
var p2pkHeader = []byte{0x00, 0x08, 0xcd}

// Script is the serialized spending condition of a box. The assembly core
// treats it as opaque bytes; only the pay-to-public-key shape is recognised.
type Script []byte

// P2PKScript returns the pay-to-public-key script for a compressed key.
func P2PKScript(pubKey []byte) Script {
	s := make(Script, 0, len(p2pkHeader)+len(pubKey))
	s = append(s, p2pkHeader...)
	return append(s, pubKey...)
}

// IsP2PK returns true if the script is a pay-to-public-key script.
func (s Script) IsP2PK() bool {
	return len(s) == len(p2pkHeader)+33 && bytes.HasPrefix(s, p2pkHeader)
}

// Equal reports whether two scripts are byte-identical.
func (s Script) Equal(o Script) bool {
	return bytes.Equal(s, o)
}

// String returns the hex-encoded script.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// ParseScript decodes a hex-encoded script.
func ParseScript(s string) (Script, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid script hex: %w", err)
	}
	return Script(b), nil
}

// MarshalJSON encodes the script as hex.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex-encoded script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseScript(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
