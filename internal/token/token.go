// Package token implements token metadata, burn accounting and display
// formatting.
//
// A token's id is the box id of the last input of the transaction that
// minted it. Its name, description and decimal places are stored on the
// mint output as Coll[Byte] register constants:
//
//	R4: name
//	R5: description
//	R6: decimal places, as a decimal string
package token

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
)

// Metadata limits.
const (
	MaxNameLen        = 64
	MaxDescriptionLen = 1024
	MaxDecimals       = 18
)

// Metadata errors.
var (
	ErrEmptyName       = errors.New("token name is empty")
	ErrNameTooLong     = errors.New("token name too long")
	ErrDescTooLong     = errors.New("token description too long")
	ErrInvalidUTF8     = errors.New("token metadata is not valid UTF-8")
	ErrInvalidDecimals = errors.New("invalid token decimals")
	ErrNoMetadata      = errors.New("box carries no token metadata")
)

// Metadata holds descriptive information about a token.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Decimals    uint8  `json:"decimals"`
}

// DeriveTokenID returns the id of a token minted by a transaction whose
// last input is box.
func DeriveTokenID(lastInput types.Box) types.TokenID {
	return types.TokenID(lastInput.BoxID)
}

// Validate checks metadata before it is written to a mint output.
func (m *Metadata) Validate() error {
	if m.Name == "" {
		return ErrEmptyName
	}
	if !utf8.ValidString(m.Name) || !utf8.ValidString(m.Description) {
		return ErrInvalidUTF8
	}
	if len(m.Name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrNameTooLong, len(m.Name), MaxNameLen)
	}
	if len(m.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrDescTooLong, len(m.Description), MaxDescriptionLen)
	}
	if m.Decimals > MaxDecimals {
		return fmt.Errorf("%w: %d, max %d", ErrInvalidDecimals, m.Decimals, MaxDecimals)
	}
	return nil
}

// EncodeMintRegisters encodes metadata into mint output registers.
func EncodeMintRegisters(m Metadata) types.Registers {
	return types.Registers{
		types.R4: types.EncodeStringRegister(m.Name),
		types.R5: types.EncodeStringRegister(m.Description),
		types.R6: types.EncodeStringRegister(strconv.Itoa(int(m.Decimals))),
	}
}

// DecodeMetadata reads token metadata from the registers of a mint box.
// A missing description or decimals register decodes as empty and zero.
func DecodeMetadata(regs types.Registers) (*Metadata, error) {
	nameHex, ok := regs[types.R4]
	if !ok {
		return nil, ErrNoMetadata
	}
	name, err := types.DecodeStringRegister(nameHex)
	if err != nil {
		return nil, fmt.Errorf("R4: %w", err)
	}
	meta := &Metadata{Name: name}

	if v, ok := regs[types.R5]; ok {
		if meta.Description, err = types.DecodeStringRegister(v); err != nil {
			return nil, fmt.Errorf("R5: %w", err)
		}
	}
	if v, ok := regs[types.R6]; ok {
		s, err := types.DecodeStringRegister(v)
		if err != nil {
			return nil, fmt.Errorf("R6: %w", err)
		}
		d, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("R6: %w: %q", ErrInvalidDecimals, s)
		}
		meta.Decimals = uint8(d)
	}
	return meta, nil
}
