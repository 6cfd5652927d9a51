package types

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
)

// RegisterID names one of the additional box registers.
type RegisterID string

// Additional registers available to box creators, in slot order.
const (
	R4 RegisterID = "R4"
	R5 RegisterID = "R5"
	R6 RegisterID = "R6"
	R7 RegisterID = "R7"
	R8 RegisterID = "R8"
	R9 RegisterID = "R9"
)

// RegisterIDs lists the additional registers in slot order.
var RegisterIDs = []RegisterID{R4, R5, R6, R7, R8, R9}

// collByteType is the type code of a Coll[Byte] constant.
const collByteType = 0x0e

// Register errors.
var (
	ErrUnknownRegister  = errors.New("unknown register")
	ErrRegisterEncoding = errors.New("invalid register encoding")
)

// Valid reports whether r is one of R4..R9.
func (r RegisterID) Valid() bool {
	for _, id := range RegisterIDs {
		if r == id {
			return true
		}
	}
	return false
}

// Registers maps register slots to hex-encoded serialized constants.
type Registers map[RegisterID]string

// Validate checks slot names and hex encoding.
func (r Registers) Validate() error {
	for id, v := range r {
		if !id.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownRegister, id)
		}
		if _, err := hex.DecodeString(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRegisterEncoding, id, err)
		}
	}
	return nil
}

// Sorted returns the populated slots in slot order.
func (r Registers) Sorted() []RegisterID {
	ids := make([]RegisterID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a copy of the register map.
func (r Registers) Clone() Registers {
	if r == nil {
		return nil
	}
	out := make(Registers, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// EncodeStringRegister serializes s as a Coll[Byte] constant and returns
// its hex form: type byte, VLQ length, raw bytes.
func EncodeStringRegister(s string) string {
	buf := make([]byte, 0, 1+binary.MaxVarintLen64+len(s))
	buf = append(buf, collByteType)
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	buf = append(buf, s...)
	return hex.EncodeToString(buf)
}

// DecodeStringRegister decodes a hex Coll[Byte] constant into a string.
func DecodeStringRegister(value string) (string, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegisterEncoding, err)
	}
	if len(raw) < 2 || raw[0] != collByteType {
		return "", fmt.Errorf("%w: not a Coll[Byte] constant", ErrRegisterEncoding)
	}
	n, size := binary.Uvarint(raw[1:])
	if size <= 0 {
		return "", fmt.Errorf("%w: bad length prefix", ErrRegisterEncoding)
	}
	body := raw[1+size:]
	if uint64(len(body)) != n {
		return "", fmt.Errorf("%w: length %d, have %d bytes", ErrRegisterEncoding, n, len(body))
	}
	return string(body), nil
}
