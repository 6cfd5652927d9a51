package token

import (
	"strings"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
	"github.com/shopspring/decimal"
)

// FormatAmount renders a raw token amount in display units with thousands
// separators and exactly decimals fractional digits, e.g. "6,222,444.420".
func FormatAmount(amount types.Amount, decimals uint8) string {
	d := amount.Decimal().Shift(-int32(decimals))
	s := d.StringFixed(int32(decimals))

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	return groupThousands(intPart) + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ToRaw converts a display quantity into raw units: quantity * 10^decimals.
// The result must be a non-negative integer.
func ToRaw(quantity decimal.Decimal, decimals uint8) (types.Amount, error) {
	return types.AmountFromDecimal(quantity.Shift(int32(decimals)))
}

// ShortID abbreviates a token id to its first and last ten hex characters.
func ShortID(id types.TokenID) string {
	s := id.String()
	return s[:10] + "..." + s[len(s)-10:]
}
