package allowance

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits renders a raw token amount as a decimal string using the
// token's decimal count. For decimals > 0 trailing zeros in the fraction are
// trimmed but one fractional digit is always kept, so "5000.0" rather than
// "5000"; zero-decimal tokens render as a bare integer. The output round-trips
// through ParseUnits losslessly.
func FormatUnits(raw *big.Int, decimals int) string {
	if decimals <= 0 {
		return raw.String()
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(raw, scale, new(big.Int))

	fracStr := fmt.Sprintf("%0*s", decimals, frac.String())
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}
	return whole.String() + "." + fracStr
}

// ParseUnits converts a decimal string ("5000.25") into a raw integer amount
// scaled by 10^decimals. It is the exact inverse of FormatUnits. Amounts with
// more fractional digits than the token supports are rejected rather than
// silently rounded.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals %d", decimals)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		// Allow "5000.0" at decimals=0 style inputs only when the excess is zeros.
		if strings.Trim(frac[decimals:], "0") != "" {
			return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
		}
		frac = frac[:decimals]
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	raw, ok := new(big.Int).SetString(digits, 10)
	if !ok || raw.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return raw, nil
}
