// Package units converts between human decimal strings and the betting
// token's 18-decimal fixed-point integer representation. All amounts cross
// the chain boundary as *big.Int in this representation.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the betting token's fixed-point precision.
const Decimals = 18

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ParseToken converts a human decimal string like "12.5" into the token's
// fixed-point integer representation (12.5e18). It rejects empty, malformed,
// negative, and over-precise inputs.
func ParseToken(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("units: empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("units: negative amount %q", s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return nil, fmt.Errorf("units: amount %q has more than %d decimal places", s, Decimals)
	}
	// SetString accepts embedded sign characters, so both parts must be
	// digit-checked before parsing.
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("units: malformed amount %q", s)
	}

	w, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("units: malformed amount %q", s)
	}
	w.Mul(w, unit)

	if frac != "" {
		// Right-pad the fraction to 18 digits.
		f, ok := new(big.Int).SetString(frac+strings.Repeat("0", Decimals-len(frac)), 10)
		if !ok {
			return nil, fmt.Errorf("units: malformed amount %q", s)
		}
		w.Add(w, f)
	}
	return w, nil
}

// digitsOnly reports whether s contains only ASCII digits. The empty
// string passes; callers treat it as zero.
func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatToken converts a fixed-point integer back to a human decimal string,
// trimming trailing zeros ("12.500000000000000000" -> "12.5").
func FormatToken(v *big.Int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	q, r := new(big.Int).QuoRem(abs, unit, new(big.Int))
	out := q.String()
	if r.Sign() != 0 {
		frac := fmt.Sprintf("%018s", r.String())
		frac = strings.TrimRight(frac, "0")
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
