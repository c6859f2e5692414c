// Package normalize converts the human-readable counters and dates found in
// social profile markup into canonical integers and ISO dates.
package normalize

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ErrFormat is returned when a magnitude string is not numeric.
var ErrFormat = errors.New("normalize: malformed number")

// multipliers maps the case-insensitive magnitude suffix to its factor.
var multipliers = map[byte]int64{
	'K': 1_000,
	'M': 1_000_000,
	'B': 1_000_000_000,
}

// ParseMagnitude converts "1.2M", "45.3K" or "3,400" into an integer.
//
// Thousands separators are stripped first. A trailing K, M or B multiplies
// the (possibly fractional) prefix and the product is truncated toward zero.
// Text without a suffix must be a plain integer.
func ParseMagnitude(text string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(text, ",", "")))
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrFormat)
	}

	mult, hasSuffix := multipliers[s[len(s)-1]]
	if !hasSuffix {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		return n, nil
	}

	prefix := strings.TrimSpace(s[:len(s)-1])
	if !isDecimal(prefix) {
		return 0, fmt.Errorf("%w: %q", ErrFormat, text)
	}

	// big.Rat keeps "45.3K" exact; float64 would land on 45299.999...
	r, ok := new(big.Rat).SetString(prefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFormat, text)
	}
	r.Mul(r, new(big.Rat).SetInt64(mult))

	q := new(big.Int).Quo(r.Num(), r.Denom())
	if !q.IsInt64() {
		return 0, fmt.Errorf("%w: %q out of range", ErrFormat, text)
	}
	return q.Int64(), nil
}

// isDecimal accepts digits with at most one decimal point.
func isDecimal(s string) bool {
	if s == "" || s == "." {
		return false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.':
			if dot {
				return false
			}
			dot = true
		case c < '0' || c > '9':
			return false
		}
	}
	return true
}
