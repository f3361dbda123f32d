package counter

import (
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount accepts a non-negative decimal integer that fits in 256 bits. Surrounding
// whitespace is ignored; signs, fractions, exponents and hex are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q is not a decimal integer", ErrInvalidAmount, s)
		}
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return amount, nil
}

// SafeInt64 converts v for consumers limited to machine integers.
func SafeInt64(v *uint256.Int) (int64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() || v.Uint64() > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %s exceeds int64", ErrValueOverflow, v.Dec())
	}
	return int64(v.Uint64()), nil
}
