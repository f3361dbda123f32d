package counter_test

import (
	"math"
	"testing"

	"github.com/NethermindEth/incrementer/counter"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	maxUint256 := "115792089237316195423570985008687907853269984665640564039457584007913129639935"

	valid := map[string]*uint256.Int{
		"3":        uint256.NewInt(3),
		"0":        new(uint256.Int),
		" 42\n":    uint256.NewInt(42),
		"007":      uint256.NewInt(7),
		maxUint256: new(uint256.Int).SetAllOne(),
	}
	for input, expected := range valid {
		t.Run("valid "+input, func(t *testing.T) {
			amount, err := counter.ParseAmount(input)
			require.NoError(t, err)
			assert.Equal(t, expected, amount)
		})
	}

	invalid := []string{
		"",
		"   ",
		"abc",
		"3abc",
		"-1",
		"+1",
		"1.5",
		"1e3",
		"0x10",
		"1 000",
		"115792089237316195423570985008687907853269984665640564039457584007913129639936",
	}
	for _, input := range invalid {
		t.Run("invalid "+input, func(t *testing.T) {
			amount, err := counter.ParseAmount(input)
			require.ErrorIs(t, err, counter.ErrInvalidAmount)
			assert.Nil(t, amount)
		})
	}
}

func TestSafeInt64(t *testing.T) {
	tests := map[string]struct {
		value    *uint256.Int
		expected int64
		overflow bool
	}{
		"nil":     {value: nil, expected: 0},
		"zero":    {value: new(uint256.Int), expected: 0},
		"small":   {value: uint256.NewInt(8), expected: 8},
		"max":     {value: uint256.NewInt(math.MaxInt64), expected: math.MaxInt64},
		"max + 1": {value: uint256.NewInt(math.MaxInt64 + 1), overflow: true},
		"uint64":  {value: uint256.NewInt(math.MaxUint64), overflow: true},
		"256-bit": {value: new(uint256.Int).SetAllOne(), overflow: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := counter.SafeInt64(test.value)
			if test.overflow {
				require.ErrorIs(t, err, counter.ErrValueOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}
