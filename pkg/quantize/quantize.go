// Package quantize converts real-valued oracle inputs into bounded
// fixed-point integers that can be encrypted and shared.
package quantize

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultPercentScale maps 100% to 10000, i.e. basis points.
	DefaultPercentScale int64 = 10_000
	// DefaultPriceDecimals matches the usual on-chain price precision.
	DefaultPriceDecimals = 8
	// MaxPriceDecimals is the largest supported price precision.
	MaxPriceDecimals = 18
	// DefaultRatioScale maps a ratio of 1 to one million.
	DefaultRatioScale int64 = 1_000_000

	// MaxPrice is the largest price accepted, whatever the precision.
	MaxPrice = 92_233_720.36
)

var (
	ErrNotFinite  = errors.New("quantize: value is not finite")
	ErrOutOfRange = errors.New("quantize: value out of range")
	ErrOverflow   = errors.New("quantize: value overflows int64")
	// ErrUnfalsifiable is returned for percentages that quantize to 0 or to the
	// full scale, which state certainty and can never be proven wrong.
	ErrUnfalsifiable = errors.New("quantize: quantized value is extreme")
)

// 2^63 as a float; every float at or above it overflows int64.
const int64Limit = float64(1 << 63)

// Percent quantizes a percentage in (0, 100) to round(value·scale/100).
func Percent(value float64, scale int64) (int64, error) {
	if err := finite(value); err != nil {
		return 0, err
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("%w: percentage %v not in [0, 100]", ErrOutOfRange, value)
	}
	if scale <= 0 {
		return 0, fmt.Errorf("%w: scale %d", ErrOutOfRange, scale)
	}
	q := int64(math.Round(value * (float64(scale) / 100)))
	if q == 0 || q == scale {
		return 0, fmt.Errorf("%w: %v%% quantizes to %d", ErrUnfalsifiable, value, q)
	}
	return q, nil
}

// Price quantizes a non-negative price to round(value·10^decimals).
func Price(value float64, decimals int) (int64, error) {
	if err := finite(value); err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: negative price %v", ErrOutOfRange, value)
	}
	if decimals < 0 || decimals > MaxPriceDecimals {
		return 0, fmt.Errorf("%w: %d decimals not in [0, %d]", ErrOutOfRange, decimals, MaxPriceDecimals)
	}
	if value > MaxPrice {
		return 0, fmt.Errorf("%w: price %v above %v", ErrOverflow, value, MaxPrice)
	}
	q := math.Round(value * math.Pow10(decimals))
	if q >= int64Limit {
		return 0, fmt.Errorf("%w: %v with %d decimals", ErrOverflow, value, decimals)
	}
	return int64(q), nil
}

// Ratio quantizes a ratio in [0, 1] to round(value·scale).
func Ratio(value float64, scale int64) (int64, error) {
	if err := finite(value); err != nil {
		return 0, err
	}
	if value < 0 || value > 1 {
		return 0, fmt.Errorf("%w: ratio %v not in [0, 1]", ErrOutOfRange, value)
	}
	if scale <= 0 {
		return 0, fmt.Errorf("%w: scale %d", ErrOutOfRange, scale)
	}
	return int64(math.Round(value * float64(scale))), nil
}

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrNotFinite, v)
	}
	return nil
}
