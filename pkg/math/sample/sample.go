// Package sample draws uniformly distributed field elements.
package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
)

// maxIterations bounds rejection sampling. Each draw succeeds with
// probability above 1/2, so reaching it means the reader is broken.
const maxIterations = 255

// ErrMaxIterations is returned when rejection sampling never succeeds.
var ErrMaxIterations = errors.New("sample: failed to generate after max iterations")

// Element returns a uniform element of [0, p).
func Element(rand io.Reader, f *field.Field) (*saferith.Nat, error) {
	buf := make([]byte, f.ByteLen())
	mask := byte(0xff) >> uint(8*len(buf)-f.BitLen())
	for i := 0; i < maxIterations; i++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, fmt.Errorf("sample: read randomness: %w", err)
		}
		buf[0] &= mask
		x := new(saferith.Nat).SetBytes(buf)
		if f.InRange(x) {
			return f.Reduce(x), nil
		}
	}
	return nil, ErrMaxIterations
}

// NonZero returns a uniform element of [1, p).
func NonZero(rand io.Reader, f *field.Field) (*saferith.Nat, error) {
	for i := 0; i < maxIterations; i++ {
		x, err := Element(rand, f)
		if err != nil {
			return nil, err
		}
		if !f.IsZero(x) {
			return x, nil
		}
	}
	return nil, ErrMaxIterations
}

// Coefficients returns n random coefficients for a polynomial whose constant
// term is supplied separately. The last one is non-zero so that the
// resulting polynomial has degree exactly n.
func Coefficients(rand io.Reader, f *field.Field, n int) ([]*saferith.Nat, error) {
	coeffs := make([]*saferith.Nat, n)
	for i := range coeffs {
		var err error
		if i == n-1 {
			coeffs[i], err = NonZero(rand, f)
		} else {
			coeffs[i], err = Element(rand, f)
		}
		if err != nil {
			return nil, err
		}
	}
	return coeffs, nil
}
