package commitment

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

type coefficients struct {
	poly   *polynomial.Polynomial
	points [][]byte
	digest []byte
}

func newCoefficients(f *field.Field, poly *polynomial.Polynomial) *coefficients {
	coeffs := poly.Coefficients()
	points := make([][]byte, len(coeffs))
	for i, c := range coeffs {
		points[i] = f.Bytes(c)
	}
	return &coefficients{
		poly:   poly,
		points: points,
		digest: digest(KindCoefficients, f, points),
	}
}

func decodeCoefficients(f *field.Field, points [][]byte) (*coefficients, error) {
	coeffs := make([]*saferith.Nat, len(points))
	for i, p := range points {
		if len(p) != f.ByteLen() {
			return nil, fmt.Errorf("%w: coefficient %d has %d bytes", ErrMalformed, i, len(p))
		}
		c := new(saferith.Nat).SetBytes(p)
		if !f.InRange(c) {
			return nil, fmt.Errorf("%w: coefficient %d out of range", ErrMalformed, i)
		}
		coeffs[i] = c
	}
	poly, err := polynomial.New(f, coeffs)
	if err != nil {
		return nil, err
	}
	return newCoefficients(f, poly), nil
}

func (c *coefficients) Kind() Kind          { return KindCoefficients }
func (c *coefficients) Field() *field.Field { return c.poly.Field() }
func (c *coefficients) Threshold() int      { return c.poly.Degree() + 1 }
func (c *coefficients) Points() [][]byte    { return copyPoints(c.points) }
func (c *coefficients) Digest() []byte      { return append([]byte(nil), c.digest...) }

func (c *coefficients) Verify(id party.ID, value *saferith.Nat) bool {
	if !id.Valid() || value == nil {
		return false
	}
	f := c.poly.Field()
	if !f.InRange(value) {
		return false
	}
	return f.EqualElements(c.poly.EvaluateAt(id), value)
}
