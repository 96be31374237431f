package commitment

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

// identityEncoding encodes the point at infinity, which compressed SEC1
// points cannot represent.
var identityEncoding = []byte{0x00}

type feldman struct {
	field  *field.Field
	points []secp256k1.JacobianPoint
	enc    [][]byte
	digest []byte
}

func newFeldman(f *field.Field, poly *polynomial.Polynomial) (*feldman, error) {
	if !f.Equal(field.Secp256k1()) {
		return nil, fmt.Errorf("%w: feldman requires the secp256k1 scalar field", ErrFieldMismatch)
	}
	coeffs := poly.Coefficients()
	points := make([]secp256k1.JacobianPoint, len(coeffs))
	for i, c := range coeffs {
		s := toScalar(f, c)
		secp256k1.ScalarBaseMultNonConst(s, &points[i])
		if s.IsZero() {
			points[i] = secp256k1.JacobianPoint{}
		} else {
			points[i].ToAffine()
		}
	}
	return newFeldmanFromPoints(f, points), nil
}

func decodeFeldman(f *field.Field, enc [][]byte) (*feldman, error) {
	if !f.Equal(field.Secp256k1()) {
		return nil, fmt.Errorf("%w: feldman requires the secp256k1 scalar field", ErrFieldMismatch)
	}
	points := make([]secp256k1.JacobianPoint, len(enc))
	for i, b := range enc {
		if len(b) == 1 && b[0] == identityEncoding[0] {
			continue
		}
		pk, err := secp256k1.ParsePubKey(b)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrMalformed, i, err)
		}
		pk.AsJacobian(&points[i])
	}
	return newFeldmanFromPoints(f, points), nil
}

func newFeldmanFromPoints(f *field.Field, points []secp256k1.JacobianPoint) *feldman {
	enc := make([][]byte, len(points))
	for i := range points {
		enc[i] = encodePoint(&points[i])
	}
	return &feldman{
		field:  f,
		points: points,
		enc:    enc,
		digest: digest(KindFeldman, f, enc),
	}
}

func (c *feldman) Kind() Kind          { return KindFeldman }
func (c *feldman) Field() *field.Field { return c.field }
func (c *feldman) Threshold() int      { return len(c.points) }
func (c *feldman) Points() [][]byte    { return copyPoints(c.enc) }
func (c *feldman) Digest() []byte      { return append([]byte(nil), c.digest...) }

// Verify checks value⋅G = ∑ xⁱ⋅Cᵢ.
func (c *feldman) Verify(id party.ID, value *saferith.Nat) bool {
	if !id.Valid() || value == nil || !c.field.InRange(value) {
		return false
	}

	var lhs secp256k1.JacobianPoint
	if s := toScalar(c.field, value); !s.IsZero() {
		secp256k1.ScalarBaseMultNonConst(s, &lhs)
	}

	var x, pow secp256k1.ModNScalar
	x.SetInt(uint32(id))
	pow.SetInt(1)
	var rhs, term secp256k1.JacobianPoint
	for i := range c.points {
		if !isIdentity(&c.points[i]) {
			secp256k1.ScalarMultNonConst(&pow, &c.points[i], &term)
			secp256k1.AddNonConst(&rhs, &term, &rhs)
		}
		pow.Mul(&x)
	}
	return lhs.EquivalentNonConst(&rhs)
}

func toScalar(f *field.Field, x *saferith.Nat) *secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(f.Bytes(x))
	return &s
}

func isIdentity(p *secp256k1.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

func encodePoint(p *secp256k1.JacobianPoint) []byte {
	if isIdentity(p) {
		return append([]byte(nil), identityEncoding...)
	}
	a := *p
	a.ToAffine()
	return secp256k1.NewPublicKey(&a.X, &a.Y).SerializeCompressed()
}
