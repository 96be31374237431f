package commitment

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

const (
	primalityRounds = 32
	// maxCofactor bounds the search for q = m⋅p + 1.
	maxCofactor = 1 << 20
)

// group is the order-p subgroup of Z_q* generated by g.
type group struct {
	q      *saferith.Modulus
	qBig   *big.Int
	g      *saferith.Nat
	byteLn int
}

var groups sync.Map // modulus string -> *group

// groupFor returns the subgroup used for fields of modulus p. The search is
// deterministic so commitments can be decoded knowing only the field.
func groupFor(f *field.Field) (*group, error) {
	key := f.String()
	if g, ok := groups.Load(key); ok {
		return g.(*group), nil
	}

	p := f.Modulus()
	q := new(big.Int)
	m := big.NewInt(2)
	two := big.NewInt(2)
	for ; m.Cmp(big.NewInt(maxCofactor)) <= 0; m.Add(m, two) {
		q.Mul(m, p).Add(q, big.NewInt(1))
		if q.ProbablyPrime(primalityRounds) {
			break
		}
	}
	if m.Cmp(big.NewInt(maxCofactor)) > 0 {
		return nil, fmt.Errorf("%w: no prime q = m⋅p + 1 found", ErrFieldMismatch)
	}

	qm := saferith.ModulusFromBytes(q.Bytes())
	mNat := new(saferith.Nat).SetBytes(m.Bytes())
	one := new(saferith.Nat).SetUint64(1)
	for h := uint64(2); ; h++ {
		g := new(saferith.Nat).Exp(new(saferith.Nat).SetUint64(h), mNat, qm)
		if g.Big().Cmp(one.Big()) != 0 {
			grp := &group{q: qm, qBig: q, g: g, byteLn: (q.BitLen() + 7) / 8}
			actual, _ := groups.LoadOrStore(key, grp)
			return actual.(*group), nil
		}
	}
}

func (g *group) exp(base *saferith.Nat, e *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Exp(base, e, g.q)
}

func (g *group) encode(x *saferith.Nat) []byte {
	return x.FillBytes(make([]byte, g.byteLn))
}

type discreteLog struct {
	field  *field.Field
	grp    *group
	points []*saferith.Nat
	enc    [][]byte
	digest []byte
}

func newDiscreteLog(f *field.Field, poly *polynomial.Polynomial) (*discreteLog, error) {
	grp, err := groupFor(f)
	if err != nil {
		return nil, err
	}
	coeffs := poly.Coefficients()
	points := make([]*saferith.Nat, len(coeffs))
	for i, c := range coeffs {
		points[i] = grp.exp(grp.g, c)
	}
	return newDiscreteLogFromPoints(f, grp, points), nil
}

func decodeDiscreteLog(f *field.Field, enc [][]byte) (*discreteLog, error) {
	grp, err := groupFor(f)
	if err != nil {
		return nil, err
	}
	points := make([]*saferith.Nat, len(enc))
	for i, b := range enc {
		if len(b) != grp.byteLn {
			return nil, fmt.Errorf("%w: point %d has %d bytes", ErrMalformed, i, len(b))
		}
		v := new(big.Int).SetBytes(b)
		if v.Sign() == 0 || v.Cmp(grp.qBig) >= 0 {
			return nil, fmt.Errorf("%w: point %d out of range", ErrMalformed, i)
		}
		pt := new(saferith.Nat).Mod(new(saferith.Nat).SetBytes(b), grp.q)
		if grp.exp(pt, new(saferith.Nat).SetBytes(f.Modulus().Bytes())).Big().Cmp(big.NewInt(1)) != 0 {
			return nil, fmt.Errorf("%w: point %d outside the order-p subgroup", ErrMalformed, i)
		}
		points[i] = pt
	}
	return newDiscreteLogFromPoints(f, grp, points), nil
}

func newDiscreteLogFromPoints(f *field.Field, grp *group, points []*saferith.Nat) *discreteLog {
	enc := make([][]byte, len(points))
	for i, p := range points {
		enc[i] = grp.encode(p)
	}
	return &discreteLog{
		field:  f,
		grp:    grp,
		points: points,
		enc:    enc,
		digest: digest(KindDiscreteLog, f, enc),
	}
}

func (c *discreteLog) Kind() Kind          { return KindDiscreteLog }
func (c *discreteLog) Field() *field.Field { return c.field }
func (c *discreteLog) Threshold() int      { return len(c.points) }
func (c *discreteLog) Points() [][]byte    { return copyPoints(c.enc) }
func (c *discreteLog) Digest() []byte      { return append([]byte(nil), c.digest...) }

// Verify checks g^value = ∏ Cᵢ^(xⁱ mod p) mod q.
func (c *discreteLog) Verify(id party.ID, value *saferith.Nat) bool {
	if !id.Valid() || value == nil || !c.field.InRange(value) {
		return false
	}
	f := c.field
	lhs := c.grp.exp(c.grp.g, value)

	x := id.Scalar(f)
	pow := f.One()
	rhs := new(saferith.Nat).Mod(new(saferith.Nat).SetUint64(1), c.grp.q)
	for _, p := range c.points {
		rhs = new(saferith.Nat).ModMul(rhs, c.grp.exp(p, pow), c.grp.q)
		pow = f.Mul(pow, x)
	}
	return lhs.Big().Cmp(rhs.Big()) == 0
}
