// Package field implements arithmetic in the prime field Z_p.
//
// Elements are represented as *saferith.Nat values reduced into [0, p).
// All operations return freshly allocated values and never mutate their inputs,
// and the underlying modular operations run in time independent of the operand values.
package field

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// DefaultPrime is the modulus used when a policy does not name one.
const DefaultPrime uint64 = 1_000_000_007

// primalityRounds is the number of Miller-Rabin rounds applied to a candidate modulus.
const primalityRounds = 32

var (
	// ErrNoInverse is returned when an element has no multiplicative inverse.
	ErrNoInverse = errors.New("field: element has no inverse")
	// ErrInvalidModulus is returned when the modulus is not an odd prime.
	ErrInvalidModulus = errors.New("field: modulus must be an odd prime")
	// ErrNegative is returned when a negative integer is converted into the field.
	ErrNegative = errors.New("field: negative value")
)

// Field is the prime field Z_p.
type Field struct {
	m *saferith.Modulus
	p *big.Int
}

// New returns the field with modulus p.
func New(p *big.Int) (*Field, error) {
	if p == nil || p.Sign() <= 0 || p.Bit(0) == 0 || !p.ProbablyPrime(primalityRounds) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModulus, p)
	}
	return &Field{
		m: saferith.ModulusFromBytes(p.Bytes()),
		p: new(big.Int).Set(p),
	}, nil
}

// FromModulus is like New for a uint64 modulus.
func FromModulus(p uint64) (*Field, error) {
	return New(new(big.Int).SetUint64(p))
}

// Default returns the field over DefaultPrime.
func Default() *Field {
	f, err := FromModulus(DefaultPrime)
	if err != nil {
		panic(err)
	}
	return f
}

// Secp256k1 returns the scalar field of the secp256k1 group.
func Secp256k1() *Field {
	return secp256k1Field()
}

var secp256k1Field = sync.OnceValue(func() *Field {
	f, err := New(secp256k1.Params().N)
	if err != nil {
		panic(err)
	}
	return f
})

// Modulus returns a copy of p.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

// SafeModulus returns p as a saferith modulus.
func (f *Field) SafeModulus() *saferith.Modulus {
	return f.m
}

// BitLen is the bit length of p.
func (f *Field) BitLen() int {
	return f.p.BitLen()
}

// ByteLen is the number of bytes needed to encode any element.
func (f *Field) ByteLen() int {
	return (f.p.BitLen() + 7) / 8
}

// Equal reports whether both fields share the same modulus.
func (f *Field) Equal(other *Field) bool {
	return other != nil && f.p.Cmp(other.p) == 0
}

// String returns the modulus in decimal.
func (f *Field) String() string {
	return f.p.String()
}

// Zero returns the additive identity.
func (f *Field) Zero() *saferith.Nat {
	return f.FromUint64(0)
}

// One returns the multiplicative identity.
func (f *Field) One() *saferith.Nat {
	return f.FromUint64(1)
}

// FromUint64 returns x mod p.
func (f *Field) FromUint64(x uint64) *saferith.Nat {
	return new(saferith.Nat).Mod(new(saferith.Nat).SetUint64(x), f.m)
}

// FromBig returns x mod p. Negative values are rejected rather than wrapped.
func (f *Field) FromBig(x *big.Int) (*saferith.Nat, error) {
	if x == nil {
		return nil, errors.New("field: nil value")
	}
	if x.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, x)
	}
	return f.Reduce(new(saferith.Nat).SetBytes(x.Bytes())), nil
}

// FromBytes interprets buf as a big-endian integer and reduces it mod p.
func (f *Field) FromBytes(buf []byte) *saferith.Nat {
	return f.Reduce(new(saferith.Nat).SetBytes(buf))
}

// Reduce returns x mod p.
func (f *Field) Reduce(x *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Mod(x, f.m)
}

// InRange reports whether x is already canonical, i.e. 0 <= x < p.
func (f *Field) InRange(x *saferith.Nat) bool {
	if x == nil {
		return false
	}
	_, _, lt := x.CmpMod(f.m)
	return lt == 1
}

// Contains reports whether the integer x is a canonical element, 0 <= x < p.
func (f *Field) Contains(x *big.Int) bool {
	return x != nil && x.Sign() >= 0 && x.Cmp(f.p) < 0
}

// Big returns x as a big.Int.
func (f *Field) Big(x *saferith.Nat) *big.Int {
	return f.Reduce(x).Big()
}

// Bytes encodes x as a fixed-length big-endian byte slice of ByteLen bytes.
func (f *Field) Bytes(x *saferith.Nat) []byte {
	return f.Reduce(x).FillBytes(make([]byte, f.ByteLen()))
}

// Add returns a + b mod p.
func (f *Field) Add(a, b *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModAdd(a, b, f.m)
}

// Sub returns a - b mod p, always in [0, p).
func (f *Field) Sub(a, b *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModSub(a, b, f.m)
}

// Mul returns a * b mod p.
func (f *Field) Mul(a, b *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModMul(a, b, f.m)
}

// Neg returns -a mod p.
func (f *Field) Neg(a *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModNeg(a, f.m)
}

// Exp returns a^e mod p.
func (f *Field) Exp(a, e *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).Exp(a, e, f.m)
}

// Inverse returns the unique x with a*x = 1 mod p.
// It fails with ErrNoInverse when gcd(a, p) != 1, which for a prime p means a = 0 mod p.
func (f *Field) Inverse(a *saferith.Nat) (*saferith.Nat, error) {
	r := f.Reduce(a)
	if r.IsUnit(f.m) != 1 {
		return nil, ErrNoInverse
	}
	return new(saferith.Nat).ModInverse(r, f.m), nil
}

// Div returns a / b mod p.
func (f *Field) Div(a, b *saferith.Nat) (*saferith.Nat, error) {
	inv, err := f.Inverse(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inv), nil
}

// EqualElements reports whether a = b mod p.
func (f *Field) EqualElements(a, b *saferith.Nat) bool {
	if a == nil || b == nil {
		return false
	}
	return f.Reduce(a).Eq(f.Reduce(b)) == 1
}

// IsZero reports whether a = 0 mod p.
func (f *Field) IsZero(a *saferith.Nat) bool {
	return f.Reduce(a).EqZero() == 1
}

// Format renders a as a decimal string.
func (f *Field) Format(a *saferith.Nat) string {
	return f.Big(a).String()
}

// Parse reads a non-negative decimal (or 0x-prefixed hex) integer and reduces it mod p.
func (f *Field) Parse(s string) (*saferith.Nat, error) {
	x, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("field: invalid integer %q", s)
	}
	return f.FromBig(x)
}
