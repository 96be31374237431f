// Package polynomial implements polynomials over a prime field and Lagrange
// interpolation of their values.
package polynomial

import (
	"errors"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

// ErrEmpty is returned when constructing a polynomial without coefficients.
var ErrEmpty = errors.New("polynomial: no coefficients")

// Polynomial represents f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ over a prime field.
// It is immutable; constructors copy their inputs and accessors return copies.
type Polynomial struct {
	field        *field.Field
	coefficients []*saferith.Nat
}

// New returns the polynomial with the given coefficients, constant term first.
// Each coefficient is reduced into the field.
func New(f *field.Field, coefficients []*saferith.Nat) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, ErrEmpty
	}
	coeffs := make([]*saferith.Nat, len(coefficients))
	for i, c := range coefficients {
		if c == nil {
			return nil, errors.New("polynomial: nil coefficient")
		}
		coeffs[i] = f.Reduce(c)
	}
	return &Polynomial{field: f, coefficients: coeffs}, nil
}

// WithConstant returns the polynomial constant + Σ others[i]⋅X^{i+1}.
func WithConstant(f *field.Field, constant *saferith.Nat, others []*saferith.Nat) (*Polynomial, error) {
	return New(f, append([]*saferith.Nat{constant}, others...))
}

// Field returns the field of the coefficients.
func (p *Polynomial) Field() *field.Field {
	return p.field
}

// Degree is the index of the last coefficient, which may be zero.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Constant returns a copy of a₀.
func (p *Polynomial) Constant() *saferith.Nat {
	return new(saferith.Nat).SetNat(p.coefficients[0])
}

// Coefficients returns a copy of [a₀, …, aₜ].
func (p *Polynomial) Coefficients() []*saferith.Nat {
	out := make([]*saferith.Nat, len(p.coefficients))
	for i, c := range p.coefficients {
		out[i] = new(saferith.Nat).SetNat(c)
	}
	return out
}

// Evaluate returns f(x) using Horner's rule:
//
//	f(x) = a₀ + x⋅(a₁ + x⋅(… + x⋅aₜ))
func (p *Polynomial) Evaluate(x *saferith.Nat) *saferith.Nat {
	f := p.field
	x = f.Reduce(x)
	result := f.Zero()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = f.Add(f.Mul(result, x), p.coefficients[i])
	}
	return result
}

// EvaluateAt evaluates the polynomial at the participant's x-coordinate.
func (p *Polynomial) EvaluateAt(id party.ID) *saferith.Nat {
	return p.Evaluate(id.Scalar(p.field))
}
