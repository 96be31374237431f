package polynomial

import (
	"errors"
	"fmt"
	"math/big"
	"runtime"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateParticipant is returned when an interpolation set repeats
	// an id, which would make a denominator zero.
	ErrDuplicateParticipant = errors.New("duplicate participant")
	// ErrInvalidParticipant is returned for ids that are zero or not smaller
	// than the field modulus.
	ErrInvalidParticipant = errors.New("invalid participant")
)

// Lagrange returns the Lagrange coefficients at 0 for all parties in the
// interpolation domain:
//
//	lⱼ(0) = ∏_{k≠j} (-xₖ) / (xⱼ - xₖ)
//
// so that f(0) = ∑ⱼ lⱼ(0)⋅f(xⱼ) for any polynomial of degree < len(ids).
func Lagrange(f *field.Field, ids []party.ID) (map[party.ID]*saferith.Nat, error) {
	return LagrangeAt(f, ids, f.Zero())
}

// LagrangeAt is like Lagrange but evaluates the basis polynomials at x.
func LagrangeAt(f *field.Field, ids []party.ID, x *saferith.Nat) (map[party.ID]*saferith.Nat, error) {
	if err := checkDomain(f, ids); err != nil {
		return nil, err
	}

	xs := make([]*saferith.Nat, len(ids))
	for i, id := range ids {
		xs[i] = id.Scalar(f)
	}
	x = f.Reduce(x)

	coeffs := make([]*saferith.Nat, len(ids))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range ids {
		g.Go(func() error {
			c, err := basis(f, xs, i, x)
			if err != nil {
				return fmt.Errorf("polynomial: lagrange coefficient for %s: %w", ids[i], err)
			}
			coeffs[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[party.ID]*saferith.Nat, len(ids))
	for i, id := range ids {
		out[id] = coeffs[i]
	}
	return out, nil
}

// basis computes ∏_{k≠j} (x - xₖ) / (xⱼ - xₖ) with a single inversion.
func basis(f *field.Field, xs []*saferith.Nat, j int, x *saferith.Nat) (*saferith.Nat, error) {
	num, den := f.One(), f.One()
	for k, xk := range xs {
		if k == j {
			continue
		}
		num = f.Mul(num, f.Sub(x, xk))
		den = f.Mul(den, f.Sub(xs[j], xk))
	}
	return f.Div(num, den)
}

func checkDomain(f *field.Field, ids []party.ID) error {
	for _, id := range ids {
		if !id.Valid() || !f.Contains(new(big.Int).SetUint64(uint64(id))) {
			return fmt.Errorf("polynomial: %w: %d", ErrInvalidParticipant, id)
		}
	}
	if dup := party.IDSlice(ids).Duplicates(); len(dup) > 0 {
		return fmt.Errorf("polynomial: %w: %s", ErrDuplicateParticipant, dup)
	}
	return nil
}

// Interpolate returns ∑ⱼ lⱼ(x)⋅yⱼ, the value at x of the unique polynomial of
// degree < len(points) passing through the given points.
func Interpolate(f *field.Field, points map[party.ID]*saferith.Nat, x *saferith.Nat) (*saferith.Nat, error) {
	ids := make(party.IDSlice, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	ids = ids.Sorted()
	coeffs, err := LagrangeAt(f, ids, x)
	if err != nil {
		return nil, err
	}
	sum := f.Zero()
	for _, id := range ids {
		sum = f.Add(sum, f.Mul(coeffs[id], points[id]))
	}
	return sum, nil
}
