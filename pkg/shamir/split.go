// Package shamir implements Shamir secret sharing over a prime field.
//
// A secret s is hidden in the constant term of a random polynomial
// P(X) = s + a₁⋅X + … + a_{k-1}⋅X^{k-1} and participant x receives P(x).
// Any k shares determine P and therefore s, while k-1 shares are independent
// of s provided the coefficients are uniformly random.
package shamir

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/math/sample"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

// Share is the evaluation of the sharing polynomial at ID.
type Share struct {
	ID    party.ID
	Value *saferith.Nat
}

// CheckParameters validates 2 ≤ threshold ≤ total < p.
func CheckParameters(f *field.Field, threshold, total int) error {
	if threshold < 2 {
		return fmt.Errorf("shamir: %w: threshold %d must be at least 2", ErrConfigInvalid, threshold)
	}
	if threshold > total {
		return fmt.Errorf("shamir: %w: threshold %d exceeds total %d", ErrConfigInvalid, threshold, total)
	}
	if uint64(total) > uint64(^uint32(0)) {
		return fmt.Errorf("shamir: %w: total %d does not fit a participant id", ErrConfigInvalid, total)
	}
	if !f.Contains(big.NewInt(int64(total))) {
		return fmt.Errorf("shamir: %w: total %d must be below the modulus %s", ErrConfigInvalid, total, f)
	}
	return nil
}

// Split evaluates s + ∑ coefficients[i-1]⋅Xⁱ at x = 1..total.
//
// Exactly threshold-1 coefficients are required. Explicit coefficients exist
// for fixed test vectors; callers sharing real secrets should use Deal, which
// draws them from a CSPRNG with a non-zero leading term.
func Split(f *field.Field, secret *saferith.Nat, threshold, total int, coefficients []*saferith.Nat) ([]Share, *polynomial.Polynomial, error) {
	if err := CheckParameters(f, threshold, total); err != nil {
		return nil, nil, err
	}
	if secret == nil || !f.InRange(secret) {
		return nil, nil, fmt.Errorf("shamir: %w: secret must lie in [0, %s)", ErrConfigInvalid, f)
	}
	if len(coefficients) != threshold-1 {
		return nil, nil, fmt.Errorf("shamir: %w: got %d coefficients, need %d", ErrConfigInvalid, len(coefficients), threshold-1)
	}
	for i, c := range coefficients {
		if c == nil {
			return nil, nil, fmt.Errorf("shamir: %w: coefficient %d is nil", ErrConfigInvalid, i+1)
		}
	}

	poly, err := polynomial.WithConstant(f, secret, coefficients)
	if err != nil {
		return nil, nil, fmt.Errorf("shamir: %w", err)
	}
	shares := make([]Share, total)
	for i := range shares {
		id := party.ID(i + 1)
		shares[i] = Share{ID: id, Value: poly.EvaluateAt(id)}
	}
	return shares, poly, nil
}

// Deal splits secret using coefficients drawn from rand.
func Deal(rand io.Reader, f *field.Field, secret *saferith.Nat, threshold, total int) ([]Share, *polynomial.Polynomial, error) {
	if err := CheckParameters(f, threshold, total); err != nil {
		return nil, nil, err
	}
	coeffs, err := sample.Coefficients(rand, f, threshold-1)
	if err != nil {
		return nil, nil, fmt.Errorf("shamir: %w", err)
	}
	return Split(f, secret, threshold, total, coeffs)
}

// IDs returns the ids of shares in order.
func IDs(shares []Share) party.IDSlice {
	ids := make(party.IDSlice, len(shares))
	for i, s := range shares {
		ids[i] = s.ID
	}
	return ids
}
