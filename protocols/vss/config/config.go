// Package config holds the threshold policy of a sharing round and the
// serializable record of its share table.
package config

import (
	"fmt"
	"math/big"

	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
)

// Policy fixes the parameters of a sharing round. It is immutable once a
// scheme has been constructed from it.
type Policy struct {
	// Threshold is the number of shares needed to reconstruct.
	Threshold int

	// Total is the number of shares dealt.
	Total int

	// Prime is the field modulus. Nil selects field.DefaultPrime.
	Prime *big.Int

	// Selection picks shares when more than Threshold are verified.
	Selection shamir.Selection

	// CrossCheck makes reconstruction verify that every extra share lies on
	// the interpolated polynomial.
	CrossCheck bool
}

// NewPolicy returns a k-of-n policy over the default field.
func NewPolicy(threshold, total int) Policy {
	return Policy{Threshold: threshold, Total: total}
}

// Modulus returns the configured prime, or the default one.
func (p Policy) Modulus() *big.Int {
	if p.Prime == nil {
		return new(big.Int).SetUint64(field.DefaultPrime)
	}
	return new(big.Int).Set(p.Prime)
}

// Field returns the field described by the policy.
func (p Policy) Field() (*field.Field, error) {
	f, err := field.New(p.Modulus())
	if err != nil {
		return nil, fmt.Errorf("vss/config: %w: %w", shamir.ErrConfigInvalid, err)
	}
	return f, nil
}

// Validate checks 2 ≤ Threshold ≤ Total < Prime and that Prime is prime.
func (p Policy) Validate() error {
	f, err := p.Field()
	if err != nil {
		return err
	}
	if err := shamir.CheckParameters(f, p.Threshold, p.Total); err != nil {
		return fmt.Errorf("vss/config: %w", err)
	}
	switch p.Selection {
	case shamir.SelectLowestIDs, shamir.SelectRegistrationOrder:
	default:
		return fmt.Errorf("vss/config: %w: unknown selection %s", shamir.ErrConfigInvalid, p.Selection)
	}
	return nil
}

// Copy returns a deep copy of the policy.
func (p Policy) Copy() Policy {
	if p.Prime != nil {
		p.Prime = new(big.Int).Set(p.Prime)
	}
	return p
}
