// Package oracle aggregates encrypted provider submissions and hands the
// decrypted outcome to a threshold committee.
//
// All arithmetic on submissions happens under encryption. The outcome is
// decrypted exactly once by the key holder in Reveal and immediately split
// across the committee, which reconstructs it with a vss.Scheme.
package oracle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/thresholddecrypt/pkg/fhe"
	"github.com/luxfi/thresholddecrypt/pkg/protocol"
	"github.com/luxfi/thresholddecrypt/protocols/vss/dealer"
)

var (
	// ErrNegativePlaintext is returned when a revealed value is below zero.
	// Field elements only represent non-negative integers.
	ErrNegativePlaintext = errors.New("oracle: negative plaintext")
	// ErrPlaintextRange is returned when a value does not fit the sharing field
	// or a reconstructed value does not fit an int64.
	ErrPlaintextRange = errors.New("oracle: plaintext out of range")
)

// Submission is one provider's quantized value and its weight.
type Submission struct {
	Provider string
	Value    int64
	Weight   int64
}

// Result holds the encrypted outputs of Run.
type Result struct {
	Aggregate  fhe.Ciphertext
	Threshold  fhe.Ciphertext
	Difference fhe.Ciphertext
	// Above encrypts 1 when the aggregate exceeds the threshold.
	Above       fhe.Ciphertext
	Submissions int
}

// Aggregate computes Σ weight·value under encryption. An empty submission list
// aggregates to an encryption of zero.
func Aggregate(b fhe.Backend, submissions []Submission) (fhe.Ciphertext, error) {
	acc, err := b.Encrypt(0)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	for _, s := range submissions {
		ct, err := b.Encrypt(s.Value)
		if err != nil {
			return nil, fmt.Errorf("oracle: encrypt %s: %w", s.Provider, err)
		}
		weighted, err := b.ScalarMul(ct, s.Weight)
		if err != nil {
			return nil, fmt.Errorf("oracle: weight %s: %w", s.Provider, err)
		}
		if acc, err = b.Add(acc, weighted); err != nil {
			return nil, fmt.Errorf("oracle: add %s: %w", s.Provider, err)
		}
	}
	return acc, nil
}

// CompareThreshold encrypts whether aggregate > threshold.
func CompareThreshold(b fhe.Backend, aggregate fhe.Ciphertext, threshold int64) (fhe.Ciphertext, error) {
	ct, err := b.Encrypt(threshold)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	above, err := b.GreaterThan(aggregate, ct)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	return above, nil
}

// Run aggregates submissions and compares the result with threshold.
func Run(b fhe.Backend, submissions []Submission, threshold int64) (*Result, error) {
	aggregate, err := Aggregate(b, submissions)
	if err != nil {
		return nil, err
	}
	ct, err := b.Encrypt(threshold)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	diff, err := b.Sub(aggregate, ct)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	above, err := b.GreaterThan(aggregate, ct)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	return &Result{
		Aggregate:   aggregate,
		Threshold:   ct,
		Difference:  diff,
		Above:       above,
		Submissions: len(submissions),
	}, nil
}

// Reveal decrypts ct and deals the plaintext to the committee of d.
func Reveal(b fhe.Backend, ct fhe.Ciphertext, d *dealer.Dealer) (*dealer.Round, error) {
	v, err := b.Decrypt(ct)
	if err != nil {
		return nil, fmt.Errorf("oracle: decrypt %s: %w", ct.Fingerprint(), err)
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativePlaintext, v)
	}
	f := d.Field()
	x := new(big.Int).SetInt64(v)
	if !f.Contains(x) {
		return nil, fmt.Errorf("%w: %d not below %s", ErrPlaintextRange, v, f)
	}
	secret, err := f.FromBig(x)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	round, err := d.Deal(secret)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	return round, nil
}

// Open reconstructs a revealed value from a committee.
func Open(r protocol.Reconstructor) (int64, error) {
	secret, err := r.Decrypt()
	if err != nil {
		return 0, fmt.Errorf("oracle: %w", err)
	}
	x := r.Field().Big(secret)
	if !x.IsInt64() {
		return 0, fmt.Errorf("%w: %s exceeds int64", ErrPlaintextRange, x)
	}
	return x.Int64(), nil
}

// Decision is the plaintext outcome of a Run.
type Decision struct {
	Aggregate  int64
	Threshold  int64
	Difference int64
	Above      bool
}

// Outcome is "YES" when the aggregate exceeded the threshold and "NO"
// otherwise.
func (d Decision) Outcome() string {
	if d.Above {
		return "YES"
	}
	return "NO"
}

// Decide decrypts every output of r directly. It is meant for the key holder
// validating a result, not for the committee.
func Decide(b fhe.Backend, r *Result) (Decision, error) {
	var (
		d     Decision
		above int64
	)
	for _, out := range []struct {
		ct  fhe.Ciphertext
		dst *int64
	}{
		{r.Aggregate, &d.Aggregate},
		{r.Threshold, &d.Threshold},
		{r.Difference, &d.Difference},
		{r.Above, &above},
	} {
		v, err := b.Decrypt(out.ct)
		if err != nil {
			return Decision{}, fmt.Errorf("oracle: %w", err)
		}
		*out.dst = v
	}
	d.Above = above != 0
	return d, nil
}
