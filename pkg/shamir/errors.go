package shamir

import (
	"errors"
	"fmt"

	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

var (
	// ErrConfigInvalid is returned for threshold parameters outside 2 ≤ k ≤ n < p
	// or a coefficient list of the wrong length.
	ErrConfigInvalid = errors.New("invalid threshold configuration")
	// ErrCapacityExceeded is returned when registering more shares than the total.
	ErrCapacityExceeded = errors.New("share capacity exceeded")
	// ErrInsufficientShares is returned when fewer than k shares are available.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInsufficientVerifiedShares is returned when fewer than k shares pass
	// commitment verification.
	ErrInsufficientVerifiedShares = errors.New("insufficient verified shares")
	// ErrInvalidShare is returned for shares with a zero or out of range id,
	// or a value outside [0, p).
	ErrInvalidShare = errors.New("invalid share")
	// ErrInconsistentShares is returned when shares do not lie on one polynomial
	// of degree k-1.
	ErrInconsistentShares = errors.New("inconsistent shares")
	// ErrFinalized is returned when a scheme is modified, or reconstructed from
	// another set of shares, after reconstruction.
	ErrFinalized = errors.New("scheme already decrypted")
	// ErrNoCommitment is returned when verification is requested without a commitment.
	ErrNoCommitment = errors.New("no commitment configured")

	// ErrDuplicateParticipant is returned when an id occurs more than once.
	ErrDuplicateParticipant = polynomial.ErrDuplicateParticipant
	// ErrInvalidParticipant is returned for ids that cannot be evaluation points.
	ErrInvalidParticipant = polynomial.ErrInvalidParticipant
	// ErrNoInverse is returned when a division by zero is attempted.
	ErrNoInverse = field.ErrNoInverse
)

// InsufficientVerifiedSharesError reports how many shares survived verification.
type InsufficientVerifiedSharesError struct {
	Verified  int
	Threshold int
	Corrupted party.IDSlice
}

func (e *InsufficientVerifiedSharesError) Error() string {
	return fmt.Sprintf("%s: %d verified, %d required, corrupted [%s]",
		ErrInsufficientVerifiedShares, e.Verified, e.Threshold, e.Corrupted)
}

// Is makes errors.Is match ErrInsufficientVerifiedShares.
func (e *InsufficientVerifiedSharesError) Is(target error) bool {
	return target == ErrInsufficientVerifiedShares
}

// InconsistentSharesError lists the shares that disagree with the polynomial
// interpolated from the lowest k ids.
type InconsistentSharesError struct {
	IDs party.IDSlice
}

func (e *InconsistentSharesError) Error() string {
	return fmt.Sprintf("%s: [%s]", ErrInconsistentShares, e.IDs)
}

// Is makes errors.Is match ErrInconsistentShares.
func (e *InconsistentSharesError) Is(target error) bool {
	return target == ErrInconsistentShares
}
