package shamir

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
)

// Selection decides which k shares are interpolated when more are available.
type Selection uint8

const (
	// SelectLowestIDs uses the k shares with the smallest ids.
	SelectLowestIDs Selection = iota
	// SelectRegistrationOrder uses the first k shares in the order given.
	SelectRegistrationOrder
)

func (s Selection) String() string {
	switch s {
	case SelectLowestIDs:
		return "lowest-ids"
	case SelectRegistrationOrder:
		return "registration-order"
	default:
		return fmt.Sprintf("selection(%d)", uint8(s))
	}
}

// ParseSelection is the inverse of Selection.String.
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lowest-ids":
		return SelectLowestIDs, nil
	case "registration-order":
		return SelectRegistrationOrder, nil
	default:
		return 0, fmt.Errorf("shamir: %w: unknown selection %q", ErrConfigInvalid, s)
	}
}

// Select picks exactly threshold shares according to sel.
func Select(shares []Share, threshold int, sel Selection) ([]Share, error) {
	if len(shares) < threshold {
		return nil, fmt.Errorf("shamir: %w: have %d, need %d", ErrInsufficientShares, len(shares), threshold)
	}
	switch sel {
	case SelectLowestIDs:
		sorted := slices.Clone(shares)
		slices.SortStableFunc(sorted, func(a, b Share) int { return cmp.Compare(a.ID, b.ID) })
		return sorted[:threshold], nil
	case SelectRegistrationOrder:
		return slices.Clone(shares[:threshold]), nil
	default:
		return nil, fmt.Errorf("shamir: %w: unknown selection %s", ErrConfigInvalid, sel)
	}
}

// Combine interpolates the secret from the threshold shares with the lowest
// ids. Any further share must lie on the same polynomial; otherwise an
// InconsistentSharesError names the shares that do not.
func Combine(f *field.Field, shares []Share, threshold int) (*saferith.Nat, error) {
	return CombineChecked(f, shares, threshold, SelectLowestIDs)
}

// CombineChecked interpolates from the threshold shares picked by sel and
// verifies that every remaining share lies on the same polynomial. This is
// equivalent to every threshold-sized subset reconstructing the same secret.
func CombineChecked(f *field.Field, shares []Share, threshold int, sel Selection) (*saferith.Nat, error) {
	if len(shares) < threshold {
		return nil, fmt.Errorf("shamir: %w: have %d, need %d", ErrInsufficientShares, len(shares), threshold)
	}
	if err := checkShares(f, shares); err != nil {
		return nil, err
	}
	base, err := Select(shares, threshold, sel)
	if err != nil {
		return nil, err
	}
	ids := IDs(base)

	var inconsistent party.IDSlice
	for _, s := range shares {
		if ids.Contains(s.ID) {
			continue
		}
		expected, err := interpolate(f, base, s.ID.Scalar(f))
		if err != nil {
			return nil, err
		}
		if !f.EqualElements(expected, s.Value) {
			inconsistent = append(inconsistent, s.ID)
		}
	}
	if len(inconsistent) > 0 {
		return nil, &InconsistentSharesError{IDs: inconsistent.Sorted()}
	}
	return interpolate(f, base, f.Zero())
}

func interpolate(f *field.Field, shares []Share, x *saferith.Nat) (*saferith.Nat, error) {
	points := make(map[party.ID]*saferith.Nat, len(shares))
	for _, s := range shares {
		points[s.ID] = s.Value
	}
	v, err := polynomial.Interpolate(f, points, x)
	if err != nil {
		return nil, fmt.Errorf("shamir: %w", err)
	}
	return v, nil
}

func checkShares(f *field.Field, shares []Share) error {
	ids := IDs(shares)
	if dup := ids.Duplicates(); len(dup) > 0 {
		return fmt.Errorf("shamir: %w: %s", ErrDuplicateParticipant, dup)
	}
	for _, s := range shares {
		if err := CheckShare(f, s); err != nil {
			return err
		}
	}
	return nil
}

// CheckShare validates that s has a usable id and a canonical value.
func CheckShare(f *field.Field, s Share) error {
	if !s.ID.Valid() {
		return fmt.Errorf("shamir: %w: id %d", ErrInvalidShare, s.ID)
	}
	if s.Value == nil || !f.InRange(s.Value) {
		return fmt.Errorf("shamir: %w: value of %s outside [0, %s)", ErrInvalidShare, s.ID, f)
	}
	return nil
}
