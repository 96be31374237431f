// Package party identifies the participants holding shares.
package party

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
)

// ErrInvalidID is returned for the reserved id 0, which would evaluate the
// polynomial at the secret itself.
var ErrInvalidID = errors.New("party: id must be positive")

// ID is the x-coordinate at which a participant's share is evaluated.
type ID uint32

// Valid reports whether id can be used as an evaluation point.
func (id ID) Valid() bool {
	return id != 0
}

// Scalar returns id as an element of f.
func (id ID) Scalar(f *field.Field) *saferith.Nat {
	return f.FromUint64(uint64(id))
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Parse reads an id from its decimal form.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("party: parse %q: %w", s, err)
	}
	if v == 0 {
		return 0, ErrInvalidID
	}
	return ID(v), nil
}

// Range returns the ids 1..n.
func Range(n int) IDSlice {
	ids := make(IDSlice, n)
	for i := range ids {
		ids[i] = ID(i + 1)
	}
	return ids
}
