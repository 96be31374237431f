// Package commitment publishes a check value for a sharing polynomial so that
// anyone can verify a share (x, y) against it without learning how the
// commitment is represented internally.
//
// Three kinds are available:
//
//   - KindCoefficients publishes the raw coefficients. It is binding but not
//     hiding: the holder learns the secret. Use it only for testing or when
//     the verifier is already trusted with the value.
//   - KindFeldman publishes aᵢ⋅G on secp256k1. The sharing field must be the
//     secp256k1 scalar field.
//   - KindDiscreteLog publishes g^aᵢ mod q in a prime-order subgroup of Z_q*
//     sized to the sharing field, so it works with any field prime. It only
//     hides the coefficients when the field is large: over the 30-bit default
//     prime, q is about 2^32 and g^s can be inverted by exhaustive search.
//     Use the secp256k1 scalar field when the secret must stay hidden.
package commitment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/polynomial"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/zeebo/blake3"
)

var (
	// ErrFieldMismatch is returned when a commitment kind cannot be used with
	// the field of the polynomial.
	ErrFieldMismatch = errors.New("commitment: field not supported by this kind")
	// ErrUnknownKind is returned for kinds that do not build a commitment.
	ErrUnknownKind = errors.New("commitment: unknown kind")
	// ErrMalformed is returned when decoding invalid commitment points.
	ErrMalformed = errors.New("commitment: malformed point")
)

// Kind selects the commitment construction.
type Kind uint8

const (
	// KindNone disables share verification.
	KindNone Kind = iota
	KindCoefficients
	KindFeldman
	KindDiscreteLog
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindCoefficients: "coefficients",
	KindFeldman:      "feldman",
	KindDiscreteLog:  "dlog",
}

// Kinds lists the kinds that build a commitment.
func Kinds() []Kind {
	return []Kind{KindCoefficients, KindFeldman, KindDiscreteLog}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String. The empty string maps to KindNone.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindNone, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Commitment is the public, read-only view of a sharing polynomial.
// Implementations are immutable and safe for concurrent use.
type Commitment interface {
	// Kind returns the construction used.
	Kind() Kind
	// Field returns the field the shares live in.
	Field() *field.Field
	// Threshold is the number of committed coefficients.
	Threshold() int
	// Verify reports whether value is the evaluation of the committed
	// polynomial at id. It is deterministic and has no side effects.
	Verify(id party.ID, value *saferith.Nat) bool
	// Points returns the canonical encoding of each committed coefficient.
	Points() [][]byte
	// Digest fingerprints the commitment.
	Digest() []byte
}

// New commits to poly, which must be defined over f.
func New(kind Kind, f *field.Field, poly *polynomial.Polynomial) (Commitment, error) {
	if poly == nil {
		return nil, errors.New("commitment: nil polynomial")
	}
	if !f.Equal(poly.Field()) {
		return nil, fmt.Errorf("%w: polynomial over %s, expected %s", ErrFieldMismatch, poly.Field(), f)
	}
	switch kind {
	case KindCoefficients:
		return newCoefficients(f, poly), nil
	case KindFeldman:
		return newFeldman(f, poly)
	case KindDiscreteLog:
		return newDiscreteLog(f, poly)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Decode rebuilds a commitment from the output of Points.
func Decode(kind Kind, f *field.Field, points [][]byte) (Commitment, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrMalformed)
	}
	switch kind {
	case KindCoefficients:
		return decodeCoefficients(f, points)
	case KindFeldman:
		return decodeFeldman(f, points)
	case KindDiscreteLog:
		return decodeDiscreteLog(f, points)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// digest hashes kind, modulus and points, each length prefixed.
func digest(kind Kind, f *field.Field, points [][]byte) []byte {
	h := blake3.New()
	var lenBuf [4]byte
	write := func(b []byte) {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(b)
	}
	write([]byte(kind.String()))
	write(f.Modulus().Bytes())
	for _, p := range points {
		write(p)
	}
	return h.Sum(nil)
}

func copyPoints(points [][]byte) [][]byte {
	out := make([][]byte, len(points))
	for i, p := range points {
		out[i] = append([]byte(nil), p...)
	}
	return out
}
