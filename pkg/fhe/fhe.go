// Package fhe describes the homomorphic ciphertext layer that produces the
// values a committee shares. No encryption scheme is implemented here.
package fhe

import (
	"encoding/hex"
	"errors"

	"github.com/zeebo/blake3"
)

// ErrMalformedCiphertext is returned by backends for ciphertexts they did not
// produce.
var ErrMalformedCiphertext = errors.New("fhe: malformed ciphertext")

// Ciphertext is an opaque encrypted integer.
type Ciphertext []byte

// Clone returns a copy of c.
func (c Ciphertext) Clone() Ciphertext {
	if c == nil {
		return nil
	}
	return append(Ciphertext(nil), c...)
}

// Fingerprint is a short digest of c that is safe to log.
func (c Ciphertext) Fingerprint() string {
	sum := blake3.Sum256(c)
	return hex.EncodeToString(sum[:8])
}

// Backend evaluates integer arithmetic under encryption. Every operation
// returns a fresh ciphertext and leaves its inputs untouched.
type Backend interface {
	Encrypt(plaintext int64) (Ciphertext, error)
	// Decrypt needs the full secret key; committees only use it to obtain the
	// value they then threshold-share.
	Decrypt(ct Ciphertext) (int64, error)

	Add(a, b Ciphertext) (Ciphertext, error)
	Sub(a, b Ciphertext) (Ciphertext, error)
	ScalarMul(ct Ciphertext, scalar int64) (Ciphertext, error)
	// GreaterThan encrypts 1 when a > b and 0 otherwise.
	GreaterThan(a, b Ciphertext) (Ciphertext, error)
}
