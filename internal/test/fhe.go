package test

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/luxfi/thresholddecrypt/pkg/fhe"
)

// PlaintextBackend is an fhe.Backend that stores values in the clear. It
// counts decryptions so tests can check how often the secret key is used.
type PlaintextBackend struct {
	decryptions atomic.Int64
}

var _ fhe.Backend = (*PlaintextBackend)(nil)

// Decryptions returns how many times Decrypt has been called.
func (b *PlaintextBackend) Decryptions() int64 { return b.decryptions.Load() }

func (b *PlaintextBackend) Encrypt(plaintext int64) (fhe.Ciphertext, error) {
	return encode(plaintext), nil
}

func (b *PlaintextBackend) Decrypt(ct fhe.Ciphertext) (int64, error) {
	b.decryptions.Add(1)
	return decode(ct)
}

func (b *PlaintextBackend) Add(x, y fhe.Ciphertext) (fhe.Ciphertext, error) {
	return apply(x, y, func(a, b int64) int64 { return a + b })
}

func (b *PlaintextBackend) Sub(x, y fhe.Ciphertext) (fhe.Ciphertext, error) {
	return apply(x, y, func(a, b int64) int64 { return a - b })
}

func (b *PlaintextBackend) ScalarMul(ct fhe.Ciphertext, scalar int64) (fhe.Ciphertext, error) {
	v, err := decode(ct)
	if err != nil {
		return nil, err
	}
	return encode(v * scalar), nil
}

func (b *PlaintextBackend) GreaterThan(x, y fhe.Ciphertext) (fhe.Ciphertext, error) {
	return apply(x, y, func(a, b int64) int64 {
		if a > b {
			return 1
		}
		return 0
	})
}

func apply(x, y fhe.Ciphertext, op func(a, b int64) int64) (fhe.Ciphertext, error) {
	a, err := decode(x)
	if err != nil {
		return nil, err
	}
	b, err := decode(y)
	if err != nil {
		return nil, err
	}
	return encode(op(a, b)), nil
}

func encode(v int64) fhe.Ciphertext {
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

func decode(ct fhe.Ciphertext) (int64, error) {
	if len(ct) != 8 {
		return 0, fhe.ErrMalformedCiphertext
	}
	return int64(binary.LittleEndian.Uint64(ct)), nil
}
