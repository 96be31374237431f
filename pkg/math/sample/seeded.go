package sample

import (
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"
)

const seedContext = "thresholddecrypt 2024 seeded sampling reader"

// NewSeededReader returns a deterministic stream of bytes derived from seed.
// It is meant for reproducible simulations; never use it to deal real secrets.
func NewSeededReader(seed []byte) io.Reader {
	key := make([]byte, chacha20.KeySize)
	blake3.DeriveKey(seedContext, seed, key)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		// Key and nonce sizes are fixed above.
		panic(err)
	}
	return &seededReader{c: c}
}

type seededReader struct {
	c *chacha20.Cipher
}

func (r *seededReader) Read(p []byte) (int, error) {
	clear(p)
	r.c.XORKeyStream(p, p)
	return len(p), nil
}
