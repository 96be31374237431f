package sample_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementInRange(t *testing.T) {
	f, err := field.FromModulus(257)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		x, err := sample.Element(rand.Reader, f)
		require.NoError(t, err)
		require.True(t, f.InRange(x))
		seen[f.Format(x)] = true
	}
	// 2000 draws over 257 values should hit nearly all of them.
	assert.Greater(t, len(seen), 200)
}

func TestNonZero(t *testing.T) {
	f, err := field.FromModulus(3)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		x, err := sample.NonZero(rand.Reader, f)
		require.NoError(t, err)
		assert.False(t, f.IsZero(x))
	}
}

func TestCoefficients(t *testing.T) {
	f := field.Default()
	coeffs, err := sample.Coefficients(rand.Reader, f, 4)
	require.NoError(t, err)
	require.Len(t, coeffs, 4)
	assert.False(t, f.IsZero(coeffs[3]))

	coeffs, err = sample.Coefficients(rand.Reader, f, 0)
	require.NoError(t, err)
	assert.Empty(t, coeffs)
}

func TestBrokenReader(t *testing.T) {
	_, err := sample.Element(bytes.NewReader(nil), field.Default())
	assert.ErrorIs(t, err, io.EOF)

	// All-ones bytes mask to 2^30-1 which is always >= p.
	ones := bytes.NewReader(bytes.Repeat([]byte{0xff}, 4096))
	_, err = sample.Element(ones, field.Default())
	assert.ErrorIs(t, err, sample.ErrMaxIterations)
}

func TestSeededReader(t *testing.T) {
	a := make([]byte, 64)
	b := make([]byte, 64)
	c := make([]byte, 64)
	_, _ = io.ReadFull(sample.NewSeededReader([]byte("seed")), a)
	_, _ = io.ReadFull(sample.NewSeededReader([]byte("seed")), b)
	_, _ = io.ReadFull(sample.NewSeededReader([]byte("other")), c)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, make([]byte, 64), a)

	f := field.Default()
	x, err := sample.Element(sample.NewSeededReader([]byte{1}), f)
	require.NoError(t, err)
	y, err := sample.Element(sample.NewSeededReader([]byte{1}), f)
	require.NoError(t, err)
	assert.True(t, f.EqualElements(x, y))
}
