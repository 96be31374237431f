package main

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func split(t *testing.T, path string, extra ...string) {
	t.Helper()
	args := append([]string{"split", "--secret", "42", "--seed", "cli-test", "--output", path}, extra...)
	_, err := run(t, args...)
	require.NoError(t, err)
}

// tamper adds delta modulo p to the stored share values of ids.
func tamper(t *testing.T, path string, delta int64, ids ...party.ID) {
	t.Helper()
	r, err := readRecord(path)
	require.NoError(t, err)
	for i := range r.Shares {
		if party.IDSlice(ids).Contains(r.Shares[i].ID) {
			v := new(big.Int).Add(r.Shares[i].Value, big.NewInt(delta))
			r.Shares[i].Value = v.Mod(v, r.Policy.Modulus())
			r.Shares[i].Verified = nil
		}
	}
	require.NoError(t, writeRecord(nil, path, r))
}

func TestSplitCombine(t *testing.T) {
	for _, name := range []string{"shares.json", "shares.cbor"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			split(t, path)

			r, err := readRecord(path)
			require.NoError(t, err)
			assert.Equal(t, 3, r.Policy.Threshold)
			assert.Equal(t, 5, r.Policy.Total)
			assert.Equal(t, commitment.KindDiscreteLog, r.CommitmentKind)
			require.Len(t, r.Shares, 5)
			for _, s := range r.Shares {
				require.NotNil(t, s.Verified)
				assert.True(t, *s.Verified)
			}

			out, err := run(t, "combine", "--input", path)
			require.NoError(t, err)
			assert.Equal(t, "42\n", out)

			out, err = run(t, "combine", "--input", path, "--ids", "5,2,4")
			require.NoError(t, err)
			assert.Equal(t, "42\n", out)

			_, err = run(t, "combine", "--input", path, "--ids", "1,2")
			assert.ErrorIs(t, err, shamir.ErrInsufficientShares)
		})
	}
}

func TestSplitToStdout(t *testing.T) {
	out, err := run(t, "split", "--secret", "7", "-k", "2", "-n", "3", "--commitment", "none")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"threshold":2`)
}

func TestSplitFeldman(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feldman.json")
	split(t, path, "--commitment", "feldman", "--secret", "0xdeadbeef")

	out, err := run(t, "combine", "--input", path)
	require.NoError(t, err)
	assert.Equal(t, "3735928559\n", out)
}

func TestSplitRejectsBadInput(t *testing.T) {
	_, err := run(t, "split", "--secret", "1000000007")
	assert.Error(t, err)
	_, err = run(t, "split", "--secret", "abc")
	assert.Error(t, err)
	_, err = run(t, "split")
	assert.Error(t, err)
	_, err = run(t, "split", "--secret", "1", "-k", "6", "-n", "5")
	assert.ErrorIs(t, err, shamir.ErrConfigInvalid)
	_, err = run(t, "split", "--secret", "1", "--commitment", "pedersen")
	assert.ErrorIs(t, err, commitment.ErrUnknownKind)
}

func TestVerifyFindsTamperedShares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.json")
	split(t, path)
	tamper(t, path, 999, 2)

	out, err := run(t, "verify", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "verified:   4")
	assert.Contains(t, out, "corrupted:  [2]")

	out, err = run(t, "combine", "--input", path)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	tamper(t, path, 1, 1, 3)
	_, err = run(t, "verify", "--input", path)
	assert.ErrorIs(t, err, shamir.ErrInsufficientVerifiedShares)
	_, err = run(t, "combine", "--input", path)
	assert.ErrorIs(t, err, shamir.ErrInsufficientVerifiedShares)
}

func TestVerifyWritesFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shares.json")
	split(t, path)
	tamper(t, path, 5, 4)

	flagged := filepath.Join(dir, "flagged.cbor")
	_, err := run(t, "verify", "--input", path, "--output", flagged)
	require.NoError(t, err)
	r, err := readRecord(flagged)
	require.NoError(t, err)
	for _, s := range r.Shares {
		require.NotNil(t, s.Verified)
		assert.Equal(t, s.ID != 4, *s.Verified, "share %s", s.ID)
	}
}

func TestVerifyNeedsCommitment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	split(t, path, "--commitment", "none")
	_, err := run(t, "verify", "--input", path)
	assert.ErrorIs(t, err, shamir.ErrNoCommitment)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "--corrupt", "2", "--rounds", "5", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "recovered: 5 (100.00%)")
	assert.Contains(t, out, "threshold_corrupted_shares_total 10")
	assert.Contains(t, out, "threshold_reconstructions_total{status=success} 5")

	out, err = run(t, "simulate", "--corrupt", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "failed:    1 (100.00%)")

	again, err := run(t, "simulate", "--corrupt", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = run(t, "simulate", "--corrupt", "6")
	assert.Error(t, err)
}

func TestEnvironmentAndConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THRESHOLD_THRESHOLD", "2")
	path := filepath.Join(dir, "env.json")
	split(t, path)
	r, err := readRecord(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Policy.Threshold)

	cfg := filepath.Join(dir, "threshold.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("total: 7\ncommitment: coefficients\n"), 0o600))
	path = filepath.Join(dir, "file.json")
	split(t, path, "--config", cfg)
	r, err = readRecord(path)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Policy.Total)
	assert.Equal(t, commitment.KindCoefficients, r.CommitmentKind)
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info")
	require.NoError(t, err)
	for _, want := range []string{"1000000007", "none", "coefficients", "feldman", "dlog", "lowest-ids", "THRESHOLD_"} {
		assert.Contains(t, out, want)
	}
}
