// Package protocol provides scheme-agnostic interfaces for threshold
// decryption committees.
package protocol

import (
	"fmt"
	"runtime"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"golang.org/x/sync/errgroup"
)

// ThresholdConfig is implemented by every committee configuration.
type ThresholdConfig interface {
	// Threshold is the number of shares needed to reconstruct.
	Threshold() int
	// Total is the number of shares dealt.
	Total() int
	// Field is the field the shares live in.
	Field() *field.Field
}

// Reconstructor recovers the shared secret.
type Reconstructor interface {
	ThresholdConfig

	CanDecrypt() bool
	Decrypt() (*saferith.Nat, error)
	DecryptWith(ids []party.ID) (*saferith.Nat, error)
}

// ShareSource exposes the shares collected so far.
type ShareSource interface {
	Registered() party.IDSlice
	Share(id party.ID) (shamir.Share, bool)
}

// Verifiable is a share source bound to a public commitment.
type Verifiable interface {
	ShareSource
	Commitment() commitment.Commitment
}

// Scheme is a committee that both collects and reconstructs.
type Scheme interface {
	Reconstructor
	Verifiable
}

// Audit checks every share of v against its commitment, independently of any
// result the scheme itself may have cached. It returns the failing ids in
// ascending order.
func Audit(v Verifiable) (party.IDSlice, error) {
	c := v.Commitment()
	if c == nil {
		return nil, fmt.Errorf("protocol: %w", shamir.ErrNoCommitment)
	}
	ids := v.Registered()
	ok := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		g.Go(func() error {
			s, found := v.Share(id)
			ok[i] = found && c.Verify(id, s.Value)
			return nil
		})
	}
	_ = g.Wait()

	var failed party.IDSlice
	for i, id := range ids {
		if !ok[i] {
			failed = append(failed, id)
		}
	}
	return failed.Sorted(), nil
}
