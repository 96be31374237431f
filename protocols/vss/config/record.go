package config

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
)

// Record is a snapshot of a sharing round: its policy, the public commitment
// and the registered share table.
type Record struct {
	// SchemeID identifies the round.
	SchemeID uuid.UUID

	Policy Policy

	// CommitmentKind is KindNone when shares are not verifiable.
	CommitmentKind commitment.Kind

	// CommitmentDigest fingerprints the commitment.
	CommitmentDigest []byte

	// CommitmentPoints is the public encoding of the commitment.
	CommitmentPoints [][]byte

	// Shares are ordered by registration.
	Shares []ShareRecord
}

// ShareRecord is one entry of the share table.
type ShareRecord struct {
	ID    party.ID
	Name  string
	Value *big.Int

	// Verified is nil until the share has been checked against the commitment.
	Verified *bool
}

// Validate re-checks the policy and every share.
func (r *Record) Validate() error {
	if err := r.Policy.Validate(); err != nil {
		return err
	}
	f, err := r.Policy.Field()
	if err != nil {
		return err
	}
	if r.CommitmentKind != commitment.KindNone && len(r.CommitmentPoints) == 0 {
		return errors.New("vss/config: commitment kind set without points")
	}
	if len(r.Shares) > r.Policy.Total {
		return fmt.Errorf("vss/config: %w: %d shares for total %d", shamir.ErrCapacityExceeded, len(r.Shares), r.Policy.Total)
	}
	seen := make(map[party.ID]bool, len(r.Shares))
	for _, s := range r.Shares {
		if !s.ID.Valid() || int(s.ID) > r.Policy.Total {
			return fmt.Errorf("vss/config: %w: id %d outside 1..%d", shamir.ErrInvalidShare, s.ID, r.Policy.Total)
		}
		if seen[s.ID] {
			return fmt.Errorf("vss/config: %w: %s", shamir.ErrDuplicateParticipant, s.ID)
		}
		seen[s.ID] = true
		if !f.Contains(s.Value) {
			return fmt.Errorf("vss/config: %w: value of %s outside [0, %s)", shamir.ErrInvalidShare, s.ID, f)
		}
	}
	return nil
}

// ShamirShares converts the share table into field elements.
func (r *Record) ShamirShares() ([]shamir.Share, error) {
	f, err := r.Policy.Field()
	if err != nil {
		return nil, err
	}
	shares := make([]shamir.Share, len(r.Shares))
	for i, s := range r.Shares {
		v, err := f.FromBig(s.Value)
		if err != nil {
			return nil, fmt.Errorf("vss/config: share %s: %w", s.ID, err)
		}
		shares[i] = shamir.Share{ID: s.ID, Value: v}
	}
	return shares, nil
}

// Commitment decodes the published commitment, or returns nil for KindNone.
func (r *Record) Commitment() (commitment.Commitment, error) {
	if r.CommitmentKind == commitment.KindNone {
		return nil, nil
	}
	f, err := r.Policy.Field()
	if err != nil {
		return nil, err
	}
	c, err := commitment.Decode(r.CommitmentKind, f, r.CommitmentPoints)
	if err != nil {
		return nil, fmt.Errorf("vss/config: %w", err)
	}
	if len(r.CommitmentDigest) > 0 && !slices.Equal(c.Digest(), r.CommitmentDigest) {
		return nil, errors.New("vss/config: commitment digest mismatch")
	}
	return c, nil
}

// ShareRecordFrom builds a table entry from a field element.
func ShareRecordFrom(name string, s shamir.Share, verified *bool) ShareRecord {
	return ShareRecord{ID: s.ID, Name: name, Value: natToBig(s.Value), Verified: verified}
}

func natToBig(x *saferith.Nat) *big.Int {
	if x == nil {
		return nil
	}
	return x.Big()
}
