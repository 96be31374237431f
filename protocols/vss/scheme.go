package vss

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/metrics"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	"go.uber.org/zap"
)

// entry is one row of the registration table.
type entry struct {
	name  string
	share shamir.Share
	// verified caches the commitment check; nil until computed.
	verified *bool
}

// Scheme collects decryptor shares and reconstructs the secret once enough
// valid shares are present. It is safe for concurrent use.
type Scheme struct {
	mu sync.RWMutex

	id         uuid.UUID
	policy     config.Policy
	field      *field.Field
	commitment commitment.Commitment
	log        *zap.Logger
	metrics    *metrics.Metrics

	// entries is kept in registration order.
	entries []*entry
	byID    map[party.ID]*entry
	byName  map[string]party.ID

	state  State
	secret *saferith.Nat
	// used holds the sorted ids the secret was reconstructed from.
	used party.IDSlice
}

// New returns an empty scheme for policy.
func New(policy config.Policy, opts ...Option) (*Scheme, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	f, err := policy.Field()
	if err != nil {
		return nil, err
	}
	s := &Scheme{
		id:     uuid.New(),
		policy: policy.Copy(),
		field:  f,
		log:    zap.NewNop(),
		byID:   make(map[party.ID]*entry, policy.Total),
		byName: make(map[string]party.ID, policy.Total),
	}
	for _, opt := range opts {
		opt(s)
	}

	if c := s.commitment; c != nil {
		if !f.Equal(c.Field()) {
			return nil, fmt.Errorf("vss: %w: commitment over %s, policy over %s", commitment.ErrFieldMismatch, c.Field(), f)
		}
		if c.Threshold() != policy.Threshold {
			return nil, fmt.Errorf("vss: %w: commitment threshold %d, policy threshold %d",
				shamir.ErrConfigInvalid, c.Threshold(), policy.Threshold)
		}
	}
	s.log = s.log.With(zap.String("scheme", s.id.String()))
	return s, nil
}

// ID returns the scheme id.
func (s *Scheme) ID() uuid.UUID { return s.id }

// Threshold returns k.
func (s *Scheme) Threshold() int { return s.policy.Threshold }

// Total returns n.
func (s *Scheme) Total() int { return s.policy.Total }

// Field returns the field the shares live in.
func (s *Scheme) Field() *field.Field { return s.field }

// Policy returns a copy of the policy.
func (s *Scheme) Policy() config.Policy { return s.policy.Copy() }

// Commitment returns the configured commitment, or nil.
func (s *Scheme) Commitment() commitment.Commitment { return s.commitment }

// State returns the current lifecycle stage.
func (s *Scheme) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CanDecrypt reports whether at least Threshold shares are registered.
func (s *Scheme) CanDecrypt() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) >= s.policy.Threshold
}

// Registered returns the registered ids in registration order.
func (s *Scheme) Registered() party.IDSlice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(party.IDSlice, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.share.ID
	}
	return ids
}

// Register adds a decryptor's share.
//
// A full scheme rejects further shares with ErrCapacityExceeded and stays
// usable. Registration after the secret has been reconstructed fails with
// ErrFinalized.
func (s *Scheme) Register(d Decryptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecrypted {
		return fmt.Errorf("vss: %w", shamir.ErrFinalized)
	}
	if len(s.entries) >= s.policy.Total {
		return fmt.Errorf("vss: %w: %d of %d shares registered", shamir.ErrCapacityExceeded, len(s.entries), s.policy.Total)
	}
	id := d.Share.ID
	if int64(id) > int64(s.policy.Total) {
		return fmt.Errorf("vss: %w: id %d outside 1..%d", shamir.ErrInvalidShare, id, s.policy.Total)
	}
	if err := shamir.CheckShare(s.field, d.Share); err != nil {
		return fmt.Errorf("vss: %w", err)
	}
	if _, ok := s.byID[id]; ok {
		return fmt.Errorf("vss: %w: %s", shamir.ErrDuplicateParticipant, id)
	}
	name := d.Name
	if name == "" {
		name = DefaultName(id)
	}
	if other, ok := s.byName[name]; ok {
		return fmt.Errorf("vss: %w: %q already holds share %s", shamir.ErrDuplicateParticipant, name, other)
	}

	e := &entry{
		name:  name,
		share: shamir.Share{ID: id, Value: s.field.Reduce(d.Share.Value)},
	}
	s.entries = append(s.entries, e)
	s.byID[id] = e
	s.byName[name] = id
	if len(s.entries) >= s.policy.Threshold {
		s.state = StateReconstructable
	} else {
		s.state = StateCollecting
	}

	s.metrics.ShareRegistered()
	s.log.Debug("share registered",
		zap.Uint32("id", uint32(id)),
		zap.String("decryptor", name),
		zap.Int("registered", len(s.entries)),
		zap.Stringer("state", s.state))
	return nil
}

// Decrypt reconstructs the secret from the registered shares.
//
// With a commitment only verified shares are used. The policy's Selection
// picks which of them are interpolated and, with CrossCheck, every remaining
// candidate must lie on the interpolated polynomial. Once it has succeeded,
// Decrypt keeps returning the same value.
func (s *Scheme) Decrypt() (*saferith.Nat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecrypted {
		return new(saferith.Nat).SetNat(s.secret), nil
	}
	started := time.Now()
	if len(s.entries) < s.policy.Threshold {
		s.metrics.Reconstruction(metrics.StatusInsufficient, started)
		return nil, fmt.Errorf("vss: %w: have %d, need %d", shamir.ErrInsufficientShares, len(s.entries), s.policy.Threshold)
	}

	candidates, err := s.candidatesLocked(s.entries)
	if err != nil {
		s.metrics.Reconstruction(metrics.StatusInsufficient, started)
		return nil, err
	}
	selected, err := shamir.Select(candidates, s.policy.Threshold, s.policy.Selection)
	if err != nil {
		s.metrics.Reconstruction(metrics.StatusError, started)
		return nil, fmt.Errorf("vss: %w", err)
	}
	s.log.Debug("shares selected",
		zap.Stringer("selection", s.policy.Selection),
		zap.Stringer("ids", shamir.IDs(selected)))

	used := selected
	if s.policy.CrossCheck {
		used = candidates
	}
	secret, err := shamir.CombineChecked(s.field, used, s.policy.Threshold, s.policy.Selection)
	return s.finishLocked(secret, shamir.IDs(used), err, started)
}

// DecryptWith reconstructs the secret from the given registered participants.
// With a commitment, listed shares that fail verification are dropped and the
// rest must still reach the threshold. Shares beyond the threshold must agree
// with the interpolated polynomial, otherwise ErrInconsistentShares is
// returned.
//
// Once the scheme is decrypted, repeating the id set that finalized it
// returns the secret again; any other set fails with ErrFinalized.
func (s *Scheme) DecryptWith(ids []party.ID) (*saferith.Nat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecrypted {
		if slices.Equal(party.IDSlice(ids).Sorted(), s.used) {
			return new(saferith.Nat).SetNat(s.secret), nil
		}
		return nil, fmt.Errorf("vss: %w: secret already reconstructed from %s", shamir.ErrFinalized, s.used)
	}
	started := time.Now()
	if len(ids) < s.policy.Threshold {
		s.metrics.Reconstruction(metrics.StatusInsufficient, started)
		return nil, fmt.Errorf("vss: %w: have %d, need %d", shamir.ErrInsufficientShares, len(ids), s.policy.Threshold)
	}
	if dup := party.IDSlice(ids).Duplicates(); len(dup) > 0 {
		s.metrics.Reconstruction(metrics.StatusError, started)
		return nil, fmt.Errorf("vss: %w: %s", shamir.ErrDuplicateParticipant, dup)
	}
	chosen := make([]*entry, len(ids))
	for i, id := range ids {
		e, ok := s.byID[id]
		if !ok {
			s.metrics.Reconstruction(metrics.StatusError, started)
			return nil, fmt.Errorf("vss: %w: %s is not registered", shamir.ErrInvalidShare, id)
		}
		chosen[i] = e
	}

	candidates, err := s.candidatesLocked(chosen)
	if err != nil {
		s.metrics.Reconstruction(metrics.StatusInsufficient, started)
		return nil, err
	}
	secret, err := shamir.Combine(s.field, candidates, s.policy.Threshold)
	return s.finishLocked(secret, party.IDSlice(ids).Sorted(), err, started)
}

// candidatesLocked returns the shares of entries eligible for reconstruction.
func (s *Scheme) candidatesLocked(entries []*entry) ([]shamir.Share, error) {
	if s.commitment == nil {
		shares := make([]shamir.Share, len(entries))
		for i, e := range entries {
			shares[i] = e.share
		}
		return shares, nil
	}

	s.verifyLocked(entries)
	var (
		shares    []shamir.Share
		corrupted party.IDSlice
	)
	for _, e := range entries {
		if *e.verified {
			shares = append(shares, e.share)
		} else {
			corrupted = append(corrupted, e.share.ID)
		}
	}
	if len(corrupted) > 0 {
		s.log.Warn("excluding corrupted shares", zap.Stringer("ids", corrupted.Sorted()))
	}
	if len(shares) < s.policy.Threshold {
		return nil, fmt.Errorf("vss: %w", &shamir.InsufficientVerifiedSharesError{
			Verified:  len(shares),
			Threshold: s.policy.Threshold,
			Corrupted: corrupted.Sorted(),
		})
	}
	return shares, nil
}

func (s *Scheme) finishLocked(secret *saferith.Nat, used party.IDSlice, err error, started time.Time) (*saferith.Nat, error) {
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, shamir.ErrInconsistentShares) {
			status = metrics.StatusInconsistent
		}
		s.metrics.Reconstruction(status, started)
		s.log.Warn("reconstruction failed", zap.Error(err))
		return nil, fmt.Errorf("vss: %w", err)
	}
	s.secret = secret
	s.used = used.Sorted()
	s.state = StateDecrypted
	s.metrics.Reconstruction(metrics.StatusSuccess, started)
	s.log.Info("secret reconstructed", zap.Duration("elapsed", time.Since(started)))
	return new(saferith.Nat).SetNat(secret), nil
}

// Snapshot returns the scheme's share table as a record.
func (s *Scheme) Snapshot() *config.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := &config.Record{
		SchemeID: s.id,
		Policy:   s.policy.Copy(),
		Shares:   make([]config.ShareRecord, len(s.entries)),
	}
	r.Policy.Prime = s.field.Modulus()
	if s.commitment != nil {
		r.CommitmentKind = s.commitment.Kind()
		r.CommitmentDigest = s.commitment.Digest()
		r.CommitmentPoints = s.commitment.Points()
	}
	for i, e := range s.entries {
		var verified *bool
		if e.verified != nil {
			v := *e.verified
			verified = &v
		}
		r.Shares[i] = config.ShareRecordFrom(e.name, e.share, verified)
	}
	return r
}

// FromRecord rebuilds a scheme from a snapshot, registering its shares in
// order. Cached verification flags are not trusted and are recomputed.
func FromRecord(r *config.Record, opts ...Option) (*Scheme, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	c, err := r.Commitment()
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append([]Option{WithCommitment(c)}, opts...)
	}
	opts = append(opts, WithSchemeID(r.SchemeID))
	s, err := New(r.Policy, opts...)
	if err != nil {
		return nil, err
	}
	shares, err := r.ShamirShares()
	if err != nil {
		return nil, err
	}
	for i, sh := range shares {
		if err := s.Register(Decryptor{Name: r.Shares[i].Name, Share: sh}); err != nil {
			return nil, err
		}
	}
	return s, nil
}
