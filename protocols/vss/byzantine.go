package vss

import (
	"fmt"
	"runtime"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report summarizes the verification of all registered shares.
type Report struct {
	Registered int
	Verified   int
	// Corrupted lists the ids failing verification in ascending order.
	Corrupted party.IDSlice
}

// Tolerated reports whether enough shares remain to reconstruct.
func (r Report) Tolerated(threshold int) bool {
	return r.Verified >= threshold
}

// DetectByzantine verifies every registered share against the commitment.
// Each share is verified once; later calls reuse the cached result.
func (s *Scheme) DetectByzantine() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitment == nil {
		return Report{}, fmt.Errorf("vss: %w", shamir.ErrNoCommitment)
	}
	s.verifyLocked(s.entries)

	r := Report{Registered: len(s.entries)}
	for _, e := range s.entries {
		if *e.verified {
			r.Verified++
		} else {
			r.Corrupted = append(r.Corrupted, e.share.ID)
		}
	}
	r.Corrupted = r.Corrupted.Sorted()
	return r, nil
}

// verifyLocked fills in the missing verification flags of entries.
func (s *Scheme) verifyLocked(entries []*entry) {
	var pending []*entry
	for _, e := range entries {
		if e.verified == nil {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return
	}

	results := make([]bool, len(pending))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range pending {
		g.Go(func() error {
			results[i] = s.commitment.Verify(e.share.ID, e.share.Value)
			return nil
		})
	}
	_ = g.Wait()

	corrupted := 0
	for i, e := range pending {
		ok := results[i]
		e.verified = &ok
		if !ok {
			corrupted++
			s.log.Warn("share failed verification",
				zap.Uint32("id", uint32(e.share.ID)),
				zap.String("decryptor", e.name))
		}
	}
	s.metrics.SharesCorrupted(corrupted)
}

// Corrupt adds delta to the registered share of id, modelling a Byzantine
// decryptor. It exists for simulations and tests.
func (s *Scheme) Corrupt(id party.ID, delta *saferith.Nat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDecrypted {
		return fmt.Errorf("vss: %w", shamir.ErrFinalized)
	}
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("vss: %w: %s is not registered", shamir.ErrInvalidShare, id)
	}
	e.share.Value = s.field.Add(e.share.Value, delta)
	e.verified = nil
	s.log.Debug("share corrupted", zap.Uint32("id", uint32(id)))
	return nil
}

// Share returns the registered share of id.
func (s *Scheme) Share(id party.ID) (shamir.Share, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return shamir.Share{}, false
	}
	return shamir.Share{ID: id, Value: new(saferith.Nat).SetNat(e.share.Value)}, true
}
