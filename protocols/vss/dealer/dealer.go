// Package dealer splits a secret for a decryptor committee and publishes the
// matching commitment.
package dealer

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/logging"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	"go.uber.org/zap"
)

// Options configures a Dealer.
type Options struct {
	// Rand is the coefficient source. Nil selects crypto/rand.
	Rand io.Reader
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Dealer runs sharing rounds for a fixed policy.
type Dealer struct {
	mu sync.Mutex

	policy config.Policy
	field  *field.Field
	kind   commitment.Kind
	rand   io.Reader
	log    *zap.Logger

	rounds int
}

// Round is the output of one sharing: the shares, who receives them and the
// public commitment.
type Round struct {
	ID         uuid.UUID
	Policy     config.Policy
	Shares     []shamir.Share
	Commitment commitment.Commitment
	Decryptors []vss.Decryptor
}

// New returns a dealer producing commitments of the given kind.
func New(policy config.Policy, kind commitment.Kind, opts Options) (*Dealer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	f, err := policy.Field()
	if err != nil {
		return nil, err
	}
	if kind == commitment.KindFeldman && !f.Equal(field.Secp256k1()) {
		return nil, fmt.Errorf("vss/dealer: %w: feldman needs the secp256k1 scalar field", commitment.ErrFieldMismatch)
	}
	if _, ok := kindSupported[kind]; !ok {
		return nil, fmt.Errorf("vss/dealer: %w: %s", commitment.ErrUnknownKind, kind)
	}
	d := &Dealer{
		policy: policy.Copy(),
		field:  f,
		kind:   kind,
		rand:   opts.Rand,
		log:    logging.OrNop(opts.Logger),
	}
	if d.rand == nil {
		d.rand = rand.Reader
	}
	return d, nil
}

var kindSupported = map[commitment.Kind]struct{}{
	commitment.KindNone:         {},
	commitment.KindCoefficients: {},
	commitment.KindFeldman:      {},
	commitment.KindDiscreteLog:  {},
}

// Field returns the sharing field.
func (d *Dealer) Field() *field.Field { return d.field }

// Rounds returns how many rounds have been dealt.
func (d *Dealer) Rounds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rounds
}

// Deal shares secret with fresh random coefficients.
func (d *Dealer) Deal(secret *saferith.Nat) (*Round, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	shares, poly, err := shamir.Deal(d.rand, d.field, secret, d.policy.Threshold, d.policy.Total)
	if err != nil {
		return nil, fmt.Errorf("vss/dealer: %w", err)
	}

	r := &Round{
		ID:         uuid.New(),
		Policy:     d.policy.Copy(),
		Shares:     shares,
		Decryptors: make([]vss.Decryptor, len(shares)),
	}
	if d.kind != commitment.KindNone {
		if r.Commitment, err = commitment.New(d.kind, d.field, poly); err != nil {
			return nil, fmt.Errorf("vss/dealer: %w", err)
		}
	}
	for i, s := range shares {
		r.Decryptors[i] = vss.Decryptor{Name: vss.DefaultName(s.ID), Share: s}
	}
	d.rounds++

	d.log.Debug("round dealt",
		zap.String("round", r.ID.String()),
		zap.Int("threshold", d.policy.Threshold),
		zap.Int("total", d.policy.Total),
		zap.Stringer("commitment", d.kind))
	return r, nil
}

// Scheme returns an empty scheme for the round, wired to its commitment.
func (r *Round) Scheme(opts ...vss.Option) (*vss.Scheme, error) {
	base := []vss.Option{vss.WithSchemeID(r.ID)}
	if r.Commitment != nil {
		base = append(base, vss.WithCommitment(r.Commitment))
	}
	return vss.New(r.Policy, append(base, opts...)...)
}

// Distribute returns a scheme with every decryptor of the round registered.
func (r *Round) Distribute(opts ...vss.Option) (*vss.Scheme, error) {
	s, err := r.Scheme(opts...)
	if err != nil {
		return nil, err
	}
	for _, d := range r.Decryptors {
		if err := s.Register(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}
