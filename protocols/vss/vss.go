// Package vss implements a threshold decryption committee on top of
// verifiable Shamir secret sharing.
//
// Decryptors register their shares with a Scheme. Once at least Threshold
// shares are present the scheme can reconstruct the secret; when a commitment
// is configured every share is first checked against it and corrupted
// (Byzantine) shares are excluded from reconstruction.
//
// A scheme moves through the states
//
//	Configured → Collecting → Reconstructable → Decrypted
//
// and Decrypted is terminal.
package vss

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/logging"
	"github.com/luxfi/thresholddecrypt/pkg/metrics"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/protocol"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"go.uber.org/zap"
)

var _ protocol.Scheme = (*Scheme)(nil)

// Decryptor is a committee member submitting its share.
type Decryptor struct {
	// Name identifies the holder. Empty names default to "decryptor-<id>".
	Name  string
	Share shamir.Share
}

// DefaultName is the name given to the holder of id.
func DefaultName(id party.ID) string {
	return fmt.Sprintf("decryptor-%s", id)
}

// State is the lifecycle stage of a Scheme.
type State uint8

const (
	// StateConfigured means no share has been registered yet.
	StateConfigured State = iota
	// StateCollecting means some, but fewer than Threshold, shares are registered.
	StateCollecting
	// StateReconstructable means at least Threshold shares are registered.
	StateReconstructable
	// StateDecrypted means the secret has been reconstructed.
	StateDecrypted
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateCollecting:
		return "collecting"
	case StateReconstructable:
		return "reconstructable"
	case StateDecrypted:
		return "decrypted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Option configures a Scheme.
type Option func(*Scheme)

// WithCommitment enables share verification against c.
func WithCommitment(c commitment.Commitment) Option {
	return func(s *Scheme) {
		s.commitment = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheme) {
		s.log = logging.OrNop(l)
	}
}

// WithMetrics records registrations and reconstructions in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheme) {
		s.metrics = m
	}
}

// WithSchemeID overrides the randomly generated scheme id.
func WithSchemeID(id uuid.UUID) Option {
	return func(s *Scheme) {
		s.id = id
	}
}
