package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
)

type recordJSON struct {
	SchemeID         string      `json:"scheme_id"`
	PrimeModulus     string      `json:"prime_modulus"` // Decimal
	Threshold        int         `json:"threshold"`
	TotalShares      int         `json:"total_shares"`
	Selection        string      `json:"selection"`
	CrossCheck       bool        `json:"cross_check,omitempty"`
	CommitmentKind   string      `json:"commitment_kind"`
	CommitmentDigest string      `json:"commitment_digest,omitempty"` // Hex encoded
	CommitmentPoints []string    `json:"commitment_points,omitempty"` // Hex encoded
	Shares           []shareJSON `json:"shares"`
}

type shareJSON struct {
	ID       party.ID `json:"id"`
	Name     string   `json:"name,omitempty"`
	Value    string   `json:"value"` // Decimal
	Verified *bool    `json:"verified"`
}

// MarshalJSON implements json.Marshaler
func (r *Record) MarshalJSON() ([]byte, error) {
	points := make([]string, len(r.CommitmentPoints))
	for i, p := range r.CommitmentPoints {
		points[i] = hex.EncodeToString(p)
	}
	shares := make([]shareJSON, len(r.Shares))
	for i, s := range r.Shares {
		if s.Value == nil {
			return nil, fmt.Errorf("vss/config: share %s has no value", s.ID)
		}
		shares[i] = shareJSON{ID: s.ID, Name: s.Name, Value: s.Value.String(), Verified: s.Verified}
	}

	out := &recordJSON{
		SchemeID:         r.SchemeID.String(),
		PrimeModulus:     r.Policy.Modulus().String(),
		Threshold:        r.Policy.Threshold,
		TotalShares:      r.Policy.Total,
		Selection:        r.Policy.Selection.String(),
		CrossCheck:       r.Policy.CrossCheck,
		CommitmentKind:   r.CommitmentKind.String(),
		CommitmentDigest: hex.EncodeToString(r.CommitmentDigest),
		CommitmentPoints: points,
		Shares:           shares,
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	id, err := uuid.Parse(in.SchemeID)
	if err != nil {
		return fmt.Errorf("vss/config: failed to parse scheme id: %w", err)
	}
	prime, ok := new(big.Int).SetString(in.PrimeModulus, 10)
	if !ok {
		return fmt.Errorf("vss/config: invalid prime modulus %q", in.PrimeModulus)
	}
	sel, err := shamir.ParseSelection(in.Selection)
	if err != nil {
		return fmt.Errorf("vss/config: %w", err)
	}
	kind, err := commitment.ParseKind(in.CommitmentKind)
	if err != nil {
		return fmt.Errorf("vss/config: %w", err)
	}
	digest, err := hex.DecodeString(in.CommitmentDigest)
	if err != nil {
		return fmt.Errorf("vss/config: failed to decode commitment digest: %w", err)
	}
	points := make([][]byte, len(in.CommitmentPoints))
	for i, p := range in.CommitmentPoints {
		if points[i], err = hex.DecodeString(p); err != nil {
			return fmt.Errorf("vss/config: failed to decode commitment point %d: %w", i, err)
		}
	}
	shares := make([]ShareRecord, len(in.Shares))
	for i, s := range in.Shares {
		v, ok := new(big.Int).SetString(s.Value, 10)
		if !ok {
			return fmt.Errorf("vss/config: invalid value for share %s", s.ID)
		}
		shares[i] = ShareRecord{ID: s.ID, Name: s.Name, Value: v, Verified: s.Verified}
	}

	*r = Record{
		SchemeID: id,
		Policy: Policy{
			Threshold:  in.Threshold,
			Total:      in.TotalShares,
			Prime:      prime,
			Selection:  sel,
			CrossCheck: in.CrossCheck,
		},
		CommitmentKind:   kind,
		CommitmentDigest: digest,
		CommitmentPoints: points,
		Shares:           shares,
	}
	return nil
}

type recordCBOR struct {
	_                struct{} `cbor:",toarray"`
	SchemeID         []byte   // 16 bytes
	PrimeModulus     []byte   // Big-endian
	Threshold        int
	TotalShares      int
	Selection        uint8
	CrossCheck       bool
	CommitmentKind   uint8
	CommitmentDigest []byte
	CommitmentPoints [][]byte
	Shares           []shareCBOR
}

type shareCBOR struct {
	_        struct{} `cbor:",toarray"`
	ID       uint32
	Name     string
	Value    []byte // Big-endian
	Verified *bool
}

var encMode = sync.OnceValues(func() (cbor.EncMode, error) {
	return cbor.CoreDetEncOptions().EncMode()
})

// MarshalCBOR implements cbor.Marshaler using core deterministic encoding, so
// equal records always encode to identical bytes.
func (r *Record) MarshalCBOR() ([]byte, error) {
	em, err := encMode()
	if err != nil {
		return nil, err
	}
	shares := make([]shareCBOR, len(r.Shares))
	for i, s := range r.Shares {
		if s.Value == nil {
			return nil, fmt.Errorf("vss/config: share %s has no value", s.ID)
		}
		shares[i] = shareCBOR{ID: uint32(s.ID), Name: s.Name, Value: s.Value.Bytes(), Verified: s.Verified}
	}
	out := recordCBOR{
		SchemeID:         r.SchemeID[:],
		PrimeModulus:     r.Policy.Modulus().Bytes(),
		Threshold:        r.Policy.Threshold,
		TotalShares:      r.Policy.Total,
		Selection:        uint8(r.Policy.Selection),
		CrossCheck:       r.Policy.CrossCheck,
		CommitmentKind:   uint8(r.CommitmentKind),
		CommitmentDigest: r.CommitmentDigest,
		CommitmentPoints: r.CommitmentPoints,
		Shares:           shares,
	}
	return em.Marshal(out)
}

// UnmarshalCBOR implements cbor.Unmarshaler
func (r *Record) UnmarshalCBOR(data []byte) error {
	var in recordCBOR
	if err := cbor.Unmarshal(data, &in); err != nil {
		return err
	}
	id, err := uuid.FromBytes(in.SchemeID)
	if err != nil {
		return fmt.Errorf("vss/config: failed to parse scheme id: %w", err)
	}
	shares := make([]ShareRecord, len(in.Shares))
	for i, s := range in.Shares {
		shares[i] = ShareRecord{
			ID:       party.ID(s.ID),
			Name:     s.Name,
			Value:    new(big.Int).SetBytes(s.Value),
			Verified: s.Verified,
		}
	}
	*r = Record{
		SchemeID: id,
		Policy: Policy{
			Threshold:  in.Threshold,
			Total:      in.TotalShares,
			Prime:      new(big.Int).SetBytes(in.PrimeModulus),
			Selection:  shamir.Selection(in.Selection),
			CrossCheck: in.CrossCheck,
		},
		CommitmentKind:   commitment.Kind(in.CommitmentKind),
		CommitmentDigest: in.CommitmentDigest,
		CommitmentPoints: in.CommitmentPoints,
		Shares:           shares,
	}
	return nil
}
