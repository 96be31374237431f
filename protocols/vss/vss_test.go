package vss_test

import (
	"errors"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/google/uuid"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/metrics"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// linearRound shares 42 + 10x as a 3-of-5 round over the default field.
func linearRound() (*field.Field, []shamir.Share, commitment.Commitment) {
	f := field.Default()
	shares, poly, err := shamir.Split(f, f.FromUint64(42), 3, 5, []*saferith.Nat{f.FromUint64(10), f.Zero()})
	Expect(err).NotTo(HaveOccurred())
	c, err := commitment.New(commitment.KindCoefficients, f, poly)
	Expect(err).NotTo(HaveOccurred())
	return f, shares, c
}

func register(s *vss.Scheme, shares []shamir.Share, ids ...party.ID) {
	for _, id := range ids {
		Expect(s.Register(vss.Decryptor{Share: shares[id-1]})).To(Succeed())
	}
}

var _ = Describe("Scheme", func() {
	var (
		f      *field.Field
		shares []shamir.Share
		c      commitment.Commitment
	)

	BeforeEach(func() {
		f, shares, c = linearRound()
	})

	Describe("Construction", func() {
		It("rejects a threshold above the total", func() {
			_, err := vss.New(config.NewPolicy(5, 3))
			Expect(err).To(MatchError(shamir.ErrConfigInvalid))
		})

		It("rejects a threshold below two", func() {
			_, err := vss.New(config.NewPolicy(1, 3))
			Expect(err).To(MatchError(shamir.ErrConfigInvalid))
		})

		It("rejects a commitment over another field", func() {
			_, err := vss.New(config.Policy{Threshold: 3, Total: 5, Prime: field.Secp256k1().Modulus()}, vss.WithCommitment(c))
			Expect(err).To(MatchError(commitment.ErrFieldMismatch))
		})

		It("rejects a commitment with another threshold", func() {
			_, err := vss.New(config.NewPolicy(2, 5), vss.WithCommitment(c))
			Expect(err).To(MatchError(shamir.ErrConfigInvalid))
		})

		It("starts configured", func() {
			id := uuid.New()
			s, err := vss.New(config.NewPolicy(3, 5), vss.WithSchemeID(id))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ID()).To(Equal(id))
			Expect(s.State()).To(Equal(vss.StateConfigured))
			Expect(s.CanDecrypt()).To(BeFalse())
			Expect(s.Threshold()).To(Equal(3))
			Expect(s.Total()).To(Equal(5))
		})
	})

	Describe("Reconstruction", func() {
		var s *vss.Scheme

		BeforeEach(func() {
			var err error
			s, err = vss.New(config.NewPolicy(3, 5), vss.WithCommitment(c))
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces the expected shares", func() {
			for i, want := range []string{"52", "62", "72", "82", "92"} {
				Expect(f.Format(shares[i].Value)).To(Equal(want))
			}
		})

		DescribeTable("recovers the secret from any three shares",
			func(ids []party.ID) {
				register(s, shares, ids...)
				Expect(s.State()).To(Equal(vss.StateReconstructable))
				secret, err := s.Decrypt()
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Format(secret)).To(Equal("42"))
				Expect(s.State()).To(Equal(vss.StateDecrypted))
			},
			Entry("{1,2,3}", []party.ID{1, 2, 3}),
			Entry("{2,3,4}", []party.ID{2, 3, 4}),
			Entry("{1,3,5}", []party.ID{1, 3, 5}),
		)

		It("refuses to decrypt below the threshold", func() {
			register(s, shares, 1, 2)
			Expect(s.State()).To(Equal(vss.StateCollecting))
			Expect(s.CanDecrypt()).To(BeFalse())
			_, err := s.Decrypt()
			Expect(err).To(MatchError(shamir.ErrInsufficientShares))
			Expect(s.State()).To(Equal(vss.StateCollecting))
		})

		It("is idempotent and final", func() {
			register(s, shares, 1, 2, 3)
			first, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			second, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.EqualElements(first, second)).To(BeTrue())

			err = s.Register(vss.Decryptor{Share: shares[3]})
			Expect(err).To(MatchError(shamir.ErrFinalized))
			Expect(s.Corrupt(1, f.One())).To(MatchError(shamir.ErrFinalized))
		})

		It("decrypts with a caller-chosen set", func() {
			register(s, shares, 1, 2, 3, 4, 5)
			_, err := s.DecryptWith([]party.ID{1, 2})
			Expect(err).To(MatchError(shamir.ErrInsufficientShares))
			_, err = s.DecryptWith([]party.ID{1, 1, 2})
			Expect(err).To(MatchError(shamir.ErrDuplicateParticipant))

			secret, err := s.DecryptWith([]party.ID{5, 1, 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
		})

		It("checks an over-determined set for agreement", func() {
			s, err := vss.New(config.NewPolicy(3, 5))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 1, 2, 3, 4, 5)
			Expect(s.Corrupt(2, f.FromUint64(999))).To(Succeed())

			_, err = s.DecryptWith([]party.ID{1, 2, 3, 4, 5})
			Expect(err).To(MatchError(shamir.ErrInconsistentShares))
			var inconsistent *shamir.InconsistentSharesError
			Expect(errors.As(err, &inconsistent)).To(BeTrue())
			Expect(inconsistent.IDs).To(Equal(party.IDSlice{4, 5}))
			Expect(s.State()).To(Equal(vss.StateReconstructable))

			secret, err := s.DecryptWith([]party.ID{5, 1, 3, 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
		})

		It("refuses another set once decrypted", func() {
			s, err := vss.New(config.NewPolicy(3, 5))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 1, 2, 3, 4, 5)
			Expect(s.Corrupt(2, f.FromUint64(999))).To(Succeed())

			secret, err := s.DecryptWith([]party.ID{1, 3, 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
			Expect(s.State()).To(Equal(vss.StateDecrypted))

			_, err = s.DecryptWith([]party.ID{1, 2, 3})
			Expect(err).To(MatchError(shamir.ErrFinalized))
			again, err := s.DecryptWith([]party.ID{4, 3, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(again)).To(Equal("42"))
			cached, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(cached)).To(Equal("42"))
		})

		It("rejects unregistered ids in a chosen set", func() {
			register(s, shares, 1, 2, 3)
			_, err := s.DecryptWith([]party.ID{1, 2, 4})
			Expect(err).To(MatchError(shamir.ErrInvalidShare))
		})
	})

	Describe("Registration", func() {
		var s *vss.Scheme

		BeforeEach(func() {
			var err error
			s, err = vss.New(config.NewPolicy(3, 5))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects duplicate ids and names", func() {
			register(s, shares, 1)
			err := s.Register(vss.Decryptor{Name: "other", Share: shares[0]})
			Expect(err).To(MatchError(shamir.ErrDuplicateParticipant))
			err = s.Register(vss.Decryptor{Name: "decryptor-1", Share: shares[1]})
			Expect(err).To(MatchError(shamir.ErrDuplicateParticipant))
			Expect(s.Registered()).To(Equal(party.IDSlice{1}))
		})

		It("rejects invalid shares", func() {
			Expect(s.Register(vss.Decryptor{Share: shamir.Share{ID: 0, Value: f.One()}})).To(MatchError(shamir.ErrInvalidShare))
			Expect(s.Register(vss.Decryptor{Share: shamir.Share{ID: 6, Value: f.One()}})).To(MatchError(shamir.ErrInvalidShare))
			Expect(s.Register(vss.Decryptor{Share: shamir.Share{ID: 1}})).To(MatchError(shamir.ErrInvalidShare))
			tooLarge := new(saferith.Nat).SetUint64(field.DefaultPrime + 1)
			Expect(s.Register(vss.Decryptor{Share: shamir.Share{ID: 1, Value: tooLarge}})).To(MatchError(shamir.ErrInvalidShare))
			Expect(s.State()).To(Equal(vss.StateConfigured))
		})

		It("stays usable when capacity is exceeded", func() {
			s, err := vss.New(config.NewPolicy(2, 3))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 1, 2, 3)
			err = s.Register(vss.Decryptor{Share: shares[3]})
			Expect(err).To(MatchError(shamir.ErrCapacityExceeded))
			Expect(s.Registered()).To(HaveLen(3))
			// 42 + 10x has degree one, so two shares already determine it.
			secret, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
		})

		It("serializes concurrent registrations", func() {
			var wg sync.WaitGroup
			errs := make([]error, len(shares))
			for i := range shares {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = s.Register(vss.Decryptor{Share: shares[i]})
				}()
			}
			wg.Wait()
			Expect(errors.Join(errs...)).NotTo(HaveOccurred())
			Expect(s.Registered().Sorted()).To(Equal(party.IDSlice{1, 2, 3, 4, 5}))
		})
	})

	Describe("Selection", func() {
		It("uses the lowest ids by default", func() {
			s, err := vss.New(config.NewPolicy(3, 5))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 5, 4, 3)
			Expect(s.Corrupt(5, f.One())).To(Succeed())
			Expect(s.Register(vss.Decryptor{Share: shares[0]})).To(Succeed())

			// {1,3,4} is honest; registration order would pick the corrupted 5.
			secret, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
		})

		It("can follow registration order", func() {
			policy := config.NewPolicy(3, 5)
			policy.Selection = shamir.SelectRegistrationOrder
			s, err := vss.New(policy)
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 5, 4, 3)
			Expect(s.Corrupt(1, f.One())).To(MatchError(shamir.ErrInvalidShare))
			Expect(s.Register(vss.Decryptor{Share: shares[0]})).To(Succeed())
			Expect(s.Corrupt(1, f.One())).To(Succeed())

			secret, err := s.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Format(secret)).To(Equal("42"))
		})

		It("detects disagreement when cross-checking", func() {
			policy := config.NewPolicy(3, 5)
			policy.CrossCheck = true
			s, err := vss.New(policy)
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 1, 2, 3, 4, 5)
			Expect(s.Corrupt(4, f.FromUint64(999))).To(Succeed())

			_, err = s.Decrypt()
			Expect(err).To(MatchError(shamir.ErrInconsistentShares))
			var inconsistent *shamir.InconsistentSharesError
			Expect(errors.As(err, &inconsistent)).To(BeTrue())
			Expect(inconsistent.IDs).To(Equal(party.IDSlice{4}))
			Expect(s.State()).To(Equal(vss.StateReconstructable))
		})

		It("cross-checks against the selected shares", func() {
			policy := config.NewPolicy(3, 5)
			policy.Selection = shamir.SelectRegistrationOrder
			policy.CrossCheck = true
			s, err := vss.New(policy)
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 5, 4, 3, 1)
			Expect(s.Corrupt(1, f.One())).To(Succeed())

			_, err = s.Decrypt()
			var inconsistent *shamir.InconsistentSharesError
			Expect(errors.As(err, &inconsistent)).To(BeTrue())
			Expect(inconsistent.IDs).To(Equal(party.IDSlice{1}))
		})
	})

	Describe("Snapshot", func() {
		It("round trips through a record", func() {
			s, err := vss.New(config.NewPolicy(3, 5), vss.WithCommitment(c))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 2, 1, 4)
			Expect(s.Corrupt(4, f.FromUint64(999))).To(Succeed())
			_, err = s.DetectByzantine()
			Expect(err).NotTo(HaveOccurred())

			r := s.Snapshot()
			Expect(r.SchemeID).To(Equal(s.ID()))
			Expect(r.CommitmentKind).To(Equal(commitment.KindCoefficients))
			Expect(r.Shares).To(HaveLen(3))
			Expect(r.Shares[0].ID).To(Equal(party.ID(2)))
			Expect(*r.Shares[2].Verified).To(BeFalse())
			Expect(r.Validate()).To(Succeed())

			restored, err := vss.FromRecord(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.ID()).To(Equal(s.ID()))
			Expect(restored.Registered()).To(Equal(party.IDSlice{2, 1, 4}))
			report, err := restored.DetectByzantine()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Corrupted).To(Equal(party.IDSlice{4}))
		})
	})

	Describe("Metrics", func() {
		It("records registrations and outcomes", func() {
			m := metrics.New(prometheus.NewRegistry())
			s, err := vss.New(config.NewPolicy(3, 5), vss.WithCommitment(c), vss.WithMetrics(m))
			Expect(err).NotTo(HaveOccurred())
			register(s, shares, 1, 2)
			_, err = s.Decrypt()
			Expect(err).To(HaveOccurred())
			register(s, shares, 3, 4)
			Expect(s.Corrupt(4, f.One())).To(Succeed())
			_, err = s.Decrypt()
			Expect(err).NotTo(HaveOccurred())

			Expect(testutil.ToFloat64(m.SharesRegistered)).To(Equal(4.0))
			Expect(testutil.ToFloat64(m.CorruptedShares)).To(Equal(1.0))
			Expect(testutil.ToFloat64(m.Reconstructions.WithLabelValues(metrics.StatusInsufficient))).To(Equal(1.0))
			Expect(testutil.ToFloat64(m.Reconstructions.WithLabelValues(metrics.StatusSuccess))).To(Equal(1.0))
		})
	})
})
