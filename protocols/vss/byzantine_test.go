package vss_test

import (
	"errors"

	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	"github.com/luxfi/thresholddecrypt/protocols/vss/dealer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Byzantine decryptors", func() {
	var (
		f      *field.Field
		shares []shamir.Share
		s      *vss.Scheme
	)

	BeforeEach(func() {
		var c commitment.Commitment
		f, shares, c = linearRound()
		var err error
		s, err = vss.New(config.NewPolicy(3, 5), vss.WithCommitment(c))
		Expect(err).NotTo(HaveOccurred())
		register(s, shares, 1, 2, 3, 4, 5)
	})

	It("flags a share shifted by 999 and reconstructs without it", func() {
		Expect(s.Corrupt(2, f.FromUint64(999))).To(Succeed())

		got, ok := s.Share(2)
		Expect(ok).To(BeTrue())
		Expect(f.Format(got.Value)).To(Equal("1061"))
		Expect(s.Commitment().Verify(2, got.Value)).To(BeFalse())
		for _, id := range []party.ID{1, 3, 4, 5} {
			honest, _ := s.Share(id)
			Expect(s.Commitment().Verify(id, honest.Value)).To(BeTrue())
		}

		report, err := s.DetectByzantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Registered).To(Equal(5))
		Expect(report.Verified).To(Equal(4))
		Expect(report.Corrupted).To(Equal(party.IDSlice{2}))
		Expect(report.Tolerated(3)).To(BeTrue())

		secret, err := s.DecryptWith([]party.ID{1, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Format(secret)).To(Equal("42"))
	})

	It("drops corrupted shares from an automatic reconstruction", func() {
		Expect(s.Corrupt(1, f.One())).To(Succeed())
		Expect(s.Corrupt(3, f.FromUint64(7))).To(Succeed())
		secret, err := s.Decrypt()
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Format(secret)).To(Equal("42"))
	})

	It("drops corrupted shares from a chosen set", func() {
		Expect(s.Corrupt(2, f.FromUint64(999))).To(Succeed())
		_, err := s.DecryptWith([]party.ID{1, 2, 3})
		Expect(err).To(MatchError(shamir.ErrInsufficientVerifiedShares))

		secret, err := s.DecryptWith([]party.ID{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Format(secret)).To(Equal("42"))
	})

	It("fails when more than n-k shares are corrupted", func() {
		for _, id := range []party.ID{5, 2, 4} {
			Expect(s.Corrupt(id, f.One())).To(Succeed())
		}
		_, err := s.Decrypt()
		Expect(err).To(MatchError(shamir.ErrInsufficientVerifiedShares))

		var insufficient *shamir.InsufficientVerifiedSharesError
		Expect(errors.As(err, &insufficient)).To(BeTrue())
		Expect(insufficient.Verified).To(Equal(2))
		Expect(insufficient.Threshold).To(Equal(3))
		Expect(insufficient.Corrupted).To(Equal(party.IDSlice{2, 4, 5}))
		Expect(s.State()).To(Equal(vss.StateReconstructable))

		report, err := s.DetectByzantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Tolerated(3)).To(BeFalse())
	})

	It("re-verifies a share after it changes", func() {
		report, err := s.DetectByzantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Corrupted).To(BeEmpty())

		Expect(s.Corrupt(3, f.One())).To(Succeed())
		report, err = s.DetectByzantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Corrupted).To(Equal(party.IDSlice{3}))

		// Subtracting the delta again restores the honest share.
		Expect(s.Corrupt(3, f.Neg(f.One()))).To(Succeed())
		report, err = s.DetectByzantine()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Corrupted).To(BeEmpty())
	})

	It("rejects corruption of an unknown id", func() {
		Expect(s.Corrupt(6, f.One())).To(MatchError(shamir.ErrInvalidShare))
	})

	It("needs a commitment to detect anything", func() {
		plain, err := vss.New(config.NewPolicy(3, 5))
		Expect(err).NotTo(HaveOccurred())
		register(plain, shares, 1, 2, 3)
		_, err = plain.DetectByzantine()
		Expect(err).To(MatchError(shamir.ErrNoCommitment))
	})

	DescribeTable("every commitment kind isolates the corrupted share",
		func(policy config.Policy, kind commitment.Kind) {
			d, err := dealer.New(policy, kind, dealer.Options{})
			Expect(err).NotTo(HaveOccurred())
			secret := d.Field().FromUint64(123456)
			round, err := d.Deal(secret)
			Expect(err).NotTo(HaveOccurred())
			scheme, err := round.Distribute()
			Expect(err).NotTo(HaveOccurred())

			Expect(scheme.Corrupt(2, d.Field().FromUint64(999))).To(Succeed())
			report, err := scheme.DetectByzantine()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Corrupted).To(Equal(party.IDSlice{2}))

			got, err := scheme.Decrypt()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Field().EqualElements(secret, got)).To(BeTrue())
		},
		Entry("coefficients", config.NewPolicy(3, 5), commitment.KindCoefficients),
		Entry("dlog", config.NewPolicy(3, 5), commitment.KindDiscreteLog),
		Entry("feldman", config.Policy{Threshold: 3, Total: 5, Prime: field.Secp256k1().Modulus()}, commitment.KindFeldman),
	)
})
