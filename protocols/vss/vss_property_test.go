package vss_test

import (
	"crypto/rand"
	"testing/quick"

	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/sample"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	"github.com/luxfi/thresholddecrypt/protocols/vss/dealer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Properties", func() {
	It("reconstructs any secret for any valid configuration", func() {
		f := field.Default()
		property := func(nRaw, kRaw uint8, secretRaw uint64) bool {
			n := int(nRaw%14) + 2         // n in [2, 15]
			k := int(kRaw%uint8(n-1)) + 2 // k in [2, n]
			d, err := dealer.New(config.NewPolicy(k, n), commitment.KindNone, dealer.Options{})
			if err != nil {
				return false
			}
			secret := f.Reduce(f.FromUint64(secretRaw))
			round, err := d.Deal(secret)
			if err != nil {
				return false
			}
			s, err := round.Distribute()
			if err != nil {
				return false
			}
			got, err := s.Decrypt()
			return err == nil && f.EqualElements(secret, got)
		}
		Expect(quick.Check(property, &quick.Config{MaxCount: 50})).To(Succeed())
	})

	It("tolerates up to n-k corrupted shares and no more", func() {
		property := func(nRaw, kRaw, badRaw uint8) bool {
			n := int(nRaw%8) + 3
			k := int(kRaw%uint8(n-1)) + 2
			bad := int(badRaw) % (n + 1)

			d, err := dealer.New(config.NewPolicy(k, n), commitment.KindCoefficients, dealer.Options{})
			if err != nil {
				return false
			}
			secret, err := sample.Element(rand.Reader, d.Field())
			if err != nil {
				return false
			}
			round, err := d.Deal(secret)
			if err != nil {
				return false
			}
			s, err := round.Distribute()
			if err != nil {
				return false
			}
			for i := 0; i < bad; i++ {
				if err := s.Corrupt(party.ID(n-i), d.Field().One()); err != nil {
					return false
				}
			}

			got, err := s.Decrypt()
			if bad > n-k {
				return err != nil
			}
			return err == nil && d.Field().EqualElements(secret, got)
		}
		Expect(quick.Check(property, &quick.Config{MaxCount: 40})).To(Succeed())
	})
})
