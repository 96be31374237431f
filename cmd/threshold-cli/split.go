package main

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/math/sample"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
	"github.com/luxfi/thresholddecrypt/protocols/vss/dealer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// policyFlags adds the flags read by (*app).policy.
func policyFlags(fs *pflag.FlagSet) {
	fs.IntP("threshold", "k", 3, "shares needed to reconstruct")
	fs.IntP("total", "n", 5, "shares dealt")
	fs.String("prime", "", "field modulus, decimal or 0x hex, or \"secp256k1\" (default 1000000007)")
	fs.String("commitment", commitment.KindDiscreteLog.String(), "commitment kind: "+kindNames())
	fs.String("selection", shamir.SelectLowestIDs.String(), "share selection: lowest-ids, registration-order")
	fs.Bool("cross-check", false, "check every extra share against the reconstructed polynomial")
	fs.String("seed", "", "derive coefficients from this seed instead of crypto/rand (simulations only)")
}

func kindNames() string {
	names := []string{commitment.KindNone.String()}
	for _, k := range commitment.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

// policy reads the committee configuration from the bound flags.
func (a *app) policy() (config.Policy, commitment.Kind, error) {
	kind, err := commitment.ParseKind(a.v.GetString("commitment"))
	if err != nil {
		return config.Policy{}, 0, err
	}
	sel, err := shamir.ParseSelection(a.v.GetString("selection"))
	if err != nil {
		return config.Policy{}, 0, err
	}
	policy := config.NewPolicy(a.v.GetInt("threshold"), a.v.GetInt("total"))
	policy.Selection = sel
	policy.CrossCheck = a.v.GetBool("cross-check")

	switch prime := a.v.GetString("prime"); {
	case strings.EqualFold(prime, "secp256k1"):
		policy.Prime = field.Secp256k1().Modulus()
	case prime != "":
		p, ok := new(big.Int).SetString(prime, 0)
		if !ok {
			return config.Policy{}, 0, fmt.Errorf("invalid prime %q", prime)
		}
		policy.Prime = p
	case kind == commitment.KindFeldman:
		policy.Prime = field.Secp256k1().Modulus()
	}
	return policy, kind, policy.Validate()
}

// dealer returns a dealer for the bound flags.
func (a *app) dealer() (*dealer.Dealer, error) {
	policy, kind, err := a.policy()
	if err != nil {
		return nil, err
	}
	opts := dealer.Options{Logger: a.log}
	if seed := a.v.GetString("seed"); seed != "" {
		opts.Rand = sample.NewSeededReader([]byte(seed))
	}
	return dealer.New(policy, kind, opts)
}

func parseSecret(f *field.Field, s string) (*saferith.Nat, error) {
	x, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("invalid secret %q", s)
	}
	if !f.Contains(x) {
		return nil, fmt.Errorf("secret must be in [0, %s)", f)
	}
	return f.FromBig(x)
}

func (a *app) splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a secret into shares and write the share table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.dealer()
			if err != nil {
				return err
			}
			raw := a.v.GetString("secret")
			if raw == "" {
				return fmt.Errorf("no secret given")
			}
			secret, err := parseSecret(d.Field(), raw)
			if err != nil {
				return err
			}
			round, err := d.Deal(secret)
			if err != nil {
				return err
			}
			s, err := round.Distribute(vss.WithLogger(a.log))
			if err != nil {
				return err
			}
			if s.Commitment() != nil {
				// Fills in the verified flags of the record.
				if _, err := s.DetectByzantine(); err != nil {
					return err
				}
			}

			output := a.v.GetString("output")
			if err := writeRecord(cmd.OutOrStdout(), output, s.Snapshot()); err != nil {
				return err
			}
			if output != "" && output != "-" {
				printRound(cmd.OutOrStdout(), round, output)
			}
			a.log.Info("secret split",
				zap.String("scheme", s.ID().String()),
				zap.Int("threshold", s.Threshold()),
				zap.Int("total", s.Total()))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringP("secret", "s", "", "secret to share, decimal or 0x hex")
	fs.StringP("output", "o", "", "record file, .json or .cbor (default stdout, JSON)")
	policyFlags(fs)
	return cmd
}

func printRound(w io.Writer, r *dealer.Round, path string) {
	fmt.Fprintf(w, "scheme:     %s\n", r.ID)
	fmt.Fprintf(w, "policy:     %d-of-%d over %s\n", r.Policy.Threshold, r.Policy.Total, r.Policy.Modulus())
	if r.Commitment != nil {
		fmt.Fprintf(w, "commitment: %s %x\n", r.Commitment.Kind(), r.Commitment.Digest())
	} else {
		fmt.Fprintf(w, "commitment: none\n")
	}
	fmt.Fprintf(w, "shares:     %d written to %s\n", len(r.Shares), path)
}
