package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/luxfi/thresholddecrypt/pkg/math/sample"
	"github.com/luxfi/thresholddecrypt/pkg/metrics"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// simulation is the outcome of a run of Byzantine rounds.
type simulation struct {
	Rounds    int
	Recovered int
	// Wrong counts rounds that returned a secret other than the dealt one,
	// which only happens without a commitment.
	Wrong  int
	Failed int
}

func (a *app) simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run reproducible rounds with Byzantine decryptors",
		Long: `Deal a secret, corrupt the shares of randomly chosen decryptors and try to
reconstruct. The same seed always deals the same shares and corrupts the
same decryptors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed := a.v.GetString("seed")
			if seed == "" {
				return fmt.Errorf("simulate needs a seed")
			}
			d, err := a.dealer()
			if err != nil {
				return err
			}
			secret, err := parseSecret(d.Field(), a.v.GetString("secret"))
			if err != nil {
				return err
			}
			total, corrupt, rounds := a.v.GetInt("total"), a.v.GetInt("corrupt"), a.v.GetInt("rounds")
			if corrupt < 0 || corrupt > total {
				return fmt.Errorf("cannot corrupt %d of %d decryptors", corrupt, total)
			}
			if rounds < 1 {
				return fmt.Errorf("rounds must be positive")
			}

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			rng := rand.New(rand.NewChaCha8(blake3.Sum256([]byte("ids/" + seed))))
			deltas := sample.NewSeededReader([]byte("deltas/" + seed))
			w := cmd.OutOrStdout()

			var sim simulation
			for i := 0; i < rounds; i++ {
				round, err := d.Deal(secret)
				if err != nil {
					return err
				}
				s, err := round.Distribute(vss.WithLogger(a.log), vss.WithMetrics(m))
				if err != nil {
					return err
				}
				bad := pickIDs(rng, total, corrupt)
				for _, id := range bad {
					delta, err := sample.NonZero(deltas, d.Field())
					if err != nil {
						return err
					}
					if err := s.Corrupt(id, delta); err != nil {
						return err
					}
				}

				detected := "-"
				if s.Commitment() != nil {
					report, err := s.DetectByzantine()
					if err != nil {
						return err
					}
					detected = "[" + report.Corrupted.String() + "]"
				}

				sim.Rounds++
				got, err := s.Decrypt()
				outcome := "recovered"
				switch {
				case err != nil:
					sim.Failed++
					outcome = "failed: " + err.Error()
				case !d.Field().EqualElements(got, secret):
					sim.Wrong++
					outcome = "wrong secret " + d.Field().Format(got)
				default:
					sim.Recovered++
				}
				if rounds == 1 || a.v.GetBool("verbose") {
					fmt.Fprintf(w, "round %d: corrupted [%s] detected %s: %s\n", i+1, bad, detected, outcome)
				}
				a.log.Debug("simulation round",
					zap.Int("round", i+1),
					zap.Stringer("corrupted", bad),
					zap.String("outcome", outcome))
			}

			printSimulation(w, sim)
			if a.v.GetBool("metrics") {
				return printMetrics(w, reg)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("secret", "42", "secret to share")
	fs.Int("corrupt", 1, "number of decryptors that tamper with their share")
	fs.Int("rounds", 1, "number of rounds to run")
	fs.BoolP("verbose", "v", false, "print every round")
	fs.Bool("metrics", false, "print the collected metrics")
	policyFlags(fs)
	seed := fs.Lookup("seed")
	seed.DefValue = "threshold-simulation"
	_ = seed.Value.Set(seed.DefValue)
	return cmd
}

// pickIDs returns count distinct ids out of 1..n in ascending order.
func pickIDs(rng *rand.Rand, n, count int) party.IDSlice {
	perm := rng.Perm(n)[:count]
	ids := make(party.IDSlice, count)
	for i, p := range perm {
		ids[i] = party.ID(p + 1)
	}
	return ids.Sorted()
}

func printSimulation(w io.Writer, sim simulation) {
	pct := func(x int) float64 { return float64(x) / float64(sim.Rounds) * 100 }
	fmt.Fprintf(w, "rounds:    %d\n", sim.Rounds)
	fmt.Fprintf(w, "recovered: %d (%.2f%%)\n", sim.Recovered, pct(sim.Recovered))
	fmt.Fprintf(w, "wrong:     %d (%.2f%%)\n", sim.Wrong, pct(sim.Wrong))
	fmt.Fprintf(w, "failed:    %d (%.2f%%)\n", sim.Failed, pct(sim.Failed))
}

func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, l := range metric.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("%s_count %d", name, metric.GetHistogram().GetSampleCount()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
