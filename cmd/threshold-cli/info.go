package main

import (
	"fmt"

	"github.com/luxfi/thresholddecrypt/pkg/commitment"
	"github.com/luxfi/thresholddecrypt/pkg/math/field"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/spf13/cobra"
)

var kindDescriptions = map[commitment.Kind]string{
	commitment.KindNone:         "no verification, corrupted shares go unnoticed",
	commitment.KindCoefficients: "publishes the polynomial, not hiding, for tests and demos",
	commitment.KindFeldman:      "secp256k1 points C_i = a_i·G, needs --prime secp256k1",
	commitment.KindDiscreteLog:  "g^a_i in a prime-order subgroup matching the field, hiding only with a large prime such as --prime secp256k1",
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show supported commitments, selections and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "default prime: %d\n", field.DefaultPrime)
			fmt.Fprintf(w, "secp256k1:     %s\n\n", field.Secp256k1())

			fmt.Fprintln(w, "commitments:")
			for _, k := range append([]commitment.Kind{commitment.KindNone}, commitment.Kinds()...) {
				fmt.Fprintf(w, "  %-13s %s\n", k, kindDescriptions[k])
			}
			fmt.Fprintln(w, "\nselections:")
			for _, s := range []shamir.Selection{shamir.SelectLowestIDs, shamir.SelectRegistrationOrder} {
				fmt.Fprintf(w, "  %s\n", s)
			}
			fmt.Fprintf(w, "\nenvironment prefix: %s_\n", envPrefix)
			return nil
		},
	}
}
