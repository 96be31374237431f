package main

import (
	"fmt"
	"slices"

	"github.com/luxfi/thresholddecrypt/pkg/protocol"
	"github.com/luxfi/thresholddecrypt/pkg/shamir"
	"github.com/spf13/cobra"
)

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every share of a table against its commitment",
		Long: `Check every share of a table against its commitment and report the
corrupted ones. Fails when fewer than threshold shares verify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.loadScheme()
			if err != nil {
				return err
			}
			report, err := s.DetectByzantine()
			if err != nil {
				return err
			}
			audited, err := protocol.Audit(s)
			if err != nil {
				return err
			}
			if !slices.Equal(audited, report.Corrupted) {
				return fmt.Errorf("verify: audit found [%s], report found [%s]", audited, report.Corrupted)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "scheme:     %s\n", s.ID())
			fmt.Fprintf(w, "commitment: %s\n", s.Commitment().Kind())
			fmt.Fprintf(w, "registered: %d\n", report.Registered)
			fmt.Fprintf(w, "verified:   %d\n", report.Verified)
			fmt.Fprintf(w, "corrupted:  [%s]\n", report.Corrupted)

			if output := a.v.GetString("output"); output != "" {
				if err := writeRecord(w, output, s.Snapshot()); err != nil {
					return err
				}
			}
			if !report.Tolerated(s.Threshold()) {
				return &shamir.InsufficientVerifiedSharesError{
					Verified:  report.Verified,
					Threshold: s.Threshold(),
					Corrupted: report.Corrupted,
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringP("input", "i", "", "record file, .json or .cbor")
	fs.StringP("output", "o", "", "also write the table with verification flags to this file")
	return cmd
}
