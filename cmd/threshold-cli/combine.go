package main

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/luxfi/thresholddecrypt/pkg/party"
	"github.com/luxfi/thresholddecrypt/protocols/vss"
	"github.com/spf13/cobra"
)

// loadScheme rebuilds the scheme stored in the record named by --input.
func (a *app) loadScheme() (*vss.Scheme, error) {
	r, err := readRecord(a.v.GetString("input"))
	if err != nil {
		return nil, err
	}
	return vss.FromRecord(r, vss.WithLogger(a.log))
}

func (a *app) combineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Reconstruct the secret from a share table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.loadScheme()
			if err != nil {
				return err
			}

			ids, err := party.ParseList(a.v.GetString("ids"))
			if err != nil {
				return err
			}
			var secret *saferith.Nat
			if len(ids) > 0 {
				secret, err = s.DecryptWith(ids)
			} else {
				secret, err = s.Decrypt()
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.Field().Format(secret))
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringP("input", "i", "", "record file, .json or .cbor")
	fs.String("ids", "", "comma separated ids to reconstruct from (default: the scheme's selection)")
	return cmd
}
