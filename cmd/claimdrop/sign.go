package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/claimdrop/internal/adapters/csvfile"
	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/cliconfig"
)

func newSignCmd(cfg *cliconfig.Config, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Add a signature to every envelope of an artifact",
		Long: `Co-signs every envelope in --xdr-file and writes the result next to it with
a _signed suffix. Envelopes built for another network are rejected before
anything is written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := setup(cmd, cfg, opts, cliconfig.CommandSign)
			if err != nil {
				return err
			}
			network, err := cfg.NetworkProfile()
			if err != nil {
				return err
			}
			key, err := cfg.SignerKey()
			if err != nil {
				return err
			}
			signer, err := app.NewSigner(network, key, csvfile.NewReader(), s.logger, s.events)
			if err != nil {
				return err
			}

			w, err := csvfile.NewWriter(csvfile.SignedPath(cfg.XDRFile))
			if err != nil {
				return err
			}
			out, err := signer.SignFile(cmd.Context(), cfg.XDRFile, w)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.XDRFile, "xdr-file", cfg.XDRFile, "artifact to sign")
	f.StringVar(&cfg.SignerSecret, "signer-secret", cfg.SignerSecret, "signing key (prefer CLAIMDROP_SIGNER_SECRET)")
	return cmd
}
