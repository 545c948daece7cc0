package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esquery/internal/security"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

func newComplexityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "complexity [file|-]",
		Short: "Print the complexity score of a filter object",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.limits(cmd)
			if err != nil {
				return err
			}
			raw, err := readFilter(cmd, args)
			if err != nil {
				return err
			}
			_, filter, err := searchuc.Prefilter(raw, searchuc.PrefilterOptions{})
			if err != nil {
				return err
			}

			score := security.CalculateComplexity(filter)
			if opts.pretty {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d / %d\n", score, cfg.MaxQueryComplexity)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), score)
			return err
		},
	}
}
