package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esquery/internal/security"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

func newTranslateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [file|-]",
		Short: "Print the bool query a filter object translates to",
		Long: `Translate strips the $sort, $limit, $skip and $select directives and
prints the filter as a {"bool": ...} query. A filter that matches every
document prints null.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, alias, err := opts.limits(cmd)
			if err != nil {
				return err
			}
			raw, err := readFilter(cmd, args)
			if err != nil {
				return err
			}
			_, filter, err := searchuc.Prefilter(raw, searchuc.PrefilterOptions{
				Sanitize: cfg.EnableInputSanitization,
			})
			if err != nil {
				return err
			}

			gate := security.NewGate(cfg)
			b, err := opts.translator(gate, gate.Config().MaxQueryDepth).Translate(filter, alias)
			if err != nil {
				return err
			}
			if b == nil {
				return opts.print(cmd, nil)
			}
			return opts.print(cmd, b.Wrap())
		},
	}
}
