package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esquery/internal/security"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

var errChecksFailed = errors.New("one or more checks failed")

// checkResult is one gate verdict.
type checkResult struct {
	Check string `json:"check"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func newCheckCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Run every security gate against a filter object",
		Long: `Check runs the directive, depth, complexity, array-size and translation
gates in turn and prints one verdict per gate. It exits non-zero when any
gate rejects the filter.`,
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

			gate := security.NewGate(cfg)
			results := runChecks(gate, opts.translator(gate, gate.Config().MaxQueryDepth), raw, alias)

			if asJSON {
				if err := opts.print(cmd, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					verdict := "ok"
					if !r.OK {
						verdict = "FAIL: " + r.Error
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", r.Check, verdict)
				}
			}
			for _, r := range results {
				if !r.OK {
					return errChecksFailed
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print verdicts as JSON")
	return cmd
}

func runChecks(gate *security.Gate, tr searchuc.Translator, raw map[string]any, alias string) []checkResult {
	_, filter, err := searchuc.Prefilter(raw, searchuc.PrefilterOptions{Sanitize: gate.SanitizeInput()})
	results := []checkResult{verdict("directives", err)}
	if err != nil {
		return results
	}

	results = append(results,
		verdict("depth", gate.CheckDepth(filter)),
		verdict("complexity", gate.CheckComplexity(filter)),
		verdict("arrays", gate.CheckArrays(filter)),
	)
	_, err = tr.Translate(filter, alias)
	return append(results, verdict("translate", err))
}

func verdict(name string, err error) checkResult {
	if err != nil {
		return checkResult{Check: name, Error: err.Error()}
	}
	return checkResult{Check: name, OK: true}
}
