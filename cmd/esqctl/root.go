package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esquery/internal/config"
	"github.com/kailas-cloud/esquery/internal/resultmap"
	"github.com/kailas-cloud/esquery/internal/security"
	"github.com/kailas-cloud/esquery/internal/translate"
)

// options holds the global flags.
type options struct {
	configFile    string
	idAlias       string
	maxDepth      int
	maxComplexity int
	pretty        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "esqctl",
		Short: "Translate and check esquery filter objects",
		Long: `esqctl reads a filter object as JSON from a file or stdin and prints
its translated bool query, its complexity score, or the verdict of every
security gate.

Examples:
  esqctl translate query.json
  echo '{"status":"active"}' | esqctl translate --pretty
  esqctl check --config config/prod.yaml query.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "service config file supplying security limits")
	flags.StringVar(&opts.idAlias, "id-alias", resultmap.DefaultIDAlias, "field rewritten to the engine id field")
	flags.IntVar(&opts.maxDepth, "max-depth", security.DefaultMaxQueryDepth, "maximum query nesting depth")
	flags.IntVar(&opts.maxComplexity, "max-complexity", security.DefaultMaxQueryComplexity, "complexity budget")
	flags.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	root.AddCommand(
		newTranslateCmd(opts),
		newComplexityCmd(opts),
		newCheckCmd(opts),
		newVersionCmd(),
	)
	return root
}

// limits resolves the security limits: defaults, then --config, then any
// flag set explicitly on the command line.
func (o *options) limits(cmd *cobra.Command) (security.Config, string, error) {
	cfg := security.DefaultConfig()
	alias := o.idAlias

	if o.configFile != "" {
		fileCfg, err := config.LoadFile(o.configFile)
		if err != nil {
			return security.Config{}, "", err
		}
		cfg = fileCfg.SecurityLimits()
		if !cmd.Flags().Changed("id-alias") {
			alias = fileCfg.Mapping.IDAlias
		}
	}
	if o.configFile == "" || cmd.Flags().Changed("max-depth") {
		cfg.MaxQueryDepth = o.maxDepth
	}
	if o.configFile == "" || cmd.Flags().Changed("max-complexity") {
		cfg.MaxQueryComplexity = o.maxComplexity
	}
	return cfg, alias, nil
}

func (o *options) translator(gate *security.Gate, maxDepth int) *translate.Translator {
	return translate.New(
		translate.WithMaxDepth(maxDepth),
		translate.WithEvictProbability(0),
		translate.WithQueryStringSanitizer(gate.SanitizeQueryString),
	)
}

// readFilter decodes the filter object named by args: a path, "-" or
// nothing for stdin. JSON null yields a nil map.
func readFilter(cmd *cobra.Command, args []string) (map[string]any, error) {
	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return nil, fmt.Errorf("open filter: %w", err)
		}
		defer func() { _ = f.Close() }()
		r, name = f, args[0]
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var filter map[string]any
	if err := dec.Decode(&filter); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: no filter object", name)
		}
		return nil, fmt.Errorf("%s: decode filter: %w", name, err)
	}
	return filter, nil
}

func (o *options) print(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
