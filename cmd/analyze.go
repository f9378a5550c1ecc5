package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKlolbullen/bhtriage/internal/bundle"
	"github.com/MKlolbullen/bhtriage/internal/pipeline"
	"github.com/MKlolbullen/bhtriage/internal/query"
	"github.com/MKlolbullen/bhtriage/internal/report"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var (
		limit     string
		filter    string
		exclude   bool
		tiers     string
		format    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze <bundle.zip> [limit]",
		Short: "Triage a collection bundle",
		Long: `Triage a collection bundle and print every risk category and relationship tier.

The optional limit caps how many items each list shows; ":" shows all.`,
		Example: `  bhtriage analyze corp_20240101.zip
  bhtriage analyze corp_20240101.zip 20 --filter sql
  bhtriage analyze corp.zip --tier critical,high
  bhtriage analyze corp.zip --format dot --output-dir ./out`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				cfg.Limit = args[1]
			}
			flags := cmd.Flags()
			if flags.Changed("limit") {
				cfg.Limit = limit
			}
			if flags.Changed("filter") {
				cfg.Filter = filter
			}
			if flags.Changed("exclude-privileged") {
				cfg.ExcludePrivilegedDest = exclude
			}
			if flags.Changed("tier") {
				cfg.Tiers = tiers
			}
			if flags.Changed("format") {
				cfg.Format = format
			}
			if flags.Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts, err := cfg.QueryOptions()
			if err != nil {
				return err
			}
			f, err := cfg.OutputFormat()
			if err != nil {
				return err
			}

			docs, err := bundle.NewLoader(nil, logger).Load(args[0])
			if err != nil {
				return err
			}
			res, err := pipeline.New(logger).Run(cmd.Context(), docs, nil)
			if err != nil {
				return err
			}
			view := query.Build(res, opts)

			if cfg.OutputDir != "" {
				path, err := report.NewWriter(nil, cfg.OutputDir).Write(args[0], f, view)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
				return nil
			}
			return report.Render(cmd.OutOrStdout(), f, view)
		},
	}

	cmd.Flags().StringVarP(&limit, "limit", "n", ":", `items shown per list, or ":" for all`)
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive substring filter on names, types and rights")
	cmd.Flags().BoolVar(&exclude, "exclude-privileged", false, "hide relationships into privileged (admincount) objects")
	cmd.Flags().StringVar(&tiers, "tier", "", "comma-separated relationship tiers to show: critical, high, medium, low")
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format: table, json, csv, dot")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write the report into this directory instead of stdout")
	return cmd
}
