package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MKlolbullen/bhtriage/internal/report"
	"github.com/MKlolbullen/bhtriage/internal/reportstore"
)

func NewReportsCommand(root *rootOptions) *cobra.Command {
	var dataDir string

	openStore := func(cmd *cobra.Command) (*reportstore.Store, error) {
		cfg, _, err := root.load(cmd)
		if err != nil {
			return nil, err
		}
		if dataDir != "" {
			cfg.Server.DataDir = dataDir
		}
		return reportstore.New(nil, cfg.Server.DataDir), nil
	}

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and show reports saved by the API server",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for saved reports")

	var format string
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			rec, err := store.Load(args[0])
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), f, rec.View)
		},
	}
	show.Flags().StringVarP(&format, "format", "o", "table", "output format: table, json, csv, dot")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved reports, newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openStore(cmd)
				if err != nil {
					return err
				}
				metas, err := store.List()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range metas {
					fmt.Fprintf(out, "%-36s  %s  %-30s  %d entities, %d edges\n",
						m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Bundle,
						m.Summary.Entities, m.Summary.Edges)
				}
				return nil
			},
		},
		show,
	)

	return cmd
}
