package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MKlolbullen/bhtriage/internal/reportstore"
	"github.com/MKlolbullen/bhtriage/internal/server"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr, dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP triage API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.Server.DataDir = dataDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			defaults, err := cfg.QueryOptions()
			if err != nil {
				return err
			}

			srv := server.New(reportstore.New(nil, cfg.Server.DataDir), server.Options{
				Defaults:       defaults,
				CacheTTL:       cfg.Server.CacheTTL,
				MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
			}, logger)
			return srv.ListenAndServe(cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8088)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for saved reports")
	return cmd
}
