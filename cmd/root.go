package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MKlolbullen/bhtriage/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// load reads configuration and builds the process logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
	return cfg, logger, nil
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "bhtriage",
		Short: "Triage BloodHound collection bundles for risky accounts and escalation paths",
		Long: `bhtriage reads a BloodHound collection bundle (a ZIP of JSON documents),
flags accounts and computers with high-risk attributes, and ranks access
relationships by how directly they lead to privilege escalation.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/bhtriage/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAnalyzeCommand(opts),
		newServeCommand(opts),
		NewReportsCommand(opts),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
