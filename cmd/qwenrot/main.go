package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qwenrotate-go/cmd/qwenrot/commands"
	"qwenrotate-go/internal/config"
	"qwenrotate-go/internal/logging"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		debug      bool
	)

	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "qwenrot",
		Short: "Credential rotation for a quota-limited CLI tool",
		Long: `qwenrot manages a pool of OAuth credential files and rotates which
one the wrapped tool sees, either on demand or automatically when a
call fails with a quota error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}
			if err := logging.Setup(cfg); err != nil {
				return err
			}
			opts.Config = cfg
			log.WithField("root_dir", cfg.RootDir).Debug("configuration resolved")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewSetupCommand(opts),
		commands.NewAddCommand(opts),
		commands.NewRemoveCommand(opts),
		commands.NewListCommand(opts),
		commands.NewSwitchCommand(opts),
		commands.NewNextCommand(opts),
		commands.NewStatsCommand(opts),
		commands.NewCallCommand(opts),
		commands.NewServeCommand(opts),
	)

	return rootCmd.Execute()
}
