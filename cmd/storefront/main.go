package main

import (
	"os"

	"github.com/MohitNegi1997/MoltenMotion/internal/config"
	"github.com/MohitNegi1997/MoltenMotion/internal/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	envFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Molten Motion storefront server and cart tool",
		Long: `storefront serves the Molten Motion catalog and shopping cart over HTTP
and manages a local cart from the command line.

Configuration comes from STOREFRONT_* environment variables, optionally
loaded from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			a.cfg = cfg
			a.log = log
			zap.ReplaceGlobals(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional .env file with STOREFRONT_* variables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides STOREFRONT_LOG_LEVEL)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newCartCmd(a))
	root.AddCommand(newCatalogCmd(a))
	root.AddCommand(newOrdersCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
