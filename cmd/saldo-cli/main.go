package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"saldo/internal/cli"
	"saldo/internal/config"
	applog "saldo/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, applog.ComponentCLI)

	cfg := &config.Config{}
	root := &cobra.Command{
		Use:           "saldo-cli",
		Short:         "Inspect and import ledgers for the saldo dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			*cfg = *c
			cli.SetupLogger(cfg, applog.ComponentCLI)
			return nil
		},
	}
	root.AddCommand(NewSummaryCmd(cfg), NewImportCmd(cfg))

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
