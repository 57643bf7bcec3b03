package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/ledger"
)

type ImportCmd struct {
	cfg     *config.Config
	file    string
	account string
}

func NewImportCmd(cfg *config.Config) *cobra.Command {
	ic := &ImportCmd{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a ledger CSV into the SQLite store",
		Long: "Load a ledger CSV into the SQLite store and announce the change so\n" +
			"running dashboards drop their cached copy. Columns: " + fmt.Sprint(ledger.CSVHeader),
		RunE: ic.run,
	}

	cmd.Flags().StringVar(&ic.file, "file", "", "Path to the CSV file")
	cmd.Flags().StringVar(&ic.account, "account", "", "Account for rows without an account column (default DEFAULT_ACCOUNT)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (ic *ImportCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	account := ic.account
	if account == "" {
		account = ic.cfg.DefaultAccount
	}

	f, err := os.Open(ic.file)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := ledger.ReadCSV(f, account)
	if err != nil {
		return fmt.Errorf("read %s: %w", ic.file, err)
	}

	repo, err := cli.InitSQLite(ic.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	accounts, err := repo.Import(ctx, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d transações importadas em %d conta(s)\n", len(records), len(accounts))

	if ic.cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(ic.cfg.AMQPURL, ic.cfg.AMQPExchange, ic.cfg.AMQPQueue)
	if err != nil {
		// The import is committed; caches expire by TTL.
		slog.WarnContext(ctx, "AMQP unavailable, skipping ledger changed notification", "error", err)
		return nil
	}
	defer client.Close()

	for _, acc := range accounts {
		if err := client.PublishLedgerChanged(ctx, acc); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger changed message", "account_id", acc, "error", err)
		}
	}
	return nil
}
