package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"saldo/internal/backend"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/format"
	"saldo/internal/ledger"
	"saldo/internal/services"
)

type SummaryCmd struct {
	cfg      *config.Config
	accounts []string
	all      bool
	year     int
	month    int
	limit    int
	asJSON   bool
}

func NewSummaryCmd(cfg *config.Config) *cobra.Command {
	sc := &SummaryCmd{cfg: cfg}
	now := time.Now()
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard of one or more accounts for a month",
		RunE:  sc.run,
	}

	cmd.Flags().StringSliceVar(&sc.accounts, "account", nil, "Account id, repeatable (default DEFAULT_ACCOUNT)")
	cmd.Flags().BoolVar(&sc.all, "all", false, "Summarize every account in the ledger (memory and sqlite backends)")
	cmd.Flags().IntVar(&sc.year, "year", now.Year(), "Year of the period")
	cmd.Flags().IntVar(&sc.month, "month", int(now.Month()), "Month of the period (1-12)")
	cmd.Flags().IntVar(&sc.limit, "limit", -1, "Listing rows per account, 0 for all (default LISTING_LIMIT)")
	cmd.Flags().BoolVar(&sc.asJSON, "json", false, "Print raw dashboards as JSON")

	return cmd
}

func (sc *SummaryCmd) run(cmd *cobra.Command, args []string) error {
	if sc.month < 1 || sc.month > 12 {
		return fmt.Errorf("invalid month %d: must be between 1 and 12", sc.month)
	}
	if sc.all && len(sc.accounts) > 0 {
		return fmt.Errorf("--all and --account are mutually exclusive")
	}
	limit := sc.limit
	if limit < 0 {
		limit = sc.cfg.ListingLimit
	}

	ctx := cmd.Context()
	backendCfg, err := backend.FromAppConfig(sc.cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(nil).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	accounts, err := sc.resolveAccounts(ctx, store.Source)
	if err != nil {
		return err
	}

	svc := services.NewDashboardService(store.Source, nil, "")
	dashboards, err := svc.Dashboards(ctx, accounts, services.MonthQuery("", sc.year, sc.month, limit))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sc.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboards)
	}

	f, err := sc.cfg.Formatter()
	if err != nil {
		return err
	}
	for i, d := range dashboards {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := printDashboard(out, accounts[i], d, f); err != nil {
			return err
		}
	}
	return nil
}

// resolveAccounts picks the accounts to summarize: the --account values,
// every account of a listable ledger with --all, or DEFAULT_ACCOUNT.
func (sc *SummaryCmd) resolveAccounts(ctx context.Context, src ledger.TransactionSource) ([]string, error) {
	switch {
	case len(sc.accounts) > 0:
		return sc.accounts, nil
	case !sc.all:
		return []string{sc.cfg.DefaultAccount}, nil
	}
	lister, ok := src.(ledger.AccountLister)
	if !ok {
		return nil, fmt.Errorf("backend %s cannot list accounts, use --account", sc.cfg.DataBackend)
	}
	accounts, err := lister.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("ledger has no accounts")
	}
	return accounts, nil
}

// printDashboard writes the metric cards and the listing as aligned text.
func printDashboard(w io.Writer, account string, d core.Dashboard, f format.Formatter) error {
	s := d.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Conta %s\t%s a %s\n", account, f.Date(d.Period.Start), f.Date(d.Period.End))
	fmt.Fprintf(tw, "Saldo Total\t%s\t%s\n", f.Money(s.TotalBalance), f.TrendText(s.BalanceTrend))
	fmt.Fprintf(tw, "Receitas\t%s\t%s\n", f.Money(s.PeriodIncome), f.TrendText(s.IncomeTrend))
	fmt.Fprintf(tw, "Despesas\t%s\t%s\n", f.Money(s.PeriodExpense), f.TrendText(s.ExpenseTrend))
	fmt.Fprintf(tw, "Pendentes\t%d\t%d receitas e %d despesas\n", s.PendingCount, s.PendingIncomeCount, s.PendingExpenseCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Transactions) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
		for _, t := range d.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				f.Date(t.Date), t.Description, t.Category, f.Status(t.Status), f.Signed(t.Amount, t.Kind))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, warn := range d.Warnings {
		fmt.Fprintf(w, "aviso: %v\n", warn)
	}
	return nil
}
