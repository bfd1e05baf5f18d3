package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/duamedical/medserve/jobs"
)

// ErrDriftFound is returned by `ledger verify` without --fix when balances drifted.
var ErrDriftFound = errors.New("ledger drift found")

func newMigrateCommand(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				if err := d.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newJobsCommand(load Loader) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}
	jobsCmd.AddCommand(&cobra.Command{
		Use:       "trigger NAME",
		Short:     "Enqueue a periodic job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskLedgerIntegrity, jobs.TaskDashboardWarmup},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				info, err := d.Trigger(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
				return nil
			})
		},
	})
	jobsCmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Show queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				status, err := jobs.Inspect(d.Inspector)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	})
	return jobsCmd
}

func newQuotationCommand(load Loader) *cobra.Command {
	quotationCmd := &cobra.Command{
		Use:   "quotation",
		Short: "Quotation maintenance",
	}
	quotationCmd.AddCommand(&cobra.Command{
		Use:   "reconcile ID",
		Short: "Create the missing invoice and challan of an accepted quotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid quotation id %q: %w", args[0], err)
			}
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				q, err := d.Quotations.Reconcile(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "quotation %s (%s) reconciled\n", q.QuotationNo, q.Status)
				return nil
			})
		},
	})
	return quotationCmd
}

func newLedgerCommand(load Loader) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger integrity tools",
	}
	var fix bool
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Recompute customer and accounting balances and report drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				report, err := d.Ledger.Run(ctx, fix)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				drifted := len(report.Customers) + len(report.Accounting)
				if drifted > 0 && !fix {
					return fmt.Errorf("%w: %d balances, rerun with --fix", ErrDriftFound, drifted)
				}
				return nil
			})
		},
	}
	verify.Flags().BoolVar(&fix, "fix", false, "rewrite drifted balances")
	ledgerCmd.AddCommand(verify)
	return ledgerCmd
}
