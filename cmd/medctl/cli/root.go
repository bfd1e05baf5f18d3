// Package cli implements medctl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/duamedical/medserve/internal/app"
	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/jobs"
)

// Deps are the collaborators the commands drive.
type Deps struct {
	Migrate    func(ctx context.Context) error
	Trigger    func(ctx context.Context, name string) (*asynq.TaskInfo, error)
	Inspector  jobs.QueueInspector
	Quotations jobs.Reconciler
	Ledger interface {
		Run(ctx context.Context, fix bool) (jobs.IntegrityReport, error)
	}
	Agents    AgentCreator
	Customers CustomerCreator
	Close     func() error
}

// Loader builds Deps on demand so --help never touches the stores.
type Loader func(ctx context.Context) (*Deps, error)

// LoadDeps wires Deps from the environment configuration.
func LoadDeps(ctx context.Context) (*Deps, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg)
	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Migrate:    func(ctx context.Context) error { return db.Migrate(ctx, c.Pool) },
		Trigger:    c.Jobs.Trigger,
		Inspector:  c.Inspector,
		Quotations: c.Quotations,
		Ledger:     jobs.NewLedgerIntegrityJob(c.Customers, c.Accounting, logger, nil),
		Agents:     c.Agents,
		Customers:  c.Customers,
		Close:      c.Close,
	}, nil
}

// NewRootCommand assembles the medctl command tree.
func NewRootCommand(load Loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "medctl",
		Short:         "Operate the medserve backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newMigrateCommand(load),
		newJobsCommand(load),
		newQuotationCommand(load),
		newLedgerCommand(load),
		newSeedCommand(load),
	)
	return root
}

// withDeps loads Deps for one command run and closes them afterwards.
func withDeps(cmd *cobra.Command, load Loader, fn func(ctx context.Context, d *Deps) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := load(ctx)
	if err != nil {
		return err
	}
	if d.Close != nil {
		defer func() {
			if cerr := d.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	return fn(ctx, d)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
