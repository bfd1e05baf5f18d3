package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/duamedical/medserve/internal/agents"
	"github.com/duamedical/medserve/internal/sales/customers"
	"github.com/duamedical/medserve/internal/shared"
)

// AgentCreator is the part of the agents service the seeder uses.
type AgentCreator interface {
	Create(ctx context.Context, req agents.AgentRequest) (*agents.Agent, error)
}

// CustomerCreator is the part of the customers service the seeder uses.
type CustomerCreator interface {
	Create(ctx context.Context, req customers.CreateCustomerRequest) (*customers.Customer, error)
}

var allPermissions = []string{
	"dashboard", "inventory", "customers", "invoices", "quotations",
	"accounting", "delivery", "reports", "agents",
}

type demoCustomer struct {
	name   string
	city   string
	amount float64
	side   string
}

var demoCustomers = []demoCustomer{
	{"City Diagnostic Centre", "Lahore", 25000, "Debit"},
	{"Al-Shifa Clinic", "Karachi", 0, ""},
	{"Northern Imaging", "Islamabad", 12000, "Credit"},
}

func newSeedCommand(load Loader) *cobra.Command {
	var (
		email    string
		password string
		demo     bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin agent and optional demo customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, load, func(ctx context.Context, d *Deps) error {
				return seed(ctx, cmd.OutOrStdout(), d, email, password, demo)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@duamedical.local", "admin agent email")
	cmd.Flags().StringVar(&password, "password", "admin123", "admin agent password")
	cmd.Flags().BoolVar(&demo, "demo", false, "also create demo customers")
	return cmd
}

func seed(ctx context.Context, w io.Writer, d *Deps, email, password string, demo bool) error {
	fmt.Fprintln(w, "→ Seeding admin agent...")
	name, status := "Administrator", string(agents.StatusActive)
	_, err := d.Agents.Create(ctx, agents.AgentRequest{
		Name:        &name,
		Email:       &email,
		Password:    &password,
		Status:      &status,
		Permissions: allPermissions,
	})
	switch {
	case errors.Is(err, shared.ErrDuplicate):
		fmt.Fprintf(w, "  %s already exists\n", email)
	case err != nil:
		return fmt.Errorf("seed agent: %w", err)
	}

	if !demo {
		fmt.Fprintln(w, "✓ Seed complete")
		return nil
	}
	fmt.Fprintln(w, "→ Seeding demo customers...")
	for _, c := range demoCustomers {
		req := customers.CreateCustomerRequest{CustomerName: c.name, City: c.city, DebitCredit: c.side}
		if c.amount > 0 {
			amount := shared.Number(c.amount)
			req.Amount = &amount
		}
		created, err := d.Customers.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", c.name, err)
		}
		fmt.Fprintf(w, "  %s %s\n", created.SerialNumber, created.CustomerName)
	}
	fmt.Fprintln(w, "✓ Seed complete")
	return nil
}
