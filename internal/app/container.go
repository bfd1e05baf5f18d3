package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/duamedical/medserve/internal/accounting"
	"github.com/duamedical/medserve/internal/agents"
	"github.com/duamedical/medserve/internal/dashboard"
	"github.com/duamedical/medserve/internal/delivery"
	"github.com/duamedical/medserve/internal/inventory"
	"github.com/duamedical/medserve/internal/observability"
	"github.com/duamedical/medserve/internal/platform/cache"
	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/internal/sales/customers"
	"github.com/duamedical/medserve/internal/sales/invoices"
	"github.com/duamedical/medserve/internal/sales/quotations"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
	"github.com/duamedical/medserve/jobs"
)

// Container owns the shared connections and every domain service. The API
// server, the worker and the operator CLI all build one.
type Container struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics

	Jobs      *jobs.Client
	Inspector *asynq.Inspector
	Cache     *cache.Versioned

	Customers  *customers.Service
	Quotations *quotations.Service
	Invoices   *invoices.Service
	Challans   *delivery.Service
	Inventory  *inventory.Service
	Accounting *accounting.Service
	Agents     *agents.Service
	Dashboard  *dashboard.Service
}

// Build connects to Postgres and Redis and wires the services.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{StatementTimeout: cfg.PGStatementTimeout, MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		pool.Close()
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: observability.NewMetrics(),
	}
	redisOpts := cfg.AsynqRedis()
	c.Jobs = jobs.NewClient(redisOpts)
	c.Inspector = asynq.NewInspector(redisOpts)
	c.Cache = cache.NewVersioned(redisClient, "dashboard", cfg.DashboardCacheTTL)
	c.wire()
	return c, nil
}

func (c *Container) wire() {
	cfg, logger := c.Config, c.Logger
	defaults := cfg.DocumentDefaults()
	locker := shared.NewRedisLocker(redislock.New(c.Redis), logger, 2*time.Second)
	ids := seqid.NewGenerator(locker, logger, c.Metrics)
	notifier := c.Cache

	customerRepo := customers.NewRepository(c.Pool)
	c.Customers = customers.NewService(customerRepo, ids, notifier, logger)

	invoiceRepo := invoices.NewRepository(c.Pool)
	c.Invoices = invoices.NewService(invoiceRepo, ids, defaults, notifier, logger)

	challanRepo := delivery.NewRepository(c.Pool)
	c.Challans = delivery.NewService(challanRepo, ids, notifier, logger)

	workflow := quotations.NewWorkflow(invoiceRepo, challanRepo, locker, cfg.AcceptanceLockTTL, defaults, c.Metrics, logger)
	c.Quotations = quotations.NewService(quotations.NewRepository(c.Pool), workflow, ids, defaults, c.Jobs, notifier, logger)

	c.Inventory = inventory.NewService(inventory.NewRepository(c.Pool), ids, notifier, logger)
	c.Accounting = accounting.NewService(accounting.NewRepository(c.Pool), notifier, logger)

	tokens := agents.NewRedisTokenStore(c.Redis, cfg.AgentTokenTTL)
	c.Agents = agents.NewService(agents.NewRepository(c.Pool), tokens, notifier, logger)

	c.Dashboard = dashboard.NewService(c.Invoices, c.Inventory, c.Accounting, c.Cache, logger)
}

// Close releases every connection. Errors are joined.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Jobs != nil {
		if err := c.Jobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("jobs client: %w", err))
		}
	}
	if c.Inspector != nil {
		if err := c.Inspector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("jobs inspector: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	return errors.Join(errs...)
}

// RouterParams projects the container onto the HTTP router.
func (c *Container) RouterParams() RouterParams {
	return RouterParams{
		Logger:            c.Logger,
		Config:            c.Config,
		CustomersHandler:  customers.NewHandler(c.Logger, c.Customers),
		QuotationsHandler: quotations.NewHandler(c.Logger, c.Quotations),
		InvoicesHandler:   invoices.NewHandler(c.Logger, c.Invoices),
		ChallansHandler:   delivery.NewHandler(c.Logger, c.Challans),
		InventoryHandler:  inventory.NewHandler(c.Logger, c.Inventory),
		AccountingHandler: accounting.NewHandler(c.Logger, c.Accounting),
		AgentsHandler:     agents.NewHandler(c.Logger, c.Agents),
		DashboardHandler:  dashboard.NewHandler(c.Logger, c.Dashboard),
		JobHandler:        jobs.NewHandler(c.Inspector, c.Logger),
		Metrics:           c.Metrics,
		Health:            c.ping,
	}
}

func (c *Container) ping(ctx context.Context) error {
	if err := c.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := c.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
