package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/api"
	"course-marketplace/internal/infra/api/apiv1"
	pg "course-marketplace/internal/infra/db/postgres"
	"course-marketplace/internal/infra/events"
	"course-marketplace/internal/infra/metrics"
	red "course-marketplace/internal/infra/redis"
	"course-marketplace/internal/infra/scheduler"
	"course-marketplace/internal/infra/telegram"
	"course-marketplace/internal/usecase"
)

// Container wires the stores, adapters and use cases of one process. Both the
// server and the admin CLI build their dependencies through it.
type Container struct {
	Config *config.Config
	Log    *zerolog.Logger

	Pool   *pgxpool.Pool
	Redis  red.RedisClient
	Events adapter.EventPublisher
	// Bot is nil when no Telegram token is configured.
	Bot      *telegram.AdminBot
	Notifier adapter.AdminNotifier
	Auth     *api.AuthManager
	// Reminder is nil when review reminders are disabled.
	Reminder *scheduler.Scheduler

	Catalog      *usecase.CatalogUseCase
	Users        usecase.UserUseCase
	Cart         usecase.CartUseCase
	Checkout     usecase.CheckoutUseCase
	Ledger       usecase.LedgerUseCase
	Approval     usecase.ApprovalUseCase
	Entitlements usecase.EntitlementUseCase
	Enrollments  usecase.EnrollmentUseCase
	Stats        usecase.StatsUseCase

	closers []func() error
}

// New connects to Postgres and Redis, applies the schema and builds every use case.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: logger}

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.Pool = pool
	c.closers = append(c.closers, func() error { pool.Close(); return nil })

	if err := pg.EnsureSchema(ctx, pool); err != nil {
		c.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	c.Redis = redisClient
	c.closers = append(c.closers, redisClient.Close)

	c.Events = events.New(cfg.Kafka, logger)
	if closer, ok := c.Events.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	if err := c.wire(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) wire() error {
	cfg, logger := c.Config, c.Log

	tm := pg.NewTxManager(c.Pool)
	userRepo := pg.NewPostgresUserRepo(c.Pool)
	requestRepo := pg.NewPaymentRequestRepo(c.Pool)
	entitlementRepo := pg.NewEntitlementRepo(c.Pool)
	enrollmentRepo := pg.NewEnrollmentRepo(c.Pool)
	courseRepo := pg.NewCourseRepoCacheDecorator(pg.NewPostgresCourseRepo(c.Pool), c.Redis, cfg.Redis.TTL)
	identity := pg.NewUserIdentityProvider(userRepo, logger)

	c.Auth = api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	c.Catalog = usecase.NewCatalogUseCase(courseRepo, logger)
	c.Users = usecase.NewUserUseCase(userRepo, tm, logger)
	c.Ledger = usecase.NewLedgerUseCase(requestRepo, logger)
	c.Entitlements = usecase.NewEntitlementUseCase(entitlementRepo, enrollmentRepo, c.Catalog, logger)
	c.Enrollments = usecase.NewEnrollmentUseCase(enrollmentRepo, c.Catalog, logger)
	c.Approval = usecase.NewApprovalUseCase(tm, requestRepo, c.Ledger, entitlementRepo, identity, c.Events, logger)
	c.Stats = usecase.NewStatsUseCase(userRepo, requestRepo, enrollmentRepo, logger)
	c.Cart = usecase.NewCartUseCase(red.NewCartStore(c.Redis, cfg.Cart.TTL), c.Catalog, c.Entitlements, logger)

	var sender adapter.TelegramBotAdapter = telegram.NewNoopBotAdapter(logger)
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewAdminBot(cfg.Telegram, c.Approval, c.Ledger, c.Stats, logger, 4)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		c.Bot, sender = bot, bot
	}
	c.Notifier = telegram.NewAdminNotifier(sender, cfg.Telegram.AdminChatIDs, logger)
	if cfg.Review.ReminderInterval > 0 {
		job := usecase.NewPendingReminder(c.Ledger, c.Notifier, cfg.Review.PendingAfter, logger)
		c.Reminder = scheduler.NewScheduler("pending-reminder", cfg.Review.ReminderInterval, job, logger)
	}

	c.Checkout = usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		TxManager:    tm,
		Requests:     requestRepo,
		Ledger:       c.Ledger,
		Catalog:      c.Catalog,
		Entitlements: c.Entitlements,
		Grants:       entitlementRepo,
		Carts:        c.Cart,
		Locker:       red.NewLocker(c.Redis),
		Limiter:      red.NewRateLimiter(c.Redis),
		Notifier:     c.Notifier,
		Events:       c.Events,
	}, usecase.CheckoutConfig{
		Prices:     TierPrices(cfg.Membership.Prices),
		RateLimit:  cfg.Checkout.RateLimit,
		RateWindow: cfg.Checkout.RateWindow,
		LockTTL:    cfg.Checkout.LockTTL,
	}, logger)
	return nil
}

// TierPrices converts configured tier names into typed tiers, dropping unknown names.
func TierPrices(prices map[string]int64) map[model.Tier]int64 {
	out := make(map[model.Tier]int64, len(prices))
	for name, price := range prices {
		if t, err := model.ParseTier(strings.ToLower(strings.TrimSpace(name))); err == nil {
			out[t] = price
		}
	}
	return out
}

// APIDeps exposes the use cases to the HTTP layer.
func (c *Container) APIDeps() apiv1.Deps {
	return apiv1.Deps{
		Auth:         c.Auth,
		Catalog:      c.Catalog,
		Plans:        usecase.Plans(c.Config.Membership.Prices),
		Users:        c.Users,
		Cart:         c.Cart,
		Checkout:     c.Checkout,
		Ledger:       c.Ledger,
		Approval:     c.Approval,
		Entitlements: c.Entitlements,
		Enrollments:  c.Enrollments,
		Stats:        c.Stats,
	}
}

// Health pings Postgres and Redis.
func (c *Container) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var errs []error
	if c.Pool != nil {
		if err := c.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ReportPoolStats publishes connection pool gauges every interval until ctx ends.
func (c *Container) ReportPoolStats(ctx context.Context, interval time.Duration) {
	if c.Pool == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := c.Pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Log.Warn().Err(err).Msg("close failed")
		}
	}
	c.closers = nil
}
