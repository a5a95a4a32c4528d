package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/banking_ledger/internal/accounts"
	"github.com/congo-pay/banking_ledger/internal/banking"
	"github.com/congo-pay/banking_ledger/internal/clients"
	"github.com/congo-pay/banking_ledger/internal/config"
	"github.com/congo-pay/banking_ledger/internal/ledger"
	"github.com/congo-pay/banking_ledger/internal/middleware"
	"github.com/congo-pay/banking_ledger/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	svc, err := newBankingService(d)
	if err != nil {
		return err
	}

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	var withdrawLimit fiber.Handler
	if d.Cache != nil {
		withdrawLimit = middleware.AccountRateLimit(d.Cache, "withdraw", d.Cfg.WithdrawalsPerMinute, d.Logger)
	}
	RegisterBankingRoutes(api, banking.NewHandler(svc), withdrawLimit)

	return nil
}

func newBankingService(d Deps) (*banking.Service, error) {
	var (
		clientRepo  clients.Repository
		accountRepo accounts.Repository
		uow         ledger.UnitOfWork
	)
	if d.DB != nil {
		clientRepo = clients.NewPostgresRepository(d.DB)
		accountRepo = accounts.NewPostgresRepository(d.DB)
		uow = ledger.NewPostgresUnitOfWork(d.DB)
	} else {
		clientRepo = clients.NewMemoryRepository()
		accountRepo = accounts.NewMemoryRepository()
		uow = ledger.NewMemoryUnitOfWork(accountRepo, ledger.NewInMemory())
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	return banking.NewService(banking.Deps{
		Clients:    clientRepo,
		Accounts:   accountRepo,
		UnitOfWork: uow,
		Notifier:   notifier,
		Logger:     d.Logger,
	})
}
