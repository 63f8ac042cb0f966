package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/backoffice-api/internal/application/accounting"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/audit"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/cache"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// repos agrupa los adaptadores de persistencia elegidos al arrancar.
type repos struct {
	stocks      repository.StockRepository
	history     repository.StockHistoryRepository
	catalog     repository.CatalogRepository
	expenses    repository.ExpenseRepository
	payments    repository.PaymentRepository
	counts      repository.StockCountRepository
	marketplace repository.MarketplaceMatchRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	mode, err := accounting.ParseMode(cfg.Ledger.ExpenseConsistency)
	if err != nil {
		log.Fatal().Err(err).Msg("EXPENSE_CONSISTENCY")
	}
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas /api responderán 401")
	}

	ctx := context.Background()

	var r repos
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			n, err := postgres.Migrate(ctx, pool)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Int("applied", n).Msg("esquema al día")
		}
		r = repos{
			stocks:      postgres.NewStockRepository(pool),
			history:     postgres.NewStockHistoryRepository(pool),
			catalog:     postgres.NewCatalogRepository(pool),
			expenses:    postgres.NewExpenseRepository(pool),
			payments:    postgres.NewPaymentRepository(pool),
			counts:      postgres.NewCountRepository(pool),
			marketplace: postgres.NewMarketplaceRepository(pool),
		}
	} else {
		log.Warn().Msg("sin DATABASE_URL ni DB_HOST: usando almacenamiento en memoria")
		store := memory.New()
		r = repos{
			stocks:      store.Stocks(),
			history:     store.History(),
			catalog:     store.Catalog(),
			expenses:    store.Expenses(),
			payments:    store.Payments(),
			counts:      store.Counts(),
			marketplace: store.Marketplace(),
		}
	}

	bus := newEventBus(cfg.Events, log)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar bus de eventos")
		}
	}()

	var auditLog ports.AuditLog = audit.NewLogSink(log)
	if cfg.Audit.Driver == "mongo" {
		sink, err := audit.NewMongoSink(ctx, audit.MongoConfig{
			URI:        cfg.Audit.MongoURI,
			Database:   cfg.Audit.MongoDB,
			Collection: cfg.Audit.Collection,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a MongoDB")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sink.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("cerrar auditoría")
			}
		}()
		auditLog = sink
	}

	notifier := notify.New(cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL), bus, auditLog, log)

	ledger := inventory.NewLedgerUseCase(r.stocks, r.history, r.counts, notifier, log)
	query := inventory.NewQueryUseCase(r.stocks, r.history, r.catalog, notifier, log)
	cost := inventory.NewCostEngine(r.catalog, r.expenses, r.stocks, notifier, log)
	expenseUC := accounting.NewExpenseUseCase(r.expenses, r.payments, r.catalog, ledger, cost, notifier, log, mode)
	catalogUC := usecase.NewCatalogUseCase(r.catalog, r.stocks, r.expenses, r.counts, r.marketplace, notifier, log)

	if spec := cfg.Scheduler.ValuationCron; spec != "" {
		job := scheduler.NewValuationJob(spec, query, notifier, log)
		if err := job.Start(); err != nil {
			log.Fatal().Err(err).Msg("scheduler")
		}
		defer job.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.HTTP.SwaggerFile,
		Path:     "docs",
		Title:    "Backoffice Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "expense_consistency": expenseUC.Mode()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Query:     query,
		ExpenseUC: expenseUC,
		CatalogUC: catalogUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func newEventBus(cfg config.EventsConfig, log *logger.Logger) ports.EventBus {
	switch cfg.Driver {
	case "kafka":
		return events.NewKafkaBus(events.KafkaConfig{Brokers: cfg.KafkaBrokers, TopicPrefix: cfg.KafkaPrefix})
	case "webhook":
		return events.NewWebhookBus(events.WebhookConfig{URL: cfg.WebhookURL, Secret: cfg.WebhookSecret, Timeout: 5 * time.Second})
	default:
		return events.NewLogBus(log)
	}
}
