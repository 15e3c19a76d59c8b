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

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
	"github.com/jhoicas/allocation-engine/internal/application/inventory"
	"github.com/jhoicas/allocation-engine/internal/infrastructure/cache"
	"github.com/jhoicas/allocation-engine/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/allocation-engine/internal/interfaces/http"
	"github.com/jhoicas/allocation-engine/pkg/config"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		db := postgres.OpenDB(pool)
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		_ = db.Close()
		log.Info().Msg("migraciones aplicadas")
	}

	// Caché opcional del modelo de lectura; sin Redis la disponibilidad se calcula siempre.
	var availabilityCache inventory.Cache
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché")
		} else {
			defer rc.Close()
			availabilityCache = rc
		}
	}

	txRunner := postgres.NewTxRunner(pool, cfg.Allocation.LockTimeout)
	availabilityUC := inventory.NewAvailabilityUseCase(txRunner, availabilityCache, cfg.Cache.AvailabilityTTL, log)
	ledgerUC := inventory.NewRegisterMovementUseCase(txRunner, log, cfg.Allocation.MaxRetries, cfg.Allocation.RetryBaseDelay, availabilityUC)

	opts := allocation.Options{
		Logger:         log,
		MaxRetries:     cfg.Allocation.MaxRetries,
		RetryBaseDelay: cfg.Allocation.RetryBaseDelay,
		Invalidator:    availabilityUC,
	}
	allocator := allocation.NewAllocator(txRunner, opts)
	confirmUC := allocation.NewConfirmOrderUseCase(txRunner, allocator, opts)
	commitReleaseUC := allocation.NewCommitReleaseUseCase(txRunner, opts)
	lifecycleUC := allocation.NewLifecycleUseCase(txRunner, opts)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Allocation Engine API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Allocator:     allocator,
		ConfirmOrder:  confirmUC,
		CommitRelease: commitReleaseUC,
		Lifecycle:     lifecycleUC,
		Ledger:        ledgerUC,
		Availability:  availabilityUC,
		Logger:        log,
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
