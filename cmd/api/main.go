package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-stock/docs"
	"github.com/jhoicas/taller-stock/internal/application/catalog"
	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
	"github.com/jhoicas/taller-stock/internal/application/salesreturn"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/internal/infrastructure/cache"
	"github.com/jhoicas/taller-stock/internal/infrastructure/memory"
	"github.com/jhoicas/taller-stock/internal/infrastructure/metrics"
	"github.com/jhoicas/taller-stock/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/taller-stock/internal/interfaces/http"
	"github.com/jhoicas/taller-stock/pkg/config"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacenamiento: PostgreSQL o memoria (desarrollo/demos)
	var (
		txRunner ports.TxRunner
		repos    repository.TxRepos
		ready    = func(context.Context) error { return nil }
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		store := memory.New()
		if cfg.Store.SeedFile != "" {
			seed, err := store.LoadSeedFile(cfg.Store.SeedFile)
			if err != nil {
				log.Fatal().Err(err).Msg("cargar seed en memoria")
			}
			log.Info().Int("branches", len(seed.Branches)).Int("invoices", len(seed.Invoices)).Msg("seed cargado")
		}
		txRunner, repos = store, store.Repos()
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.Migrate {
			if err := migrateUp(cfg.DB.ConnectionString(), log); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
		ready = pool.Ping
	}

	// Caché del catálogo (opcional)
	var itemCache ports.ItemCache = ports.NoopItemCache{}
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible; la caché arrancará en frío")
		}
		itemCache = cache.NewItemCache(rdb, cfg.Redis.ItemTTL, log.Named("cache"))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	ledger := inventory.NewLedger(txRunner, repos, ledgerMetrics, log.Named("ledger"), inventory.Config{
		AllowNegativeAdjustment: cfg.Ledger.AllowNegativeAdjustment,
	})
	itemUC := catalog.NewItemUseCase(txRunner, repos.Items, itemCache, log.Named("catalog"))
	purchasingSvc := purchasing.NewService(txRunner, repos, ledger, log.Named("purchasing"))
	salesReturnSvc := salesreturn.NewService(txRunner, repos, ledger, log.Named("sales_returns"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if specPath, err := swaggerFile(); err != nil {
		log.Warn().Err(err).Msg("swagger deshabilitado")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: specPath,
			Path:     "docs",
			Title:    "Taller Stock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := ready(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:       itemUC,
		Ledger:       ledger,
		Purchasing:   purchasingSvc,
		SalesReturns: salesReturnSvc,
		JWTSecret:    cfg.JWT.Secret,
		JWTIssuer:    cfg.JWT.Issuer,
		Log:          log.Named("http"),
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func migrateUp(databaseURL string, log *logger.Logger) error {
	m, err := postgres.NewMigrator(databaseURL, log.Named("migrate"))
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// swaggerFile usa ./docs/swagger.json si existe; si no, vuelca la especificación embebida a un temporal.
func swaggerFile() (string, error) {
	const local = "./docs/swagger.json"
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	path := filepath.Join(os.TempDir(), "taller-stock-swagger.json")
	if err := os.WriteFile(path, []byte(docs.SwaggerInfo.ReadDoc()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
