package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jhoicas/stock-ledger-api/docs"
	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stock-ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// storage repositorios del driver elegido (postgres o memoria).
type storage struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	audit     repository.StockAuditRepository
	users     repository.UserRepository
	txRunner  inventory.TxRunner
	close     func()
}

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
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	base := log.Zerolog()
	engine := inventory.NewMovementEngine(st.txRunner, st.movements, inventory.EngineOptions{
		MaxRetries: cfg.Stock.MaxRetries,
		Logger:     &base,
	})
	reconcileUC := inventory.NewReconcileUseCase(st.audit, &base)
	kardexUC := inventory.NewKardexUseCase(st.products, st.movements, infrapdf.NewMarotoPDFGenerator())
	productUC := usecase.NewProductUseCase(st.products, engine, *log.Component("products"))
	movementUC := usecase.NewStockMovementUseCase(engine, reconcileUC)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	if created, err := authUC.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("crear admin inicial")
	} else if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("admin inicial creado")
	}

	// Verificación periódica contador vs libro; con Redis solo una réplica por ciclo
	var locker inventory.CycleLocker
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewLocker(rdb)
	}
	worker := inventory.NewDriftWorker(reconcileUC, locker, cfg.Stock.ReconcileInterval, *log.Component("drift_worker"))
	go worker.Run(ctx)

	swaggerFile := "./docs/swagger.json"
	if _, err := os.Stat(swaggerFile); err != nil {
		swaggerFile = ""
	}
	app := httpRouter.NewApp(httpRouter.ServerConfig{
		AppName:     cfg.App.Name,
		SwaggerFile: swaggerFile,
	}, httpRouter.RouterDeps{
		ProductUC:       productUC,
		StockMovementUC: movementUC,
		Kardex:          kardexUC,
		Replenishment:   inventory.NewReplenishmentUseCase(st.products, st.movements),
		AuthUC:          authUC,
		JWTSecret:       cfg.JWT.Secret,
	}, *log.Component("http"))

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		movements := memory.NewStockMovementRepository(store)
		return &storage{
			products:  memory.NewProductRepository(store),
			movements: movements,
			audit:     movements,
			users:     memory.NewUserRepository(store),
			txRunner:  memory.NewTxRunner(store),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	movements := postgres.NewStockMovementRepository(pool)
	return &storage{
		products:  postgres.NewProductRepository(pool),
		movements: movements,
		audit:     movements,
		users:     postgres.NewUserRepository(pool),
		txRunner:  postgres.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}
