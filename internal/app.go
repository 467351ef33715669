// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	router "fumo-economy/internal/api"
	"fumo-economy/internal/api/handler"
	"fumo-economy/internal/config"
	"fumo-economy/internal/lock"
	"fumo-economy/internal/market"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/repository/memory"
	"fumo-economy/internal/repository/postgres"
	"fumo-economy/internal/scheduler"
	"fumo-economy/internal/service"
	"fumo-economy/internal/util"
	"fumo-economy/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *db.DB // nil with the memory driver

	Store     repository.Store
	Locks     *lock.Manager
	Catalog   *market.Catalog
	Markets   *market.Cache
	Scheduler *scheduler.Scheduler

	// Services
	AccountService     service.AccountService
	ShopService        service.ShopService
	MarketplaceService service.MarketplaceService

	// HTTP API
	HTTPHandler http.Handler

	stopBackground context.CancelFunc
	background     sync.WaitGroup
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize loads configuration from the environment and initializes all
// application components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig initializes all application components from cfg.
func (app *Application) InitializeWithConfig(ctx context.Context, cfg *config.AppConfig) error {
	app.Config = cfg

	// 1. Logger
	app.Logger = util.InitLogger(cfg.Log)
	app.Logger.Info("Application configuration loaded successfully.", "storage", cfg.Storage.Driver)

	// 2. Storage
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		app.Store = memory.NewStore()
		app.Logger.Warn("Using in-memory storage; data is lost on restart.")
	default:
		conn, err := db.NewPostgresDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = db.New(conn, cfg.Retry)
		app.Store = postgres.NewStore(app.DB)
		app.Logger.Info("Database connection established.")
	}

	// 3. Locks and shop generation
	app.Locks = lock.NewManager()
	app.Locks.SetWait(cfg.Lock.Wait)

	app.Catalog = market.DefaultCatalog()
	gen := market.NewGenerator(market.GeneratorConfig{
		MinItems:     cfg.Market.MinItems,
		MaxItemsLow:  cfg.Market.MaxItemsLow,
		MaxItemsHigh: cfg.Market.MaxItemsHigh,
		Boost:        cfg.Market.RarityBoost,
	}, market.DefaultRarityTable(), nil, app.Logger)
	app.Markets = market.NewCache(gen, app.Catalog.Available, cfg.Market.ResetInterval, app.Logger)

	app.Scheduler = scheduler.New(app.Logger)
	if err := app.Scheduler.Every("market-reset", cfg.Market.ResetInterval, func(_ context.Context, at time.Time) error {
		app.Markets.RegenerateAll(at)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to schedule market reset: %w", err)
	}

	// 4. Services
	app.AccountService = service.NewAccountService(app.Store, app.Locks, service.AccountConfig{
		StartingCoins: decimal.NewFromInt(cfg.Economy.StartingCoins),
		StartingGems:  decimal.NewFromInt(cfg.Economy.StartingGems),
	}, app.Logger)
	app.ShopService = service.NewShopService(app.Store, app.Locks, app.Markets, cfg.Market.CoinsPerGem, app.Logger)
	app.MarketplaceService = service.NewMarketplaceService(app.Store, app.Locks, service.MarketplaceConfig{
		TaxRate:            decimal.NewFromFloat(cfg.Marketplace.TaxRate),
		MaxListingsPerUser: cfg.Marketplace.MaxListingsPerUser,
	}, app.Logger)
	app.Logger.Info("Services initialized.")

	// 5. HTTP handlers and router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Accounts:    handler.NewAccountHandler(app.AccountService, app.Logger),
		Shop:        handler.NewShopHandler(app.ShopService, app.Logger),
		Marketplace: handler.NewMarketplaceHandler(app.MarketplaceService, app.Logger),
	}, cfg.Throttle, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Migrate applies the database schema. It is a no-op with the memory driver.
func (app *Application) Migrate(ctx context.Context) error {
	if app.DB == nil {
		return nil
	}
	if err := db.Migrate(ctx, app.DB); err != nil {
		return err
	}
	app.Logger.Info("Database schema applied.")
	return nil
}

// StartBackground runs the scheduler until Shutdown.
func (app *Application) StartBackground(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	app.stopBackground = cancel
	app.background.Add(1)
	go func() {
		defer app.background.Done()
		if err := app.Scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			app.Logger.Error("Scheduler stopped with error", "error", err)
		}
	}()
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.stopBackground != nil {
		app.stopBackground()
		app.background.Wait()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
