// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fumo-economy/internal/util"
	"fumo-economy/pkg/db" // Import db package for its Config and RetryPolicy structs
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort  string
	Throttle    ThrottleConfig
	Storage     StorageConfig
	DB          db.Config
	Retry       db.RetryPolicy
	Log         util.LogConfig
	Lock        LockConfig
	Market      MarketConfig
	Marketplace MarketplaceConfig
	Economy     EconomyConfig
}

// ThrottleConfig limits how fast one caller may hit the purchase routes.
type ThrottleConfig struct {
	PurchaseRPS   float64 // 0 disables throttling
	PurchaseBurst int
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string // "postgres" or "memory"
}

// LockConfig bounds how long a request queues for a per-user lock.
type LockConfig struct {
	Wait time.Duration // 0 waits indefinitely
}

// MarketConfig controls personal shop generation and refresh cadence.
type MarketConfig struct {
	ResetInterval time.Duration
	MinItems      int
	MaxItemsLow   int
	MaxItemsHigh  int
	RarityBoost   float64 // multiplier on high-tier inclusion chances
	CoinsPerGem   int64   // gem shop price = ceil(basePrice / CoinsPerGem)
}

// MarketplaceConfig controls the global player marketplace.
type MarketplaceConfig struct {
	TaxRate            float64
	MaxListingsPerUser int
}

// EconomyConfig holds starting balances for new accounts.
type EconomyConfig struct {
	StartingCoins int64
	StartingGems  int64
}

// LoadConfig loads configuration from FUMO_-prefixed environment variables.
// It returns an AppConfig instance or an error if any value is invalid.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("FUMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &AppConfig{
		ServerPort: v.GetString("server.port"),
		Throttle: ThrottleConfig{
			PurchaseRPS:   v.GetFloat64("server.purchase_rps"),
			PurchaseBurst: v.GetInt("server.purchase_burst"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
		},
		DB: db.Config{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Retry: db.RetryPolicy{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
		},
		Log: util.LogConfig{
			Level:      v.GetString("log.level"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Lock: LockConfig{
			Wait: v.GetDuration("lock.wait"),
		},
		Market: MarketConfig{
			ResetInterval: v.GetDuration("market.reset_interval"),
			MinItems:      v.GetInt("market.min_items"),
			MaxItemsLow:   v.GetInt("market.max_items_low"),
			MaxItemsHigh:  v.GetInt("market.max_items_high"),
			RarityBoost:   v.GetFloat64("market.rarity_boost"),
			CoinsPerGem:   v.GetInt64("market.coins_per_gem"),
		},
		Marketplace: MarketplaceConfig{
			TaxRate:            v.GetFloat64("marketplace.tax_rate"),
			MaxListingsPerUser: v.GetInt("marketplace.max_listings_per_user"),
		},
		Economy: EconomyConfig{
			StartingCoins: v.GetInt64("economy.starting_coins"),
			StartingGems:  v.GetInt64("economy.starting_gems"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.purchase_rps", 5.0)
	v.SetDefault("server.purchase_burst", 10)
	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "user")
	v.SetDefault("db.password", "password")
	v.SetDefault("db.name", "fumodb")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("retry.max_attempts", 8)
	v.SetDefault("retry.base_delay", 25*time.Millisecond)
	v.SetDefault("retry.max_delay", 1200*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("lock.wait", 5*time.Second)

	v.SetDefault("market.reset_interval", time.Hour)
	v.SetDefault("market.min_items", 5)
	v.SetDefault("market.max_items_low", 8)
	v.SetDefault("market.max_items_high", 10)
	v.SetDefault("market.rarity_boost", 1.0)
	v.SetDefault("market.coins_per_gem", 10)

	v.SetDefault("marketplace.tax_rate", 0.05)
	v.SetDefault("marketplace.max_listings_per_user", 10)

	v.SetDefault("economy.starting_coins", 1000)
	v.SetDefault("economy.starting_gems", 0)
}

// Validate checks loaded values for consistency.
func (c *AppConfig) Validate() error {
	if c.Storage.Driver != StorageDriverPostgres && c.Storage.Driver != StorageDriverMemory {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.DB.Port <= 0 {
		return fmt.Errorf("invalid db port: %d", c.DB.Port)
	}
	if c.Throttle.PurchaseRPS < 0 {
		return fmt.Errorf("server.purchase_rps must not be negative")
	}
	if c.Throttle.PurchaseRPS > 0 && c.Throttle.PurchaseBurst < 1 {
		return fmt.Errorf("server.purchase_burst must be >= 1 when throttling is enabled")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Lock.Wait < 0 {
		return fmt.Errorf("lock.wait must not be negative")
	}
	if c.Market.ResetInterval <= 0 {
		return fmt.Errorf("market.reset_interval must be positive")
	}
	if c.Market.MinItems < 0 || c.Market.MaxItemsLow < 1 || c.Market.MaxItemsHigh < c.Market.MaxItemsLow {
		return fmt.Errorf("invalid market size bounds: min=%d max=[%d,%d]", c.Market.MinItems, c.Market.MaxItemsLow, c.Market.MaxItemsHigh)
	}
	if c.Market.MinItems > c.Market.MaxItemsLow {
		return fmt.Errorf("market.min_items (%d) exceeds market.max_items_low (%d)", c.Market.MinItems, c.Market.MaxItemsLow)
	}
	if c.Market.RarityBoost <= 0 {
		return fmt.Errorf("market.rarity_boost must be positive")
	}
	if c.Market.CoinsPerGem < 1 {
		return fmt.Errorf("market.coins_per_gem must be >= 1")
	}
	if c.Marketplace.TaxRate < 0 || c.Marketplace.TaxRate >= 1 {
		return fmt.Errorf("marketplace.tax_rate must be in [0,1), got %v", c.Marketplace.TaxRate)
	}
	if c.Marketplace.MaxListingsPerUser < 1 {
		return fmt.Errorf("marketplace.max_listings_per_user must be >= 1")
	}
	if c.Economy.StartingCoins < 0 || c.Economy.StartingGems < 0 {
		return fmt.Errorf("starting balances must not be negative")
	}
	return nil
}
