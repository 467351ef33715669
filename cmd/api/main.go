// cmd/api/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	app "fumo-economy/internal"
	"fumo-economy/internal/config"
	"fumo-economy/internal/market"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "api",
		Short:        "Fumo economy server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load environment variables from .env if present
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newShopCmd(),
	)

	return root
}

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the market reset scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Create and initialize the application
			application := app.NewApplication()
			if err := application.Initialize(ctx); err != nil {
				return err
			}
			if migrate {
				if err := application.Migrate(ctx); err != nil {
					return err
				}
			}
			application.StartBackground(ctx)

			server := &http.Server{
				Addr:         ":" + application.Config.ServerPort,
				Handler:      application.HTTPHandler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 20 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				application.Logger.Info("Starting HTTP server", "port", application.Config.ServerPort)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-serverErr:
				application.Logger.Error("HTTP server failed", "error", err)
				_ = application.Shutdown(context.Background())
				return err
			}

			application.Logger.Info("Shutting down HTTP server...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				application.Logger.Error("HTTP server shutdown failed", "error", err)
				return err
			}
			if err := application.Shutdown(shutdownCtx); err != nil {
				return err
			}

			application.Logger.Info("Application gracefully stopped.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			application := app.NewApplication()
			if err := application.Initialize(ctx); err != nil {
				return err
			}
			defer application.Shutdown(ctx)
			return application.Migrate(ctx)
		},
	}
}

func newShopCmd() *cobra.Command {
	shop := &cobra.Command{
		Use:   "shop",
		Short: "Inspect personal shops",
	}

	var (
		userID string
		kind   string
		asJSON bool
	)
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Roll a shop with the configured generator and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := market.ParseKind(kind)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			// Preview never touches persistent state.
			cfg.Storage.Driver = config.StorageDriverMemory
			cfg.Log.Level = "error"

			application := app.NewApplication()
			if err := application.InitializeWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			defer application.Shutdown(cmd.Context())

			entry := application.ShopService.GetShop(cmd.Context(), userID, k)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entry)
			}
			printShop(cmd.OutOrStdout(), entry, application.Markets.Table(), cfg.Market.CoinsPerGem)
			return nil
		},
	}
	preview.Flags().StringVar(&userID, "user", "", "user ID to roll the shop for")
	preview.Flags().StringVar(&kind, "kind", string(market.KindCoins), "shop kind: coins or gems")
	preview.Flags().BoolVar(&asJSON, "json", false, "print the shop as JSON")
	_ = preview.MarkFlagRequired("user")

	shop.AddCommand(preview)
	return shop
}
