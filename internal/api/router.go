// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fumo-economy/internal/api/handler"
	"fumo-economy/internal/config"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Accounts    *handler.AccountHandler
	Shop        *handler.ShopHandler
	Marketplace *handler.MarketplaceHandler
}

// NewRouter sets up and returns a new HTTP router. Purchase routes are
// throttled per caller according to limits.
func NewRouter(h Handlers, limits config.ThrottleConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	purchases := newThrottle(limits)

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Accounts.CreateAccount)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/balance", h.Accounts.GetBalance)
			r.Get("/inventory", h.Accounts.GetInventory)
			r.Get("/history", h.Accounts.GetHistory)
			r.Post("/grant", h.Accounts.Grant)
			r.Get("/shop", h.Shop.GetShop)
			r.With(purchases.middleware).Post("/shop/purchase", h.Shop.Purchase)
		})
	})

	r.Route("/marketplace/listings", func(r chi.Router) {
		r.Get("/", h.Marketplace.ListListings)
		r.Post("/", h.Marketplace.CreateListing)
		r.Get("/{listingID}", h.Marketplace.GetListing)
		r.Delete("/{listingID}", h.Marketplace.RemoveListing)
		r.With(purchases.middleware).Post("/{listingID}/purchase", h.Marketplace.Purchase)
	})

	return r
}

// requestLogger logs one structured line per request through the
// application logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
