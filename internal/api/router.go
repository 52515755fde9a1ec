// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"

	"ledgerpay/internal/api/handler"
	"ledgerpay/internal/api/middleware"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(accountHandler *handler.AccountHandler, rdb *redis.Client, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Registration happens before a principal exists.
	r.Post("/users", accountHandler.CreateUser)

	// Everything below requires a gateway-resolved caller identity; balance
	// mutations additionally honor Idempotency-Key replays.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/me", accountHandler.GetOwnAccount)
			r.Get("/{accountID}", accountHandler.GetAccount)
			r.Delete("/{accountID}", accountHandler.DeleteAccount)
			r.Get("/{accountID}/transactions", accountHandler.GetTransactionHistory)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotency(rdb, logger))
				r.Post("/deposit", accountHandler.Deposit)
				r.Post("/withdraw", accountHandler.Withdraw)
			})
		})

		// Transfer is a separate top-level endpoint as it involves two accounts
		r.With(middleware.Idempotency(rdb, logger)).Post("/transfers", accountHandler.Transfer)

		r.Patch("/transactions/{transactionID}", accountHandler.UpdateTransaction)
	})

	return r
}
