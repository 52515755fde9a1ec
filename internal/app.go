// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	router "ledgerpay/internal/api"
	"ledgerpay/internal/api/handler"
	"ledgerpay/internal/config"
	"ledgerpay/internal/event"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/repository/postgres"
	"ledgerpay/internal/security"
	"ledgerpay/internal/service"
	"ledgerpay/internal/util"
	"ledgerpay/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepository        repository.UserRepository
	AccountRepository     repository.AccountRepository
	TransactionRepository repository.TransactionRepository

	// Event bus and services
	Bus            *event.Bus
	AccountService service.AccountService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Redis backs the idempotency middleware.
	app.Redis = redis.NewClient(&redis.Options{Addr: app.Config.RedisAddr})

	// 5. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.AccountRepository = postgres.NewAccountRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.Logger.Info("Repositories initialized.")

	// 6. Event bus with the ledger recorder subscribed. Recording runs inside
	// each operation's atomic unit of work.
	app.Bus = event.NewBus()
	recorder := service.NewLedgerRecorder(app.TransactionRepository)
	recorder.Register(app.Bus)

	// 7. Initialize Services
	app.AccountService = service.NewAccountService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UserRepository,
		app.AccountRepository,
		app.TransactionRepository,
		app.Bus,
		security.NewBcryptPINHasher(0),
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 8. Initialize HTTP Handlers and Router
	accountHandler := handler.NewAccountHandler(app.AccountService, app.Logger)
	app.HTTPHandler = router.NewRouter(accountHandler, app.Redis, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close Redis connection", "error", err)
		}
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
