// internal/app.go
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"atm/internal/config"
	"atm/internal/repository"
	"atm/internal/repository/sqlstore"
	"atm/internal/service"
	"atm/internal/util"
	"atm/pkg/db"
)

// Options are the command line overrides applied on top of loaded configuration.
type Options struct {
	ConfigFile string
	DBPath     string
}

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *logrus.Logger
	DB     *sqlx.DB

	// Persistence
	Ledger repository.LedgerStore

	// Services
	AccountService service.AccountService

	// Schema version after startup migration
	Migration *db.MigrationStatus

	logCloser io.Closer
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context, opts Options) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.DBPath != "" {
		cfg.DB.Path = opts.DBPath
	}
	app.Config = cfg

	// 2. Initialize Logger
	closer, err := util.InitLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.logCloser = closer
	app.Logger = util.GetLogger()
	app.Logger.WithField("driver", cfg.DB.Driver).Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Ledger Store and schema
	app.Ledger = repository.NewLedger(app.DB, sqlstore.NewAccountRepository(), sqlstore.NewTransactionRepository())
	status, err := app.Ledger.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger store: %w", err)
	}
	app.Migration = status
	app.Logger.WithFields(logrus.Fields{
		"schema_from": status.PreVersion,
		"schema_to":   status.PostVersion,
	}).Info("Ledger store initialized.")

	// 5. Initialize Services
	app.AccountService = service.NewAccountService(app.Ledger, app.Logger, service.Options{
		UniquePIN:    cfg.UniquePIN,
		HistoryLimit: cfg.HistoryLimit,
	})
	app.Logger.Info("Services initialized.")

	return nil
}

// Shutdown releases application resources. It is safe to call after a
// partial Initialize.
func (app *Application) Shutdown(ctx context.Context) error {
	logger := app.Logger
	if logger == nil {
		logger = util.GetLogger()
	}

	var shutdownErr error
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database connection")
			shutdownErr = fmt.Errorf("failed to close database connection: %w", err)
		} else {
			logger.Info("Database connection closed.")
		}
	}
	logger.Info("Application shut down gracefully.")

	if app.logCloser != nil {
		if err := app.logCloser.Close(); err != nil && shutdownErr == nil {
			shutdownErr = fmt.Errorf("failed to close log output: %w", err)
		}
	}
	return shutdownErr
}
