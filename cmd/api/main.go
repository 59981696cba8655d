package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redmonkez12/finance-tracker-api/internal/auth"
	"github.com/redmonkez12/finance-tracker-api/internal/config"
	"github.com/redmonkez12/finance-tracker-api/internal/database"
	httpServer "github.com/redmonkez12/finance-tracker-api/internal/http"
	"github.com/redmonkez12/finance-tracker-api/internal/ledger"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
	"github.com/redmonkez12/finance-tracker-api/internal/user"
)

// @title           Finance Tracker API
// @version         1.0
// @description     Per-user expenses and assets with username/password authentication.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
		"password_hasher", cfg.Auth.PasswordHasher,
	)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, database.Up); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrations applied")
	}

	db, err := database.Open(context.Background(), cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	tokenService, err := auth.NewTokenService(cfg.Auth.TokenFormat, cfg.Auth.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	userRepo := user.NewRepository(db)
	authService := auth.NewService(userRepo, hasher, tokenService, cfg.Auth.TokenDuration, logger)

	expenseService := ledger.NewService(ledger.NewRepository(db, ledger.KindExpense), ledger.KindExpense, logger)
	assetService := ledger.NewService(ledger.NewRepository(db, ledger.KindAsset), ledger.KindAsset, logger)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService),
		AuthMiddleware: auth.NewMiddleware(tokenService),
		Expenses:       ledger.NewHandler(expenseService),
		Assets:         ledger.NewHandler(assetService),
		DB:             db,
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
