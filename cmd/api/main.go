package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/employee-api/internal/api/http"
	"github.com/spec-kit/employee-api/internal/api/http/handlers"
	"github.com/spec-kit/employee-api/internal/auth"
	"github.com/spec-kit/employee-api/internal/config"
	"github.com/spec-kit/employee-api/internal/observability"
	"github.com/spec-kit/employee-api/internal/persistence"
	"github.com/spec-kit/employee-api/internal/repository"
	"github.com/spec-kit/employee-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	keys, err := auth.NewKeySet(ctx, cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to init jwt key set", zap.Error(err))
	}
	verifier := auth.NewTokenVerifier(keys, cfg.Auth.IssuerURL, cfg.Auth.Audience)

	employeeRepo := repository.NewEmployeeRepository(pg.PoolHandle())
	employeeService := service.NewEmployeeService(employeeRepo)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env, pg)
	employeesHandler := handlers.NewEmployeesHandler(employeeService)
	adminHandler := handlers.NewAdminHandler(metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    healthHandler,
		Employees: employeesHandler,
		Admin:     adminHandler,
		APIKey:    auth.APIKeyGate(cfg.Auth.APIKey),
		JWT:       auth.JWTVerification(verifier),
		Policy:    auth.Authorize(auth.DefaultPolicy),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
