package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/labor-tracker/internal/application"
	"github.com/example/labor-tracker/internal/config"
	"github.com/example/labor-tracker/internal/events"
	httptransport "github.com/example/labor-tracker/internal/http"
	"github.com/example/labor-tracker/internal/persistence"
	"github.com/example/labor-tracker/internal/persistence/bolt"
	"github.com/example/labor-tracker/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var auditRepo persistence.AuditRepository
	if cfg.AuditBackend == config.AuditBackendSQLite {
		auditRepo = sqlite.NewAuditRepository(pool)
	} else {
		auditLog, err := bolt.Open(cfg.AuditLogPath)
		if err != nil {
			logger.Error("failed to open audit log", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := auditLog.Close(); cerr != nil {
				logger.Error("failed to close audit log", "error", cerr)
			}
		}()
		auditRepo = auditLog
	}

	idGenerator := uuid.NewString
	now := time.Now

	recordRepo := sqlite.NewTimeRecordRepository(pool)
	userRepo := sqlite.NewUserRepository(pool)
	budgetRepo := sqlite.NewBudgetRepository(pool)

	broker := events.NewBroker(cfg.EventBuffer, now)
	auditTrail := application.NewAuditTrail(auditRepo, idGenerator, now, logger)

	timerService := application.NewTimerService(recordRepo, broker, auditTrail, idGenerator, now, logger)
	costService := application.NewCostService(recordRepo, userRepo, cfg.ProfileCacheTTL, now, logger)
	forecastService := application.NewForecastService(costService, logger)
	budgetService := application.NewBudgetService(budgetRepo, costService, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Timer:   httptransport.NewTimerHandler(timerService, logger),
		Costs:   httptransport.NewCostHandler(costService, forecastService, logger),
		Budgets: httptransport.NewBudgetHandler(budgetService, logger),
		Audit:   httptransport.NewAuditHandler(auditTrail, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireIdentity(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("labor tracker API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
