package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/segyhp/student-fees/internal/cache"
	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/feecalc"
	"github.com/segyhp/student-fees/internal/handler"
	"github.com/segyhp/student-fees/internal/logger"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	"github.com/segyhp/student-fees/internal/service"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg, os.Stdout)
	slog.SetDefault(appLogger)
	defer logger.Flush()

	policy, err := cfg.Policy()
	if err != nil {
		log.Fatalf("Invalid fee policy: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := cache.NewClient(cfg.Redis.URL, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	tx := repository.NewTransactor(db)
	structureRepo := repository.NewFeeStructureRepository(db)
	feeRepo := repository.NewStudentFeeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	readCache := cache.NewRedisCache(redisClient, "student-fees")
	locker := cache.NewRedisLocker(redisClient, "student-fees")
	notifier := initNotifier(cfg, appLogger)
	calc := feecalc.New(policy)

	// Initialize services
	feeService := service.NewFeeService(structureRepo, feeRepo, paymentRepo, enrollmentRepo, reminderRepo, calc, readCache, notifier, cfg, appLogger)
	ledgerService := service.NewLedgerService(tx, feeRepo, paymentRepo, adjustmentRepo, enrollmentRepo, reminderRepo, readCache, notifier, cfg, appLogger)
	automationService := service.NewAutomationService(tx, structureRepo, feeRepo, adjustmentRepo, enrollmentRepo, reminderRepo, calc, readCache, locker, notifier, cfg, appLogger)

	// Setup routes
	router := handler.NewRouter(handler.Handlers{
		Fees:       handler.NewFeeHandler(feeService, appLogger),
		Payments:   handler.NewPaymentHandler(ledgerService, appLogger),
		Automation: handler.NewAutomationHandler(automationService, appLogger),
		Health:     handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout()),
	}, appLogger)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
	}

	// let payment receipts already queued go out
	ledgerService.Wait()

	appLogger.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	n := cfg.Notification
	if n.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, reminders will only be logged")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSendGridNotifier(n.SendGridAPIKey, n.FromName, n.FromAddress, n.InstituteName)
}
