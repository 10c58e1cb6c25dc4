package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/segyhp/student-fees/internal/cache"
	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/feecalc"
	"github.com/segyhp/student-fees/internal/logger"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	"github.com/segyhp/student-fees/internal/service"
)

func main() {
	runOnce := flag.String("run-once", "", "run one job and exit: sweep, reminders or daily")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg, os.Stdout).With("process", "scheduler")
	slog.SetDefault(appLogger)
	defer logger.Flush()

	automation, cleanup, err := initAutomation(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	defer cleanup()

	if *runOnce != "" {
		if err := runJob(context.Background(), automation, *runOnce); err != nil {
			appLogger.Error("job failed", "job", *runOnce, "error", err)
			cleanup()
			logger.Flush()
			os.Exit(1)
		}
		return
	}

	// Initialize cron scheduler
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.GetLocation()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, automation, appLogger); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	appLogger.Info("scheduler started",
		"timezone", cfg.Scheduler.Timezone,
		"sweep", cfg.Scheduler.SweepSchedule,
		"reminders", cfg.Scheduler.ReminderSchedule,
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down scheduler")
	<-c.Stop().Done()
	appLogger.Info("scheduler stopped")
}

func initAutomation(cfg *config.Config, appLogger *slog.Logger) (*service.AutomationService, func(), error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, fmt.Errorf("fee policy: %w", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	redisClient, err := cache.NewClient(cfg.Redis.URL, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(appLogger)
	if n := cfg.Notification; n.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(n.SendGridAPIKey, n.FromName, n.FromAddress, n.InstituteName)
	}

	automation := service.NewAutomationService(
		repository.NewTransactor(db),
		repository.NewFeeStructureRepository(db),
		repository.NewStudentFeeRepository(db),
		repository.NewAdjustmentRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewReminderRepository(db),
		feecalc.New(policy),
		cache.NewRedisCache(redisClient, "student-fees"),
		cache.NewRedisLocker(redisClient, "student-fees"),
		notifier,
		cfg,
		appLogger,
	)

	var closed bool
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		redisClient.Close()
		db.Close()
	}
	return automation, cleanup, nil
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, automation *service.AutomationService, appLogger *slog.Logger) error {
	// Daily sweep charging late fees on overdue fees
	if _, err := c.AddFunc(cfg.Scheduler.SweepSchedule, func() {
		if _, err := automation.SweepOverdue(context.Background()); err != nil {
			appLogger.Error("scheduled overdue sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", cfg.Scheduler.SweepSchedule, err)
	}

	// Daily due-soon and overdue reminders
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSchedule, func() {
		if _, err := automation.SendDailyReminders(context.Background()); err != nil {
			appLogger.Error("scheduled reminders failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("reminder schedule %q: %w", cfg.Scheduler.ReminderSchedule, err)
	}

	return nil
}

func runJob(ctx context.Context, automation *service.AutomationService, job string) error {
	switch job {
	case "sweep":
		_, err := automation.SweepOverdue(ctx)
		return err
	case "reminders":
		_, err := automation.SendDailyReminders(ctx)
		return err
	case "daily":
		return automation.RunDaily(ctx)
	default:
		return fmt.Errorf("unknown job %q", job)
	}
}
