package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"fleetmaint-backend/internal/config"
	"fleetmaint-backend/internal/dateutil"
	"fleetmaint-backend/internal/jobs"
	"fleetmaint-backend/internal/logger"
	"fleetmaint-backend/internal/repository/postgres"
	"fleetmaint-backend/internal/schedule"
	"fleetmaint-backend/internal/scheduler"
	"fleetmaint-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'daily-tick', 'weekly-digest', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Fleetmaint Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Apply schema migrations
	if err := postgres.Migrate(context.Background(), db); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize Repositories and Services
	store := postgres.NewStore(db)
	clock := dateutil.SystemClock()

	policy := schedule.Policy{
		IntervalDays:        cfg.Maintenance.IntervalDays,
		IntervalUsage:       cfg.Maintenance.IntervalUsage,
		ReminderDays:        cfg.Maintenance.ReminderDays,
		ReminderUsage:       cfg.Maintenance.ReminderUsage,
		EscalationGraceDays: cfg.Maintenance.EscalationGraceDays,
	}.Normalize()

	var messenger service.Messenger
	if cfg.Messaging.Provider == "sendgrid" {
		messenger = service.NewSendGridMessenger(cfg.Messaging.SendGridAPIKey, cfg.Messaging.From, cfg.Messaging.FromName)
	} else {
		messenger = service.NewSMTPMessenger(
			cfg.Messaging.SMTPHost,
			cfg.Messaging.SMTPPort,
			cfg.Messaging.SMTPUser,
			cfg.Messaging.SMTPPassword,
			cfg.Messaging.From,
		)
	}

	maintenanceSvc := service.NewMaintenanceService(store, clock, policy, service.MaintenanceOptions{
		AllowUsageCorrection: cfg.Maintenance.AllowUsageCorrection,
		DefaultTypeName:      cfg.Maintenance.DefaultTypeName,
	})
	dispatcher := service.NewDispatcher(store, messenger, clock, policy,
		time.Duration(cfg.Messaging.TimeoutSeconds)*time.Second)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(maintenanceSvc, dispatcher, clock)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner, cfg.Scheduler)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "daily-tick":
		jobRunner.RunDailyTick()
	case "weekly-digest":
		jobRunner.RunWeeklyDigest()
	case "all":
		jobRunner.RunDailyTick()
		jobRunner.RunWeeklyDigest()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - daily-tick\n")
		fmt.Printf("  - weekly-digest\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
