package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	httpapi "fleetmaint-backend/internal/api/http"
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
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Fleetmaint Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Messaging configuration", "provider", cfg.Messaging.Provider, "from", cfg.Messaging.From)

	// Initialize Database
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
	logger.Info("Database schema is up to date")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	clock := dateutil.SystemClock()
	policy := policyFromConfig(cfg.Maintenance)
	messenger := messengerFromConfig(cfg.Messaging)

	maintenanceSvc := service.NewMaintenanceService(store, clock, policy, service.MaintenanceOptions{
		AllowUsageCorrection: cfg.Maintenance.AllowUsageCorrection,
		DefaultTypeName:      cfg.Maintenance.DefaultTypeName,
	})
	dispatcher := service.NewDispatcher(store, messenger, clock, policy,
		time.Duration(cfg.Messaging.TimeoutSeconds)*time.Second)

	// Initialize Job Runner and Scheduler
	jobRunner := jobs.NewJobRunner(maintenanceSvc, dispatcher, clock)
	cronScheduler := scheduler.NewScheduler(jobRunner, cfg.Scheduler)
	cronScheduler.Start()

	// Set up HTTP server
	router := mux.NewRouter()
	handler := httpapi.NewHandler(maintenanceSvc, dispatcher, jobRunner, store, clock)
	handler.Register(router)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	cronScheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Shutdown complete. Goodbye!")
}

func policyFromConfig(m config.MaintenanceConfig) schedule.Policy {
	p := schedule.Policy{
		IntervalDays:        m.IntervalDays,
		IntervalUsage:       m.IntervalUsage,
		ReminderDays:        m.ReminderDays,
		ReminderUsage:       m.ReminderUsage,
		EscalationGraceDays: m.EscalationGraceDays,
	}
	return p.Normalize()
}

func messengerFromConfig(m config.MessagingConfig) service.Messenger {
	if m.Provider == "sendgrid" {
		return service.NewSendGridMessenger(m.SendGridAPIKey, m.From, m.FromName)
	}
	return service.NewSMTPMessenger(m.SMTPHost, m.SMTPPort, m.SMTPUser, m.SMTPPassword, m.From)
}
