package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Messaging   MessagingConfig   `yaml:"messaging"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig contains admin HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MessagingConfig selects and configures the outbound message provider.
type MessagingConfig struct {
	Provider       string `yaml:"provider"` // "smtp" or "sendgrid"
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`

	SendGridAPIKey string `yaml:"sendgrid_api_key"`

	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// MaintenanceConfig holds the scheduling policy knobs.
type MaintenanceConfig struct {
	IntervalDays         int    `yaml:"interval_days"`
	IntervalUsage        int32  `yaml:"interval_usage"`
	ReminderDays         int    `yaml:"reminder_days"`
	ReminderUsage        int32  `yaml:"reminder_usage"`
	EscalationGraceDays  int    `yaml:"escalation_grace_days"`
	AllowUsageCorrection bool   `yaml:"allow_usage_correction"`
	DefaultTypeName      string `yaml:"default_type_name"`
}

// SchedulerConfig contains cron schedule settings (with seconds field).
type SchedulerConfig struct {
	DailyTick    string `yaml:"daily_tick"`
	WeeklyDigest string `yaml:"weekly_digest"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file, then overlays .env and process
// environment variables, then validates.
func Load(configPath string) (*Config, error) {
	// .env is optional; real env vars still win below.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables.
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.Messaging.SMTPHost = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Messaging.SMTPPort)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.Messaging.SMTPUser = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.Messaging.SMTPPassword = val
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Messaging.SendGridAPIKey = val
	}
	if val := os.Getenv("MESSAGING_FROM"); val != "" {
		c.Messaging.From = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	switch c.Messaging.Provider {
	case "", "smtp":
		c.Messaging.Provider = "smtp"
		if c.Messaging.SMTPHost == "" {
			return fmt.Errorf("smtp host is required")
		}
		if c.Messaging.SMTPPort <= 0 || c.Messaging.SMTPPort > 65535 {
			return fmt.Errorf("invalid smtp port: %d", c.Messaging.SMTPPort)
		}
	case "sendgrid":
		if c.Messaging.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	default:
		return fmt.Errorf("unknown messaging provider: %q", c.Messaging.Provider)
	}
	if c.Messaging.From == "" {
		return fmt.Errorf("messaging from address is required")
	}
	if c.Messaging.TimeoutSeconds <= 0 {
		c.Messaging.TimeoutSeconds = 30
	}

	// Maintenance policy defaults
	if c.Maintenance.IntervalDays <= 0 {
		c.Maintenance.IntervalDays = 90
	}
	if c.Maintenance.IntervalUsage <= 0 {
		c.Maintenance.IntervalUsage = 10000
	}
	if c.Maintenance.ReminderDays <= 0 {
		c.Maintenance.ReminderDays = 5
	}
	if c.Maintenance.ReminderUsage <= 0 {
		c.Maintenance.ReminderUsage = 100
	}
	if c.Maintenance.EscalationGraceDays <= 0 {
		c.Maintenance.EscalationGraceDays = 1
	}
	if c.Maintenance.DefaultTypeName == "" {
		c.Maintenance.DefaultTypeName = "Preventive"
	}

	// Scheduler defaults
	if c.Scheduler.DailyTick == "" {
		c.Scheduler.DailyTick = "0 0 6 * * *" // 6 AM UTC daily
	}
	if c.Scheduler.WeeklyDigest == "" {
		c.Scheduler.WeeklyDigest = "0 0 7 * * 1" // Mondays 7 AM UTC
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string.
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the admin HTTP server address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
