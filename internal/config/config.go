package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lojasocial/backend/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Notify     NotifyConfig
	Sheets     SheetsConfig
	Reporting  ReportingConfig
	Allocation AllocationConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// NotifyConfig contains the outbound alert webhook settings. An empty
// WebhookURL disables alerting.
type NotifyConfig struct {
	WebhookURL string
	Token      string
}

// SheetsConfig contains configuration required to export reports to
// Google Sheets. An empty SpreadsheetID disables the export job.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	ExpiryCronSchedule string
	ExportCronSchedule string
	Timezone           string
	ExpiryWindowDays   int
}

// AllocationConfig holds stock allocation settings.
type AllocationConfig struct {
	ShortfallPolicy models.ShortfallPolicy
	MaxRetries      int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	policy, err := models.ParseShortfallPolicy(getenvWithDefault("ALLOCATION_SHORTFALL_POLICY", string(models.ShortfallAllow)))
	if err != nil {
		return nil, err
	}

	expiryWindow, err := getenvIntWithDefault("REPORT_EXPIRY_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}

	maxRetries, err := getenvIntWithDefault("ALLOCATION_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "lojasocial"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Token:      os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
		Reporting: ReportingConfig{
			ExpiryCronSchedule: getenvWithDefault("REPORT_EXPIRY_CRON_SCHEDULE", "0 8 * * *"),
			ExportCronSchedule: getenvWithDefault("REPORT_EXPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:           getenvWithDefault("TIMEZONE", "Europe/Lisbon"),
			ExpiryWindowDays:   expiryWindow,
		},
		Allocation: AllocationConfig{
			ShortfallPolicy: policy,
			MaxRetries:      maxRetries,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_REPORT_ID is set")
	}

	if c.Reporting.ExpiryCronSchedule == "" {
		return errors.New("REPORT_EXPIRY_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.ExportCronSchedule == "" {
		return errors.New("REPORT_EXPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.ExpiryWindowDays <= 0 {
		return errors.New("REPORT_EXPIRY_WINDOW_DAYS must be positive")
	}

	if c.Allocation.MaxRetries < 1 {
		return errors.New("ALLOCATION_MAX_RETRIES must be at least 1")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvIntWithDefault(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}
