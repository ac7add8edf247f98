package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Store
	StoreDriver       string
	SQLiteDBPath      string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMinIdleConns    int
	DBAcquireTimeout  time.Duration
	DBConnMaxIdleTime time.Duration
	CategoryCacheSize int
	CategoryCacheTTL  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets journal
	GoogleSpreadsheetID      string
	GoogleJournalSheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Logging
	LogLevel  string
	LogFormat string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("shutdown_timeout", "30s")

	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("sqlite_db_path", "./data/expenses.db")
	v.SetDefault("database_url", "")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_min_idle_conns", 2)
	v.SetDefault("db_acquire_timeout", "5s")
	v.SetDefault("db_conn_max_idle_time", "5m")
	v.SetDefault("category_cache_size", 256)
	v.SetDefault("category_cache_ttl", "10m")

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "expenses")
	v.SetDefault("amqp_queue", "payment_events")

	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_journal_sheet", "Journal")
	v.SetDefault("google_service_account_json", "")
	v.SetDefault("google_service_account_file", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads configuration from the environment, falling back to defaults.
// Malformed numbers and durations load as zero and are rejected by Validate.
func Load() *Config {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:               v.GetString("port"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		ShutdownTimeout:    v.GetDuration("shutdown_timeout"),

		StoreDriver:       strings.ToLower(v.GetString("store_driver")),
		SQLiteDBPath:      v.GetString("sqlite_db_path"),
		DatabaseURL:       v.GetString("database_url"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMinIdleConns:    v.GetInt("db_min_idle_conns"),
		DBAcquireTimeout:  v.GetDuration("db_acquire_timeout"),
		DBConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
		CategoryCacheSize: v.GetInt("category_cache_size"),
		CategoryCacheTTL:  v.GetDuration("category_cache_ttl"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleJournalSheet:       v.GetString("google_journal_sheet"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}
}

// JournalEnabled reports whether payment events should be appended to a spreadsheet.
func (c *Config) JournalEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres driver")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// or postgresql:// URL")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid store driver '%s': must be one of [sqlite postgres]", c.StoreDriver))
	}

	if c.DBMaxOpenConns < 1 {
		errors = append(errors, fmt.Sprintf("invalid max open connections %d: must be at least 1", c.DBMaxOpenConns))
	}
	if c.DBMinIdleConns < 0 || c.DBMinIdleConns > c.DBMaxOpenConns {
		errors = append(errors, fmt.Sprintf("invalid min idle connections %d: must be between 0 and max open connections", c.DBMinIdleConns))
	}
	if c.DBAcquireTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid acquire timeout %v: must be positive", c.DBAcquireTimeout))
	}
	if c.DBConnMaxIdleTime < 0 {
		errors = append(errors, fmt.Sprintf("invalid connection max idle time %v: must not be negative", c.DBConnMaxIdleTime))
	}

	if c.CategoryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid category cache size %d: must be at least 1", c.CategoryCacheSize))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.JournalEnabled() {
		if c.GoogleJournalSheet == "" {
			errors = append(errors, "Google journal sheet name is required when a spreadsheet is configured")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the journal")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the journal worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the worker")
	}
	if !c.JournalEnabled() {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
