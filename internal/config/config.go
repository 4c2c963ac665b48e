package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Export target names accepted in EXPORT_TARGETS.
const (
	TargetDashboard = "dashboard"
	TargetSQLite    = "sqlite"
	TargetSheets    = "sheets"
	TargetMemory    = "memory"
)

var validTargets = []string{TargetDashboard, TargetSQLite, TargetSheets, TargetMemory}

type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Ledger
	LedgerID string

	// Reporting
	ExportTargets      []string
	DashboardPath      string
	DashboardCacheSize int

	// Database
	SQLiteDBPath string

	// AMQP (optional event stream)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Report server
	HTTPAddr string
}

func Load() *Config {
	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		LedgerID: getEnv("LEDGER_ID", "default"),

		ExportTargets:      splitList(getEnv("EXPORT_TARGETS", TargetDashboard)),
		DashboardPath:      getEnv("DASHBOARD_PATH", "expenses_dashboard.html"),
		DashboardCacheSize: getEnvInt("DASHBOARD_CACHE_SIZE", 16),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finance.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_transactions"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "Categories"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		HTTPAddr: getEnv("HTTP_ADDR", ""),
	}

	return cfg
}

// HasTarget reports whether name is one of the configured export targets.
func (c *Config) HasTarget(name string) bool {
	return slices.Contains(c.ExportTargets, name)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Validate ledger id
	if strings.TrimSpace(c.LedgerID) == "" {
		errors = append(errors, "ledger ID cannot be empty")
	} else if utf8.RuneCountInString(c.LedgerID) > 64 {
		errors = append(errors, fmt.Sprintf("invalid ledger ID '%s': must be at most 64 characters", c.LedgerID))
	}

	// Validate export targets
	if len(c.ExportTargets) == 0 {
		errors = append(errors, "at least one export target is required")
	}
	for _, target := range c.ExportTargets {
		if !slices.Contains(validTargets, target) {
			errors = append(errors, fmt.Sprintf("invalid export target '%s': must be one of %v", target, validTargets))
		}
	}

	if c.HasTarget(TargetDashboard) && c.DashboardPath == "" {
		errors = append(errors, "dashboard path cannot be empty when using dashboard target")
	}
	if c.DashboardCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize))
	} else if c.DashboardCacheSize > 1024 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache size %d: must be at most 1024", c.DashboardCacheSize))
	}

	// Validate SQLite configuration if target is sqlite
	if c.HasTarget(TargetSQLite) {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite target")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate Google Sheets configuration if target is sheets
	if c.HasTarget(TargetSheets) {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets target")
		}
		if c.GoogleTransactionsSheet == "" || c.GoogleCategoriesSheet == "" {
			errors = append(errors, "Google sheet names cannot be empty when using sheets target")
		}

		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets target")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate metrics listen address
	if c.HTTPAddr != "" {
		if _, port, err := net.SplitHostPort(c.HTTPAddr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid HTTP address '%s': %v", c.HTTPAddr, err))
		} else if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port '%s': must be between 1 and 65535", port))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// splitList splits a comma separated value, dropping blanks and repeats.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || slices.Contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}
