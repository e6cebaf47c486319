package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Mail store
	MailQuery      string
	MailMaxThreads int64
	ProcessedLabel string
	ArchiveLabel   string

	// Google APIs
	GoogleSpreadsheetID   string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string

	// Classifier
	RelayAddress       string
	AttributionJSON    string
	DefaultAttribution string

	// Partitions
	PeriodDays  int
	TemplateTab string
	GapLookback int
	GapTabColor string

	// Transaction window layout
	WindowStartRow int
	WindowRows     int
	DateCol        int
	MetaOffset     int
	CheckboxCol    int

	// Split
	TaxMultiplier float64

	// Audit store
	SQLiteDBPath string

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPEventsQueue  string
	AMQPTriggerQueue string

	// Worker
	PollInterval time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	return &Config{
		MailQuery:      getEnv("MAIL_QUERY", `label:payment-alerts -label:ledgered`),
		MailMaxThreads: int64(getEnvInt("MAIL_MAX_THREADS", 50)),
		ProcessedLabel: getEnv("MAIL_PROCESSED_LABEL", "ledgered"),
		ArchiveLabel:   getEnv("MAIL_ARCHIVE_LABEL", "receipts"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleOAuthClientFile: getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:  getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON: getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:  getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		RelayAddress:       getEnv("RELAY_ADDRESS", ""),
		AttributionJSON:    getEnv("ATTRIBUTION_MAP", "{}"),
		DefaultAttribution: getEnv("DEFAULT_ATTRIBUTION", "Shared"),

		PeriodDays:  getEnvInt("PERIOD_DAYS", 14),
		TemplateTab: getEnv("TEMPLATE_TAB", "Template"),
		GapLookback: getEnvInt("GAP_LOOKBACK", 0),
		GapTabColor: getEnv("GAP_TAB_COLOR", "#b7b7b7"),

		WindowStartRow: getEnvInt("WINDOW_START_ROW", 4),
		WindowRows:     getEnvInt("WINDOW_ROWS", 60),
		DateCol:        getEnvInt("DATE_COL", 1),
		MetaOffset:     getEnvInt("META_OFFSET", 3),
		CheckboxCol:    getEnvInt("CHECKBOX_COL", 7),

		TaxMultiplier: getEnvFloat("TAX_MULTIPLIER", 1.0675),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "tally"),
		AMQPEventsQueue:  getEnv("AMQP_EVENTS_QUEUE", "ledger_events"),
		AMQPTriggerQueue: getEnv("AMQP_TRIGGER_QUEUE", "ledger_triggers"),

		PollInterval: getEnvDuration("POLL_INTERVAL", 15*time.Minute),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
	}
}

// Attribution parses the destination-address to label map.
func (c *Config) Attribution() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(c.AttributionJSON) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(c.AttributionJSON), &out); err != nil {
		return nil, fmt.Errorf("parse ATTRIBUTION_MAP: %w", err)
	}
	normalized := make(map[string]string, len(out))
	for addr, label := range out {
		normalized[strings.ToLower(strings.TrimSpace(addr))] = label
	}
	return normalized, nil
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "google"}
	isValid := false
	for _, b := range validBackends {
		if c.DataBackend == b {
			isValid = true
			break
		}
	}
	if !isValid {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "google" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the google backend")
	}

	if c.PeriodDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid period length %d: must be at least one day", c.PeriodDays))
	}
	if c.TemplateTab == "" {
		errors = append(errors, "template tab name cannot be empty")
	}
	if c.WindowRows < 1 {
		errors = append(errors, fmt.Sprintf("invalid window size %d: must hold at least one row", c.WindowRows))
	}
	if c.WindowStartRow < 0 || c.DateCol < 0 || c.MetaOffset < 1 || c.CheckboxCol < 0 {
		errors = append(errors, "window layout coordinates must be non-negative (meta offset at least 1)")
	}
	if c.TaxMultiplier <= 0 {
		errors = append(errors, fmt.Sprintf("invalid tax multiplier %v: must be positive", c.TaxMultiplier))
	}

	if _, err := c.Attribution(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsQueue == "" || c.AMQPTriggerQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
		// A shared queue would feed the worker's own completion events back
		// to it as triggers.
		if c.AMQPEventsQueue != "" && c.AMQPEventsQueue == c.AMQPTriggerQueue {
			errors = append(errors, fmt.Sprintf("AMQP events queue and trigger queue must differ, both are '%s'", c.AMQPEventsQueue))
		}
	}

	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("poll interval %v too short: minimum is 1s", c.PollInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
