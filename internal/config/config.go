package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"saldo/internal/format"
)

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "sqlite", "postgres", "bigquery", "mongo", "sheets"}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

type Config struct {
	// HTTP Server
	Port              string
	LogLevel          string
	LogFormat         string
	RequestsPerMinute int

	// Backend selection
	DataBackend string
	DataDir     string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresDSN string

	// BigQuery
	BigQueryProject string
	BigQueryDataset string
	BigQueryTable   string

	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AMQP ledger-changed notifications (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Kafka inconsistency reports (optional)
	KafkaBrokers []string
	KafkaTopic   string

	// Ledger cache
	CacheSize int
	CacheTTL  time.Duration

	// Presentation
	DefaultAccount string
	Locale         string
	Currency       string
	ListingLimit   int

	// External auth pages
	AuthLoginURL    string
	AuthRegisterURL string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		DataDir:     getEnv("DATA_DIR", "data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/saldo.db"),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "finance"),
		BigQueryTable:   getEnv("BIGQUERY_TABLE", "ledger_transactions"),

		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "saldo"),
		MongoCollection: getEnv("MONGO_COLLECTION", "transactions"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Transactions"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "saldo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ledger.inconsistencies"),

		CacheSize: getEnvInt("CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),

		DefaultAccount: getEnv("DEFAULT_ACCOUNT", "default"),
		Locale:         getEnv("LOCALE", "pt-BR"),
		Currency:       getEnv("CURRENCY", "BRL"),
		ListingLimit:   getEnvInt("LISTING_LIMIT", 10),

		AuthLoginURL:    getEnv("AUTH_LOGIN_URL", ""),
		AuthRegisterURL: getEnv("AUTH_REGISTER_URL", ""),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(logLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, logLevels))
	}

	if !slices.Contains(logFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, logFormats))
	}
	if c.RequestsPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RequestsPerMinute))
	}

	if !slices.Contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	case "bigquery":
		if c.BigQueryProject == "" {
			errors = append(errors, "BIGQUERY_PROJECT is required when using bigquery backend")
		}
		if c.BigQueryDataset == "" || c.BigQueryTable == "" {
			errors = append(errors, "BIGQUERY_DATASET and BIGQUERY_TABLE cannot be empty when using bigquery backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil || (u.Scheme != "mongodb" && u.Scheme != "mongodb+srv") {
			errors = append(errors, fmt.Sprintf("invalid MongoDB URI '%s': scheme must be 'mongodb' or 'mongodb+srv'", c.MongoURI))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
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

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		errors = append(errors, "Kafka topic cannot be empty when Kafka brokers are provided")
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if strings.TrimSpace(c.DefaultAccount) == "" {
		errors = append(errors, "default account cannot be empty")
	}
	if _, err := format.New(c.Locale, c.Currency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': %v", c.Currency, err))
	}
	if c.ListingLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid listing limit %d: must not be negative", c.ListingLimit))
	}

	for _, auth := range []struct{ name, raw string }{
		{"AUTH_LOGIN_URL", c.AuthLoginURL},
		{"AUTH_REGISTER_URL", c.AuthRegisterURL},
	} {
		if auth.raw == "" {
			continue
		}
		if u, err := url.Parse(auth.raw); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an absolute URL", auth.name, auth.raw))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Formatter builds the presentation formatter from LOCALE and CURRENCY.
func (c *Config) Formatter() (format.Formatter, error) {
	return format.New(c.Locale, c.Currency)
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
