package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Transaction source kinds.
const (
	SourceMemory   = "memory"
	SourceBigQuery = "bigquery"
	SourcePostgres = "postgres"
)

type Config struct {
	TransactionSource string
	TransactionsFile  string

	BigQueryProject string
	BigQueryDataset string
	DatabaseURI     string

	LogLevel string
	Port     string

	NotionToken        string
	NotionInsightsDBID string
	GCSBucket          string

	RefreshQueueSize int
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	queueSize, err := getEnvInt("REFRESH_QUEUE_SIZE", 100)
	if err != nil {
		return nil, err
	}

	return &Config{
		TransactionSource:  getEnvOrDefault("TRANSACTION_SOURCE", SourceMemory),
		TransactionsFile:   os.Getenv("TRANSACTIONS_FILE"),
		BigQueryProject:    os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:    getEnvOrDefault("BIGQUERY_DATASET", "finance"),
		DatabaseURI:        os.Getenv("DATABASE_URI"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		Port:               getEnvOrDefault("PORT", "8080"),
		NotionToken:        os.Getenv("NOTION_TOKEN"),
		NotionInsightsDBID: os.Getenv("NOTION_INSIGHTS_DB_ID"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		RefreshQueueSize:   queueSize,
	}, nil
}

// Validate reports every setting the selected transaction source is missing.
func (c *Config) Validate() error {
	var errs []error

	switch c.TransactionSource {
	case SourceMemory:
	case SourceBigQuery:
		if c.BigQueryProject == "" {
			errs = append(errs, errors.New("BIGQUERY_PROJECT is required for the bigquery source"))
		}
	case SourcePostgres:
		if c.DatabaseURI == "" {
			errs = append(errs, errors.New("DATABASE_URI is required for the postgres source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSACTION_SOURCE %q", c.TransactionSource))
	}

	if c.RefreshQueueSize < 1 {
		errs = append(errs, fmt.Errorf("REFRESH_QUEUE_SIZE must be positive, got %d", c.RefreshQueueSize))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}
