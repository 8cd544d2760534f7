package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Store drivers
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config represents the application configuration
// This struct contains all configuration parameters for the application
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string
	DynamoDBEndpoint  string // DynamoDB Local or LocalStack; empty uses AWS

	// Environment info
	Environment string

	// Storage backend selection
	StoreDriver string
	Database    DatabaseConfig

	// HTTP server
	HTTPAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Actor token verification. JWTSecretID is a Secrets Manager id that
	// replaces JWTSecret once resolved at startup.
	JWTSecret   string
	JWTSecretID string

	// Ledger defaults
	DefaultCurrency string

	// Forecasting
	ForecastHistoryMonths int
	ForecastMonths        int

	// Lambda detection flag (cached)
	isLambda bool
}

// DatabaseConfig holds the postgres connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the settings as a libpq keyword/value connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "dev"),
		AWSRegion:        getEnv("AWS_REGION", "ap-northeast-1"),
		StoreDriver:      getEnv("STORE_DRIVER", StoreDynamoDB),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", ""),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTSecretID:      os.Getenv("JWT_SECRET_ID"),
		DefaultCurrency:  getEnv("DEFAULT_CURRENCY", "USD"),
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: os.Getenv("DATABASE_PASS"),
			Name:     getEnv("DATABASE_NAME", "construction_erp"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
	}

	var err error
	if cfg.ForecastHistoryMonths, err = getEnvInt("FORECAST_HISTORY_MONTHS", 6); err != nil {
		return nil, err
	}
	if cfg.ForecastMonths, err = getEnvInt("FORECAST_MONTHS", 3); err != nil {
		return nil, err
	}

	// Check if running in Lambda
	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	if cfg.LogFormat == "" {
		if cfg.isLambda {
			cfg.LogFormat = "json"
		} else {
			cfg.LogFormat = "console"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDynamoDB:
		if c.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME"); c.DynamoDBTableName == "" {
			return errors.New("DYNAMODB_TABLE_NAME environment variable is required")
		}
	case StorePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("DATABASE_HOST and DATABASE_NAME are required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.ForecastHistoryMonths < 1 || c.ForecastMonths < 1 {
		return errors.New("FORECAST_HISTORY_MONTHS and FORECAST_MONTHS must be positive")
	}

	return nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}

func getEnv(key, defaultValue string) string {
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
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
