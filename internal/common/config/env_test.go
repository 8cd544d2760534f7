package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Run("dynamodb store requires a table name", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", StoreDynamoDB)
		t.Setenv("DYNAMODB_TABLE_NAME", "")

		_, err := LoadFromEnv()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DYNAMODB_TABLE_NAME")
	})

	t.Run("defaults for the memory store", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", StoreMemory)
		t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
		t.Setenv("LOG_FORMAT", "")
		t.Setenv("FORECAST_HISTORY_MONTHS", "")
		t.Setenv("FORECAST_MONTHS", "")
		t.Setenv("DEFAULT_CURRENCY", "")
		t.Setenv("ENVIRONMENT", "")

		cfg, err := LoadFromEnv()

		require.NoError(t, err)
		assert.Equal(t, "dev", cfg.Environment)
		assert.Equal(t, "USD", cfg.DefaultCurrency)
		assert.Equal(t, 6, cfg.ForecastHistoryMonths)
		assert.Equal(t, 3, cfg.ForecastMonths)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.False(t, cfg.IsLambda())
	})

	t.Run("lambda defaults to json logs", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", StoreMemory)
		t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "erp-mcp")
		t.Setenv("LOG_FORMAT", "")

		cfg, err := LoadFromEnv()

		require.NoError(t, err)
		assert.True(t, cfg.IsLambda())
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("rejects unknown store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mysql")

		_, err := LoadFromEnv()

		assert.Error(t, err)
	})

	t.Run("rejects non numeric forecast months", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", StoreMemory)
		t.Setenv("FORECAST_MONTHS", "three")

		_, err := LoadFromEnv()

		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "erp", Password: "secret", Name: "ledger", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=erp password=secret dbname=ledger sslmode=disable", d.DSN())
}

func TestLoadFromEnv_DynamoDBEndpoint(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDynamoDB)
	t.Setenv("DYNAMODB_TABLE_NAME", "erp")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")

	cfg, err := LoadFromEnv()

	require.NoError(t, err)
	assert.Equal(t, "erp", cfg.DynamoDBTableName)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
}
