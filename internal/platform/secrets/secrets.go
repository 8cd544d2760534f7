// Package secrets reads application secrets from AWS Secrets Manager through
// the client-side cache, so warm Lambda invocations skip the API call.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"go.uber.org/zap"

	envconfig "github.com/hirosato/construction-erp/internal/common/config"
)

// Source returns the current string value of a secret
type Source interface {
	GetSecretString(secretID string) (string, error)
}

// NewCachedSource builds a secretcache-backed Source for region
func NewCachedSource(ctx context.Context, region string) (*secretcache.Cache, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := secretsmanager.NewFromConfig(awsCfg)

	return secretcache.New(func(c *secretcache.Cache) {
		c.Client = client
	})
}

// ResolveJWTSecret replaces cfg.JWTSecret with the value of cfg.JWTSecretID
// when an id is configured
func ResolveJWTSecret(cfg *envconfig.Config, source Source, logger *zap.Logger) error {
	if cfg.JWTSecretID == "" {
		return nil
	}

	value, err := source.GetSecretString(cfg.JWTSecretID)
	if err != nil {
		return fmt.Errorf("failed to read secret %s: %w", cfg.JWTSecretID, err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("secret %s is empty", cfg.JWTSecretID)
	}

	cfg.JWTSecret = value
	logger.Info("jwt secret loaded from secrets manager", zap.String("secretId", cfg.JWTSecretID))
	return nil
}
