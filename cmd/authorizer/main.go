package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	envconfig "github.com/hirosato/construction-erp/internal/common/config"
	"github.com/hirosato/construction-erp/internal/common/logger"
	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/platform/secrets"
)

// Authorizer is an API Gateway REQUEST authorizer for actor bearer tokens.
// Allowed requests carry the actor id to the backend in the authorizer context.
type Authorizer struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthorizer(secret string, logger *zap.Logger) *Authorizer {
	return &Authorizer{secret: []byte(secret), logger: logger.Named("authorizer")}
}

func (a *Authorizer) Handle(ctx context.Context, request events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	authHeader := request.Headers["Authorization"]
	if authHeader == "" {
		authHeader = request.Headers["authorization"] // Case-insensitive fallback
	}

	token, err := utils.ExtractBearerToken(authHeader)
	if err != nil {
		a.logger.Info("missing or invalid Authorization header")
		return generatePolicy("anonymous", "Deny", request.MethodArn, nil), nil
	}

	claims, err := utils.ParseJWT(token, a.secret)
	if err != nil {
		a.logger.Info("token validation failed", zap.Error(err))
		return generatePolicy("anonymous", "Deny", request.MethodArn, nil), nil
	}

	authContext := map[string]interface{}{
		"actorId": claims.Subject,
		"role":    claims.Role,
		"email":   claims.Email,
	}
	// arn:aws:execute-api:{regionId}:{accountId}:{apiId}/{stage}/{httpVerb}/[{resource}]
	arn := fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/%s",
		"*", // Region
		request.RequestContext.AccountID,
		request.RequestContext.APIID,
		request.RequestContext.Stage,
		"*", // HTTP Method
	)

	a.logger.Debug("token accepted", zap.String("actorId", claims.Subject))
	return generatePolicy(claims.Subject, "Allow", arn, authContext), nil
}

// generatePolicy generates an IAM policy for the authorizer response
func generatePolicy(principalID, effect, resource string, context map[string]interface{}) events.APIGatewayCustomAuthorizerResponse {
	authResponse := events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
	}

	if effect != "" && resource != "" {
		authResponse.PolicyDocument = events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		}
	}

	if context != nil {
		authResponse.Context = context
	}

	return authResponse
}

func main() {
	_ = godotenv.Load()

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(config.LogLevel, config.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	if config.JWTSecretID != "" {
		source, err := secrets.NewCachedSource(context.Background(), config.AWSRegion)
		if err != nil {
			log.Fatal("failed to initialize secrets cache", zap.Error(err))
		}
		if err := secrets.ResolveJWTSecret(config, source, log); err != nil {
			log.Fatal("failed to resolve JWT secret", zap.Error(err))
		}
	}
	if config.JWTSecret == "" {
		log.Fatal("JWT_SECRET or JWT_SECRET_ID is required")
	}

	lambda.Start(NewAuthorizer(config.JWTSecret, log).Handle)
}
