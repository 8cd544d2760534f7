package middleware

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// ActorHeader names the caller when no signing secret is configured
const ActorHeader = "X-Actor-Id"

// ResolveActor returns the actor id for a request. With a secret the bearer
// token must be a valid HS256 JWT and its subject is the actor. Without one the
// X-Actor-Id header is trusted, falling back to the system actor.
func ResolveActor(authorization, actorHeader string, secret []byte) (string, error) {
	if len(secret) == 0 {
		if actorHeader != "" {
			return actorHeader, nil
		}
		return auth.SystemActor, nil
	}

	token, err := utils.ExtractBearerToken(authorization)
	if err != nil {
		return "", errors.NewAuthenticationError(err.Error())
	}
	claims, err := utils.ParseJWT(token, secret)
	if err != nil {
		return "", errors.NewAuthenticationError("invalid or expired token")
	}
	return claims.Subject, nil
}

// AuthMiddleware places the authenticated actor in the request context
type AuthMiddleware struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) AuthMiddleware {
	return AuthMiddleware{secret: []byte(secret), logger: logger.Named("auth")}
}

func (m AuthMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if request.HTTPMethod == "OPTIONS" {
			return next(ctx, request)
		}

		// Requests already verified by the API Gateway authorizer carry the actor in its context
		if id, ok := request.RequestContext.Authorizer["actorId"].(string); ok && id != "" {
			return next(auth.WithActor(ctx, id), request)
		}

		actor, err := ResolveActor(header(request.Headers, "Authorization"), header(request.Headers, ActorHeader), m.secret)
		if err != nil {
			m.logger.Warn("authentication failed",
				zap.String("requestId", request.RequestContext.RequestID),
				zap.Error(err))
			return response.Error(err, request.RequestContext.RequestID), nil
		}

		return next(auth.WithActor(ctx, actor), request)
	}
}
