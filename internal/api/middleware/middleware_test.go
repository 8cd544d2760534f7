package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/common/utils"
	"github.com/hirosato/construction-erp/internal/domain/auth"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

func echoActor(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: auth.ActorFromContext(ctx)}, nil
}

func TestAuthMiddleware(t *testing.T) {
	secret := "test-secret"
	token, err := utils.SignJWT(utils.ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, []byte(secret))
	require.NoError(t, err)

	t.Run("valid bearer token sets the actor", func(t *testing.T) {
		h := NewAuthMiddleware(secret, zap.NewNop()).Handle(echoActor)

		resp, err := h(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: "POST",
			Headers:    map[string]string{"authorization": "Bearer " + token},
		})

		require.NoError(t, err)
		assert.Equal(t, "user-7", resp.Body)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		h := NewAuthMiddleware(secret, zap.NewNop()).Handle(echoActor)

		resp, err := h(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("without a secret the actor header is trusted", func(t *testing.T) {
		h := NewAuthMiddleware("", zap.NewNop()).Handle(echoActor)

		resp, _ := h(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: "POST",
			Headers:    map[string]string{"X-Actor-Id": "alice"},
		})
		fallback, _ := h(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "POST"})

		assert.Equal(t, "alice", resp.Body)
		assert.Equal(t, auth.SystemActor, fallback.Body)
	})

	t.Run("authorizer context wins over headers", func(t *testing.T) {
		h := NewAuthMiddleware(secret, zap.NewNop()).Handle(echoActor)

		resp, err := h(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: "POST",
			RequestContext: events.APIGatewayProxyRequestContext{
				Authorizer: map[string]interface{}{"actorId": "controller-1"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "controller-1", resp.Body)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	m := NewRecoveryMiddleware(zap.NewNop())

	t.Run("panic becomes a 500 envelope", func(t *testing.T) {
		h := m.Handle(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			panic("boom")
		})

		resp, err := h(context.Background(), events.APIGatewayProxyRequest{})

		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("returned app error keeps its status", func(t *testing.T) {
		h := m.Handle(func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			return events.APIGatewayProxyResponse{}, errors.NewAlreadyPostedError("je-1")
		})

		resp, err := h(context.Background(), events.APIGatewayProxyRequest{})

		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var body response.ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
		assert.Equal(t, errors.CodeAlreadyPosted, body.Error)
	})
}

func TestMaskSensitiveHeaders(t *testing.T) {
	headers := map[string]string{"authorization": "Bearer x", "Content-Type": "application/json"}

	masked := MaskSensitiveHeaders(headers)

	assert.Equal(t, "***", masked["authorization"])
	assert.Equal(t, "application/json", masked["Content-Type"])
	assert.Equal(t, "Bearer x", headers["authorization"])
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(APIGatewayHandler) APIGatewayHandler {
		return func(next APIGatewayHandler) APIGatewayHandler {
			return func(ctx context.Context, r events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
				order = append(order, name)
				return next(ctx, r)
			}
		}
	}

	h := Chain(echoActor, mark("outer"), mark("inner"))
	_, err := h(context.Background(), events.APIGatewayProxyRequest{})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
