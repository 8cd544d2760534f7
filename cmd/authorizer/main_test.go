package main

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/common/utils"
)

func TestAuthorizer_Handle(t *testing.T) {
	secret := "authorizer-secret"
	authorizer := NewAuthorizer(secret, zap.NewNop())
	request := func(header string) events.APIGatewayCustomAuthorizerRequestTypeRequest {
		return events.APIGatewayCustomAuthorizerRequestTypeRequest{
			MethodArn: "arn:aws:execute-api:ap-northeast-1:123:api/prod/POST/",
			Headers:   map[string]string{"Authorization": header},
		}
	}

	t.Run("allows a valid token", func(t *testing.T) {
		// Setup
		token, err := utils.SignJWT(utils.ActorClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "controller-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Role: "controller",
		}, []byte(secret))
		require.NoError(t, err)

		// Act
		resp, err := authorizer.Handle(context.Background(), request("Bearer "+token))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "controller-1", resp.PrincipalID)
		require.Len(t, resp.PolicyDocument.Statement, 1)
		assert.Equal(t, "Allow", resp.PolicyDocument.Statement[0].Effect)
		assert.Equal(t, "controller", resp.Context["role"])
	})

	t.Run("denies a missing token", func(t *testing.T) {
		resp, err := authorizer.Handle(context.Background(), request(""))

		require.NoError(t, err)
		assert.Equal(t, "Deny", resp.PolicyDocument.Statement[0].Effect)
	})

	t.Run("denies a forged token", func(t *testing.T) {
		token, err := utils.SignJWT(utils.ActorClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "intruder",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, []byte("wrong"))
		require.NoError(t, err)

		resp, err := authorizer.Handle(context.Background(), request("Bearer "+token))

		require.NoError(t, err)
		assert.Equal(t, "Deny", resp.PolicyDocument.Statement[0].Effect)
		assert.Equal(t, "anonymous", resp.PrincipalID)
	})
}
