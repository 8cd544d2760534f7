package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/hirosato/construction-erp/internal/api/response"
	"github.com/hirosato/construction-erp/internal/domain/errors"
)

type RecoveryMiddleware struct {
	logger *zap.Logger
}

func NewRecoveryMiddleware(logger *zap.Logger) RecoveryMiddleware {
	return RecoveryMiddleware{logger: logger.Named("recovery")}
}

// Handle turns panics and returned errors into enveloped error responses
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		requestID := request.RequestContext.RequestID
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic",
					zap.Any("panic", r),
					zap.String("requestId", requestID),
					zap.ByteString("stack", debug.Stack()))
				resp = response.Error(errors.NewInternalError("An unexpected error occurred", fmt.Errorf("panic: %v", r)), requestID)
				err = nil
			}
		}()

		resp, err = next(ctx, request)
		if err != nil {
			appErr := errors.AsAppError(err)
			m.logger.Error("request failed",
				zap.String("code", appErr.Code),
				zap.String("requestId", requestID),
				zap.Error(err))
			return response.Error(appErr, requestID), nil
		}
		return resp, nil
	}
}
