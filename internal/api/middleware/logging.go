package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

type LoggingMiddleware struct {
	logger *zap.Logger
}

func NewLoggingMiddleware(logger *zap.Logger) LoggingMiddleware {
	return LoggingMiddleware{logger: logger.Named("http")}
}

func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()

		m.logger.Info("request",
			zap.String("method", request.HTTPMethod),
			zap.String("path", request.Path),
			zap.String("requestId", request.RequestContext.RequestID),
			zap.Any("queryParameters", request.QueryStringParameters),
			zap.Any("headers", MaskSensitiveHeaders(request.Headers)))
		m.logger.Debug("request body", zap.String("body", request.Body))

		response, err := next(ctx, request)

		fields := []zap.Field{
			zap.Int("status", response.StatusCode),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("requestId", request.RequestContext.RequestID),
		}
		if err != nil {
			m.logger.Error("response", append(fields, zap.Error(err))...)
		} else {
			m.logger.Info("response", fields...)
		}
		m.logger.Debug("response body", zap.String("body", response.Body))

		return response, err
	}
}

var sensitiveHeaders = []string{
	"Authorization",
	"X-Api-Key",
	"Cookie",
}

// MaskSensitiveHeaders returns a copy of headers with credentials replaced by ***
func MaskSensitiveHeaders(headers map[string]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		masked[k] = v
	}
	for k := range masked {
		for _, sensitive := range sensitiveHeaders {
			if strings.EqualFold(k, sensitive) {
				masked[k] = "***"
			}
		}
	}
	return masked
}
