package middleware

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

type APIGatewayHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Chain wraps h so that the first middleware runs outermost
func Chain(h APIGatewayHandler, middlewares ...func(APIGatewayHandler) APIGatewayHandler) APIGatewayHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// header looks a header up case-insensitively; API Gateway keeps the client's casing
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
