package response

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/hirosato/construction-erp/internal/domain/errors"
)

// ErrorResponse is the envelope of every failed REST and Lambda reply
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewError converts err into the error envelope and its HTTP status.
// Errors that are not AppErrors are reported as INTERNAL_ERROR without their cause.
func NewError(err error, requestID string) (int, ErrorResponse) {
	appErr := errors.AsAppError(err)
	return appErr.StatusCode, ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: metadata(requestID),
	}
}

// Error creates an API Gateway error response
func Error(err error, requestID string) events.APIGatewayProxyResponse {
	status, body := NewError(err, requestID)
	return JSON(status, body)
}

func NotFound(message string) events.APIGatewayProxyResponse {
	return Error(errors.NewNotFoundError(message), "")
}

func AuthenticationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewAuthenticationError(message), requestID)
}
