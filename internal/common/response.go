package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse returns an error JSON response.
// err is never echoed to the client; storage details stay in the logs.
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"message": message,
		"error": &ErrorInfo{
			Code:    getErrorCode(status),
			Message: message,
		},
	})
}

// ServiceError renders err with the status resolved from the error taxonomy.
// Internal errors get a generic message.
func ServiceError(c *gin.Context, message string, err error) {
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		message = "서버 오류가 발생했습니다"
	}
	ErrorResponse(c, status, message, err)
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
