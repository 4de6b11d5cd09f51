// internal/api/response.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkoff/habrpipe/internal/apperrors"
)

// APIError 错误响应体
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse 统一响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

func respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, &APIResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case apperrors.ErrorTypeNotFound:
		status, code = http.StatusNotFound, "NOT_FOUND"
	case apperrors.ErrorTypeAlreadyExists:
		status, code = http.StatusConflict, "ALREADY_EXISTS"
	case apperrors.ErrorTypeOutOfOrder:
		status, code = http.StatusConflict, "OUT_OF_ORDER"
	case apperrors.ErrorTypeInvalidStruct:
		status, code = http.StatusUnprocessableEntity, "INVALID_STRUCTURE"
	case apperrors.ErrorTypeUnsupportedFile:
		status, code = http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case apperrors.ErrorTypeGeneration:
		status, code = http.StatusBadGateway, "GENERATION_ERROR"
	}

	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: err.Error()},
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &APIResponse{
		Success:   false,
		Error:     &APIError{Code: "BAD_REQUEST", Message: message},
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	})
}
