package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is an error translated into a response code and message
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError maps a storage error to a client-safe code and message.
// context names the operation ("product", "cart item") for the message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Internal server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err.Error(), context)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "Referenced record does not exist"}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	// postgres 23505, sqlite UNIQUE
	case strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKeyError(errLower, context)
	// postgres 23503, sqlite FOREIGN KEY
	case strings.Contains(errLower, "foreign key constraint"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "Referenced record does not exist"}
	// postgres 23502, sqlite NOT NULL
	case strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationRequired, Message: "A required field is missing"}
	// postgres 23514, sqlite CHECK
	case strings.Contains(errLower, "check constraint"):
		return parseCheckConstraintError(errLower)
	case strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: InternalExternalAPI, Message: "A backing service is unavailable, try again later"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultErrorMessage(context)}
}

func parseDuplicateKeyError(errLower, context string) ErrorInfo {
	errLower = strings.ToLower(errLower)
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: AuthEmailAlreadyExists, Message: "Email is already in use"}
	case strings.Contains(errLower, "cart"):
		return ErrorInfo{Status: http.StatusConflict, Code: ResourceConflict, Message: "Cart line was changed concurrently, retry"}
	}
	return ErrorInfo{Status: http.StatusConflict, Code: ResourceAlreadyExists, Message: context + " already exists"}
}

func parseCheckConstraintError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "rating") {
		return ErrorInfo{Status: http.StatusBadRequest, Code: ReviewInvalidRating, Message: "Rating must be between 1 and 5"}
	}
	return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "A field value is out of range"}
}

func notFoundMessage(context string) string {
	if context == "" {
		return "Resource not found"
	}
	return strings.ToUpper(context[:1]) + context[1:] + " not found"
}

func defaultErrorMessage(context string) string {
	if context == "" {
		return "Internal server error"
	}
	return "Failed to process " + context
}

// ParseAndRespond translates err and writes the response. Internal errors
// carry details only when they are exposed.
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	if info.Status == http.StatusInternalServerError {
		InternalError(c, info.Message, err)
		return
	}
	RespondWithError(c, info.Status, info.Code, info.Message)
}
