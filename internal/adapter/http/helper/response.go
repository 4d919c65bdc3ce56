package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
)

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	response := response.SuccessResponse{
		Data: data,
	}

	if len(message) > 0 && message[0] != "" {
		response.Message = message[0]
	}

	c.JSON(statusCode, response)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	errors := []response.ValidationError{
		{
			Field:   "server",
			Message: message,
		},
	}

	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", errors, details...)
}

func SendServiceUnavailableError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "database",
			Message: message,
		},
	}

	SendError(c, http.StatusServiceUnavailable, "POOL_UNAVAILABLE", errors)
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	errors := []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}

	SendError(c, http.StatusBadRequest, "BAD_REQUEST", errors)
}

// SendDomainError answers with the status matching the error kind and returns it.
func SendDomainError(c *gin.Context, err error) int {
	switch {
	case errors.Is(err, domain.ErrClientInput):
		SendBadRequestError(c, "request", err.Error())
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPool):
		SendServiceUnavailableError(c, "database temporarily unavailable")
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRender):
		SendInternalError(c, "could not render page")
		return http.StatusInternalServerError
	default:
		SendInternalError(c, "could not complete request")
		return http.StatusInternalServerError
	}
}
