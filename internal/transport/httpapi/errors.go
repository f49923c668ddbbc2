package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-errors"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/blogstore"
)

const codeInternal = "INTERNAL_ERROR"

// errorBody is the payload of every non 2xx response.
type errorBody struct {
	Status  string                  `json:"status"`
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Errors  errors.ValidationErrors `json:"errors,omitempty"`
}

// statusFor maps an error category onto an HTTP status.
func statusFor(err error) int {
	var e *errors.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusUnprocessableEntity
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts c with the mapped status. Server errors keep their
// detail in the log only.
func writeError(c *gin.Context, logger zerolog.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Status: "error", Code: codeInternal, Message: "internal server error"}

	var e *errors.Error
	if errors.As(err, &e) && status < http.StatusInternalServerError {
		body.Message = e.Message
		body.Errors = e.ValidationErrors
		if e.TextCode != "" {
			body.Code = e.TextCode
		}
	}

	if status >= http.StatusInternalServerError {
		if blogstore.IsStorageUnavailable(err) {
			body.Code = blogstore.CodeStorageUnavailable
			body.Message = "storage unavailable"
		}
		logger.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.FullPath()).Msg("request failed")
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(message string) error {
	return errors.New(message, errors.CategoryValidation).WithTextCode(blogstore.CodeValidation)
}
