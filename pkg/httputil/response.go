package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/meditracker-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Errors that are not AppErrors
// are reported as internal without their message.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := StatusOf(err)
	body := &Error{
		Code:    errors.CodeOf(err).String(),
		Message: "internal server error",
	}
	if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrInternal {
		body.Message = appErr.Message
		body.Field = appErr.Field
	}

	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   body,
	})
}

// BindingError converts a gin binding failure into a validation error
// naming the offending JSON field.
func BindingError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidation(fieldPath(fe.Namespace()), describe(fe))
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return errors.NewValidation(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
	}

	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return errors.NewBadRequest("malformed JSON body", err)
	}

	return errors.NewBadRequest(err.Error(), nil)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "weekday":
		return fmt.Sprintf("invalid day of week %q", fe.Value())
	case "hhmm":
		return fmt.Sprintf("invalid time of day %q, expected HH:mm", fe.Value())
	case "iana_tz":
		return fmt.Sprintf("invalid IANA time zone %q", fe.Value())
	case "dosage_unit":
		return fmt.Sprintf("unrecognized dosage unit %q", fe.Value())
	}
	return "failed " + fe.Tag() + " validation"
}
