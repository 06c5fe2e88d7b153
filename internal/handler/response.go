package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/unimart-backend/internal/middleware"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeServiceError maps service sentinels to short user-facing messages. Anything
// unexpected is logged and reported as a generic 500.
func writeServiceError(c echo.Context, log logrus.FieldLogger, err error) error {
	var (
		status  int
		code    string
		message string
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "Not found."
	case errors.Is(err, service.ErrChatReadOnly):
		status, code, message = http.StatusConflict, "chat_read_only", "This conversation is closed."
	case errors.Is(err, service.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "invalid_transition", "This order can no longer be changed that way. Refresh and try again."
	case errors.Is(err, service.ErrProductUnavailable):
		status, code, message = http.StatusConflict, "product_unavailable", "This product is no longer available."
	case errors.Is(err, service.ErrInvalidActor):
		status, code, message = http.StatusBadRequest, "invalid_actor", "You cannot order your own product."
	case errors.Is(err, service.ErrValidation):
		status, code, message = http.StatusBadRequest, "validation", err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		status, code, message = http.StatusForbidden, "unauthorized", "You are not allowed to do that."
	case errors.Is(err, service.ErrUnverified):
		status, code, message = http.StatusForbidden, "unverified", "Verify your email before placing orders."
	case errors.Is(err, service.ErrOtpMismatch):
		status, code, message = http.StatusUnprocessableEntity, "otp_mismatch", "Invalid OTP, please try again."
	case errors.Is(err, service.ErrOtpExpired):
		status, code, message = http.StatusGone, "otp_expired", "This code has expired. Generate a new one."
	case errors.Is(err, service.ErrOtpLocked):
		status, code, message = http.StatusTooManyRequests, "otp_locked", "Too many attempts. Generate a new code."
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
		status, code, message = http.StatusInternalServerError, "internal_error", "Something went wrong."
	}
	return c.JSON(status, NewErrorResponse(code, message))
}

func identity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func missingIdentity(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing identity"))
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}
