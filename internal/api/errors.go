package api

import (
	"adiestra/events-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleServiceError maps service errors onto HTTP status codes. Every
// rejection carries a stable code and the service's message; unknown errors
// become an opaque 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrTrainerNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrEventAccessDenied),
		errors.Is(err, service.ErrTrainerAccessDenied),
		errors.Is(err, service.ErrClientAccessDenied),
		errors.Is(err, service.ErrUserAccessDenied),
		errors.Is(err, service.ErrNoTrainerHistory):
		abortWithError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrAlreadyEnrolled),
		errors.Is(err, service.ErrHasActiveEvents),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrTrainerExists),
		errors.Is(err, service.ErrClientExists),
		errors.Is(err, service.ErrProfileExists):
		abortWithError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrEventFull),
		errors.Is(err, service.ErrRoleMismatch),
		errors.Is(err, service.ErrScoreOutOfRange),
		errors.Is(err, service.ErrInvalidEventData),
		errors.Is(err, service.ErrResetTokenInvalid):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidRole):
		abortWithError(c, http.StatusBadRequest, err.Error())

	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error.")
	}
}
