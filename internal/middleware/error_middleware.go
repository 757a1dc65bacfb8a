package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/models/dto"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
)

// HandleAPIError translates expected error conditions into structured client
// errors. Uniqueness collisions map to 409, the partial-update convention.
// Anything unrecognized becomes a generic 500 with no internals leaked.
func HandleAPIError(c *gin.Context, err error) {
	handleAPIError(c, err, http.StatusConflict)
}

// HandleCreateAPIError is HandleAPIError with the create-path convention:
// the original API reports create collisions as 400, not 409.
func HandleCreateAPIError(c *gin.Context, err error) {
	handleAPIError(c, err, http.StatusBadRequest)
}

func handleAPIError(c *gin.Context, err error, conflictStatus int) {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrCourseNotFound),
		errors.Is(err, apperrors.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error())))

	case errors.Is(err, apperrors.ErrConflict):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error())
		if field := apperrors.FieldOf(err); field != "" {
			detail = detail.WithField(field)
		}
		c.JSON(conflictStatus, dto.NewErrorResponse(detail))

	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		// Deliberately non-specific: never reveal which credential was wrong.
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid username or password")))

	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
