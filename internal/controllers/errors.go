package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/middleware"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

// errBadBody marks a payload that is not a single well formed JSON object
var errBadBody = errors.New("invalid request body")

// decodeStrict decodes exactly one JSON value into dst and rejects fields dst
// does not declare.
func decodeStrict(ctx *gin.Context, dst interface{}) error {
	if ctx.Request.Body == nil {
		return errBadBody
	}
	dec := json.NewDecoder(ctx.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	// Trailing data after the object
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadBody)
	}
	return nil
}

// respondError maps service and decode errors to an APIError response
func respondError(ctx *gin.Context, err error) {
	var (
		validation *services.ValidationError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Validation failed",
			map[string]interface{}{"fields": validation.Fields}))
	case errors.As(err, &tooLarge):
		ctx.JSON(http.StatusRequestEntityTooLarge, models.NewAPIError(models.ErrPayloadTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)))
	case errors.Is(err, errBadBody):
		ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Resource not found"))
	case errors.Is(err, services.ErrConflict):
		ctx.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, "Resource already exists"))
	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrInvalidCredentials, "Invalid email or password"))
	case errors.Is(err, services.ErrUnauthorized):
		ctx.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Authentication required"))
	default:
		_ = ctx.Error(err)
		log.WithError(err).WithFields(log.Fields{
			"path":   ctx.Request.URL.Path,
			"method": ctx.Request.Method,
		}).Error("Request failed")
		ctx.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Internal server error"))
	}
}

// mustSession returns the session set by the API gate, answering 401 when it is missing
func mustSession(ctx *gin.Context) (*auth.Session, bool) {
	session := middleware.CurrentSession(ctx)
	if session == nil {
		respondError(ctx, services.ErrUnauthorized)
		return nil, false
	}
	return session, true
}
